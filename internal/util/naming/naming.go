package naming

import (
	"fmt"
	"strconv"
	"strings"
)

// Prefix returns the name prefix shared by all resources of a stack.
func Prefix(stack string) string {
	return stack + "-"
}

// Instance returns the remote VM name of a stack instance.
func Instance(stack, instance string) string {
	return fmt.Sprintf("%s-%s", stack, instance)
}

// HaGroup returns the remote HA group name of a stack group.
func HaGroup(stack, group string) string {
	return fmt.Sprintf("%s-%s", stack, group)
}

// ManagedComment is the description written on the VMs and HA groups a
// stack creates.
func ManagedComment(stack string) string {
	return "managed by proxcli stack " + stack
}

// SequenceMember returns the name of the index-th member of a sequenced instance.
func SequenceMember(instance string, index int) string {
	return fmt.Sprintf("%s-%d", instance, index)
}

// LocalName strips the stack prefix from a remote name.
// ok is false when the name does not belong to the stack.
func LocalName(stack, remote string) (string, bool) {
	prefix := Prefix(stack)
	if !strings.HasPrefix(remote, prefix) || len(remote) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(remote, prefix), true
}

// HaResourceSID returns the HA service id of a VM ("vm:<vmid>").
func HaResourceSID(vmid int) string {
	return "vm:" + strconv.Itoa(vmid)
}

// VMIDFromSID extracts the VM id from an HA service id such as "vm:101"
// or a bare "101".
func VMIDFromSID(sid string) (int, error) {
	raw := sid
	if i := strings.LastIndex(sid, ":"); i >= 0 {
		raw = sid[i+1:]
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid HA service id %q: %w", sid, err)
	}
	return id, nil
}
