package config

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/imamik/proxcli/internal/util/naming"
)

// Expand returns a copy of cfg where every instance with ipsequence set is
// replaced, at its position, by count members named <instance>-<i> with
// consecutive addresses. Members carry count 1 and no ipsequence flag, so
// expanding an expanded config is a no-op. Other instances and all HA
// groups are copied unchanged.
func Expand(cfg *StackConfig) (*StackConfig, error) {
	out := &StackConfig{}
	for name, s := range cfg.Stacks.All() {
		expanded, err := ExpandStack(name, s)
		if err != nil {
			return nil, err
		}
		out.Stacks.Set(name, expanded)
	}
	return out, nil
}

// ExpandStack expands the instance sequences of a single stack.
func ExpandStack(stackName string, s *Stack) (*Stack, error) {
	out := NewStack()
	if s == nil {
		return out, nil
	}
	for name, g := range s.HaGroups.All() {
		out.HaGroups.Set(name, g.DeepCopy())
	}

	for name, inst := range s.Instances.All() {
		if !inst.IPSequence {
			if out.Instances.Has(name) {
				return nil, &FormatError{Stack: stackName, Instance: name, Field: "name", Reason: "collides with a sequence member"}
			}
			out.Instances.Set(name, inst.DeepCopy())
			continue
		}

		members, err := expandSequence(stackName, name, inst)
		if err != nil {
			return nil, err
		}
		for i, member := range members {
			memberName := naming.SequenceMember(name, i)
			if out.Instances.Has(memberName) {
				return nil, &FormatError{Stack: stackName, Instance: name, Field: "name", Reason: fmt.Sprintf("member %q collides with another instance", memberName)}
			}
			out.Instances.Set(memberName, member)
		}
	}
	return out, nil
}

func expandSequence(stackName, name string, inst InstanceSpec) ([]InstanceSpec, error) {
	if inst.Count < 1 {
		return nil, &FormatError{Stack: stackName, Instance: name, Field: "count", Reason: fmt.Sprintf("must be >= 1 for ipsequence, got %d", inst.Count)}
	}

	seq, err := parseIPConfig(inst.IPConfig)
	if err != nil {
		return nil, &FormatError{Stack: stackName, Instance: name, Field: "ipconfig", Reason: err.Error()}
	}

	members := make([]InstanceSpec, 0, inst.Count)
	addr := seq.base
	for i := range inst.Count {
		if i > 0 {
			addr = addr.Next()
		}
		if !addr.IsValid() || addr.Is4() != seq.base.Is4() {
			return nil, &FormatError{Stack: stackName, Instance: name, Field: "ipconfig", Reason: fmt.Sprintf("address space exhausted at member %d", i)}
		}

		member := inst.DeepCopy()
		member.IPConfig = seq.format(addr)
		member.IPSequence = false
		member.Count = 1
		members = append(members, member)
	}
	return members, nil
}

// ipSequence is a parsed ipconfig value: ip=A/P,gw=G or ip6=A,gw6=G.
type ipSequence struct {
	v6      bool
	base    netip.Addr
	bits    int
	gateway string
}

func (s ipSequence) format(addr netip.Addr) string {
	if s.v6 {
		return fmt.Sprintf("ip6=%s,gw6=%s", addr, s.gateway)
	}
	return fmt.Sprintf("ip=%s/%d,gw=%s", addr, s.bits, s.gateway)
}

func parseIPConfig(value string) (ipSequence, error) {
	segments := strings.Split(value, ",")
	if len(segments) != 2 {
		return ipSequence{}, fmt.Errorf("%q: expected two comma separated key=value segments", value)
	}

	addrKey, addrVal, ok := cutPair(segments[0])
	if !ok {
		return ipSequence{}, fmt.Errorf("%q: address segment is not key=value", value)
	}
	gwKey, gwVal, ok := cutPair(segments[1])
	if !ok {
		return ipSequence{}, fmt.Errorf("%q: gateway segment is not key=value", value)
	}

	switch addrKey {
	case "ip6":
		if gwKey != "gw6" {
			return ipSequence{}, fmt.Errorf("%q: ip6 requires gw6, got %s", value, gwKey)
		}
		if strings.Contains(addrVal, "/") {
			return ipSequence{}, fmt.Errorf("%q: ip6 sequences take a bare address", value)
		}
		addr, err := netip.ParseAddr(addrVal)
		if err != nil || !addr.Is6() {
			return ipSequence{}, fmt.Errorf("%q: invalid IPv6 address %q", value, addrVal)
		}
		return ipSequence{v6: true, base: addr, gateway: gwVal}, nil

	case "ip":
		if gwKey != "gw" {
			return ipSequence{}, fmt.Errorf("%q: ip requires gw, got %s", value, gwKey)
		}
		prefix, err := netip.ParsePrefix(addrVal)
		if err != nil || !prefix.Addr().Is4() {
			return ipSequence{}, fmt.Errorf("%q: expected IPv4 address with prefix length, got %q", value, addrVal)
		}
		return ipSequence{base: prefix.Addr(), bits: prefix.Bits(), gateway: gwVal}, nil

	default:
		return ipSequence{}, fmt.Errorf("%q: unknown address key %q", value, addrKey)
	}
}

func cutPair(segment string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(segment, "=")
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	return key, value, ok && key != "" && value != ""
}
