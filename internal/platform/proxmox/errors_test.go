package proxmox

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/proxcli/internal/util/retry"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"not found error", &NotFoundError{Kind: "vm", Name: "1"}, true},
		{"http 404", &APIError{StatusCode: http.StatusNotFound}, true},
		{"missing config", &APIError{StatusCode: 500, Message: "Configuration file 'nodes/pve1/qemu-server/101.conf' does not exist"}, true},
		{"missing ha resource", &APIError{StatusCode: 500, Message: "no such resource 'vm:101'"}, true},
		{"wrapped", fmt.Errorf("delete: %w", &NotFoundError{Kind: "ha group", Name: "g"}), true},
		{"fatal wrapped", retry.Fatal(&APIError{StatusCode: 404}), true},
		{"other api error", &APIError{StatusCode: 500, Message: "internal error"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestIsResourceLocked(t *testing.T) {
	assert.True(t, isResourceLocked(&APIError{Message: "can't lock file '/var/lock/qemu-server/lock-101.conf' - got timeout"}))
	assert.False(t, isResourceLocked(&APIError{Message: "VM 101 not running"}))
	assert.False(t, isResourceLocked(errors.New("can't lock file")))
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{Method: "PUT", Path: "/nodes/pve1/qemu/101/config", StatusCode: 400, Message: "Parameter verification failed.", Errors: map[string]string{"cores": "invalid"}}
	assert.Equal(t, "PUT /nodes/pve1/qemu/101/config: 400 Parameter verification failed.; cores: invalid", err.Error())
}

func TestUPIDNode(t *testing.T) {
	node, err := upidNode(testUPID)
	require.NoError(t, err)
	assert.Equal(t, "pve1", node)

	_, err = upidNode("not-a-upid")
	assert.Error(t, err)
}

func TestVMConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  VMConfig
		want string
	}{
		{"boot order", VMConfig{"boot": "order=scsi0;ide2;net0"}, "scsi0"},
		{"legacy bootdisk", VMConfig{"bootdisk": "virtio0"}, "virtio0"},
		{"none", VMConfig{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.BootDisk())
		})
	}

	cfg := VMConfig{"tags": "a;b", "cores": float64(2)}
	assert.Equal(t, []string{"a", "b"}, cfg.Tags())
	assert.Equal(t, "2", cfg.String("cores"))
	assert.Equal(t, "", cfg.String("missing"))
}

func TestFlexInt(t *testing.T) {
	var v struct {
		A flexInt `json:"a"`
		B flexInt `json:"b"`
		C flexInt `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 5, "b": "7", "c": null}`), &v))
	assert.Equal(t, flexInt(5), v.A)
	assert.Equal(t, flexInt(7), v.B)
	assert.Equal(t, flexInt(0), v.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a": true}`), &v))
}
