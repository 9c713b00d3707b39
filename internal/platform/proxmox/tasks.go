package proxmox

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

type taskStatus struct {
	Status     string `json:"status"`
	ExitStatus string `json:"exitstatus"`
}

// succeeded reports whether a stopped task finished without error.
// Proxmox marks tasks that only emitted warnings with "WARNINGS: n".
func (s taskStatus) succeeded() bool {
	return s.ExitStatus == "OK" || strings.HasPrefix(s.ExitStatus, "WARNINGS")
}

// upidNode extracts the node name from a task id (UPID:<node>:...).
func upidNode(upid string) (string, error) {
	parts := strings.Split(upid, ":")
	if len(parts) < 3 || parts[0] != "UPID" || parts[1] == "" {
		return "", fmt.Errorf("invalid task id %q", upid)
	}
	return parts[1], nil
}

// WaitForTask polls a task until it stops or the task timeout elapses.
func (c *RealClient) WaitForTask(ctx context.Context, upid string) error {
	node, err := upidNode(upid)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/nodes/%s/tasks/%s/status", url.PathEscape(node), url.PathEscape(upid))

	c.logger.Debug().Str("upid", upid).Msg("Waiting for task")
	err = wait.PollUntilContextTimeout(ctx, c.timeouts.TaskPoll, c.timeouts.Task, true, func(ctx context.Context) (bool, error) {
		var st taskStatus
		if err := c.get(ctx, path, nil, &st); err != nil {
			return false, err
		}
		if st.Status != "stopped" {
			return false, nil
		}
		if !st.succeeded() {
			return false, &TaskError{UPID: upid, Node: node, ExitStatus: st.ExitStatus}
		}
		return true, nil
	})
	return c.waitResult(ctx, err, "task "+upid, "stopped", c.timeouts.Task)
}

// waitResult maps a poll interruption onto a WaitTimeoutError unless the
// caller's context ended first.
func (c *RealClient) waitResult(ctx context.Context, err error, what, target string, timeout time.Duration) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if wait.Interrupted(err) {
		return &WaitTimeoutError{What: what, Target: target, Timeout: timeout}
	}
	return err
}
