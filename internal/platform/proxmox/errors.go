package proxmox

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrNoReachableHost is returned when none of the configured hosts answers.
var ErrNoReachableHost = errors.New("no reachable proxmox host")

// APIError is a non-2xx response from the Proxmox API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	// Errors holds per-parameter validation messages.
	Errors map[string]string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
	for param, reason := range e.Errors {
		msg += fmt.Sprintf("; %s: %s", param, reason)
	}
	return msg
}

// NotFoundError reports a missing VM, group or resource.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Name)
}

// TaskError reports a Proxmox task that stopped with a non-OK exit status.
type TaskError struct {
	UPID       string
	Node       string
	ExitStatus string
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s on %s failed: %s", e.UPID, e.Node, e.ExitStatus)
}

// WaitTimeoutError reports that a VM did not reach a status or a task did
// not stop before the deadline.
type WaitTimeoutError struct {
	What    string
	Target  string
	Timeout time.Duration
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s to reach %s", e.Timeout, e.What, e.Target)
}

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == http.StatusNotFound {
		return true
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "does not exist") || strings.Contains(msg, "no such")
}

// IsTimeout checks if an error is a wait timeout.
func IsTimeout(err error) bool {
	var te *WaitTimeoutError
	return errors.As(err, &te)
}

// isResourceLocked checks if an error indicates a VM config lock conflict.
// Proxmox reports these while another task holds the lock; they are retryable.
func isResourceLocked(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "can't lock file") || strings.Contains(msg, "got timeout")
}
