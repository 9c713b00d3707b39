package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	TaskPoll          time.Duration // Interval between task status polls
	Task              time.Duration // Deadline for a single Proxmox task
	StatusPoll        time.Duration // Interval between VM status polls
	Status            time.Duration // Deadline for a VM to reach a status
	HTTP              time.Duration // Per-request HTTP timeout
	RetryMaxAttempts  int           // Maximum number of retry attempts
	RetryInitialDelay time.Duration // Initial delay between retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - PROXCLI_TASK_POLL_INTERVAL (default: 1s)
//   - PROXCLI_TASK_TIMEOUT (default: 5m)
//   - PROXCLI_STATUS_POLL_INTERVAL (default: 500ms)
//   - PROXCLI_STATUS_TIMEOUT (default: 5m)
//   - PROXCLI_HTTP_TIMEOUT (default: 30s)
//   - PROXCLI_RETRY_MAX_ATTEMPTS (default: 5)
//   - PROXCLI_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		TaskPoll:          parseDuration("PROXCLI_TASK_POLL_INTERVAL", 1*time.Second),
		Task:              parseDuration("PROXCLI_TASK_TIMEOUT", 5*time.Minute),
		StatusPoll:        parseDuration("PROXCLI_STATUS_POLL_INTERVAL", 500*time.Millisecond),
		Status:            parseDuration("PROXCLI_STATUS_TIMEOUT", 5*time.Minute),
		HTTP:              parseDuration("PROXCLI_HTTP_TIMEOUT", 30*time.Second),
		RetryMaxAttempts:  parseInt("PROXCLI_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("PROXCLI_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// TestTimeouts returns short timeouts suitable for unit tests.
func TestTimeouts() *Timeouts {
	return &Timeouts{
		TaskPoll:          time.Millisecond,
		Task:              time.Second,
		StatusPoll:        time.Millisecond,
		Status:            time.Second,
		HTTP:              5 * time.Second,
		RetryMaxAttempts:  2,
		RetryInitialDelay: time.Millisecond,
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return defaultVal
	}

	return i
}
