package orchestration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/imamik/proxcli/internal/config"
	"github.com/imamik/proxcli/internal/metrics"
	"github.com/imamik/proxcli/internal/platform/proxmox"
	"github.com/imamik/proxcli/internal/stack"
)

// StateStore persists the applied state and the pending plan of stacks.
type StateStore interface {
	LoadState(ctx context.Context, stackName string) (*config.Stack, error)
	WriteState(ctx context.Context, stackName string, state *config.Stack) error
	DeleteState(ctx context.Context, stackName string) error
	WritePlan(ctx context.Context, stackName string, plan *stack.Plan) error
	LoadPlan(ctx context.Context, stackName string) (*stack.Plan, bool, error)
	DeletePlan(ctx context.Context, stackName string) error
}

// Reconciler plans, applies and destroys stacks.
type Reconciler struct {
	client   proxmox.ClusterClient
	store    StateStore
	logger   zerolog.Logger
	metrics  *metrics.Recorder
	timeouts *config.Timeouts
	readFile func(string) ([]byte, error)
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = l
	}
}

// WithMetrics records entity outcomes and run durations.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// WithTimeouts sets the retry budget used while waiting for clones to appear.
func WithTimeouts(t *config.Timeouts) Option {
	return func(r *Reconciler) {
		r.timeouts = t
	}
}

// WithFileReader replaces os.ReadFile for reading SSH public keys.
func WithFileReader(fn func(string) ([]byte, error)) Option {
	return func(r *Reconciler) {
		r.readFile = fn
	}
}

// NewReconciler creates a Reconciler. The client is the only path to the
// remote cluster; nothing is shared between reconcilers.
func NewReconciler(client proxmox.ClusterClient, store StateStore, opts ...Option) *Reconciler {
	r := &Reconciler{
		client:   client,
		store:    store,
		logger:   zerolog.Nop(),
		timeouts: config.LoadTimeouts(),
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Plan diffs the applied state of stackName against desired and stores
// the result. An empty plan is not stored and removes any pending plan.
func (r *Reconciler) Plan(ctx context.Context, stackName string, desired *config.Stack) (*stack.Plan, error) {
	old, err := r.store.LoadState(ctx, stackName)
	if err != nil {
		return nil, err
	}

	plan := stack.Diff(old, desired)
	plan.DesiredDigest = stack.Digest(desired)
	if plan.IsEmpty() {
		if err := r.store.DeletePlan(ctx, stackName); err != nil {
			return nil, err
		}
		return plan, nil
	}

	if err := r.store.WritePlan(ctx, stackName, plan); err != nil {
		return nil, err
	}
	c := plan.Counts()
	r.logger.Debug().
		Str("stack", stackName).
		Int("add", c.Add).Int("change", c.Change).Int("destroy", c.Destroy).
		Msg("Plan stored")
	return plan, nil
}

// sshKey reads and normalizes the public key at path. A leading "~/" is
// expanded to the home directory.
func (r *Reconciler) sshKey(path string) (string, error) {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, rest)
	}
	data, err := r.readFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read ssh key: %w", err)
	}
	key, err := config.ParseSSHPublicKey(data)
	if err != nil {
		return "", fmt.Errorf("invalid ssh public key %s: %w", path, err)
	}
	return key, nil
}
