package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/imamik/proxcli/internal/config"
	"github.com/imamik/proxcli/internal/stack"
)

const (
	stateSuffix = ".state"
	planSuffix  = ".plan"
)

// Store reads and writes the plan and state artifacts of stacks.
type Store struct {
	backend Backend
	logger  zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New returns a Store over backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// LoadState returns the last applied state of stackName. A stack that was
// never applied has an empty state.
func (s *Store) LoadState(ctx context.Context, stackName string) (*config.Stack, error) {
	data, err := s.backend.Read(ctx, stackName+stateSuffix)
	if errors.Is(err, ErrNotExist) {
		s.logger.Debug().Str("stack", stackName).Msg("No applied state, starting empty")
		return config.NewStack(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state of stack %s: %w", stackName, err)
	}

	state := config.NewStack()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("state of stack %s is corrupt: %w", stackName, err)
	}
	return state, nil
}

// WriteState replaces the applied state of stackName.
func (s *Store) WriteState(ctx context.Context, stackName string, state *config.Stack) error {
	if state == nil {
		state = config.NewStack()
	}
	return s.write(ctx, stackName+stateSuffix, state)
}

// DeleteState removes the applied state of stackName.
func (s *Store) DeleteState(ctx context.Context, stackName string) error {
	if err := s.backend.Delete(ctx, stackName+stateSuffix); err != nil {
		return fmt.Errorf("failed to delete state of stack %s: %w", stackName, err)
	}
	return nil
}

// WritePlan replaces the pending plan of stackName.
func (s *Store) WritePlan(ctx context.Context, stackName string, plan *stack.Plan) error {
	if plan == nil {
		plan = stack.NewPlan()
	}
	return s.write(ctx, stackName+planSuffix, plan)
}

// LoadPlan returns the pending plan of stackName and whether one exists.
func (s *Store) LoadPlan(ctx context.Context, stackName string) (*stack.Plan, bool, error) {
	data, err := s.backend.Read(ctx, stackName+planSuffix)
	if errors.Is(err, ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read plan of stack %s: %w", stackName, err)
	}

	plan := stack.NewPlan()
	if err := json.Unmarshal(data, plan); err != nil {
		return nil, false, fmt.Errorf("plan of stack %s is corrupt: %w", stackName, err)
	}
	return plan, true, nil
}

// DeletePlan removes the pending plan of stackName.
func (s *Store) DeletePlan(ctx context.Context, stackName string) error {
	if err := s.backend.Delete(ctx, stackName+planSuffix); err != nil {
		return fmt.Errorf("failed to delete plan of stack %s: %w", stackName, err)
	}
	return nil
}

// StackInfo summarizes the artifacts stored for one stack.
type StackInfo struct {
	Name     string `json:"name"`
	HasState bool   `json:"has_state"`
	HasPlan  bool   `json:"has_plan"`
}

// ListStacks returns every stack with a stored state or plan, by name.
func (s *Store) ListStacks(ctx context.Context) ([]StackInfo, error) {
	keys, err := s.backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stacks: %w", err)
	}

	var out []StackInfo
	index := map[string]int{}
	for _, key := range keys {
		name, isState := strings.CutSuffix(key, stateSuffix)
		isPlan := false
		if !isState {
			name, isPlan = strings.CutSuffix(key, planSuffix)
		}
		if (!isState && !isPlan) || name == "" {
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, StackInfo{Name: name})
		}
		out[i].HasState = out[i].HasState || isState
		out[i].HasPlan = out[i].HasPlan || isPlan
	}
	return out, nil
}

func (s *Store) write(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	data = append(data, '\n')
	if err := s.backend.Write(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("Stored")
	return nil
}
