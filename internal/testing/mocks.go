package testing

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/imamik/proxcli/internal/config"
	"github.com/imamik/proxcli/internal/stack"
)

// MockStateStore is a testify mock of the reconciler's state store.
type MockStateStore struct {
	mock.Mock
}

// LoadState returns the mocked state.
func (m *MockStateStore) LoadState(ctx context.Context, stackName string) (*config.Stack, error) {
	args := m.Called(ctx, stackName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*config.Stack), args.Error(1)
}

// WriteState records the written state.
func (m *MockStateStore) WriteState(ctx context.Context, stackName string, state *config.Stack) error {
	args := m.Called(ctx, stackName, state)
	return args.Error(0)
}

// DeleteState records the deletion.
func (m *MockStateStore) DeleteState(ctx context.Context, stackName string) error {
	args := m.Called(ctx, stackName)
	return args.Error(0)
}

// WritePlan records the written plan.
func (m *MockStateStore) WritePlan(ctx context.Context, stackName string, plan *stack.Plan) error {
	args := m.Called(ctx, stackName, plan)
	return args.Error(0)
}

// LoadPlan returns the mocked plan.
func (m *MockStateStore) LoadPlan(ctx context.Context, stackName string) (*stack.Plan, bool, error) {
	args := m.Called(ctx, stackName)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*stack.Plan), args.Bool(1), args.Error(2)
}

// DeletePlan records the deletion.
func (m *MockStateStore) DeletePlan(ctx context.Context, stackName string) error {
	args := m.Called(ctx, stackName)
	return args.Error(0)
}

// NewMockStateStore creates a store holding the given state and plan.
// Writes and deletes succeed.
func NewMockStateStore(state *config.Stack, plan *stack.Plan) *MockStateStore {
	m := &MockStateStore{}
	m.On("LoadState", mock.Anything, mock.Anything).Return(state, nil).Maybe()
	if plan != nil {
		m.On("LoadPlan", mock.Anything, mock.Anything).Return(plan, true, nil).Maybe()
	} else {
		m.On("LoadPlan", mock.Anything, mock.Anything).Return(nil, false, nil).Maybe()
	}
	m.On("WriteState", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("DeleteState", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("WritePlan", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("DeletePlan", mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}
