package rm3100

import "context"

// ReadyBehaviorFunc defines the function signature for mock DRDY behavior.
type ReadyBehaviorFunc func(ctx context.Context) (bool, error)

// MockReadyLine is a ReadyLine backed by a behavior function, usable in
// tests without any hardware.
//
// Example usage:
//
//	// always ready
//	line := NewMockReadyLine(func(ctx context.Context) (bool, error) {
//		return true, nil
//	})
//
//	// ready after three polls
//	polls := 0
//	line := NewMockReadyLine(func(ctx context.Context) (bool, error) {
//		polls++
//		return polls >= 3, nil
//	})
type MockReadyLine struct {
	behavior ReadyBehaviorFunc
}

func NewMockReadyLine(behavior ReadyBehaviorFunc) *MockReadyLine {
	return &MockReadyLine{behavior: behavior}
}

func (m *MockReadyLine) Ready(ctx context.Context) (bool, error) {
	return m.behavior(ctx)
}
