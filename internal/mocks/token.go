package mocks

import (
	"time"
)

// MockToken is a completed mqtt.Token carrying a fixed error.
type MockToken struct {
	err error
}

// NewMockToken returns a token that has already completed with err.
func NewMockToken(err error) *MockToken {
	return &MockToken{err: err}
}

func (m *MockToken) Wait() bool { return true }

func (m *MockToken) WaitTimeout(time.Duration) bool { return true }

func (m *MockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (m *MockToken) Error() error { return m.err }
