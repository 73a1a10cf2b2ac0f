package gateway

import (
	"context"
	"sync"
	"time"
)

// MockCoreModel is a configurable CoreModel for testing the client and
// middleware chain without network access.
type MockCoreModel struct {
	mu sync.Mutex

	// Response configuration.
	Response      string
	Err           error
	ModelName     string
	ResponseDelay time.Duration

	// FailUntilAttempt makes the first N calls fail, then succeed.
	FailUntilAttempt int

	// Tracking.
	CallCount      int
	LastPrompt     string
	CallTimestamps []time.Time
}

// NewMockCoreModel creates a mock with default successful behavior.
func NewMockCoreModel() *MockCoreModel {
	return &MockCoreModel{
		Response:  `{"score": 2, "explanation": "mock assessment response", "confidence": 0.7}`,
		ModelName: "test-model",
	}
}

// Complete implements CoreModel with the configured behavior.
func (m *MockCoreModel) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.LastPrompt = prompt
	m.CallTimestamps = append(m.CallTimestamps, time.Now())

	if m.ResponseDelay > 0 {
		select {
		case <-time.After(m.ResponseDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if m.FailUntilAttempt > 0 && m.CallCount <= m.FailUntilAttempt {
		return "", m.failure()
	}
	if m.Err != nil && m.FailUntilAttempt == 0 {
		return "", m.Err
	}

	return m.Response, nil
}

func (m *MockCoreModel) failure() error {
	if m.Err != nil {
		return m.Err
	}
	return NewProviderError("mock", ErrorTypeServerError, 500, "simulated failure", nil)
}

// Model implements CoreModel.
func (m *MockCoreModel) Model() string { return m.ModelName }
