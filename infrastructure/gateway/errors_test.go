package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderError(t *testing.T) {
	t.Run("message includes provider and status", func(t *testing.T) {
		err := NewProviderError("openai", ErrorTypeRateLimit, 429, "slow down", nil)
		assert.Contains(t, err.Error(), "openai")
		assert.Contains(t, err.Error(), "429")
		assert.Contains(t, err.Error(), "slow down")
	})

	t.Run("unwraps the cause", func(t *testing.T) {
		cause := errors.New("tcp reset")
		err := NewProviderError("anthropic", ErrorTypeNetwork, 0, "network failure", cause)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("retryability by type", func(t *testing.T) {
		tests := []struct {
			errType   ErrorType
			retryable bool
		}{
			{ErrorTypeRateLimit, true},
			{ErrorTypeServerError, true},
			{ErrorTypeNetwork, true},
			{ErrorTypeTimeout, true},
			{ErrorTypeAuthentication, false},
			{ErrorTypeBadRequest, false},
			{ErrorTypeNotFound, false},
			{ErrorTypeUnknown, false},
		}
		for _, tt := range tests {
			err := NewProviderError("p", tt.errType, 0, "m", nil)
			assert.Equal(t, tt.retryable, err.IsRetryable(), "type %v", tt.errType)
		}
	})
}

func TestClassifyHTTPError(t *testing.T) {
	classifier := &ErrorClassifier{Provider: "openai"}

	tests := []struct {
		status int
		want   ErrorType
	}{
		{401, ErrorTypeAuthentication},
		{403, ErrorTypeAuthentication},
		{429, ErrorTypeRateLimit},
		{400, ErrorTypeBadRequest},
		{404, ErrorTypeNotFound},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{418, ErrorTypeBadRequest},
		{599, ErrorTypeServerError},
		{0, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		err := classifier.ClassifyHTTPError(tt.status, "message", nil)
		require.NotNil(t, err)
		assert.Equal(t, tt.want, err.Type, "status %d", tt.status)
		assert.Equal(t, tt.status, err.StatusCode)
		assert.Equal(t, "openai", err.Provider)
	}
}

func TestClassifyContextError(t *testing.T) {
	classifier := &ErrorClassifier{Provider: "anthropic"}

	deadline := classifier.ClassifyContextError(context.DeadlineExceeded)
	assert.Equal(t, ErrorTypeTimeout, deadline.Type)
	assert.True(t, deadline.IsRetryable())

	canceled := classifier.ClassifyContextError(context.Canceled)
	assert.Equal(t, ErrorTypeNetwork, canceled.Type)

	other := classifier.ClassifyContextError(errors.New("mystery"))
	assert.Equal(t, ErrorTypeUnknown, other.Type)
}
