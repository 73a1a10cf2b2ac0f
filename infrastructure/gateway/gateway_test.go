package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-sentinel/internal/domain"
)

func TestNew(t *testing.T) {
	t.Run("empty api key", func(t *testing.T) {
		_, err := New(Config{Provider: "openai"})
		assert.ErrorIs(t, err, ErrEmptyAPIKey)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(Config{Provider: "carrier-pigeon", APIKey: "k"})
		assert.ErrorContains(t, err, `unknown provider "carrier-pigeon"`)
	})

	t.Run("openai provider with default model", func(t *testing.T) {
		client, err := New(Config{Provider: "openai", APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, OpenAIDefaultModel, client.Model())
	})

	t.Run("anthropic provider with model override", func(t *testing.T) {
		client, err := New(Config{Provider: "anthropic", APIKey: "k", Model: "claude-3-haiku"})
		require.NoError(t, err)
		assert.Equal(t, "claude-3-haiku", client.Model())
	})

	t.Run("custom middleware chain replaces the default", func(t *testing.T) {
		var wrapped bool
		marker := func(next CoreModel) CoreModel {
			wrapped = true
			return next
		}

		_, err := New(Config{
			Provider:   "openai",
			APIKey:     "k",
			Middleware: []Middleware{marker},
		})
		require.NoError(t, err)
		assert.True(t, wrapped)
	})
}

func TestClientAnalyze(t *testing.T) {
	req := sampleRequest()

	t.Run("parses a clean response", func(t *testing.T) {
		mock := NewMockCoreModel()
		mock.Response = `{"score": 3, "explanation": "perimeter gaps dominate the evidence", "positive_points": ["alarm coverage"], "confidence": 0.8}`

		resp, err := NewClient(mock).Analyze(context.Background(), req)
		require.NoError(t, err)

		assert.InDelta(t, 3.0, resp.Score, 1e-9)
		assert.Equal(t, "perimeter gaps dominate the evidence", resp.Explanation)
		assert.Equal(t, []string{"alarm coverage"}, resp.PositivePoints)
		assert.InDelta(t, 0.8, resp.Confidence, 1e-9)
		assert.Equal(t, 1, mock.CallCount)
		assert.Contains(t, mock.LastPrompt, "Target: Site Nord")
	})

	t.Run("tolerates markdown fences", func(t *testing.T) {
		mock := NewMockCoreModel()
		mock.Response = "```json\n{\"score\": 2, \"explanation\": \"a plausible narrative judgment\", \"confidence\": 0.7}\n```"

		resp, err := NewClient(mock).Analyze(context.Background(), req)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, resp.Score, 1e-9)
	})

	t.Run("no json in output", func(t *testing.T) {
		mock := NewMockCoreModel()
		mock.Response = "I am unable to produce a structured assessment."

		_, err := NewClient(mock).Analyze(context.Background(), req)
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	})

	t.Run("invalid json", func(t *testing.T) {
		mock := NewMockCoreModel()
		mock.Response = `{"score": "not a number", "explanation": "long enough to pass", "confidence": 0.5}`

		_, err := NewClient(mock).Analyze(context.Background(), req)
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	})

	t.Run("contract violation", func(t *testing.T) {
		mock := NewMockCoreModel()
		mock.Response = `{"score": 2, "explanation": "short", "confidence": 0.7}`

		_, err := NewClient(mock).Analyze(context.Background(), req)
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	})

	t.Run("transport failure passes through untouched", func(t *testing.T) {
		mock := NewMockCoreModel()
		mock.Err = errors.New("connection reset")

		_, err := NewClient(mock).Analyze(context.Background(), req)
		assert.ErrorContains(t, err, "connection reset")
		assert.NotErrorIs(t, err, domain.ErrMalformedResponse)
	})
}
