package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharsharma89566/Edu-Learn/internal/config"
)

func testRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2,
	}
}

func gradeSchema() *Schema {
	return &Schema{
		Name: "test-grade",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"score":    map[string]any{"type": "number", "minimum": 0, "maximum": 10},
				"feedback": map[string]any{"type": "string"},
			},
			"required": []string{"score", "feedback"},
		},
	}
}

func TestValidateJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "valid", raw: `{"score":7.5,"feedback":"ok"}`},
		{name: "missing required", raw: `{"score":7.5}`, wantErr: true},
		{name: "out of range", raw: `{"score":11,"feedback":"ok"}`, wantErr: true},
		{name: "not json", raw: `score: 7`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSON(gradeSchema(), json.RawMessage(tt.raw))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var invalid *InvalidResponseError
			assert.ErrorAs(t, err, &invalid)
		})
	}

	assert.NoError(t, ValidateJSON(nil, json.RawMessage("free text")))
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &UnavailableError{Err: errors.New("down")}},
		MockText("hello"),
	)
	p := WithRetry(mock, testRetryConfig())

	resp, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text())
	assert.Equal(t, 2, mock.CallCount())
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	mock := NewMockProvider()
	p := WithRetry(mock, testRetryConfig())

	_, err := p.Generate(context.Background(), Request{})
	var unavailable *UnavailableError
	assert.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 3, mock.CallCount())
}

func TestRetry_InvalidResponseRetriedOnce(t *testing.T) {
	mock := NewMockProvider(
		MockText(`{"score":42}`),
		MockText(`{"score":42}`),
		MockText(`{"score":5,"feedback":"fine"}`),
	)
	p := WithRetry(mock, testRetryConfig())

	_, err := p.Generate(context.Background(), Request{Schema: gradeSchema()})
	var invalid *InvalidResponseError
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, 2, mock.CallCount())
}

func TestRetry_TruncatedNotRetried(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &TruncatedError{}})
	p := WithRetry(mock, testRetryConfig())

	_, err := p.Generate(context.Background(), Request{})
	assert.Error(t, err)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetry_RespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := NewMockProvider(MockResponse{Err: context.Canceled})
	p := WithRetry(mock, testRetryConfig())

	_, err := p.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.CallCount())
}

func TestAsk(t *testing.T) {
	mock := NewMockProvider(MockText("Photosynthesis converts light to energy."))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := WithInstrumentation(mock, logger)

	reply, err := Ask(context.Background(), p, "You are a tutor.", "What is photosynthesis?", 200)
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis converts light to energy.", reply)

	req, ok := mock.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "You are a tutor.", req.System)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, RoleUser, req.Messages[0].Role)
	assert.Equal(t, 200, req.MaxTokens)
}

func TestNewProvider_None(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	p, err := NewProvider(context.Background(), config.LLMConfig{Provider: "none"}, logger)
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = NewProvider(context.Background(), config.LLMConfig{Provider: "bogus"}, logger)
	assert.Error(t, err)

	_, err = NewProvider(context.Background(), config.LLMConfig{Provider: "openai"}, logger)
	assert.Error(t, err, "missing API key")
}
