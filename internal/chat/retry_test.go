package chat

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"rate limit", errors.New("googleapi: rate limit exceeded"), true},
		{"quota", errors.New("quota exceeded for model"), true},
		{"http 429", errors.New("unexpected status 429"), true},
		{"http 503", errors.New("503 service unavailable"), true},
		{"unavailable", errors.New("model temporarily UNAVAILABLE"), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"timeout", errors.New("context deadline exceeded (Client.Timeout)"), true},
		{"invalid argument", errors.New("invalid argument: unknown model"), false},
		{"auth failure", errors.New("API key not valid"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryableError(tt.err))
		})
	}
}

func TestContainsAny(t *testing.T) {
	assert.True(t, containsAny("Rate Limit hit", "rate limit"))
	assert.True(t, containsAny("got 429 back", "quota", "429"))
	assert.False(t, containsAny("all good", "error"))
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.InitialInterval)
	assert.Equal(t, 10*time.Second, cfg.MaxInterval)
}

func TestBackoffDelayDoubling(t *testing.T) {
	cfg := DefaultRetryConfig()

	delay := cfg.InitialInterval
	var seen []time.Duration
	for range 6 {
		seen = append(seen, delay)
		delay = min(delay*2, cfg.MaxInterval)
	}

	assert.Equal(t, []time.Duration{
		500 * time.Millisecond,
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second, // capped
	}, seen, fmt.Sprintf("unexpected backoff sequence: %v", seen))
}
