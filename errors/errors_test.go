package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestWithHint(t *testing.T) {
	err := WithHint(New("error"), "check NEO4J_URL")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "check NEO4J_URL", hints[0])
}

func TestSentinels(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"graph unavailable", Wrap(ErrGraphUnavailable, "dial tcp: refused"), IsGraphUnavailable},
		{"malformed storyline", NewMalformedStoryline("expected %d keys, got %d", 3, 2), IsMalformedStoryline},
		{"not found", Wrap(ErrNotFound, "no identifier in answer"), IsNotFound},
		{"transport", MarkTransport(New("connection reset by peer")), IsTransport},
		{"invalid request", NewInvalidRequestError("count must be >= 1, got %d", 0), IsInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.False(t, tt.check(nil))
			assert.False(t, tt.check(New("unrelated")))
		})
	}
}

func TestMarkTransport(t *testing.T) {
	t.Run("keeps message and cause", func(t *testing.T) {
		cause := New("i/o timeout")
		err := MarkTransport(cause)

		assert.Equal(t, "i/o timeout", err.Error())
		assert.True(t, Is(err, cause))
		assert.True(t, IsTransport(err))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, MarkTransport(nil))
	})

	t.Run("survives further wrapping", func(t *testing.T) {
		err := fmt.Errorf("resolve: %w", MarkTransport(New("status 502")))
		assert.True(t, IsTransport(err))
		assert.False(t, IsNotFound(err))
	})
}
