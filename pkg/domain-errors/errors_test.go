package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches the code on a new error", func(t *testing.T) {
		err := New(CodeConflict, "version mismatch")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches codes anywhere in the chain", func(t *testing.T) {
		inner := New(CodeConflict, "version mismatch")
		outer := Wrap(inner, CodeInternal, "save entry")
		assert.True(t, HasCode(outer, CodeInternal))
		assert.True(t, HasCode(outer, CodeConflict))
	})

	t.Run("sees through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("submit day: %w", New(CodeForbidden, "actor is not the member"))
		assert.True(t, HasCode(err, CodeForbidden))
	})

	t.Run("false for nil and plain errors", func(t *testing.T) {
		assert.False(t, HasCode(nil, CodeInternal))
		assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil in, nil out", func(t *testing.T) {
		require.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("preserves the cause for errors.Is", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeInternal, "load stream")
		assert.True(t, errors.Is(err, cause))
		assert.Contains(t, err.Error(), "load stream")
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "no entries")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))

	outer := Wrap(New(CodeConflict, "inner"), CodeBadRequest, "outer")
	assert.Equal(t, CodeBadRequest, CodeOf(outer), "outermost code wins")
}
