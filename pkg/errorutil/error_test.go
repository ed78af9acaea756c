package errorutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errCamera = errors.New("camera timeout")

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil))

	plain := Wrap(errors.New("boom"))
	assert.False(t, plain.Retryable)
	assert.Equal(t, 500, plain.Code)

	retry := RetriableWithCause("capture failed", errCamera)
	wrapped := fmt.Errorf("run check: %w", retry)
	assert.Same(t, retry, Wrap(wrapped))
	assert.True(t, IsRetryable(wrapped))
	assert.ErrorIs(t, wrapped, errCamera)
	assert.Equal(t, "camera timeout", retry.DevDetails)
}

func TestNonRetriable(t *testing.T) {
	err := NonRetriableWithCause("bad payload", errCamera)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, 400, err.Code)
	assert.False(t, IsRetryable(nil))
	assert.Nil(t, UnWrapResponse(nil))
}
