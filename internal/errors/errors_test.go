package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesOnCode(t *testing.T) {
	err := NotFound("transfer %s not found", "abc")
	assert.True(t, stderrors.Is(err, ErrNotFound))
	assert.False(t, stderrors.Is(err, ErrInvalidState))

	wrapped := fmt.Errorf("loading: %w", err)
	assert.True(t, stderrors.Is(wrapped, ErrNotFound))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
}

func TestDomainError_WrapKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := External("payment verifier", cause)

	assert.True(t, stderrors.Is(err, ErrExternalService))
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "payment verifier unavailable: connection refused", err.Error())
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, "", CodeOf(stderrors.New("boom")))
}
