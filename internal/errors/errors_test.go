package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"codeberg.org/mutker/perfscope/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessageFallsBackToCode(t *testing.T) {
	err := errors.New().New(errors.ErrTimeout)
	assert.Equal(t, "Operation timed out", err.Error())

	err = errors.New().New(errors.ErrorCode("custom_code"))
	assert.Equal(t, "custom_code", err.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := errors.New().Wrap(errors.ErrInternal, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal error occurred: boom", err.Error())
}

func TestSentinelMatchesByCode(t *testing.T) {
	sentinel := errors.New().New(errors.ErrResourceExhausted)
	wrapped := fmt.Errorf("startup: %w", errors.New().WithData(errors.ErrResourceExhausted, "7000-7010"))

	assert.ErrorIs(t, wrapped, sentinel)
	assert.NotErrorIs(t, wrapped, errors.New().New(errors.ErrTimeout))
}

func TestHasCodeWalksChain(t *testing.T) {
	inner := errors.New().New(errors.ErrInvalidLogLevel)
	outer := errors.New().Wrap(errors.ErrInvalidConfig, inner)

	assert.True(t, errors.HasCode(outer, errors.ErrInvalidConfig))
	assert.True(t, errors.HasCode(outer, errors.ErrInvalidLogLevel))
	assert.False(t, errors.HasCode(outer, errors.ErrTimeout))
	assert.False(t, errors.HasCode(stderrors.New("plain"), errors.ErrTimeout))
}

func TestWithMessageOverridesText(t *testing.T) {
	err := errors.New().WithMessage(errors.ErrInvalidAddr, "not an IPv4 address")
	assert.Equal(t, "not an IPv4 address", err.Error())
	assert.Equal(t, errors.ErrInvalidAddr, err.Code())
}
