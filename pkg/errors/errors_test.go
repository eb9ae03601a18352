package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, MetadataFor(CodeInvalidTransition).HTTPStatus)
	assert.Equal(t, http.StatusConflict, MetadataFor(CodeAlreadyClaimed).HTTPStatus)
	assert.Equal(t, http.StatusPaymentRequired, MetadataFor(CodePayment).HTTPStatus)
	assert.Equal(t, http.StatusServiceUnavailable, MetadataFor(CodeRemoteUnavailable).HTTPStatus)
	assert.True(t, MetadataFor(CodeRemoteUnavailable).Retryable)
	assert.False(t, MetadataFor(CodeAlreadyClaimed).Retryable)
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeRemoteUnavailable, cause, "write order")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeRemoteUnavailable, err.Code())
	assert.Equal(t, "write order", err.Message())
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeAlreadyClaimed, "claimed")
	wrapped := fmt.Errorf("handling request: %w", inner)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeAlreadyClaimed, typed.Code())

	assert.Nil(t, As(stdErrors.New("plain")))
}

func TestIsCode(t *testing.T) {
	err := New(CodeNotFound, "missing")
	assert.True(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(err, CodeConflict))
	assert.False(t, IsCode(nil, CodeNotFound))
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "bad input").WithDetails(map[string]any{"field": "stars"})
	details, ok := err.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "stars", details["field"])
}
