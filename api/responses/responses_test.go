package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/hometechhq/installr-backend/pkg/errors"
	"github.com/hometechhq/installr-backend/pkg/types"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", pkgerrors.New(pkgerrors.CodeNotFound, "order not found"), http.StatusNotFound, "NOT_FOUND"},
		{"already claimed", pkgerrors.New(pkgerrors.CodeAlreadyClaimed, "gone"), http.StatusConflict, "ALREADY_CLAIMED"},
		{"invalid transition", pkgerrors.New(pkgerrors.CodeInvalidTransition, "bad move"), http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{"payment", pkgerrors.New(pkgerrors.CodePayment, "card declined"), http.StatusPaymentRequired, "PAYMENT_ERROR"},
		{"remote unavailable", pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "primary store down"), http.StatusServiceUnavailable, "REMOTE_UNAVAILABLE"},
		{"untyped", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			envelope := decodeError(t, rec)
			assert.Equal(t, tc.wantCode, envelope.Error.Code)
		})
	}
}

func TestWriteErrorRetryableFlag(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "down"))
	assert.True(t, decodeError(t, rec).Error.Retryable)

	rec = httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeAlreadyClaimed, "gone"))
	assert.False(t, decodeError(t, rec).Error.Retryable)
}

func TestWriteErrorMessagePassthrough(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeInvalidTransition, "cannot start a cancelled order"))
	assert.Equal(t, "cannot start a cancelled order", decodeError(t, rec).Error.Message)

	// Internal messages never leak; the client sees the generic text.
	rec = httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeInternal, "nil pointer in claim path"))
	envelope := decodeError(t, rec)
	assert.NotEqual(t, "nil pointer in claim path", envelope.Error.Message)
}

func TestWriteErrorDetailsGating(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]any{"field": "stars"})
	WriteError(context.Background(), nil, rec, err)
	envelope := decodeError(t, rec)
	require.NotNil(t, envelope.Error.Details)

	// Details on a non-allowed code stay server-side.
	rec = httptest.NewRecorder()
	err = pkgerrors.New(pkgerrors.CodeInternal, "boom").
		WithDetails(map[string]any{"query": "secret"})
	WriteError(context.Background(), nil, rec, err)
	assert.Nil(t, decodeError(t, rec).Error.Details)
}
