package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/billing-service/internal/billing"
)

func TestToAppErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", billing.UserNotFound("u1"), http.StatusNotFound, CodeNotFound},
		{"missing items", &billing.MissingItemsError{IDs: []string{"a"}}, http.StatusNotFound, CodeNotFound},
		{"validation", fmt.Errorf("bad: %w", billing.ErrValidation), http.StatusBadRequest, CodeValidation},
		{"conflict", fmt.Errorf("stale: %w", billing.ErrConflict), http.StatusConflict, CodeConflict},
		{"storage", errors.New("connection reset"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := ToAppError(tc.err)
			require.Equal(t, tc.status, app.HTTPStatus)
			require.Equal(t, tc.code, app.Code)
			require.ErrorIs(t, app, tc.err)
		})
	}
}

func TestWriteErrorHidesInternalText(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: password authentication failed"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body struct {
		Error ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, CodeInternal, body.Error.Code)
	require.Equal(t, "internal error", body.Error.Message)
}

func TestWriteErrorMissingDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, &billing.MissingItemsError{IDs: []string{"x", "y"}})

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"error":{"code":"NOT_FOUND","message":"`+(&billing.MissingItemsError{IDs: []string{"x", "y"}}).Error()+`","details":{"missing":["x","y"]}}}`, rec.Body.String())
}
