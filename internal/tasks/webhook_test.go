package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/billing-service/internal/resilience"
)

func TestWebhookReceiptsPostsPayload(t *testing.T) {
	var got OrderConfirmedPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "o1", r.Header.Get("Idempotency-Key"))
		require.Equal(t, "order.confirmed", r.Header.Get("X-Billing-Event"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := WebhookReceipts{HTTP: resilience.HTTPClient{Client: srv.Client()}, URL: srv.URL}
	err := w.SendReceipt(context.Background(), OrderConfirmedPayload{
		OrderID: "o1", UserID: "u1", Items: []string{"p1"}, TotalBill: decimal.RequireFromString("120.5"),
	})
	require.NoError(t, err)
	require.Equal(t, "u1", got.UserID)
	require.True(t, got.TotalBill.Equal(decimal.RequireFromString("120.5")))
}

func TestWebhookReceiptsClientErrorIsFinal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	w := WebhookReceipts{HTTP: resilience.HTTPClient{Client: srv.Client(), MaxAttempts: 3, BaseBackoff: time.Millisecond}, URL: srv.URL}
	err := w.SendReceipt(context.Background(), OrderConfirmedPayload{OrderID: "o1", UserID: "u1"})
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestWebhookReceiptsServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	w := WebhookReceipts{HTTP: resilience.HTTPClient{Client: srv.Client(), MaxAttempts: 2, BaseBackoff: time.Millisecond}, URL: srv.URL}
	err := w.SendReceipt(context.Background(), OrderConfirmedPayload{OrderID: "o1", UserID: "u1"})
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}
