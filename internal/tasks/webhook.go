package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/billing-service/internal/events"
	"github.com/noah-isme/billing-service/internal/resilience"
)

// WebhookReceipts posts receipts as JSON to URL. 4xx responses are final;
// everything else is left to the asynq retry policy.
type WebhookReceipts struct {
	HTTP resilience.HTTPClient
	URL  string
}

// SendReceipt implements ReceiptSender.
func (w WebhookReceipts) SendReceipt(ctx context.Context, p OrderConfirmedPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode receipt: %v: %w", err, asynq.SkipRetry)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build receipt request: %v: %w", err, asynq.SkipRetry)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Billing-Event", events.TopicOrderConfirmed)
	req.Header.Set("Idempotency-Key", p.OrderID)

	resp, err := w.HTTP.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("receipt webhook responded %d: %w", resp.StatusCode, asynq.SkipRetry)
	}
	return nil
}
