// Package tasks moves post-commit side effects onto an asynq queue.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/billing-service/internal/events"
	"github.com/noah-isme/billing-service/internal/obs"
)

// TypeOrderConfirmed is the asynq task type emitted for every committed order.
const TypeOrderConfirmed = "order:confirmed"

// OrderConfirmedPayload is the task body for TypeOrderConfirmed.
type OrderConfirmedPayload struct {
	OrderID   string          `json:"orderId"`
	UserID    string          `json:"userId"`
	Items     []string        `json:"items"`
	TotalBill decimal.Decimal `json:"totalBill"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueNotifier turns order.confirmed events into asynq tasks.
type EnqueueNotifier struct {
	Client    Enqueuer
	Queue     string
	MaxRetry  int
	Retention time.Duration
}

// Notify implements events.Notifier. The event id doubles as the task id so a
// re-emitted event is not queued twice.
func (n EnqueueNotifier) Notify(ctx context.Context, ev events.Event) error {
	if n.Client == nil || ev.Topic != events.TopicOrderConfirmed {
		return nil
	}
	opts := []asynq.Option{asynq.TaskID(ev.ID)}
	if n.Queue != "" {
		opts = append(opts, asynq.Queue(n.Queue))
	}
	if n.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(n.MaxRetry))
	}
	if n.Retention > 0 {
		opts = append(opts, asynq.Retention(n.Retention))
	}
	_, err := n.Client.EnqueueContext(ctx, asynq.NewTask(TypeOrderConfirmed, ev.Payload), opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeOrderConfirmed, err)
	}
	return nil
}

// ReceiptSender delivers a receipt for a confirmed order.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, p OrderConfirmedPayload) error
}

// OrderConfirmedHandler processes TypeOrderConfirmed tasks by writing a
// receipt log line and, when Receipts is set, delivering the receipt.
type OrderConfirmedHandler struct {
	Logger   zerolog.Logger
	Receipts ReceiptSender
}

// ProcessTask implements asynq.Handler.
func (h OrderConfirmedHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p OrderConfirmedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		obs.RecordTaskProcessed(t.Type(), "invalid")
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.OrderID == "" || p.UserID == "" {
		obs.RecordTaskProcessed(t.Type(), "invalid")
		return fmt.Errorf("payload missing order or user id: %w", asynq.SkipRetry)
	}
	h.Logger.Info().
		Str("order_id", p.OrderID).
		Str("user_id", p.UserID).
		Int("items", len(p.Items)).
		Str("total_bill", p.TotalBill.StringFixed(2)).
		Time("created_at", p.CreatedAt).
		Msg("order receipt")
	if h.Receipts != nil {
		if err := h.Receipts.SendReceipt(ctx, p); err != nil {
			obs.RecordTaskProcessed(t.Type(), "error")
			return fmt.Errorf("send receipt for order %s: %w", p.OrderID, err)
		}
	}
	obs.RecordTaskProcessed(t.Type(), "ok")
	return nil
}

// NewMux registers every task handler. receipts may be nil.
func NewMux(logger zerolog.Logger, receipts ReceiptSender) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeOrderConfirmed, OrderConfirmedHandler{Logger: logger, Receipts: receipts})
	return mux
}

// Logger adapts zerolog to asynq.Logger.
type Logger struct {
	L zerolog.Logger
}

func (l Logger) Debug(args ...interface{}) { l.L.Debug().Msg(fmt.Sprint(args...)) }
func (l Logger) Info(args ...interface{})  { l.L.Info().Msg(fmt.Sprint(args...)) }
func (l Logger) Warn(args ...interface{})  { l.L.Warn().Msg(fmt.Sprint(args...)) }
func (l Logger) Error(args ...interface{}) { l.L.Error().Msg(fmt.Sprint(args...)) }
func (l Logger) Fatal(args ...interface{}) { l.L.Fatal().Msg(fmt.Sprint(args...)) }
