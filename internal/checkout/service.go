package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/billing-service/internal/billing"
	"github.com/noah-isme/billing-service/internal/events"
	"github.com/noah-isme/billing-service/internal/lock"
	"github.com/noah-isme/billing-service/internal/obs"
	"github.com/noah-isme/billing-service/internal/tasks"
)

// Locker serialises work on a key. lock.Locker satisfies it.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Emitter publishes committed domain events. *events.Bus satisfies it.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// Confirmation is the result of a successful order confirmation.
type Confirmation struct {
	Order billing.Order `json:"order"`
	User  billing.User  `json:"user"`
}

// Service computes bills and turns carts into orders.
type Service struct {
	Store   billing.Store
	Locker  Locker
	LockTTL time.Duration
	Events  Emitter
	Policy  billing.UnresolvedPolicy
	Logger  zerolog.Logger
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) lockTTL() time.Duration {
	if s.LockTTL <= 0 {
		return 10 * time.Second
	}
	return s.LockTTL
}

// Bill resolves the user's cart and prices it with tax.
func (s *Service) Bill(ctx context.Context, userID string) (bill billing.Bill, err error) {
	defer func() { obs.RecordBillComputed(obs.Result(err)) }()
	if s == nil || s.Store == nil {
		return billing.Bill{}, errors.New("checkout service not configured")
	}
	user, err := s.Store.Users().Get(ctx, userID)
	if err != nil {
		return billing.Bill{}, err
	}
	items, err := s.resolve(ctx, s.Store, user)
	if err != nil {
		return billing.Bill{}, err
	}
	return billing.ComputeBill(items), nil
}

// ConfirmOrder snapshots the cart into an order and empties the cart in one
// transaction. The order total excludes tax. An empty cart confirms to a
// zero-total order.
func (s *Service) ConfirmOrder(ctx context.Context, userID string) (Confirmation, error) {
	if s == nil || s.Store == nil {
		return Confirmation{}, errors.New("checkout service not configured")
	}
	ctx, span := otel.Tracer("billing.checkout").Start(ctx, "checkout.ConfirmOrder")
	defer span.End()
	span.SetAttributes(attribute.String("billing.user_id", userID))

	var out Confirmation
	confirm := func(ctx context.Context) error {
		var err error
		out, err = s.confirm(ctx, userID)
		return err
	}
	var err error
	if s.Locker != nil {
		err = s.Locker.WithLock(ctx, "confirm:"+userID, s.lockTTL(), confirm)
		if errors.Is(err, lock.ErrNotAcquired) {
			err = fmt.Errorf("confirmation already in progress for user %s: %w", userID, billing.ErrConflict)
		}
	} else {
		err = confirm(ctx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "confirm order")
		obs.RecordOrderConfirmed(resultLabel(err), 0)
		return Confirmation{}, err
	}
	total, _ := out.Order.TotalBill.Float64()
	obs.RecordOrderConfirmed("ok", total)
	span.SetAttributes(attribute.String("billing.order_id", out.Order.ID), attribute.Int("billing.items", len(out.Order.Items)))
	s.emit(ctx, out.Order)
	return out, nil
}

func (s *Service) confirm(ctx context.Context, userID string) (Confirmation, error) {
	var out Confirmation
	err := s.Store.InTx(ctx, func(tx billing.Store) error {
		user, err := tx.Users().Get(ctx, userID)
		if err != nil {
			return err
		}
		items, err := s.resolve(ctx, tx, user)
		if err != nil {
			return err
		}
		order, err := tx.Orders().Create(ctx, billing.Order{
			UserID:    user.ID,
			Items:     billing.Refs(items),
			TotalBill: billing.OrderTotal(items),
			CreatedAt: s.now(),
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		user.ClearCart()
		saved, err := tx.Users().Save(ctx, user)
		if err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		out = Confirmation{Order: order, User: saved}
		return nil
	})
	return out, err
}

func (s *Service) resolve(ctx context.Context, store billing.Store, user billing.User) ([]billing.Item, error) {
	items, missing, err := billing.ResolveCart(ctx, store.Catalog(), user.Cart, s.Policy)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		s.Logger.Warn().Str("user_id", user.ID).Strs("missing", missing).Msg("skipped unresolved cart references")
	}
	return items, nil
}

func (s *Service) emit(ctx context.Context, order billing.Order) {
	if s.Events == nil {
		return
	}
	payload := tasks.OrderConfirmedPayload{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Items:     order.Items,
		TotalBill: order.TotalBill,
		CreatedAt: order.CreatedAt,
	}
	if _, err := s.Events.Emit(ctx, events.TopicOrderConfirmed, order.ID, payload); err != nil {
		s.Logger.Error().Err(err).Str("order_id", order.ID).Msg("emit order.confirmed")
	}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, billing.ErrConflict):
		return "conflict"
	case errors.Is(err, billing.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
