// Package order serves the order history of a user.
package order

import (
	"context"
	"errors"

	"github.com/noah-isme/billing-service/internal/billing"
)

// Service reads confirmed orders.
type Service struct {
	Store billing.Store
}

// ListByUser returns the user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]billing.Order, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("order service not configured")
	}
	if _, err := s.Store.Users().Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.Store.Orders().ListByUser(ctx, userID)
}
