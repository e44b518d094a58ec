package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/billing-service/internal/billing"
	"github.com/noah-isme/billing-service/internal/obs"
)

// defaultAttempts bounds how often a mutation is replayed after losing a
// version race.
const defaultAttempts = 3

// Service encapsulates cart domain operations.
type Service struct {
	Store    billing.Store
	Logger   zerolog.Logger
	Attempts int
}

// AddToCart appends every well-formed reference to the user's cart.
// Malformed references are ignored.
func (s *Service) AddToCart(ctx context.Context, userID string, refs ...string) (billing.User, error) {
	return s.mutate(ctx, "add", userID, func(u *billing.User) bool {
		added := u.AddToCart(refs...)
		if skipped := len(refs) - added; skipped > 0 {
			s.Logger.Debug().Str("user_id", userID).Int("skipped", skipped).Msg("ignored malformed cart references")
		}
		return added > 0
	})
}

// RemoveFromCart drops every occurrence of itemID from the user's cart.
func (s *Service) RemoveFromCart(ctx context.Context, userID, itemID string) (billing.User, error) {
	return s.mutate(ctx, "remove", userID, func(u *billing.User) bool {
		return u.RemoveFromCart(itemID) > 0
	})
}

// ClearCart empties the user's cart. Clearing an empty cart succeeds.
func (s *Service) ClearCart(ctx context.Context, userID string) (billing.User, error) {
	return s.mutate(ctx, "clear", userID, func(u *billing.User) bool {
		return u.ClearCart()
	})
}

// mutate loads the user, applies fn and saves when fn reports a change. A
// version conflict reloads and replays fn.
func (s *Service) mutate(ctx context.Context, op, userID string, fn func(*billing.User) bool) (user billing.User, err error) {
	defer func() { obs.RecordCartMutation(op, obs.Result(err)) }()
	if s == nil || s.Store == nil {
		return billing.User{}, errors.New("cart service not configured")
	}
	attempts := s.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	for i := 0; i < attempts; i++ {
		user, err = s.Store.Users().Get(ctx, userID)
		if err != nil {
			return billing.User{}, err
		}
		if !fn(&user) {
			return user, nil
		}
		user, err = s.Store.Users().Save(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, billing.ErrConflict) {
			return billing.User{}, fmt.Errorf("save cart: %w", err)
		}
		s.Logger.Debug().Str("user_id", userID).Str("op", op).Int("attempt", i+1).Msg("cart version conflict, retrying")
	}
	return billing.User{}, err
}
