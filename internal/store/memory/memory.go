// Package memory keeps billing state in process. It backs the test suites and
// STORE_DRIVER=memory deployments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/billing-service/internal/billing"
)

type state struct {
	items  map[string]billing.Item
	users  map[string]billing.User
	orders []billing.Order
}

func (s *state) clone() *state {
	out := &state{
		items:  make(map[string]billing.Item, len(s.items)),
		users:  make(map[string]billing.User, len(s.users)),
		orders: make([]billing.Order, len(s.orders)),
	}
	for k, v := range s.items {
		out.items[k] = v
	}
	for k, v := range s.users {
		out.users[k] = cloneUser(v)
	}
	copy(out.orders, s.orders)
	return out
}

// Store is a mutex guarded billing.Store. Transactions hold the mutex for
// their whole duration and restore a snapshot on failure.
type Store struct {
	mu    *sync.Mutex
	st    **state
	inTx  bool
	Now   func() time.Time
	NewID func() string
}

// New returns an empty store.
func New() *Store {
	st := &state{items: map[string]billing.Item{}, users: map[string]billing.User{}}
	return &Store{mu: &sync.Mutex{}, st: &st}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Store) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// with runs fn under the store mutex unless the caller already holds it
// through InTx.
func (s *Store) with(fn func(st *state) error) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(*s.st)
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Catalog implements billing.Store.
func (s *Store) Catalog() billing.CatalogStore { return catalogStore{s} }

// Users implements billing.Store.
func (s *Store) Users() billing.UserStore { return userStore{s} }

// Orders implements billing.Store.
func (s *Store) Orders() billing.OrderStore { return orderStore{s} }

// InTx implements billing.Store.
func (s *Store) InTx(ctx context.Context, fn func(tx billing.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := (*s.st).clone()
	tx := &Store{mu: s.mu, st: s.st, inTx: true, Now: s.Now, NewID: s.NewID}
	if err := fn(tx); err != nil {
		*s.st = snapshot
		return err
	}
	return nil
}

type catalogStore struct{ s *Store }

func (c catalogStore) Resolve(_ context.Context, id string) (billing.Item, error) {
	var out billing.Item
	err := c.s.with(func(st *state) error {
		it, ok := st.items[id]
		if !ok {
			return fmt.Errorf("item %s: %w", id, billing.ErrNotFound)
		}
		out = it
		return nil
	})
	return out, err
}

func (c catalogStore) ListByKind(_ context.Context, kind billing.Kind) ([]billing.Item, error) {
	var out []billing.Item
	err := c.s.with(func(st *state) error {
		out = make([]billing.Item, 0, len(st.items))
		for _, it := range st.items {
			if it.Kind == kind {
				out = append(out, it)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

func (c catalogStore) Create(_ context.Context, item billing.Item) (billing.Item, error) {
	if err := item.Validate(); err != nil {
		return billing.Item{}, err
	}
	err := c.s.with(func(st *state) error {
		if item.ID == "" {
			item.ID = c.s.newID()
		}
		st.items[item.ID] = item
		return nil
	})
	return item, err
}

// Delete removes a catalog item. Carts keep their dangling references.
func (s *Store) Delete(id string) {
	_ = s.with(func(st *state) error {
		delete(st.items, id)
		return nil
	})
}

type userStore struct{ s *Store }

func (u userStore) Get(_ context.Context, id string) (billing.User, error) {
	var out billing.User
	err := u.s.with(func(st *state) error {
		usr, ok := st.users[id]
		if !ok {
			return billing.UserNotFound(id)
		}
		out = cloneUser(usr)
		return nil
	})
	return out, err
}

func (u userStore) Create(_ context.Context, user billing.User) (billing.User, error) {
	err := u.s.with(func(st *state) error {
		if user.ID == "" {
			user.ID = u.s.newID()
		}
		if _, exists := st.users[user.ID]; exists {
			return fmt.Errorf("user %s already exists: %w", user.ID, billing.ErrConflict)
		}
		now := u.s.now()
		user.Version = 1
		user.CreatedAt = now
		user.UpdatedAt = now
		if user.Cart == nil {
			user.Cart = []string{}
		}
		st.users[user.ID] = cloneUser(user)
		return nil
	})
	return user, err
}

func (u userStore) Save(_ context.Context, user billing.User) (billing.User, error) {
	err := u.s.with(func(st *state) error {
		current, ok := st.users[user.ID]
		if !ok {
			return billing.UserNotFound(user.ID)
		}
		if current.Version != user.Version {
			return fmt.Errorf("user %s changed concurrently: %w", user.ID, billing.ErrConflict)
		}
		user.Version++
		user.CreatedAt = current.CreatedAt
		user.UpdatedAt = u.s.now()
		if user.Cart == nil {
			user.Cart = []string{}
		}
		st.users[user.ID] = cloneUser(user)
		return nil
	})
	if err != nil {
		return billing.User{}, err
	}
	return user, nil
}

type orderStore struct{ s *Store }

func (o orderStore) Create(_ context.Context, order billing.Order) (billing.Order, error) {
	err := o.s.with(func(st *state) error {
		if _, ok := st.users[order.UserID]; !ok {
			return billing.UserNotFound(order.UserID)
		}
		order.ID = o.s.newID()
		if order.CreatedAt.IsZero() {
			order.CreatedAt = o.s.now()
		}
		order.Items = append([]string{}, order.Items...)
		st.orders = append(st.orders, order)
		return nil
	})
	return order, err
}

func (o orderStore) ListByUser(_ context.Context, userID string) ([]billing.Order, error) {
	var out []billing.Order
	err := o.s.with(func(st *state) error {
		out = []billing.Order{}
		for i := len(st.orders) - 1; i >= 0; i-- {
			if st.orders[i].UserID == userID {
				out = append(out, st.orders[i])
			}
		}
		return nil
	})
	return out, err
}

func cloneUser(u billing.User) billing.User {
	if u.Cart != nil {
		u.Cart = append([]string{}, u.Cart...)
	}
	return u
}
