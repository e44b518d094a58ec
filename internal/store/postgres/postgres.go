// Package postgres stores billing state in PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/billing-service/internal/billing"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements billing.Store. A Store returned to an InTx callback is
// bound to that transaction and locks the user rows it reads.
type Store struct {
	pool *pgxpool.Pool
	db   DBTX
	tx   bool
}

// New wraps a connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

// WithTx binds a store to an externally managed transaction.
func WithTx(tx pgx.Tx) *Store {
	return &Store{db: tx, tx: true}
}

func (s *Store) inTx() bool { return s.tx }

// Catalog implements billing.Store.
func (s *Store) Catalog() billing.CatalogStore { return catalogStore{s.db} }

// Users implements billing.Store.
func (s *Store) Users() billing.UserStore { return userStore{db: s.db, lockRows: s.inTx()} }

// Orders implements billing.Store.
func (s *Store) Orders() billing.OrderStore { return orderStore{s.db} }

// InTx implements billing.Store.
func (s *Store) InTx(ctx context.Context, fn func(tx billing.Store) error) error {
	if s.inTx() {
		return fn(s)
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", translate(err))
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(WithTx(tx)); err != nil {
		return translate(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", translate(err))
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("postgres: pool not configured")
	}
	return s.pool.Ping(ctx)
}

const (
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
	sqlstateForeignKeyViolation  = "23503"
	sqlstateUniqueViolation      = "23505"
)

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, billing.ErrNotFound) || errors.Is(err, billing.ErrConflict) || errors.Is(err, billing.ErrValidation) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateSerializationFailure, sqlstateDeadlockDetected, sqlstateUniqueViolation:
			return fmt.Errorf("%s: %w", pgErr.Message, billing.ErrConflict)
		case sqlstateForeignKeyViolation:
			return fmt.Errorf("%s: %w", pgErr.Message, billing.ErrNotFound)
		}
	}
	return err
}

type catalogStore struct{ db DBTX }

const selectItem = `SELECT id::text, kind, name, price::text FROM catalog_items`

func (c catalogStore) Resolve(ctx context.Context, id string) (billing.Item, error) {
	if _, err := uuid.Parse(id); err != nil {
		return billing.Item{}, fmt.Errorf("item %s: %w", id, billing.ErrNotFound)
	}
	it, err := scanItem(c.db.QueryRow(ctx, selectItem+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return billing.Item{}, fmt.Errorf("item %s: %w", id, billing.ErrNotFound)
		}
		return billing.Item{}, translate(err)
	}
	return it, nil
}

func (c catalogStore) ListByKind(ctx context.Context, kind billing.Kind) ([]billing.Item, error) {
	rows, err := c.db.Query(ctx, selectItem+` WHERE kind = $1 ORDER BY name, id`, string(kind))
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	items := []billing.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, translate(rows.Err())
}

func (c catalogStore) Create(ctx context.Context, item billing.Item) (billing.Item, error) {
	if err := item.Validate(); err != nil {
		return billing.Item{}, err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	_, err := c.db.Exec(ctx,
		`INSERT INTO catalog_items (id, kind, name, price) VALUES ($1, $2, $3, $4::numeric)`,
		item.ID, string(item.Kind), item.Name, item.Price.String())
	if err != nil {
		return billing.Item{}, translate(err)
	}
	return item, nil
}

func scanItem(row pgx.Row) (billing.Item, error) {
	var (
		it    billing.Item
		kind  string
		price string
	)
	if err := row.Scan(&it.ID, &kind, &it.Name, &price); err != nil {
		return billing.Item{}, err
	}
	it.Kind = billing.Kind(kind)
	p, err := decimal.NewFromString(price)
	if err != nil {
		return billing.Item{}, fmt.Errorf("decode price of %s: %w", it.ID, err)
	}
	it.Price = p
	return it, nil
}

type userStore struct {
	db       DBTX
	lockRows bool
}

func (u userStore) Get(ctx context.Context, id string) (billing.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return billing.User{}, billing.UserNotFound(id)
	}
	query := `SELECT id::text, name, email, cart, version, created_at, updated_at FROM users WHERE id = $1`
	if u.lockRows {
		query += ` FOR UPDATE`
	}
	var usr billing.User
	err := u.db.QueryRow(ctx, query, id).Scan(&usr.ID, &usr.Name, &usr.Email, &usr.Cart, &usr.Version, &usr.CreatedAt, &usr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return billing.User{}, billing.UserNotFound(id)
		}
		return billing.User{}, translate(err)
	}
	if usr.Cart == nil {
		usr.Cart = []string{}
	}
	return usr, nil
}

func (u userStore) Create(ctx context.Context, user billing.User) (billing.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Cart == nil {
		user.Cart = []string{}
	}
	err := u.db.QueryRow(ctx,
		`INSERT INTO users (id, name, email, cart) VALUES ($1, $2, $3, $4)
		 RETURNING version, created_at, updated_at`,
		user.ID, user.Name, user.Email, user.Cart,
	).Scan(&user.Version, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return billing.User{}, translate(err)
	}
	return user, nil
}

func (u userStore) Save(ctx context.Context, user billing.User) (billing.User, error) {
	if user.Cart == nil {
		user.Cart = []string{}
	}
	var (
		version   int64
		updatedAt time.Time
	)
	err := u.db.QueryRow(ctx,
		`UPDATE users SET name = $2, email = $3, cart = $4, version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $5
		 RETURNING version, updated_at`,
		user.ID, user.Name, user.Email, user.Cart, user.Version,
	).Scan(&version, &updatedAt)
	if err == nil {
		user.Version = version
		user.UpdatedAt = updatedAt
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return billing.User{}, translate(err)
	}
	var exists bool
	if err := u.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, user.ID).Scan(&exists); err != nil {
		return billing.User{}, translate(err)
	}
	if !exists {
		return billing.User{}, billing.UserNotFound(user.ID)
	}
	return billing.User{}, fmt.Errorf("user %s changed concurrently: %w", user.ID, billing.ErrConflict)
}

type orderStore struct{ db DBTX }

func (o orderStore) Create(ctx context.Context, order billing.Order) (billing.Order, error) {
	order.ID = uuid.NewString()
	if order.Items == nil {
		order.Items = []string{}
	}
	err := o.db.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, items, total_bill) VALUES ($1, $2, $3, $4::numeric)
		 RETURNING created_at`,
		order.ID, order.UserID, order.Items, order.TotalBill.String(),
	).Scan(&order.CreatedAt)
	if err != nil {
		return billing.Order{}, translate(err)
	}
	return order, nil
}

func (o orderStore) ListByUser(ctx context.Context, userID string) ([]billing.Order, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []billing.Order{}, nil
	}
	rows, err := o.db.Query(ctx,
		`SELECT id::text, user_id::text, items, total_bill::text, created_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	orders := []billing.Order{}
	for rows.Next() {
		var (
			ord   billing.Order
			total string
		)
		if err := rows.Scan(&ord.ID, &ord.UserID, &ord.Items, &total, &ord.CreatedAt); err != nil {
			return nil, err
		}
		ord.TotalBill, err = decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("decode total of order %s: %w", ord.ID, err)
		}
		orders = append(orders, ord)
	}
	return orders, translate(rows.Err())
}
