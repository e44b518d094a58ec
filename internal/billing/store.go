package billing

import "context"

// CatalogStore reads catalog items.
type CatalogStore interface {
	Resolve(ctx context.Context, id string) (Item, error)
	ListByKind(ctx context.Context, kind Kind) ([]Item, error)
	Create(ctx context.Context, item Item) (Item, error)
}

// UserStore persists users and their carts. Save must fail with ErrConflict
// when the stored version differs from the version being saved.
type UserStore interface {
	Get(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Save(ctx context.Context, user User) (User, error)
}

// OrderStore appends orders. Create assigns the identity.
type OrderStore interface {
	Create(ctx context.Context, order Order) (Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}

// Store groups the collaborators needed by the billing services.
type Store interface {
	Catalog() CatalogStore
	Users() UserStore
	Orders() OrderStore
	// InTx runs fn against stores bound to a single transaction. Any error
	// returned by fn rolls back every write made through tx.
	InTx(ctx context.Context, fn func(tx Store) error) error
}
