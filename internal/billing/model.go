package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// User owns exactly one cart. Version increases on every successful save and
// is used to detect concurrent writers.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Cart      []string  `json:"cart"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Order is the append-only record of a confirmed cart.
type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Items     []string        `json:"items"`
	TotalBill decimal.Decimal `json:"totalBill"`
	CreatedAt time.Time       `json:"createdAt"`
}
