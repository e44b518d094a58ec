package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind identifies which catalog variant an item belongs to.
type Kind string

const (
	// KindProduct marks physical goods.
	KindProduct Kind = "product"
	// KindService marks services.
	KindService Kind = "service"
)

// Valid reports whether k is one of the known variants.
func (k Kind) Valid() bool {
	switch k {
	case KindProduct, KindService:
		return true
	default:
		return false
	}
}

// ParseKind converts user input into a Kind.
func ParseKind(value string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(value)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown item kind %q: %w", value, ErrValidation)
	}
	return k, nil
}

// Item is a purchasable catalog record. Values are treated as immutable for
// the duration of a billing computation.
type Item struct {
	ID    string          `json:"id"`
	Kind  Kind            `json:"kind"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Validate checks the catalog invariants of an item.
func (i Item) Validate() error {
	if !i.Kind.Valid() {
		return fmt.Errorf("unknown item kind %q: %w", i.Kind, ErrValidation)
	}
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("item name is required: %w", ErrValidation)
	}
	if i.Price.IsNegative() {
		return fmt.Errorf("item price must not be negative: %w", ErrValidation)
	}
	return nil
}
