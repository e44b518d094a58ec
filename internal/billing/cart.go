package billing

import (
	"strings"

	"github.com/google/uuid"
)

// WellFormedRef reports whether ref looks like a catalog identifier.
func WellFormedRef(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false
	}
	_, err := uuid.Parse(ref)
	return err == nil
}

// AddToCart appends each well-formed reference to the cart and silently
// skips the rest. It returns the number of references appended.
func (u *User) AddToCart(refs ...string) int {
	added := 0
	for _, ref := range refs {
		if !WellFormedRef(ref) {
			continue
		}
		u.Cart = append(u.Cart, canonicalRef(ref))
		added++
	}
	return added
}

// RemoveFromCart drops every occurrence of id and returns how many were removed.
func (u *User) RemoveFromCart(id string) int {
	if !WellFormedRef(id) {
		return 0
	}
	target := canonicalRef(id)
	kept := make([]string, 0, len(u.Cart))
	removed := 0
	for _, ref := range u.Cart {
		if ref == target {
			removed++
			continue
		}
		kept = append(kept, ref)
	}
	u.Cart = kept
	return removed
}

// ClearCart empties the cart. It reports whether anything was removed.
func (u *User) ClearCart() bool {
	had := len(u.Cart) > 0
	u.Cart = []string{}
	return had
}

func canonicalRef(ref string) string {
	return uuid.MustParse(strings.TrimSpace(ref)).String()
}
