package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UnresolvedPolicy decides what happens to cart references whose catalog
// item has disappeared.
type UnresolvedPolicy string

const (
	// UnresolvedReject fails the operation with a MissingItemsError.
	UnresolvedReject UnresolvedPolicy = "reject"
	// UnresolvedSkip drops the references and reports them to the caller.
	UnresolvedSkip UnresolvedPolicy = "skip"
)

// ParseUnresolvedPolicy maps configuration text to a policy, defaulting to reject.
func ParseUnresolvedPolicy(value string) (UnresolvedPolicy, error) {
	switch UnresolvedPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", UnresolvedReject:
		return UnresolvedReject, nil
	case UnresolvedSkip:
		return UnresolvedSkip, nil
	default:
		return "", fmt.Errorf("unknown unresolved item policy %q", value)
	}
}

// ResolveCart looks up every reference in cart order. Under UnresolvedSkip the
// unknown references are returned in missing; under UnresolvedReject they
// produce a *MissingItemsError.
func ResolveCart(ctx context.Context, catalog CatalogStore, refs []string, policy UnresolvedPolicy) (items []Item, missing []string, err error) {
	items = make([]Item, 0, len(refs))
	seen := make(map[string]Item, len(refs))
	gone := make(map[string]bool)
	for _, ref := range refs {
		if it, ok := seen[ref]; ok {
			items = append(items, it)
			continue
		}
		if gone[ref] {
			missing = append(missing, ref)
			continue
		}
		it, err := catalog.Resolve(ctx, ref)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				gone[ref] = true
				missing = append(missing, ref)
				continue
			}
			return nil, nil, fmt.Errorf("resolve item %s: %w", ref, err)
		}
		seen[ref] = it
		items = append(items, it)
	}
	if len(missing) > 0 && policy != UnresolvedSkip {
		return nil, missing, &MissingItemsError{IDs: missing}
	}
	return items, missing, nil
}

// Refs returns the identifiers of items in order.
func Refs(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
