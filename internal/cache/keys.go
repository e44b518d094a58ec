// Package cache names the Redis keys shared by cached read paths.
package cache

import "github.com/noah-isme/billing-service/internal/billing"

const prefix = "billing:catalog:"

// KeyCatalogList returns the cache key for the listing of one item kind.
func KeyCatalogList(kind billing.Kind) string {
	return prefix + "list:" + string(kind)
}

// KeyItem returns the cache key for a single catalog item.
func KeyItem(id string) string {
	return prefix + "item:" + id
}
