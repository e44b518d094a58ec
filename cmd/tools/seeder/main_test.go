package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/billing-service/internal/billing"
	"github.com/noah-isme/billing-service/internal/store/memory"
)

func TestSeedCatalogIsRepeatable(t *testing.T) {
	store := memory.New().Catalog()
	ctx := context.Background()

	n, err := seedCatalog(ctx, store)
	require.NoError(t, err)
	require.Equal(t, len(catalog), n)

	n, err = seedCatalog(ctx, store)
	require.NoError(t, err)
	require.Zero(t, n)

	services, err := store.ListByKind(ctx, billing.KindService)
	require.NoError(t, err)
	require.Len(t, services, 4)
}
