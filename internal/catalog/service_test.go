package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/billing-service/internal/billing"
	"github.com/noah-isme/billing-service/internal/cache"
	"github.com/noah-isme/billing-service/internal/catalog"
	"github.com/noah-isme/billing-service/internal/store/memory"
)

func setup(t *testing.T) (*catalog.Service, *memory.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := memory.New()
	svc := catalog.NewService(catalog.ServiceConfig{
		Store:  store.Catalog(),
		Cache:  catalog.NewCache(client, time.Minute),
		Logger: zerolog.Nop(),
	})
	return svc, store, mr
}

func TestListIsCachedAndInvalidatedOnCreate(t *testing.T) {
	svc, store, mr := setup(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, billing.KindProduct, catalog.CreateInput{Name: "Lamp", Price: decimal.NewFromInt(900)})
	require.NoError(t, err)

	items, err := svc.List(ctx, billing.KindProduct)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, mr.Exists(cache.KeyCatalogList(billing.KindProduct)))

	// Writes that bypass the service are not visible until the entry expires.
	_, err = store.Catalog().Create(ctx, billing.Item{Kind: billing.KindProduct, Name: "Chair", Price: decimal.NewFromInt(50)})
	require.NoError(t, err)
	items, err = svc.List(ctx, billing.KindProduct)
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = svc.Create(ctx, billing.KindProduct, catalog.CreateInput{Name: "Desk", Price: decimal.NewFromInt(3000)})
	require.NoError(t, err)
	items, err = svc.List(ctx, billing.KindProduct)
	require.NoError(t, err)
	require.Len(t, items, 3)
}

func TestGetCachesItem(t *testing.T) {
	svc, store, mr := setup(t)
	ctx := context.Background()
	item, err := svc.Create(ctx, billing.KindService, catalog.CreateInput{Name: "Install", Price: decimal.RequireFromString("8000.5")})
	require.NoError(t, err)

	got, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	require.True(t, got.Price.Equal(item.Price))
	require.True(t, mr.Exists(cache.KeyItem(item.ID)))

	store.Delete(item.ID)
	cached, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, item.Name, cached.Name)

	_, err = svc.Get(ctx, uuid.NewString())
	require.ErrorIs(t, err, billing.ErrNotFound)
	_, err = svc.Get(ctx, "bogus")
	require.ErrorIs(t, err, billing.ErrNotFound)
}

func TestCreateValidates(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.Create(context.Background(), billing.KindProduct, catalog.CreateInput{Name: "", Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, billing.ErrValidation)
	_, err = svc.Create(context.Background(), billing.KindProduct, catalog.CreateInput{Name: "Neg", Price: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, billing.ErrValidation)
}

func TestServiceWithoutRedis(t *testing.T) {
	store := memory.New()
	svc := catalog.NewService(catalog.ServiceConfig{Store: store.Catalog(), Logger: zerolog.Nop()})
	_, err := svc.Create(context.Background(), billing.KindService, catalog.CreateInput{Name: "Audit", Price: decimal.NewFromInt(10)})
	require.NoError(t, err)
	items, err := svc.List(context.Background(), billing.KindService)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestHandlers(t *testing.T) {
	svc, _, _ := setup(t)
	h := catalog.NewHandler(catalog.HandlerConfig{Service: svc})
	r := chi.NewRouter()
	r.Get("/products", h.Products)
	r.Post("/products", h.CreateProduct)
	r.Get("/services", h.Services)
	r.Get("/items/{itemId}", h.Item)

	for _, name := range []string{"A", "B", "C"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name":"`+name+`","price":"10"}`)))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?page=2&limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "3", rec.Header().Get("X-Total-Count"))
	var resp struct {
		Data []billing.Item `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "C", resp.Data[0].Name)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/services", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":[],"pagination":{"page":1,"per_page":50,"total_items":0}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name":"X","price":"-3"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCorruptCacheEntryFallsBackToStore(t *testing.T) {
	svc, _, mr := setup(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, billing.KindService, catalog.CreateInput{Name: "Audit", Price: decimal.NewFromInt(500)})
	require.NoError(t, err)

	require.NoError(t, mr.Set(cache.KeyCatalogList(billing.KindService), "{not json"))
	items, err := svc.List(ctx, billing.KindService)
	require.NoError(t, err)
	require.Len(t, items, 1)

	raw, err := mr.Get(cache.KeyCatalogList(billing.KindService))
	require.NoError(t, err)
	require.Contains(t, raw, "Audit")
}
