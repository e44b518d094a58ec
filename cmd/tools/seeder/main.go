package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/billing-service/internal/app"
	"github.com/noah-isme/billing-service/internal/billing"
	"github.com/noah-isme/billing-service/internal/config"
	"github.com/noah-isme/billing-service/internal/obs"
)

type seedItem struct {
	Kind  billing.Kind
	Name  string
	Price string
}

var catalog = []seedItem{
	{billing.KindProduct, "Mechanical Keyboard", "850"},
	{billing.KindProduct, "USB-C Hub", "300"},
	{billing.KindProduct, "27\" Monitor", "4200"},
	{billing.KindProduct, "Laptop Stand", "120"},
	{billing.KindProduct, "Workstation", "6500"},
	{billing.KindService, "Screen Calibration", "250"},
	{billing.KindService, "Data Recovery", "1500"},
	{billing.KindService, "On-site Setup", "2400"},
	{billing.KindService, "Extended Warranty", "900"},
}

var users = []struct {
	Name  string
	Email string
}{
	{"Demo Customer", "demo@billing.local"},
	{"Budi Santoso", "budi@example.com"},
	{"Siti Aminah", "siti@example.com"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger("console", cfg.LogLevel).With().Str("component", "seeder").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	backend, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open store")
	}
	defer backend.Close()

	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn().Msg("memory driver selected; seeded data is discarded on exit")
	}

	created, err := seedCatalog(ctx, backend.Store.Catalog())
	if err != nil {
		logger.Error().Err(err).Msg("seed catalog")
		os.Exit(1)
	}
	logger.Info().Int("created", created).Msg("catalog seeded")

	for _, u := range users {
		id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+u.Email)).String()
		_, err := backend.Store.Users().Get(ctx, id)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, billing.ErrNotFound):
			logger.Error().Err(err).Str("email", u.Email).Msg("lookup user")
			os.Exit(1)
		}
		if _, err := backend.Store.Users().Create(ctx, billing.User{ID: id, Name: u.Name, Email: u.Email}); err != nil {
			logger.Error().Err(err).Str("email", u.Email).Msg("create user")
			os.Exit(1)
		}
		logger.Info().Str("user_id", id).Str("email", u.Email).Msg("user seeded")
	}
	logger.Info().Msg("seeding completed")
}

// seedCatalog inserts catalog entries whose name is not present yet.
func seedCatalog(ctx context.Context, store billing.CatalogStore) (int, error) {
	existing := map[string]bool{}
	for _, kind := range []billing.Kind{billing.KindProduct, billing.KindService} {
		items, err := store.ListByKind(ctx, kind)
		if err != nil {
			return 0, err
		}
		for _, it := range items {
			existing[string(kind)+"/"+it.Name] = true
		}
	}
	created := 0
	for _, s := range catalog {
		if existing[string(s.Kind)+"/"+s.Name] {
			continue
		}
		if _, err := store.Create(ctx, billing.Item{Kind: s.Kind, Name: s.Name, Price: decimal.RequireFromString(s.Price)}); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
