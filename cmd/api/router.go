package main

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/billing-service/internal/app"
	"github.com/noah-isme/billing-service/internal/cart"
	"github.com/noah-isme/billing-service/internal/catalog"
	"github.com/noah-isme/billing-service/internal/checkout"
	"github.com/noah-isme/billing-service/internal/common"
	"github.com/noah-isme/billing-service/internal/config"
	"github.com/noah-isme/billing-service/internal/events"
	"github.com/noah-isme/billing-service/internal/health"
	"github.com/noah-isme/billing-service/internal/lock"
	"github.com/noah-isme/billing-service/internal/obs"
	"github.com/noah-isme/billing-service/internal/order"
	"github.com/noah-isme/billing-service/internal/ratelimit"
	"github.com/noah-isme/billing-service/internal/security"
	"github.com/noah-isme/billing-service/internal/tasks"
	"github.com/noah-isme/billing-service/internal/user"
)

type routerConfig struct {
	Config         *config.Config
	Logger         zerolog.Logger
	Deps           *app.Dependencies
	Metrics        *obs.HTTPMetrics
	Tracing        bool
	Pprof          bool
	HealthTimeouts [2]time.Duration
}

func newRouter(rc routerConfig) (chi.Router, error) {
	cfg, logger, deps := rc.Config, rc.Logger, rc.Deps
	store := deps.Backend.Store

	bus := &events.Bus{Notifiers: []events.Notifier{
		events.NotifierFunc(func(_ context.Context, ev events.Event) error {
			logger.Info().Str("topic", ev.Topic).Str("aggregate_id", ev.AggregateID).Str("event_id", ev.ID).Msg("domain event")
			return nil
		}),
	}}
	if deps.TaskClient != nil {
		bus.Notifiers = append(bus.Notifiers, tasks.EnqueueNotifier{
			Client:   deps.TaskClient,
			Queue:    cfg.TaskQueue,
			MaxRetry: cfg.TaskMaxRetry,
		})
	}

	checkoutSvc := &checkout.Service{
		Store:   store,
		LockTTL: cfg.ConfirmLockTTL,
		Events:  bus,
		Policy:  cfg.UnresolvedItems,
		Logger:  logger.With().Str("component", "checkout").Logger(),
	}
	if deps.Redis != nil {
		checkoutSvc.Locker = lock.Locker{R: deps.Redis, Prefix: "billing:", Wait: cfg.ConfirmLockWait}
	}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc}
	cartHandler := &cart.Handler{Svc: &cart.Service{Store: store, Logger: logger.With().Str("component", "cart").Logger()}}
	userHandler := &user.Handler{Svc: &user.Service{Store: store}}
	orderHandler := &order.Handler{Svc: &order.Service{Store: store}}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalog.NewService(catalog.ServiceConfig{
		Store:  store.Catalog(),
		Cache:  catalog.NewCache(deps.Redis, cfg.CatalogCacheTTL),
		Logger: logger.With().Str("component", "catalog").Logger(),
	})})

	limiter, err := ratelimit.New(cfg.RateLimit, deps.Redis, "billing:ratelimit")
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	writeLimit := ratelimit.Handler{
		Limiter: limiter,
		Key:     ratelimit.ByUserOrClientIP,
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}.Middleware
	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if rc.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if rc.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: rc.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", common.IdempotencyHeader, "X-Request-ID"},
		ExposedHeaders: []string{"X-Total-Count", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production", NoStore: true}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.HTTPBodyLimitBytes}.Middleware)

	if rc.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
	if rc.Pprof {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", ""), envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")))
	}

	healthHandler := health.Handler{
		Checker:      health.Probes{Store: deps.Backend.Pinger, Redis: deps.Redis},
		StoreTimeout: rc.HealthTimeouts[0],
		RedisTimeout: rc.HealthTimeouts[1],
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/products", catalogHandler.Products)
		v.Get("/services", catalogHandler.Services)
		v.Get("/items/{itemId}", catalogHandler.Item)
		v.With(writeLimit).Post("/products", catalogHandler.CreateProduct)
		v.With(writeLimit).Post("/services", catalogHandler.CreateService)

		v.With(writeLimit).Post("/users", userHandler.Create)
		v.Route("/users/{userId}", func(u chi.Router) {
			u.Use(withUserID)
			u.Get("/", userHandler.Get)
			u.Get("/bill", checkoutHandler.Bill)
			u.Get("/orders", orderHandler.List)
			u.Group(func(w chi.Router) {
				w.Use(writeLimit)
				w.Route("/cart", cartHandler.Routes)
				w.With(idem.Middleware).Post("/confirm-order", checkoutHandler.ConfirmOrder)
			})
		})
	})
	return r, nil
}

// withUserID records the path user on the request context so rate limits
// are counted per user.
func withUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chi.URLParam(r, "userId"); id != "" {
			r = r.WithContext(common.WithUserID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
