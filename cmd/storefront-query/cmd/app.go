package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/donaldgifford/storefront-query/api/openapi"
	"github.com/donaldgifford/storefront-query/internal/api/handlers"
	"github.com/donaldgifford/storefront-query/internal/api/middleware"
	"github.com/donaldgifford/storefront-query/internal/catalog"
	"github.com/donaldgifford/storefront-query/internal/config"
	"github.com/donaldgifford/storefront-query/internal/oauth1"
	"github.com/donaldgifford/storefront-query/internal/paging"
	"github.com/donaldgifford/storefront-query/internal/provision"
	"github.com/donaldgifford/storefront-query/internal/refresh"
	"github.com/donaldgifford/storefront-query/internal/session"
	"github.com/donaldgifford/storefront-query/internal/store"
	"github.com/donaldgifford/storefront-query/internal/token"
	"github.com/donaldgifford/storefront-query/internal/visualsearch"
	domain "github.com/donaldgifford/storefront-query/pkg/types"
)

// app is the wired server: every component is built once here and
// injected, nothing is process-global.
type app struct {
	echo      *echo.Echo
	kv        store.Store
	session   *session.Manager
	tokens    *token.Store
	scheduler *refresh.Scheduler
	listings  *handlers.ListingsHandler
	log       *slog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	kv, err := openStore(ctx, &cfg.Storage)
	if err != nil {
		return nil, err
	}

	a, err := wire(cfg, kv, log)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	return a, nil
}

func openStore(ctx context.Context, cfg *config.StorageConfig) (store.Store, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "postgres":
		pg, err := store.NewPostgresStore(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("migrating postgres store: %w", err)
		}
		return pg, nil
	default:
		b, err := store.NewBoltStore(cfg.Bolt.Path)
		if err != nil {
			return nil, fmt.Errorf("opening bolt store: %w", err)
		}
		return b, nil
	}
}

func wire(cfg *config.Config, kv store.Store, log *slog.Logger) (*app, error) {
	tokens := token.NewStore(token.WithPersister(session.NewTokenPersister(kv), func(err error) {
		log.Warn("persisting bearer token", "error", err)
	}))

	limiter := catalog.NewRateLimiter(
		cfg.Primary.RateLimit.PerSecond,
		cfg.Primary.RateLimit.Burst,
		cfg.Primary.RateLimit.DailyLimit,
	)

	// primary.base_url serves the store directory; store-scoped calls go
	// through the router to the selected store's own primary URL.
	primary, err := catalog.NewClient(cfg.Primary.BaseURL, oauth1.Credentials{
		ConsumerKey:    cfg.Primary.ConsumerKey,
		ConsumerSecret: cfg.Primary.ConsumerSecret,
		Token:          cfg.Primary.AccessToken,
		TokenSecret:    cfg.Primary.TokenSecret,
	},
		catalog.WithTimeout(cfg.Primary.Timeout),
		catalog.WithRateLimiter(limiter),
		catalog.WithLogger(log.With("component", "catalog")),
	)
	if err != nil {
		return nil, fmt.Errorf("creating catalog client: %w", err)
	}

	sess := session.NewManager(kv, primary, tokens, session.WithLogger(log.With("component", "session")))
	router := catalog.NewRouter(primary, sess, catalog.WithRouterLogger(log.With("component", "catalog")))

	prov, err := provision.New(sess, tokens,
		provision.WithDefaultBaseURL(cfg.VisualSearch.DefaultBaseURL),
		provision.WithClientOptions(
			visualsearch.WithTimeout(cfg.VisualSearch.Timeout),
			visualsearch.WithFallbackToken(sess.VisualSearchToken),
			visualsearch.WithLogger(log.With("component", "visualsearch")),
		),
		provision.WithLogger(log.With("component", "provision")),
	)
	if err != nil {
		return nil, fmt.Errorf("creating visual search provisioner: %w", err)
	}
	sess.OnSwitch(func(domain.StoreConfig) {
		prov.Invalidate()
		router.Invalidate()
	})

	refresher := refresh.NewRefresher(tokens, refresh.ProvisionedEndpoint(prov), sess,
		refresh.WithLogger(log.With("component", "refresh")),
	)
	scheduler, err := refresh.NewScheduler(refresher, cfg.VisualSearch.RefreshInterval, log.With("component", "scheduler"))
	if err != nil {
		return nil, fmt.Errorf("creating refresh scheduler: %w", err)
	}

	resolver, err := cfg.Filters.Resolver()
	if err != nil {
		return nil, fmt.Errorf("building filter resolver: %w", err)
	}
	coord := paging.NewCoordinator(router, func() visualsearch.Searcher { return prov.Client() },
		paging.WithResolver(resolver),
		paging.WithLogger(log.With("component", "paging")),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Metrics())
	e.Use(middleware.Recovery(log))

	health := handlers.NewHealthHandler(kv)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	humaCfg := huma.DefaultConfig("storefront-query API", Version)
	humaCfg.DocsPath = ""
	api := humaecho.New(e, humaCfg)

	listings := handlers.NewListingsHandler(coord, sess, refresher, cfg.Paging.MaxPages, log.With("component", "listings"))

	handlers.RegisterStoreRoutes(api, handlers.NewStoresHandler(sess, router))
	handlers.RegisterSessionRoutes(api, handlers.NewSessionHandler(sess, tokens, prov))
	handlers.RegisterListingRoutes(api, listings)
	handlers.RegisterTokenRoutes(api, handlers.NewTokenHandler(refresher, tokens))
	handlers.RegisterQuotaRoutes(api, handlers.NewQuotaHandler(limiter))
	openapi.RegisterRoutes(e, api)

	return &app{
		echo:      e,
		kv:        kv,
		session:   sess,
		tokens:    tokens,
		scheduler: scheduler,
		listings:  listings,
		log:       log,
	}, nil
}

// start restores the persisted session and starts the refresh scheduler.
// A failed restore leaves no store selected.
func (a *app) start(ctx context.Context) {
	if err := a.session.Restore(ctx); err != nil {
		a.log.Warn("restoring session", "error", err)
	}
	a.scheduler.Start()
}

// shutdown stops the HTTP server, waits for background work and closes the
// store.
func (a *app) shutdown(ctx context.Context) error {
	var errs []error
	if err := a.echo.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutting down server: %w", err))
	}

	select {
	case <-a.scheduler.Stop().Done():
	case <-ctx.Done():
		errs = append(errs, errors.New("timed out waiting for scheduled refresh"))
	}

	done := make(chan struct{})
	go func() {
		a.listings.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, errors.New("timed out waiting for background refresh"))
	}

	if err := a.kv.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	return errors.Join(errs...)
}
