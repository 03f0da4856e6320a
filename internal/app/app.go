package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/print-order/internal/domain/auth"
	"github.com/xenking/print-order/internal/domain/order"
	"github.com/xenking/print-order/internal/domain/session"
	"github.com/xenking/print-order/internal/handler"
	"github.com/xenking/print-order/internal/ordersapi"
	"github.com/xenking/print-order/internal/storage/memory"
	"github.com/xenking/print-order/internal/storage/postgres"
	"github.com/xenking/print-order/pkg/health"
	"github.com/xenking/print-order/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
	)

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))

	var repo session.Repository
	switch cfg.Storage {
	case StorageMemory:
		lg.Warn("Using in-memory session storage, sessions are lost on restart")
		repo = memory.NewSessionRepository()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
		repo = postgres.NewSessionRepository(pool)
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Orders API client acting with the caller's bearer token.
	orders, err := ordersapi.New(ordersapi.Options{
		BaseURL:        cfg.OrdersAPI.BaseURL,
		Timeout:        cfg.OrdersAPI.Timeout,
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	}, auth.FromContext{})
	if err != nil {
		return errors.Wrap(err, "create orders api client")
	}

	sessions, err := session.NewService(repo, orders,
		session.Config{TTL: cfg.Session.TTL},
		m.TracerProvider(), m.MeterProvider(),
	)
	if err != nil {
		return errors.Wrap(err, "create session service")
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// Submission waits on the orders API.
		WriteTimeout:   cfg.OrdersAPI.Timeout + 10*time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Addr:           cfg.Addr,
		Handler:        routes(ctx, cfg, m, healthSvc, sessions, orders),
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Session.PurgeInterval > 0 {
		g.Go(func() error {
			purgeLoop(gctx, sessions, cfg.Session.PurgeInterval)
			return nil
		})
	}

	// Graceful shutdown: wait for cancellation or a server failure, drain, then stop.
	g.Go(func() error {
		<-gctx.Done()
		healthSvc.SetReady(false)
		if ctx.Err() != nil {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})

	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}

// routes builds the HTTP handler: health probes, API routes and the
// middleware chain.
func routes(
	ctx context.Context,
	cfg *Config,
	m httpmiddleware.Telemetry,
	healthSvc *health.Health,
	sessions handler.Sessions,
	orders order.Lister,
) http.Handler {
	hasher := auth.NewHasher([]byte(cfg.CredentialPepper))

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	handler.New(sessions, orders).Register(mux, handler.Authenticate(hasher))

	return httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization", httpmiddleware.RequestIDHeader},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
			KeyFunc: httpmiddleware.BearerOrIP(func(token string) string {
				return hasher.Hash(auth.Credential(token))
			}),
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.Instrument("print-order", m),
		httpmiddleware.Gzip(cfg.Gzip.Level),
		httpmiddleware.LogRequests(),
	)
}

// purgeLoop deletes expired wizard sessions every interval until ctx is done.
func purgeLoop(ctx context.Context, sessions *session.Service, interval time.Duration) {
	lg := zctx.From(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.Purge(ctx)
			if err != nil {
				lg.Error("Purge expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				lg.Info("Purged expired sessions", zap.Int64("count", n))
			}
		}
	}
}
