package app

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/techstore-vn/checkout-api/internal/couponcache"
	"github.com/techstore-vn/checkout-api/internal/domain/cart"
	"github.com/techstore-vn/checkout-api/internal/domain/checkout"
	"github.com/techstore-vn/checkout-api/internal/domain/payment"
	"github.com/techstore-vn/checkout-api/internal/handler"
	"github.com/techstore-vn/checkout-api/internal/storage/postgres"
	redisstore "github.com/techstore-vn/checkout-api/internal/storage/redis"
	"github.com/techstore-vn/checkout-api/internal/upstream"
	"github.com/techstore-vn/checkout-api/pkg/health"
	"github.com/techstore-vn/checkout-api/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// Redis: carts, checkout sessions, payment checkpoints.
	rdb, err := redisstore.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return errors.Wrap(err, "connect redis")
	}
	defer func() { _ = rdb.Close() }()

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("redis", 5*time.Second, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Optional Postgres audit trail.
	var audit checkout.AuditLog
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
		audit = postgres.NewAuditStore(pool)
	} else {
		lg.Info("Audit trail disabled: no database URL configured")
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Coupon code pre-check filter. Optional: a missing snapshot means every
	// code goes to the sales service.
	var filter *couponcache.Filter
	if cfg.CouponFilterPath != "" {
		filter, err = couponcache.LoadFile(cfg.CouponFilterPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return errors.Wrap(err, "load coupon filter")
			}
			lg.Warn("Coupon filter snapshot not found, pre-check disabled",
				zap.String("path", cfg.CouponFilterPath))
			filter = nil
		}
	}

	// Upstream service clients.
	catalogClient := upstream.NewCatalogClient(cfg.Upstream.CatalogURL, cfg.Upstream.Timeout)
	salesClient := upstream.NewSalesClient(cfg.Upstream.SalesURL, cfg.Upstream.Timeout)
	paymentClient := upstream.NewPaymentClient(cfg.Upstream.PaymentURL, cfg.Upstream.Timeout)

	var authClient handler.IdentityResolver
	if cfg.Upstream.AuthURL != "" {
		authClient = upstream.NewAuthClient(cfg.Upstream.AuthURL, cfg.Upstream.Timeout)
	}

	// Stores.
	cartStore := redisstore.NewCartStore(rdb)
	sessionStore := redisstore.NewSessionStore(rdb)
	submitLock := redisstore.NewSubmitLock(rdb)
	checkpointStore := redisstore.NewCheckpointStore(rdb)

	// Domain services.
	cartSvc := cart.NewService(cartStore, catalogClient, salesClient, filter, cfg.TaxRateDecimal())
	dispatcher := checkout.NewDispatcher(salesClient)
	router := payment.NewRouter(paymentClient, checkpointStore, cfg.Payment.FallbackURL)
	workflow := checkout.NewWorkflow(cartSvc, sessionStore, submitLock, dispatcher, router, audit, upstream.UserMessage)

	// HTTP surface.
	h := handler.New(cartSvc, workflow, authClient)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", handler.SessionHeader},
				ExposeHeaders:    []string{handler.SessionHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
