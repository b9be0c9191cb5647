package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"

	"github.com/RayZn-Ace/boxplanet/internal/handlers"
	"github.com/RayZn-Ace/boxplanet/internal/notifications"
	"github.com/RayZn-Ace/boxplanet/internal/payments"
	"github.com/RayZn-Ace/boxplanet/internal/platform/config"
	"github.com/RayZn-Ace/boxplanet/internal/platform/dedup"
	"github.com/RayZn-Ace/boxplanet/internal/platform/observability"
	"github.com/RayZn-Ace/boxplanet/internal/platform/requestctx"
	"github.com/RayZn-Ace/boxplanet/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	checkoutService, reconcileDeps := buildServices(logger, cfg)

	dedupStore, closeDedup := buildDedupStore(ctx, logger, cfg)
	defer closeDedup()
	reconcileDeps.Dedup = dedupStore

	reconcileService, err := services.NewReconcileService(reconcileDeps)
	if err != nil {
		logger.Fatal("failed to initialise reconcile service", zap.Error(err))
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithAllowedOrigins(cfg.CORS.AllowedOrigins),
		handlers.WithCheckoutRoutes(handlers.NewCheckoutHandlers(checkoutService).Routes),
		handlers.WithWebhookRoutes(handlers.NewWebhookHandlers(reconcileService).Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("boxplanet api listening", zap.Bool("live", cfg.Live()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// buildServices wires the payment provider and mailer. Missing credentials
// degrade rather than abort: without a provider key the checkout endpoint
// answers with a configuration error and the webhook keeps acknowledging.
func buildServices(logger *zap.Logger, cfg config.Config) (services.CheckoutService, services.ReconcileServiceDeps) {
	reconcileDeps := services.ReconcileServiceDeps{
		FromEmail:   cfg.Resend.FromEmail,
		NotifyEmail: cfg.Resend.NotifyEmail,
		Live:        cfg.Live(),
		Logger:      eventLogger(logger.Named("reconcile")),
	}

	if cfg.Resend.APIKey != "" {
		mailer, err := notifications.NewResendMailer(notifications.ResendMailerConfig{APIKey: cfg.Resend.APIKey})
		if err != nil {
			logger.Warn("mailer not configured; notifications disabled", zap.Error(err))
		} else {
			reconcileDeps.Mailer = mailer
		}
	} else {
		logger.Warn("RESEND_API_KEY unset; notifications disabled")
	}

	provider, err := payments.NewMollieProvider(payments.MollieProviderConfig{
		APIKey: cfg.APIKey(),
		Logger: eventLogger(logger.Named("payments")),
	})
	if err != nil {
		logger.Warn("payment provider not configured; checkout disabled", zap.Error(err))
		reconcileDeps.Payments = disabledProvider{}
		return nil, reconcileDeps
	}
	reconcileDeps.Payments = provider

	checkoutService, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Payments:    provider,
		RedirectURL: cfg.Mollie.RedirectURL,
		WebhookURL:  cfg.Mollie.WebhookURL,
		Logger:      eventLogger(logger.Named("checkout")),
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout service", zap.Error(err))
	}

	return checkoutService, reconcileDeps
}

func buildDedupStore(ctx context.Context, logger *zap.Logger, cfg config.Config) (dedup.Store, func()) {
	project := cfg.Dedup.FirestoreProject
	if project == "" {
		logger.Info("dedup: using in-memory store")
		return dedup.NewMemoryStore(), func() {}
	}

	client, err := firestore.NewClient(ctx, project)
	if err != nil {
		logger.Warn("dedup: firestore unavailable, falling back to memory", zap.Error(err))
		return dedup.NewMemoryStore(), func() {}
	}

	logger.Info("dedup: using firestore store",
		zap.String("project", project),
		zap.String("collection", cfg.Dedup.Collection),
	)
	store := dedup.NewFirestoreStore(client, dedup.WithCollection(cfg.Dedup.Collection))
	return store, func() {
		if err := client.Close(); err != nil {
			logger.Warn("dedup: firestore close error", zap.Error(err))
		}
	}
}

// eventLogger adapts the request-scoped zap logger to the map-based logging
// callback the services and provider accept.
func eventLogger(fallback *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	return func(ctx context.Context, event string, fields map[string]any) {
		logger := requestctx.Logger(ctx)
		if logger == requestctx.NoopLogger() && fallback != nil {
			logger = fallback
		}
		zapFields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zapFields = append(zapFields, zap.Any(key, value))
		}
		logger.Info(event, zapFields...)
	}
}

// disabledProvider stands in when no API key is configured. The webhook path
// must keep acknowledging deliveries, so lookups report not-found instead of
// crashing the pipeline.
type disabledProvider struct{}

func (disabledProvider) CreatePayment(context.Context, payments.PaymentRequest) (payments.Transaction, error) {
	return payments.Transaction{}, errors.New("payments: provider not configured")
}

func (disabledProvider) CreateOrder(context.Context, payments.OrderRequest) (payments.Transaction, error) {
	return payments.Transaction{}, errors.New("payments: provider not configured")
}

func (disabledProvider) GetPayment(context.Context, string) (payments.Transaction, error) {
	return payments.Transaction{}, payments.ErrNotFound
}

func (disabledProvider) GetOrder(context.Context, string) (payments.Transaction, error) {
	return payments.Transaction{}, payments.ErrNotFound
}
