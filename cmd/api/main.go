package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/topup-ledger/api"
	"github.com/josh-kwaku/topup-ledger/internal/cache"
	"github.com/josh-kwaku/topup-ledger/internal/config"
	"github.com/josh-kwaku/topup-ledger/internal/gateway"
	"github.com/josh-kwaku/topup-ledger/internal/handler"
	"github.com/josh-kwaku/topup-ledger/internal/ledger"
	"github.com/josh-kwaku/topup-ledger/internal/listing"
	"github.com/josh-kwaku/topup-ledger/internal/logging"
	"github.com/josh-kwaku/topup-ledger/internal/repository"
	"github.com/josh-kwaku/topup-ledger/internal/service"
	"github.com/josh-kwaku/topup-ledger/internal/signature"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init("topup-ledger", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		ConnectAttempts:  cfg.DBConnectAttempts,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	// processed-reference cache is optional; without it the guard reads the
	// ledger directly
	var (
		processed ledger.ProcessedCache
		health    = handler.NewHealthHandler(db, nil)
	)
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		refs := cache.NewProcessedRefs(client, cfg.ProcessedCacheTTL())
		processed = refs
		health = handler.NewHealthHandler(db, refs)
	}

	verifier := signature.NewVerifier(cfg.WebhookSecret)
	if !verifier.Configured() {
		slog.Warn("WEBHOOK_SECRET is not set, every webhook will be refused", "event_class", "incident")
	}
	if cfg.GatewayAccessToken == "" {
		slog.Warn("GATEWAY_ACCESS_TOKEN is not set, payments cannot be resolved", "event_class", "incident")
	}

	accounts := repository.NewAccountRepository(db)
	transactions := repository.NewTransactionRepository(db)
	listings := repository.NewListingRepository(db)

	webhookSvc := service.NewWebhookService(
		verifier,
		gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayAccessToken, cfg.GatewayTimeout()),
		ledger.NewGuard(transactions, processed),
		ledger.NewWriter(db, accounts, transactions),
		listing.NewActivator(listings),
		cfg.LedgerCurrency,
	)
	accountSvc := service.NewAccountService(accounts, transactions)

	router := newRouter(routeDeps{
		webhooks:       handler.NewWebhookHandler(webhookSvc, cfg.WebhookSignatureHeader),
		accounts:       handler.NewAccountHandler(accountSvc),
		health:         health,
		openAPI:        api.OpenAPISpec,
		jwtSecret:      cfg.JWTSecret,
		requestTimeout: cfg.RequestTimeout(),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout() + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", addr, "ledger_currency", cfg.LedgerCurrency)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
