package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tessera-live/tessera/internal/app"
	"github.com/tessera-live/tessera/internal/clock"
	"github.com/tessera-live/tessera/internal/config"
	"github.com/tessera-live/tessera/internal/domain"
	"github.com/tessera-live/tessera/internal/notify"
	"github.com/tessera-live/tessera/internal/storage/memory"
	"github.com/tessera-live/tessera/internal/storage/postgres"
	transporthttp "github.com/tessera-live/tessera/internal/transport/http"
	"github.com/tessera-live/tessera/migrations"
)

const shutdownTimeout = 10 * time.Second

// ledgerStore is the combined surface both storage drivers implement.
type ledgerStore interface {
	app.LedgerRepository
	app.AdminRepository
	app.PurchaseRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("load config", zap.Error(err))
	}

	logger := newLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, freshLedger, cleanup, err := openStore(startupCtx, cfg)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer cleanup()

	var (
		notifier app.Notifier
		payments app.PaymentChannel
	)
	if cfg.AMQPURL != "" {
		publisher, err := notify.NewPublisher(cfg.AMQPURL, logger)
		if err != nil {
			logger.Fatal("connect to broker", zap.Error(err))
		}
		defer func() { _ = publisher.Close() }()
		notifier = publisher
		payments = publisher
	} else {
		logger.Warn("AMQP_URL not set, notifications disabled and payouts only logged")
		payments = logPayouts{logger: logger}
	}

	var ledgerOpts []app.LedgerServiceOption
	var purchaseOpts []app.PurchaseServiceOption
	if notifier != nil {
		ledgerOpts = append(ledgerOpts, app.WithLedgerNotifier(notifier))
		purchaseOpts = append(purchaseOpts, app.WithPurchaseNotifier(notifier))
	}

	ledgerSvc := app.NewLedgerService(store, ledgerOpts...)
	adminSvc := app.NewAdminService(store, payments, cfg.Owner)
	purchaseSvc := app.NewPurchaseService(store, clock.NewSystem(), cfg.Owner, cfg.UnitPrice, purchaseOpts...)

	// The initial mint is announced exactly once, when a fresh ledger
	// gets seeded.
	if freshLedger && cfg.InitialSupply > 0 && notifier != nil {
		owner := cfg.Owner
		notifier.TransferOccurred(startupCtx, domain.TransferEvent{
			To:    &owner,
			Value: cfg.InitialSupply,
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)

	authed := func(h http.Handler) http.Handler {
		return transporthttp.Auth(cfg.JWTSecret, h)
	}
	mux.Handle("/transfer", authed(transporthttp.HandleTransfer(ledgerSvc)))
	mux.Handle("/approve", authed(transporthttp.HandleApprove(ledgerSvc)))
	mux.Handle("/transfer-from", authed(transporthttp.HandleTransferFrom(ledgerSvc)))
	mux.Handle("/burn", authed(transporthttp.HandleBurn(ledgerSvc)))
	mux.Handle("/purchases", authed(transporthttp.HandlePurchase(purchaseSvc)))
	mux.Handle("/verifiers", authed(transporthttp.HandleAddVerifier(adminSvc)))
	mux.Handle("/treasury/clear", authed(transporthttp.HandleClear(adminSvc)))

	mux.Handle("/balances/", transporthttp.HandleBalance(ledgerSvc))
	mux.Handle("/allowances/", transporthttp.HandleAllowance(ledgerSvc))
	mux.Handle("/supply", transporthttp.HandleSupply(ledgerSvc))
	mux.Handle("/treasury", transporthttp.HandleTreasury(adminSvc))
	mux.Handle("/owner", transporthttp.HandleOwner(adminSvc))
	mux.Handle("/price", transporthttp.HandlePrice(purchaseSvc))
	mux.Handle("/seats", transporthttp.HandleSeats(purchaseSvc))
	mux.Handle("/seats/availability", transporthttp.HandleSeatAvailability(purchaseSvc))
	mux.Handle("/proofs/", transporthttp.HandleProof(purchaseSvc))
	mux.Handle("/verifiers/", transporthttp.HandleVerifierStatus(adminSvc))
	mux.Handle("/", transporthttp.NotFoundHandler())

	handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.CORSOrigins, mux), logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.Info("api listening",
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.StorageDriver),
		zap.Int("seats", len(cfg.Seats)),
	)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		os.Exit(1)
	}
	return logger
}

// openStore builds the configured storage driver and reports whether a
// fresh ledger was seeded.
func openStore(ctx context.Context, cfg config.Config) (ledgerStore, bool, func(), error) {
	switch cfg.StorageDriver {
	case "memory":
		store := memory.New(memory.Seed{
			Owner:         cfg.Owner,
			InitialSupply: cfg.InitialSupply,
			Seats:         cfg.Seats,
		})
		return store, true, func() {}, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, false, nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, false, nil, err
		}
		if err := migrations.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, false, nil, err
		}
		store := postgres.NewStore(pool)
		seeded, err := store.Seed(ctx, postgres.SeedState{
			Owner:         cfg.Owner,
			InitialSupply: cfg.InitialSupply,
			Seats:         cfg.Seats,
		})
		if err != nil {
			pool.Close()
			return nil, false, nil, err
		}
		return store, seeded, pool.Close, nil
	}
	return nil, false, nil, errors.New("unknown storage driver")
}

// logPayouts stands in for a payment channel when no broker is
// configured. Every payout is confirmed after being logged.
type logPayouts struct {
	logger *zap.Logger
}

func (l logPayouts) Payout(_ context.Context, to domain.Account, amount uint64) error {
	l.logger.Info("treasury payout",
		zap.String("to", string(to)),
		zap.Uint64("amount", amount),
	)
	return nil
}
