package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fortuna/ledger-engine/internal/balance"
	"github.com/fortuna/ledger-engine/internal/config"
	"github.com/fortuna/ledger-engine/internal/repository/postgres"
	"github.com/fortuna/ledger-engine/internal/retry"
	"github.com/fortuna/ledger-engine/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// main wires the ledger engine's dependencies and blocks until it is asked
// to shut down. There is no HTTP server here: the engine is a library
// surface over the database, embedded by whatever edge process needs it.
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	log.Info().Msg("connected to database")

	transactionRepo := postgres.NewTransactionRepository(pool)
	ownerRepo := postgres.NewOwnerRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	groupRepo := postgres.NewGroupRepository(pool)

	retryPolicy := retry.Policy{
		MaxAttempts:    cfg.RetryMaxAttempts,
		BaseDelay:      cfg.RetryBaseDelay,
		CommandTimeout: cfg.CommandTimeout,
	}

	// There is no HTTP surface to mount these on (out of scope); this
	// binary proves the wiring is sound by driving one real read through
	// each service before settling into its readiness-probe role.
	ledgerService := service.NewLedgerService(transactionRepo, ownerRepo, categoryRepo, groupRepo).WithRetryPolicy(retryPolicy)
	balanceService := balance.NewService(ownerRepo, transactionRepo)

	if count, err := ledgerService.CountByOwner(ctx, 1); err != nil {
		log.Warn().Err(err).Msg("startup smoke read: CountByOwner failed")
	} else {
		log.Info().Int64("count", count).Msg("startup smoke read: CountByOwner")
	}

	if bal, err := balanceService.GetBalance(ctx, 1); err != nil {
		log.Warn().Err(err).Msg("startup smoke read: GetBalance failed")
	} else {
		log.Info().Str("current_balance", bal.CurrentBalance.String()).Msg("startup smoke read: GetBalance")
	}

	log.Info().Msg("ledger engine ready")
	<-ctx.Done()
	log.Info().Msg("shutting down")
}
