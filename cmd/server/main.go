package main

import (
	"context"
	"errors"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockfolio/backend/internal/adapter/http"
	"github.com/stockfolio/backend/internal/adapter/repository/memory"
	"github.com/stockfolio/backend/internal/adapter/repository/postgres"
	"github.com/stockfolio/backend/internal/config"
	"github.com/stockfolio/backend/internal/domain"
	"github.com/stockfolio/backend/internal/usecase/stocks"
	"github.com/stockfolio/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLog := logger.New(logger.Config{Level: "error"})
		errLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	var repo domain.StockRepository
	var store http.Pinger

	if cfg.DevMode {
		log.Info().Msg("Dev mode: using in-memory store")
		repo = memory.NewStockRepository()
	} else {
		db, err := postgres.NewDB(cfg.ConnectionString())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate schema")
		}

		repo = postgres.NewStockRepository(db)
		store = db
	}

	service := stocks.NewPortfolioService(repo)

	server := http.New(http.Config{
		Port:     cfg.Port,
		Log:      log,
		Service:  service,
		Resolver: http.NewStaticTokenResolver(cfg.APITokens),
		Store:    store,
		DevMode:  cfg.DevMode,
	})

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	waitForShutdown(server, log)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(server *http.Server, log zerolog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
		return
	}
	log.Info().Msg("Server stopped")
}
