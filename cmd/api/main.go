package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/scythe504/guessword-backend/internal/database"
	"github.com/scythe504/guessword-backend/internal/game"
	"github.com/scythe504/guessword-backend/internal/server"
	"github.com/scythe504/guessword-backend/internal/utils"
	"github.com/scythe504/guessword-backend/internal/websocket"
	"github.com/spf13/cobra"
)

const (
	releaseVersion  = "0.1.0"
	shutdownTimeout = 5 * time.Second
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func setupLogger(cfg *Config) error {
	level, err := zerolog.ParseLevel(cfg.logLevel)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return nil
}

func run(ctx context.Context, cfg *Config) error {
	if err := setupLogger(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := cfg.options()
	opts.Words = utils.DefaultWords()
	if cfg.wordList != "" {
		words, err := utils.ReadWordList(cfg.wordList)
		if err != nil {
			return err
		}
		opts.Words = words
	}

	var (
		db      database.Service
		archive game.RoundArchive
	)
	if cfg.databaseURL != "" {
		svc, err := database.New(ctx, cfg.databaseURL)
		if err != nil {
			return err
		}
		defer svc.Close()
		db, archive = svc, svc
	}

	hub := websocket.NewHub()
	registry := game.NewRegistry(opts, hub, nil, archive)
	go registry.RunReaper(ctx, cfg.sessionTimeout)

	srv := server.NewServer(cfg.bind, cfg.port, server.New(registry, hub, db))

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", releaseVersion).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}
	log.Info().Msg("server exiting")
	return nil
}
