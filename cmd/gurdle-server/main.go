// Command gurdle-server serves gurdle games over HTTP.
//
// Usage:
//
//	gurdle-server [first-secret-word]
//
// Settings come from the environment (and .env); see internal/config.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gurdle/internal/config"
	"github.com/robalobadob/gurdle/internal/game"
	"github.com/robalobadob/gurdle/internal/httpserver"
	"github.com/robalobadob/gurdle/internal/store"
	"github.com/robalobadob/gurdle/internal/words"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("gurdle-server")
	}
}

func run(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("usage: gurdle-server [first-secret-word]")
	}
	var first string
	if len(args) == 1 {
		if err := game.CheckSecret(args[0]); err != nil {
			return err
		}
		first = args[0]
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.SetupLogging()
	if !cfg.Production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	list, err := words.Open(ctx, cfg.Words(), cfg.WordsDB)
	if err != nil {
		return fmt.Errorf("load word lists: %w", err)
	}
	var src game.WordSource = list
	if cfg.Daily {
		d := words.NewDaily(list, cfg.DailySalt, nil)
		date, idx := d.Today()
		log.Info().Str("date", date).Int("index", idx).Msg("daily mode")
		src = d
	}

	srv := httpserver.New(store.NewMemoryStore(), src, httpserver.Options{
		ClientOrigin:   cfg.ClientOrigin,
		RequestTimeout: cfg.RequestTimeout,
		JWTSecret:      cfg.JWTSecret,
		CookieName:     cfg.CookieName,
		Secure:         cfg.Production,
		FirstSecret:    first,
	})
	log.Info().Str("addr", cfg.Addr()).Msg("starting gurdle-server")
	if err := srv.Start(ctx, cfg.Addr()); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
