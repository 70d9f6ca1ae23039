package words

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Open returns the dictionary selected by cfg. With an empty dbPath this is
// Load. Otherwise the SQLite database at dbPath is used; an empty database
// is seeded from Load(cfg) first.
func Open(ctx context.Context, cfg Config, dbPath string) (*List, error) {
	if dbPath == "" {
		return Load(cfg)
	}
	db, err := OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	l, err := db.Load(ctx)
	if err == nil {
		a, g := l.Stats()
		log.Info().Str("db", dbPath).Int("answers", a).Int("allowed", g).Msg("word list loaded from sqlite")
		return l, nil
	}
	if !errors.Is(err, ErrNoAnswers) {
		return nil, fmt.Errorf("read %s: %w", dbPath, err)
	}

	l, err = Load(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Import(ctx, l); err != nil {
		return nil, fmt.Errorf("seed %s: %w", dbPath, err)
	}
	log.Info().Str("db", dbPath).Msg("seeded word database")
	return l, nil
}
