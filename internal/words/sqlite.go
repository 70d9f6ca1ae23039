// internal/words/sqlite.go
//
// SQLite-backed dictionary.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout).
//   - Applying the embedded migrations in sql/*.sql (recorded in _migrations).
//   - Importing word lists and loading them back as a *List.
//
// The database only holds the dictionary; games are never stored.

package words

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

//go:embed sql/*.sql
var migrations embed.FS

// SQLite is a dictionary stored in a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if missing) the database at dsn and
// brings its schema up to date.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// openDB ensures the parent directory exists, then opens the file with a
// busy timeout and WAL journaling.
func openDB(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// migrate applies the embedded migrations in lexical order, each inside its
// own transaction, skipping those already recorded in _migrations.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrations, "sql/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// Import stores every word of l. Answers are flagged as such; a word that
// is already present as a plain guess is upgraded to an answer.
func (s *SQLite) Import(ctx context.Context, l *List) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, w := range l.answers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO words(word, answer) VALUES (?, 1)
			 ON CONFLICT(word) DO UPDATE SET answer = 1`, w); err != nil {
			return fmt.Errorf("import answer %s: %w", w, err)
		}
	}
	for w := range l.allowedSet {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO words(word, answer) VALUES (?, 0)`, w); err != nil {
			return fmt.Errorf("import word %s: %w", w, err)
		}
	}
	return tx.Commit()
}

// Load reads the dictionary back into a List.
func (s *SQLite) Load(ctx context.Context) (*List, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT word, answer FROM words ORDER BY word`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers, allowed []string
	for rows.Next() {
		var w string
		var answer bool
		if err := rows.Scan(&w, &answer); err != nil {
			return nil, err
		}
		if answer {
			answers = append(answers, w)
		} else {
			allowed = append(allowed, w)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return FromWords(answers, allowed)
}
