// Package config loads gurdle settings from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/robalobadob/gurdle/internal/words"
)

// Config holds every environment-driven setting.
type Config struct {
	Port           int           `env:"PORT" envDefault:"5175"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	ClientOrigin   string        `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`

	AnswersFile string `env:"WORDS_ANSWERS_FILE"`
	AllowedFile string `env:"WORDS_ALLOWED_FILE"`
	WordsDB     string `env:"WORDS_DB"`

	Daily     bool   `env:"DAILY" envDefault:"false"`
	DailySalt string `env:"DAILY_SALT" envDefault:"local_dev_salt"`

	JWTSecret  string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	CookieName string `env:"COOKIE_NAME" envDefault:"gurdle_session"`
	Production bool   `env:"PRODUCTION" envDefault:"false"`
}

// Load reads .env (if any) and parses the environment into a Config.
// Every setting is validated.
func Load() (Config, error) { return load(Config.Validate) }

// LoadLocal is Load for the terminal game: only the word list and logging
// settings are validated, so server settings in the environment are ignored.
func LoadLocal() (Config, error) { return load(Config.ValidateLocal) }

func load(validate func(Config) error) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable by the server.
func (c Config) Validate() error {
	if err := c.ValidateLocal(); err != nil {
		return err
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.Production && c.JWTSecret == "dev_secret_change_me" {
		return errors.New("JWT_SECRET must be set in production")
	}
	return nil
}

// ValidateLocal checks the settings shared by every binary.
func (c Config) ValidateLocal() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.AnswersFile != "" && c.AllowedFile == "" {
		return errors.New("WORDS_ANSWERS_FILE requires WORDS_ALLOWED_FILE")
	}
	return nil
}

// Addr returns the listen address for Port.
func (c Config) Addr() string { return ":" + strconv.Itoa(c.Port) }

// Words returns the word file selection.
func (c Config) Words() words.Config {
	return words.Config{AnswersFile: c.AnswersFile, AllowedFile: c.AllowedFile}
}

// SetupLogging applies LogLevel to the global zerolog level.
func (c Config) SetupLogging() {
	if lvl, err := zerolog.ParseLevel(c.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
}
