// Command gurdle plays gurdle in the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/gurdle/internal/config"
	"github.com/robalobadob/gurdle/internal/game"
	"github.com/robalobadob/gurdle/internal/term"
	"github.com/robalobadob/gurdle/internal/words"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd(os.Stdin, os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd(in io.Reader, out io.Writer) *cobra.Command {
	var (
		daily   bool
		wordsDB string
	)

	cmd := &cobra.Command{
		Use:   "gurdle [first-secret-word]",
		Short: "Guess the five-letter word in six tries",
		Long: `gurdle is a word guessing game. Each guess is scored per letter:
[X] right position, (X) wrong position, -X- not in the word.

The optional argument fixes the secret of the first game.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := game.CheckSecret(args[0]); err != nil {
					return err
				}
			}

			cfg, err := config.LoadLocal()
			if err != nil {
				return err
			}
			cfg.SetupLogging()
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen})
			if cmd.Flags().Changed("daily") {
				cfg.Daily = daily
			}
			if wordsDB != "" {
				cfg.WordsDB = wordsDB
			}

			list, err := words.Open(cmd.Context(), cfg.Words(), cfg.WordsDB)
			if err != nil {
				return fmt.Errorf("load word lists: %w", err)
			}
			var src game.WordSource = list
			if cfg.Daily {
				src = words.NewDaily(list, cfg.DailySalt, nil)
			}

			e := game.New(src)
			color := false
			if f, ok := out.(*os.File); ok {
				color = term.ColorEnabled(f)
			}
			ui := term.New(e, out, color)

			if len(args) == 1 {
				err = e.NewGameWith(args[0])
			} else {
				err = e.NewGame()
			}
			if err != nil {
				return err
			}
			return ui.Run(cmd.Context(), in)
		},
	}

	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.Flags().BoolVar(&daily, "daily", false, "Play the word of the day")
	cmd.Flags().StringVar(&wordsDB, "words-db", "", "SQLite word database (seeded on first use)")
	return cmd
}
