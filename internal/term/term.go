// Package term is a line-oriented terminal front end for the engine.
//
// It registers as an engine observer and redraws the grid, the keyboard
// and a status line from the engine's read accessors after every
// notification. Each line the player types is submitted as one whole
// guess.
package term

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/mattn/go-isatty"

	"github.com/robalobadob/gurdle/internal/game"
)

const (
	cmdQuit  = ":quit"
	cmdNew   = ":new"
	cmdCheat = ":cheat"
	cmdHelp  = ":help"
)

var keyboardRows = []string{"QWERTYUIOP", "ASDFGHJKL", "ZXCVBNM"}

// ColorEnabled reports whether f is a terminal that understands ANSI colours.
func ColorEnabled(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// UI is one terminal session bound to an engine.
type UI struct {
	e     *game.Engine
	out   io.Writer
	color bool

	cheating bool // show the secret in the status line
	illegal  bool // last submission was rejected
}

// New attaches a UI to e. Output goes to out; color enables ANSI styling.
func New(e *game.Engine, out io.Writer, color bool) *UI {
	u := &UI{e: e, out: out, color: color}
	e.AddObserver(u.update)
	return u
}

// update is the engine observer.
func (u *UI) update(e *game.Engine, reason string) {
	switch {
	case reason == game.ReasonNewGame:
		u.cheating, u.illegal = false, false
	case e.GameState() == game.StateIllegalWord:
		u.illegal = true
	}
	u.render()
}

// Run reads commands and words from in until EOF, ":quit" or ctx ends.
func (u *UI) Run(ctx context.Context, in io.Reader) error {
	u.render()
	u.help()
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(u.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(u.out)
			return sc.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(sc.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case cmdQuit, ":q":
			return nil
		case cmdHelp:
			u.help()
		case cmdCheat:
			u.cheating = true
			u.illegal = false
			u.render()
		case cmdNew:
			if err := u.e.NewGame(); err != nil {
				return fmt.Errorf("new game: %w", err)
			}
		default:
			u.submit(line)
		}
	}
}

// submit hands line to the engine as one guess.
func (u *UI) submit(line string) {
	if u.e.GameState().Terminal() {
		fmt.Fprintln(u.out, "Game over. Type :new to play again.")
		return
	}
	u.illegal = false
	u.e.SubmitGuess(line)
}

func (u *UI) help() {
	fmt.Fprintf(u.out, "Type a %d-letter word and press enter. Commands: %s %s %s %s\n",
		game.WordSize, cmdNew, cmdCheat, cmdHelp, cmdQuit)
}

// Status returns the line shown above the grid.
func (u *UI) Status() string {
	e := u.e
	switch e.GameState() {
	case game.StateWon:
		return "Congratulations, you won!"
	case game.StateLost:
		return "You lost :(  The secret word was " + strings.ToUpper(e.Secret())
	case game.StateIllegalWord:
		return "Illegal word, try again"
	}
	if u.illegal {
		return "Illegal word, try again"
	}
	s := fmt.Sprintf("%d guesses used, Make a guess!", e.NumAttempts())
	if u.cheating {
		s += "\t SECRET: " + strings.ToUpper(e.Secret())
	}
	return s
}

func (u *UI) render() {
	var b strings.Builder
	b.WriteString("\n" + u.Status() + "\n\n")
	grid := u.e.Grid()
	for _, row := range grid {
		b.WriteString("  ")
		for _, c := range row {
			b.WriteString(u.cell(c.Char, c.Status))
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	keys := u.e.Keyboard()
	for i, row := range keyboardRows {
		b.WriteString(strings.Repeat(" ", 2+i))
		for _, k := range row {
			b.WriteString(u.cell(k, keys[unicode.ToLower(k)]))
		}
		b.WriteByte('\n')
	}
	fmt.Fprint(u.out, b.String())
}

// cell renders one letter box. Without colour the status is shown by the
// brackets: [X] right position, (X) wrong position, -X- absent.
func (u *UI) cell(r rune, st game.Status) string {
	ch := " "
	if r != 0 {
		ch = string(unicode.ToUpper(r))
	}
	if u.color {
		switch st {
		case game.StatusRightPosition:
			return "\x1b[30;42m " + ch + " \x1b[0m"
		case game.StatusWrongPosition:
			return "\x1b[30;43m " + ch + " \x1b[0m"
		case game.StatusAbsent:
			return "\x1b[37;100m " + ch + " \x1b[0m"
		}
		return "\x1b[7m " + ch + " \x1b[0m"
	}
	switch st {
	case game.StatusRightPosition:
		return "[" + ch + "]"
	case game.StatusWrongPosition:
		return "(" + ch + ")"
	case game.StatusAbsent:
		return "-" + ch + "-"
	}
	if r == 0 {
		return " _ "
	}
	return " " + ch + " "
}
