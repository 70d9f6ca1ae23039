// internal/game/engine.go
//
// Core game engine for a single gurdle game.
// Responsibilities:
//   - Start games with an explicit or randomly drawn secret (WordSize letters).
//   - Buffer typed characters until the player confirms a guess.
//   - Validate guesses (length, word source) and score them with Evaluate.
//   - Track state transitions: ongoing → won/lost, ongoing ⇄ illegal_word.
//   - Notify observers synchronously after every state change.
//
// Notes:
//   - An Engine is a plain value; nothing is shared between engines.
//   - Engines are not safe for concurrent use. Hosts serving several
//     goroutines must serialise access themselves (see internal/store).
//   - Illegal guesses are reported through State, never as errors.
package game

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrSecretLength is returned when a secret is not WordSize letters long.
	ErrSecretLength = errors.New("secret has wrong length")
	// ErrOutOfRange is returned by Get for coordinates outside the grid.
	ErrOutOfRange = errors.New("grid position out of range")
)

// WordSource supplies the dictionary the engine plays against.
type WordSource interface {
	// IsLegal reports whether word is an acceptable guess.
	IsLegal(word string) bool
	// RandomWord draws a secret of WordSize letters.
	RandomWord() string
}

// Engine is the game state machine.
type Engine struct {
	src WordSource

	secret   string
	attempts int
	grid     Grid
	guess    []rune
	state    State

	subs    []subscriber
	nextSub uint64
}

// New constructs an engine bound to src. No game is in progress until
// NewGame or NewGameWith is called; input before that is ignored.
func New(src WordSource) *Engine {
	return &Engine{src: src, guess: make([]rune, 0, WordSize)}
}

// CheckSecret validates a candidate secret word.
// The error names the required length so it can be shown to users as is.
func CheckSecret(secret string) error {
	if n := utf8.RuneCountInString(secret); n != WordSize {
		return fmt.Errorf("%q is not the required word length (%d): %w", secret, WordSize, ErrSecretLength)
	}
	return nil
}

// NewGame starts a fresh game with a secret drawn from the word source.
func (e *Engine) NewGame() error {
	return e.NewGameWith(e.src.RandomWord())
}

// NewGameWith starts a fresh game with the given secret.
// On error the engine is left untouched and no notification is sent.
func (e *Engine) NewGameWith(secret string) error {
	if err := CheckSecret(secret); err != nil {
		return err
	}
	e.secret = strings.Map(unicode.ToLower, secret)
	e.attempts = 0
	e.grid = Grid{}
	e.guess = e.guess[:0]
	e.state = StateOngoing
	e.notify(ReasonNewGame)
	return nil
}

// started reports whether a game has been set up.
func (e *Engine) started() bool { return e.secret != "" }

// EnterGuessChar appends ch to the guess buffer.
// It is a no-op when the buffer is full or the game is finished.
// Legality is only checked by ConfirmGuess.
func (e *Engine) EnterGuessChar(ch rune) {
	if !e.started() || e.state.Terminal() || len(e.guess) >= WordSize {
		return
	}
	e.guess = append(e.guess, unicode.ToLower(ch))
}

// DeleteGuessChar drops the last buffered character, if any.
func (e *Engine) DeleteGuessChar() {
	if !e.started() || e.state.Terminal() || len(e.guess) == 0 {
		return
	}
	e.guess = e.guess[:len(e.guess)-1]
}

// SubmitGuess replaces the buffer with word and confirms it. A word that is
// not exactly WordSize characters is confirmed as an empty buffer, so it is
// rejected as illegal instead of being cut to fit.
func (e *Engine) SubmitGuess(word string) {
	if !e.started() || e.state.Terminal() {
		return
	}
	e.guess = e.guess[:0]
	if utf8.RuneCountInString(word) == WordSize {
		for _, ch := range word {
			e.EnterGuessChar(ch)
		}
	}
	e.ConfirmGuess()
}

// ConfirmGuess submits the guess buffer.
//
// Rules:
//   - Finished games ignore the call (no notification).
//   - A guess of the wrong length or outside the word source moves the game
//     to StateIllegalWord without consuming an attempt.
//   - An accepted guess fills the next grid row; the game is won when every
//     letter is in position, lost when the attempts run out.
//
// The buffer is cleared in both the illegal and the accepted case.
func (e *Engine) ConfirmGuess() {
	if !e.started() || e.state.Terminal() {
		return
	}
	guess := e.guess
	e.guess = make([]rune, 0, WordSize)

	if len(guess) != WordSize || !e.src.IsLegal(string(guess)) {
		e.state = StateIllegalWord
		e.notify(ReasonGuessSubmitted)
		return
	}

	marks := evaluate([]rune(e.secret), guess)
	row := &e.grid[e.attempts]
	for i, r := range guess {
		row[i] = CharChoice{Char: r, Status: marks[i]}
	}
	e.attempts++

	switch {
	case allRight(marks):
		e.state = StateWon
	case e.attempts >= NumTries:
		e.state = StateLost
	default:
		e.state = StateOngoing
	}
	e.notify(ReasonGuessSubmitted)
}

// Get returns the cell at (row, col).
func (e *Engine) Get(row, col int) (CharChoice, error) {
	if row < 0 || row >= NumTries || col < 0 || col >= WordSize {
		return CharChoice{}, fmt.Errorf("get (%d, %d): %w", row, col, ErrOutOfRange)
	}
	return e.grid[row][col], nil
}

// Grid returns a copy of the whole attempt grid.
func (e *Engine) Grid() Grid { return e.grid }

// GameState reports the current lifecycle state.
func (e *Engine) GameState() State { return e.state }

// NumAttempts reports how many guesses have been accepted.
func (e *Engine) NumAttempts() int { return e.attempts }

// Secret returns the secret word. It is available in every state.
func (e *Engine) Secret() string { return e.secret }

// Guess returns the characters typed since the last submission.
func (e *Engine) Guess() string { return string(e.guess) }

// Keyboard derives per-letter highlight state from the submitted rows.
// A letter keeps the most informative status it has been given:
// right position over wrong position over absent.
func (e *Engine) Keyboard() map[rune]Status {
	keys := make(map[rune]Status)
	for r := 0; r < e.attempts; r++ {
		for _, c := range e.grid[r] {
			if c.Status.rank() > keys[c.Char].rank() {
				keys[c.Char] = c.Status
			}
		}
	}
	return keys
}
