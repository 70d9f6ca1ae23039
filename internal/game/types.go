// internal/game/types.go
//
// Core type definitions for the gurdle game engine.
// Defines:
//   - Status: per-letter result of a guess (unset/right/wrong position/absent).
//   - CharChoice: one grid cell (guessed rune + status).
//   - Grid: the fixed NumTries x WordSize attempt table.
//   - State: coarse lifecycle of a single game.

package game

import (
	"encoding/json"
	"fmt"
)

const (
	// WordSize is the length of every secret word and guess.
	WordSize = 5
	// NumTries is the number of guesses allowed per game.
	NumTries = 6
)

// Status represents the evaluation result for a single letter in a guess.
// Possible values:
//   - StatusUnset:         cell not yet submitted.
//   - StatusRightPosition: letter is in the secret at this position.
//   - StatusWrongPosition: letter is in the secret at another position.
//   - StatusAbsent:        letter is not (or no longer) available in the secret.
type Status uint8

const (
	StatusUnset Status = iota
	StatusRightPosition
	StatusWrongPosition
	StatusAbsent
)

var statusNames = [...]string{
	StatusUnset:         "unset",
	StatusRightPosition: "right_position",
	StatusWrongPosition: "wrong_position",
	StatusAbsent:        "absent",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// MarshalJSON encodes the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// rank orders statuses by how much they reveal; used for keyboard highlights.
func (s Status) rank() int {
	switch s {
	case StatusRightPosition:
		return 3
	case StatusWrongPosition:
		return 2
	case StatusAbsent:
		return 1
	}
	return 0
}

// CharChoice is one cell of the attempt grid.
// The zero value is an unset, empty cell.
type CharChoice struct {
	Char   rune   `json:"-"`
	Status Status `json:"status"`
}

// MarshalJSON renders Char as a one-letter string ("" when unset).
func (c CharChoice) MarshalJSON() ([]byte, error) {
	ch := ""
	if c.Char != 0 {
		ch = string(c.Char)
	}
	return json.Marshal(struct {
		Char   string `json:"char"`
		Status Status `json:"status"`
	}{ch, c.Status})
}

// Grid holds one row per allowed attempt, one column per letter.
type Grid [NumTries][WordSize]CharChoice

// State is the coarse lifecycle of a game.
type State uint8

const (
	StateOngoing State = iota
	StateIllegalWord
	StateWon
	StateLost
)

var stateNames = [...]string{
	StateOngoing:     "ongoing",
	StateIllegalWord: "illegal_word",
	StateWon:         "won",
	StateLost:        "lost",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// MarshalJSON encodes the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Terminal reports whether no further guesses are accepted in this state.
func (s State) Terminal() bool {
	return s == StateWon || s == StateLost
}
