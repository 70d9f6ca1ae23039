// internal/words/words.go
//
// Word list management for the game engine.
//
// Responsibilities:
//   - Load answer and allowed guess lists from configured files or fall back
//     to the embedded defaults in package assets.
//   - Maintain sets for quick lookups (answers only, answers ∪ guesses).
//   - Implement game.WordSource: IsLegal and RandomWord.
//
// Word Lists:
//   - "answers": canonical secrets (exactly 5 lowercase letters).
//   - "allowed": valid guesses (always includes answers).
//
// Loading behaviour (Load):
//   1. If AnswersFile and AllowedFile are both set,
//      load answers from the first and allowed guesses from the second.
//   2. If only AllowedFile is set,
//      load that file and use it for both answers and allowed guesses.
//   3. If neither is set, use the embedded assets.
//
// Constraints:
//   • Words must be 5 alphabetic letters (a–z); anything else is dropped.
//   • Lists are normalized to lowercase.

package words

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/robalobadob/gurdle/assets"
	"github.com/robalobadob/gurdle/internal/game"
)

// ErrNoAnswers is returned when a list ends up without any answer words.
var ErrNoAnswers = errors.New("words: answers list is empty")

// Config selects the word files. Empty paths fall back to the embedded lists.
type Config struct {
	AnswersFile string
	AllowedFile string
}

// List is an immutable dictionary. It is safe for concurrent use.
type List struct {
	answers    []string            // canonical answers
	allowedSet map[string]struct{} // answers ∪ guesses
	answersSet map[string]struct{} // answers only
}

var _ game.WordSource = (*List)(nil)

// Load builds a List according to cfg.
func Load(cfg Config) (*List, error) {
	var ansList, allowList []string
	var err error

	switch {
	// Case 1: both lists provided
	case cfg.AnswersFile != "" && cfg.AllowedFile != "":
		if ansList, err = readWordFile(cfg.AnswersFile); err != nil {
			return nil, err
		}
		if allowList, err = readWordFile(cfg.AllowedFile); err != nil {
			return nil, err
		}

	// Case 2: only allowed file provided → use for both
	case cfg.AllowedFile != "":
		if allowList, err = readWordFile(cfg.AllowedFile); err != nil {
			return nil, err
		}
		ansList = allowList

	case cfg.AnswersFile != "":
		return nil, errors.New("words: answers file given without allowed file")

	// Case 3: embedded defaults
	default:
		if ansList, err = assets.AnswersList(); err != nil {
			return nil, fmt.Errorf("read embedded answers: %w", err)
		}
		if allowList, err = assets.AllowedList(); err != nil {
			return nil, fmt.Errorf("read embedded allowed: %w", err)
		}
	}
	return FromWords(ansList, allowList)
}

// FromWords builds a List from in-memory words. Invalid entries are dropped;
// answers are always allowed as guesses.
func FromWords(answers, allowed []string) (*List, error) {
	ans := normalize(answers)
	if len(ans) == 0 {
		return nil, ErrNoAnswers
	}
	l := &List{
		answers:    ans,
		answersSet: toSet(ans),
		allowedSet: toSet(ans),
	}
	for _, w := range normalize(allowed) {
		l.allowedSet[w] = struct{}{}
	}
	return l, nil
}

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word file: %w", err)
	}
	defer f.Close()
	lines, err := assets.ReadLines(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

// normalize lowercases, trims and keeps only valid, unique 5-letter words.
func normalize(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, w := range list {
		w = strings.TrimSpace(strings.ToLower(w))
		if len(w) != game.WordSize || !isAlpha(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// toSet converts a list of strings into a lookup set.
func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// RandomWord returns a cryptographically random answer.
func (l *List) RandomWord() string {
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(len(l.answers))))
	if err != nil {
		return l.answers[0]
	}
	return l.answers[nBig.Int64()]
}

// IsLegal reports whether w is a valid guess (answers ∪ guesses).
func (l *List) IsLegal(w string) bool {
	_, ok := l.allowedSet[strings.ToLower(w)]
	return ok
}

// IsAnswer reports whether w is an answer word.
func (l *List) IsAnswer(w string) bool {
	_, ok := l.answersSet[strings.ToLower(w)]
	return ok
}

// Answers returns the answer words in load order.
func (l *List) Answers() []string {
	return append([]string(nil), l.answers...)
}

// Stats returns counts of loaded words: (answers, allowed).
func (l *List) Stats() (answersCount int, allowedCount int) {
	return len(l.answers), len(l.allowedSet)
}
