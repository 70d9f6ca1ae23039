// internal/game/evaluate.go
//
// Guess evaluation using the classic two-pass Wordle algorithm.
//
// Pass 1:
//   - Mark exact matches as RightPosition.
//   - Count the remaining (unmatched) secret letters.
//
// Pass 2:
//   - For each unmarked guess letter: if the pool still holds that letter,
//     mark WrongPosition and take one from the pool; otherwise mark Absent.
//
// A letter is therefore never reported (right + wrong) more often than it
// occurs in the secret, and exact matches are never consumed by an earlier
// misplaced copy of the same letter.

package game

// Evaluate scores guess against secret. Both should be WordSize runes long;
// positions past the end of a short guess are left StatusUnset.
func Evaluate(secret, guess string) [WordSize]Status {
	var out [WordSize]Status
	copy(out[:], evaluate([]rune(secret), []rune(guess)))
	return out
}

// evaluate works on arbitrary rune slices. The result has len(guess) entries.
func evaluate(secret, guess []rune) []Status {
	res := make([]Status, len(guess))
	pool := make(map[rune]int, len(secret))

	// First pass: hits, and counts for the secret letters that were not hit.
	for i, r := range secret {
		if i < len(guess) && guess[i] == r {
			res[i] = StatusRightPosition
			continue
		}
		pool[r]++
	}

	// Second pass: misplaced or absent.
	for i, r := range guess {
		if res[i] == StatusRightPosition {
			continue
		}
		if pool[r] > 0 {
			res[i] = StatusWrongPosition
			pool[r]--
		} else {
			res[i] = StatusAbsent
		}
	}
	return res
}

// allRight reports whether every status is StatusRightPosition.
func allRight(m []Status) bool {
	for _, s := range m {
		if s != StatusRightPosition {
			return false
		}
	}
	return len(m) > 0
}
