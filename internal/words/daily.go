package words

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// WordIndex returns a deterministic index for a date using HMAC(salt, YYYY-MM-DD) % n.
func WordIndex(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for the modulus
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

// Daily draws the same secret for everyone on a given UTC day.
// Guesses are checked against the wrapped list.
type Daily struct {
	list *List
	salt string
	now  func() time.Time
}

// NewDaily wraps l. A nil now uses time.Now.
func NewDaily(l *List, salt string, now func() time.Time) *Daily {
	if now == nil {
		now = time.Now
	}
	return &Daily{list: l, salt: salt, now: now}
}

// IsLegal defers to the wrapped list.
func (d *Daily) IsLegal(w string) bool { return d.list.IsLegal(w) }

// RandomWord returns today's answer.
func (d *Daily) RandomWord() string {
	return d.list.answers[WordIndex(d.now(), d.salt, len(d.list.answers))]
}

// Today returns today's date key and answer index.
func (d *Daily) Today() (date string, idx int) {
	now := d.now()
	return DateKey(now), WordIndex(now, d.salt, len(d.list.answers))
}

// Stats reports the wrapped list's sizes.
func (d *Daily) Stats() (answersCount int, allowedCount int) { return d.list.Stats() }
