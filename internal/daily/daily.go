// Package daily derives the per-day choices shared by every player:
// the date key results are filed under and the deterministic daily index.
package daily

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

// ParseKey validates a YYYY-MM-DD key.
func ParseKey(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// Index returns a deterministic index for a date using HMAC(salt, YYYY-MM-DD|scope) % n.
// scope separates pools that share a day (e.g. different generation filters).
func Index(date time.Time, salt, scope string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	if scope != "" {
		h.Write([]byte("|" + scope))
	}
	sum := h.Sum(nil)
	// first 8 bytes for the modulus
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}
