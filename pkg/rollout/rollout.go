package rollout

import "unicode/utf16"

// Buckets is the number of rollout buckets. Percentages map one-to-one onto buckets.
const Buckets = 100

// Hash returns the 32-bit polynomial hash of s computed over its UTF-16 code units.
func Hash(s string) int32 {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		// int32 arithmetic wraps, which is exactly the per-step truncation we want.
		h = h*31 + int32(unit)
	}
	return h
}

// Bucket maps id onto [0, Buckets).
func Bucket(id string) int {
	// Widen before abs: -math.MinInt32 does not fit into int32.
	h := int64(Hash(id))
	if h < 0 {
		h = -h
	}
	return int(h % Buckets)
}

// InRollout reports whether id falls inside a rollout of the given percentage.
// Percentages at or above 100 include everyone, at or below 0 nobody.
func InRollout(id string, percentage int) bool {
	switch {
	case percentage >= Buckets:
		return true
	case percentage <= 0:
		return false
	}
	return Bucket(id) < percentage
}
