package model

import "time"

// AppleEpochOffset is seconds between the Unix epoch and 2001-01-01T00:00:00Z,
// the reference date of timestamps in the Messages database.
const AppleEpochOffset int64 = 978307200

// ToAppleNano converts t to message.date representation (nanoseconds since 2001-01-01 UTC)
func ToAppleNano(t time.Time) int64 {
	return t.UnixNano() - AppleEpochOffset*int64(time.Second)
}

// FromAppleNano converts message.date value to time.Time
func FromAppleNano(n int64) time.Time {
	return time.Unix(AppleEpochOffset, n)
}
