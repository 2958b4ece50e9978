package imsig

import "time"

// Clock provides the current time for Date headers and skew checks.
type Clock interface {
	Now() time.Time
}

// SystemClock uses the system time.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

type fixedClock struct {
	time time.Time
}

func (c fixedClock) Now() time.Time {
	return c.time
}

// FixedClock returns a Clock that always returns t. Useful for reproducing
// a signature in tests.
func FixedClock(t time.Time) Clock {
	return fixedClock{time: t}
}
