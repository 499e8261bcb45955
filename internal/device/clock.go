package device

import "time"

// Clock supplies the wall-clock time written by SetClock
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local system time
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant
type FixedClock time.Time

// Now returns the fixed instant
func (c FixedClock) Now() time.Time {
	return time.Time(c)
}
