package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock. Times are returned in UTC without a
// monotonic reading so they survive a persistence round trip unchanged.
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always reports the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// Func adapts a plain function to a Clock.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}
