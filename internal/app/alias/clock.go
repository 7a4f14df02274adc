package alias

import "time"

// DefaultTTLHours is used when a create request carries no TTL.
const DefaultTTLHours = 24

// MaxTTLHours caps what the HTTP boundary accepts (one year).
const MaxTTLHours = 24 * 365

// Clock supplies "now". Production uses SystemClock; tests pin it.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// ComputeExpiry returns now+hours as whole UNIX seconds.
func ComputeExpiry(now time.Time, hours int) int64 {
	return now.Add(time.Duration(hours) * time.Hour).Unix()
}
