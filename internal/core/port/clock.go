package port

import "time"

// Clock supplies the current time. Components never read ambient time so TTL and
// rotation logic stays deterministic under test.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function into a Clock.
type ClockFunc func() time.Time

// Now returns the function's current time.
func (f ClockFunc) Now() time.Time {
	return f()
}

// IDGenerator supplies unique identifiers for records and token JTIs.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapts a plain function into an IDGenerator.
type IDGeneratorFunc func() string

// NewID returns the function's next identifier.
func (f IDGeneratorFunc) NewID() string {
	return f()
}
