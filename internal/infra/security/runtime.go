package security

import (
	"time"

	"github.com/google/uuid"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
)

// SystemClock reads wall-clock time in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator mints random UUIDv4 identifiers for records and token JTIs.
type UUIDGenerator struct{}

// NewID returns a fresh UUID string.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

var (
	_ port.Clock       = SystemClock{}
	_ port.IDGenerator = UUIDGenerator{}
)
