package redis

import (
	"fmt"

	"github.com/ryu-qqq/AuthHub-sub012/internal/repository"
)

// storeErr tags a Redis transport failure with repository.ErrStoreUnavailable so
// callers can branch on the outage without knowing the driver. Misses (red.Nil)
// are handled before this and never reach it.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, repository.ErrStoreUnavailable, err)
}
