package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrStoreUnavailable indicates the backing store is unreachable or timed out.
	ErrStoreUnavailable = errors.New("repository: store unavailable")
)
