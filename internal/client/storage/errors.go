package storage

import "errors"

// Common client storage errors
var (
	// ErrPrefNotFound indicates that the requested preference is not set
	ErrPrefNotFound = errors.New("preference not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
