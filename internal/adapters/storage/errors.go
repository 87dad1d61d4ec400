package storage

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrMissingConfig = errors.New("missing storage configuration")
	ErrClientInit    = errors.New("storage client init failed")
	ErrPresign       = errors.New("presign failed")
)
