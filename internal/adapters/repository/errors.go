package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrEncode = errors.New("document encode failed")
	ErrDecode = errors.New("document decode failed")
)
