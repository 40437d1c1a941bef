package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrClosed  = errors.New("store closed")
	ErrInvalid = errors.New("invalid record")
)
