package tracker

import "errors"

// ErrInvalidEvent is returned for events missing a user, an item or a kind.
var ErrInvalidEvent = errors.New("invalid event")
