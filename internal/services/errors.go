package services

import "errors"

// ErrInvalidInput marks requests rejected before any lookup runs: empty
// messages, malformed history, empty search terms.
var ErrInvalidInput = errors.New("invalid input")
