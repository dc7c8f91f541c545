package models

import "errors"

// ErrInvalidInput indicates a record or argument violated an input contract.
// Callers wrap it with detail via fmt.Errorf("...: %w", ErrInvalidInput).
var ErrInvalidInput = errors.New("invalid input")

// ErrMalformedNote indicates a calves-at-foot substring is present in a herd's
// notes but cannot be parsed.
var ErrMalformedNote = errors.New("malformed calves-at-foot note")
