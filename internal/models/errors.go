package models

import "errors"

// Custom errors
var (
	ErrInvalidRaceSize      = errors.New("race card must contain exactly the expected number of entries")
	ErrConditionalLength    = errors.New("conditional distribution has wrong length")
	ErrInvalidCombination   = errors.New("invalid combination key")
	ErrNotFound             = errors.New("record not found")
	ErrDuplicateKey         = errors.New("duplicate key violation")
)
