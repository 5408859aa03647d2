package models

import "errors"

// Sentinel errors shared across the forecasting pipeline. Callers match them
// with errors.Is after unwrapping.
var (
	// ErrInvalidInput flags a malformed combiner input: an empty estimate
	// list, a probability outside [0,1] or an unrecognized confidence label.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound flags an outcome update for a question with no unresolved
	// recorded forecast.
	ErrNotFound = errors.New("forecast not found")

	// ErrStorage flags a failed read or append on the durable record store.
	ErrStorage = errors.New("storage failure")
)
