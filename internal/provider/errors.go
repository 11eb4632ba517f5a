package provider

import "errors"

// Sentinel errors shared by provider implementations.
var (
	// ErrNoProvider indicates no provider module was configured.
	ErrNoProvider = errors.New("provider: no provider configured")

	// ErrEmptyCompletion indicates the model returned no usable text.
	ErrEmptyCompletion = errors.New("provider: empty completion")
)
