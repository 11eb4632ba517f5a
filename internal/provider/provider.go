// Package provider defines the Provider interface for communicating with
// hosted text-generation models.
package provider

import "context"

// Provider is the contract every model backend must implement.
// Implementations must be safe for concurrent use.
type Provider interface {
	// GenerateContent sends a single prompt and returns the completion text.
	GenerateContent(ctx context.Context, prompt string) (string, error)

	// ModelName returns the identifier of the underlying model.
	ModelName() string
}
