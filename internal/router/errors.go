package router

import "errors"

// Sentinel errors for router construction and submission.
var (
	// ErrNoGenerator indicates NewRouter was called without a response
	// generator.
	ErrNoGenerator = errors.New("router: no response generator configured")

	// ErrNoManager indicates NewRouter was called without a memory
	// manager.
	ErrNoManager = errors.New("router: no memory manager configured")

	// ErrNoSender indicates NewRouter was called without a response
	// sender.
	ErrNoSender = errors.New("router: no response sender configured")

	// ErrRouterStopped indicates a message was submitted after Stop.
	ErrRouterStopped = errors.New("router: router is stopped")
)
