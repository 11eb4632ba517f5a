package channel

import "errors"

// Sentinel errors for channel registration and dispatch.
var (
	// ErrDuplicateChannel indicates a channel name is already registered.
	ErrDuplicateChannel = errors.New("channel: duplicate channel name")

	// ErrNoChannel indicates no channel is registered under the
	// requested name.
	ErrNoChannel = errors.New("channel: no channel registered")
)
