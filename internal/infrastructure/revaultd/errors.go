package revaultd

import "errors"

var (
	// ErrMissingSocketPath ...
	ErrMissingSocketPath = errors.New("missing revaultd socket path")
	// ErrInvalidRateLimit ...
	ErrInvalidRateLimit = errors.New("rate limit must be a positive number of requests per second")
)
