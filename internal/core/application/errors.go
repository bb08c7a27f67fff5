package application

import "errors"

var (
	// ErrNoSigningDevice is returned when a signature is requested but no
	// signing device is configured.
	ErrNoSigningDevice = errors.New("no signing device configured")
	// ErrVaultNotFound ...
	ErrVaultNotFound = errors.New("vault not found in the last listing")
)
