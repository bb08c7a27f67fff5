package hotsigner

import "errors"

var (
	// ErrNotPrivateKey is returned when the signer is given an extended
	// public key.
	ErrNotPrivateKey = errors.New("extended key must be private")
	// ErrWrongNetwork ...
	ErrWrongNetwork = errors.New("extended key is not for the configured network")
	// ErrNullPsbt ...
	ErrNullPsbt = errors.New("psbt must not be null")
)
