package domain

import "errors"

var (
	// ErrInvalidOutpoint is returned when an outpoint is not in txid:vout form
	ErrInvalidOutpoint = errors.New("outpoint must be in the form txid:vout")
	// ErrUnknownVaultStatus ...
	ErrUnknownVaultStatus = errors.New("unknown vault status")
	// ErrMissingDepositTx is returned when onchain history lacks the deposit
	ErrMissingDepositTx = errors.New("onchain transactions must include the deposit")
	// ErrNullPsbt ...
	ErrNullPsbt = errors.New("psbt must not be null")
)
