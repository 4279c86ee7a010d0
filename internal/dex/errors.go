package dex

import "errors"

// Error kinds shared by the zapper and its collaborators. Collaborators wrap
// these so callers can match with errors.Is.
var (
	ErrExpired                     = errors.New("expired")
	ErrPairNotFound                = errors.New("pair doesn't exist")
	ErrPathMismatch                = errors.New("path mismatch")
	ErrSlippageExceeded            = errors.New("slippage exceeded")
	ErrInsufficientLiquidityOutput = errors.New("insufficient liquidity output")
	ErrTransferFailed              = errors.New("transfer failed")
	ErrInvalidRequest              = errors.New("invalid request")
)
