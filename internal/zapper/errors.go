package zapper

import (
	"errors"
	"fmt"

	"lpzap/internal/dex"
)

// State is a step of the zap state machine.
type State string

const (
	StateInit              State = "init"
	StateGuardChecked      State = "guard_checked"
	StateLegsResolved      State = "legs_resolved"
	StateLiquidityComposed State = "liquidity_composed"
	StateSwept             State = "swept"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

// Error reports the state a zap had reached when it failed. It unwraps to
// one of the dex error kinds.
type Error struct {
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("zap failed after %s: %v", e.State, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var errorKinds = []error{
	dex.ErrExpired,
	dex.ErrPairNotFound,
	dex.ErrPathMismatch,
	dex.ErrSlippageExceeded,
	dex.ErrInsufficientLiquidityOutput,
	dex.ErrTransferFailed,
	dex.ErrInvalidRequest,
}

var kindLabels = map[error]string{
	dex.ErrExpired:                     "expired",
	dex.ErrPairNotFound:                "pair_not_found",
	dex.ErrPathMismatch:                "path_mismatch",
	dex.ErrSlippageExceeded:            "slippage_exceeded",
	dex.ErrInsufficientLiquidityOutput: "insufficient_liquidity_output",
	dex.ErrTransferFailed:              "transfer_failed",
	dex.ErrInvalidRequest:              "invalid_request",
}

// Label names the outcome of a zap: "ok", the snake_case error kind, or
// "other" for errors outside the taxonomy.
func Label(err error) string {
	if err == nil {
		return "ok"
	}
	if label, ok := kindLabels[Kind(err)]; ok {
		return label
	}
	return "other"
}

// Kind returns the dex error kind err carries, or nil.
func Kind(err error) error {
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// asTransferFailure wraps ledger errors that carry no kind yet.
func asTransferFailure(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if Kind(err) != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%s: %w: %w", msg, dex.ErrTransferFailed, err)
}
