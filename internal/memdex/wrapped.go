package memdex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lpzap/internal/dex"
	"lpzap/internal/model"
)

// Wrapped is the 1:1 token form of the native currency. Native deposits are
// held at its address.
type Wrapped struct {
	ex      *Exchange
	address common.Address
}

var _ dex.WrappedNative = (*Wrapped)(nil)

func (w *Wrapped) Address() common.Address {
	return w.address
}

// Deposit converts caller's native currency into wrapped tokens.
func (w *Wrapped) Deposit(_ context.Context, caller common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: invalid deposit amount", dex.ErrTransferFailed)
	}
	if err := w.ex.transfer(model.Native(), caller, w.address, amount); err != nil {
		return err
	}
	w.ex.mint(model.Token(w.address), caller, amount)
	return nil
}

// Withdraw burns caller's wrapped tokens and releases the native currency.
func (w *Wrapped) Withdraw(_ context.Context, caller common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: invalid withdraw amount", dex.ErrTransferFailed)
	}
	if err := w.ex.burn(model.Token(w.address), caller, amount); err != nil {
		return err
	}
	return w.ex.transfer(model.Native(), w.address, caller, amount)
}
