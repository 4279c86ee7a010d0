package zapper

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lpzap/internal/dex"
	"lpzap/internal/model"
)

// NativeAdapter converts between the native currency and its wrapped token
// for the zapper's own balance.
type NativeAdapter struct {
	self    common.Address
	ledger  dex.Ledger
	wrapped dex.WrappedNative
	token   common.Address
	journal *journal
}

func NewNativeAdapter(self common.Address, ledger dex.Ledger, wrapped dex.WrappedNative, token common.Address) *NativeAdapter {
	return &NativeAdapter{self: self, ledger: ledger, wrapped: wrapped, token: token}
}

func (n *NativeAdapter) withJournal(j *journal) *NativeAdapter {
	clone := *n
	clone.journal = j
	return &clone
}

// Token returns the wrapped token address.
func (n *NativeAdapter) Token() common.Address {
	return n.token
}

// Wrap deposits amount of the zapper's native balance.
func (n *NativeAdapter) Wrap(ctx context.Context, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if err := n.wrapped.Deposit(ctx, n.self, amount); err != nil {
		return asTransferFailure(err, "wrap %s", amount)
	}
	n.journal.wrap(amount)
	return nil
}

// Unwrap withdraws amount of the zapper's wrapped balance back to native.
func (n *NativeAdapter) Unwrap(ctx context.Context, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if err := n.wrapped.Withdraw(ctx, n.self, amount); err != nil {
		return asTransferFailure(err, "unwrap %s", amount)
	}
	n.journal.unwrap(amount)
	return nil
}

// UnwrapAll converts the zapper's entire wrapped balance to native.
func (n *NativeAdapter) UnwrapAll(ctx context.Context) (*big.Int, error) {
	bal, err := n.ledger.BalanceOf(ctx, model.Token(n.token), n.self)
	if err != nil {
		return nil, fmt.Errorf("wrapped balance: %w", err)
	}
	if err := n.Unwrap(ctx, bal); err != nil {
		return nil, err
	}
	return bal, nil
}
