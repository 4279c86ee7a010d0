package dex

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lpzap/internal/model"
)

// Ledger moves value of either asset kind between accounts.
type Ledger interface {
	BalanceOf(ctx context.Context, asset model.Asset, owner common.Address) (*big.Int, error)
	Transfer(ctx context.Context, asset model.Asset, from, to common.Address, amount *big.Int) error
	// TransferFrom moves tokens on behalf of owner, consuming spender's allowance.
	TransferFrom(ctx context.Context, token, spender, from, to common.Address, amount *big.Int) error
	Approve(ctx context.Context, token, owner, spender common.Address, amount *big.Int) error
}

// PairRegistry resolves the market for two tokens. A zero address means the
// pair has never been created.
type PairRegistry interface {
	GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error)
}

// Router executes swaps and liquidity deposits on behalf of caller. It pulls
// inputs with Ledger.TransferFrom, so caller must approve Address() first.
type Router interface {
	PairRegistry

	Address() common.Address
	WrappedNative() common.Address

	// SwapExactTokensForTokens fails with ErrSlippageExceeded when the final
	// output is below amountOutMin and with ErrExpired past deadline.
	SwapExactTokensForTokens(
		ctx context.Context,
		caller common.Address,
		amountIn *big.Int,
		amountOutMin *big.Int,
		path model.Path,
		to common.Address,
		deadline uint64,
	) ([]*big.Int, error)

	// AddLiquidity fails with ErrInsufficientLiquidityOutput when the ratio-optimal
	// amounts fall below the minimums. LP shares are minted to to.
	AddLiquidity(
		ctx context.Context,
		caller common.Address,
		tokenA, tokenB common.Address,
		amountADesired, amountBDesired *big.Int,
		amountAMin, amountBMin *big.Int,
		to common.Address,
		deadline uint64,
	) (amountA *big.Int, amountB *big.Int, liquidity *big.Int, err error)
}

// WrappedNative converts native currency to and from its token form, held by caller.
type WrappedNative interface {
	Deposit(ctx context.Context, caller common.Address, amount *big.Int) error
	Withdraw(ctx context.Context, caller common.Address, amount *big.Int) error
}

// Host is the ledger environment a zap executes in.
type Host interface {
	// Now returns the current block timestamp in unix seconds.
	Now() uint64
	// Atomic runs fn as one serialized unit. Every effect fn made is discarded
	// when it returns an error.
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}
