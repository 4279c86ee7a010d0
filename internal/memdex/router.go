package memdex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lpzap/internal/dex"
	"lpzap/internal/model"
)

// Router is the exchange's swap and liquidity entry point. Its methods expect
// to run inside Exchange.Atomic.
type Router struct {
	ex      *Exchange
	address common.Address
}

var _ dex.Router = (*Router)(nil)

func (r *Router) Address() common.Address {
	return r.address
}

func (r *Router) WrappedNative() common.Address {
	return r.ex.wrapped.address
}

func (r *Router) GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	return r.ex.GetPair(ctx, tokenA, tokenB)
}

// GetAmountsOut returns the amount held after each hop of path for amountIn.
func (r *Router) GetAmountsOut(amountIn *big.Int, path model.Path) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("%w: path needs at least two tokens, got %d", dex.ErrPathMismatch, len(path))
	}
	amounts := make([]*big.Int, len(path))
	amounts[0] = new(big.Int).Set(amountIn)
	for i, hop := range path.Hops() {
		pair := r.ex.state.pairs[newPairKey(hop[0], hop[1])]
		if pair == (common.Address{}) {
			return nil, fmt.Errorf("%w: %s/%s", dex.ErrPairNotFound, hop[0].Hex(), hop[1].Hex())
		}
		reserveIn, reserveOut := r.ex.Reserves(pair, hop[0], hop[1])
		out, err := GetAmountOut(amounts[i], reserveIn, reserveOut)
		if err != nil {
			return nil, fmt.Errorf("hop %d: %w", i, err)
		}
		amounts[i+1] = out
	}
	return amounts, nil
}

// SwapExactTokensForTokens pulls amountIn of path[0] from caller and routes it
// through every hop, delivering the final token to to.
func (r *Router) SwapExactTokensForTokens(
	ctx context.Context,
	caller common.Address,
	amountIn *big.Int,
	amountOutMin *big.Int,
	path model.Path,
	to common.Address,
	deadline uint64,
) ([]*big.Int, error) {
	if err := r.ensure(deadline); err != nil {
		return nil, err
	}
	amounts, err := r.GetAmountsOut(amountIn, path)
	if err != nil {
		return nil, err
	}
	if out := amounts[len(amounts)-1]; amountOutMin != nil && out.Cmp(amountOutMin) < 0 {
		return nil, fmt.Errorf("%w: output %s below minimum %s", dex.ErrSlippageExceeded, out, amountOutMin)
	}

	hops := path.Hops()
	pairs := make([]common.Address, len(hops))
	for i, hop := range hops {
		pairs[i] = r.ex.state.pairs[newPairKey(hop[0], hop[1])]
	}

	if err := r.ex.TransferFrom(ctx, path[0], r.address, caller, pairs[0], amounts[0]); err != nil {
		return nil, err
	}
	for i, hop := range hops {
		dest := to
		if i+1 < len(pairs) {
			dest = pairs[i+1]
		}
		if err := r.ex.transfer(model.Token(hop[1]), pairs[i], dest, amounts[i+1]); err != nil {
			return nil, err
		}
	}
	return amounts, nil
}

// AddLiquidity deposits the ratio-optimal amounts of tokenA and tokenB from
// caller and mints LP shares of the pair to to. A missing pair is created.
func (r *Router) AddLiquidity(
	ctx context.Context,
	caller common.Address,
	tokenA, tokenB common.Address,
	amountADesired, amountBDesired *big.Int,
	amountAMin, amountBMin *big.Int,
	to common.Address,
	deadline uint64,
) (*big.Int, *big.Int, *big.Int, error) {
	if err := r.ensure(deadline); err != nil {
		return nil, nil, nil, err
	}
	if tokenA == tokenB {
		return nil, nil, nil, ErrIdenticalAddresses
	}
	pair := r.ex.state.pairs[newPairKey(tokenA, tokenB)]
	if pair == (common.Address{}) {
		created, err := r.ex.createPair(tokenA, tokenB)
		if err != nil {
			return nil, nil, nil, err
		}
		pair = created
	}

	reserveA, reserveB := r.ex.Reserves(pair, tokenA, tokenB)
	amountA, amountB, err := optimalAmounts(reserveA, reserveB, amountADesired, amountBDesired, amountAMin, amountBMin)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := r.ex.TransferFrom(ctx, tokenA, r.address, caller, pair, amountA); err != nil {
		return nil, nil, nil, err
	}
	if err := r.ex.TransferFrom(ctx, tokenB, r.address, caller, pair, amountB); err != nil {
		return nil, nil, nil, err
	}

	lpAsset := model.Token(pair)
	supply := r.ex.state.totalSupply(lpAsset)
	var liquidity *big.Int
	if supply.Sign() == 0 {
		liquidity = new(big.Int).Mul(amountA, amountB)
		liquidity.Sqrt(liquidity)
		liquidity.Sub(liquidity, MinimumLiquidity)
		if liquidity.Sign() > 0 {
			r.ex.mint(lpAsset, common.Address{}, MinimumLiquidity)
		}
	} else {
		byA := new(big.Int).Mul(amountA, supply)
		byA.Div(byA, reserveA)
		byB := new(big.Int).Mul(amountB, supply)
		byB.Div(byB, reserveB)
		liquidity = minBig(byA, byB)
	}
	if liquidity.Sign() <= 0 {
		return nil, nil, nil, ErrInsufficientLiquidityMinted
	}
	r.ex.mint(lpAsset, to, liquidity)

	return amountA, amountB, liquidity, nil
}

func (r *Router) ensure(deadline uint64) error {
	if now := r.ex.Now(); now > deadline {
		return fmt.Errorf("%w: now %d > deadline %d", dex.ErrExpired, now, deadline)
	}
	return nil
}

func optimalAmounts(reserveA, reserveB, desiredA, desiredB, minA, minB *big.Int) (*big.Int, *big.Int, error) {
	if reserveA.Sign() == 0 && reserveB.Sign() == 0 {
		return new(big.Int).Set(desiredA), new(big.Int).Set(desiredB), nil
	}
	optimalB, err := Quote(desiredA, reserveA, reserveB)
	if err != nil {
		return nil, nil, err
	}
	if optimalB.Cmp(desiredB) <= 0 {
		if minB != nil && optimalB.Cmp(minB) < 0 {
			return nil, nil, fmt.Errorf("%w: token B %s below minimum %s", dex.ErrInsufficientLiquidityOutput, optimalB, minB)
		}
		return new(big.Int).Set(desiredA), optimalB, nil
	}
	optimalA, err := Quote(desiredB, reserveB, reserveA)
	if err != nil {
		return nil, nil, err
	}
	if minA != nil && optimalA.Cmp(minA) < 0 {
		return nil, nil, fmt.Errorf("%w: token A %s below minimum %s", dex.ErrInsufficientLiquidityOutput, optimalA, minA)
	}
	return optimalA, new(big.Int).Set(desiredB), nil
}
