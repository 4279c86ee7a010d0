package zapper

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lpzap/internal/dex"
	"lpzap/internal/model"
)

// Composer deposits the two side balances into the target pair.
type Composer struct {
	self    common.Address
	ledger  dex.Ledger
	router  dex.Router
	journal *journal
}

func NewComposer(self common.Address, ledger dex.Ledger, router dex.Router) *Composer {
	return &Composer{self: self, ledger: ledger, router: router}
}

func (c *Composer) withJournal(j *journal) *Composer {
	clone := *c
	clone.journal = j
	return &clone
}

// Compose adds liquidity with the requested amounts. The router may consume
// less than offered on one side; whatever it leaves stays with the zapper for
// the sweep. Used amounts below the request minimums fail with
// dex.ErrInsufficientLiquidityOutput.
func (c *Composer) Compose(ctx context.Context, req model.LiquidityRequest) (*big.Int, *big.Int, *big.Int, error) {
	if req.AmountA == nil || req.AmountB == nil || req.AmountA.Sign() <= 0 || req.AmountB.Sign() <= 0 {
		return nil, nil, nil, fmt.Errorf("%w: liquidity amounts must be positive", dex.ErrInvalidRequest)
	}
	if req.Recipient == (common.Address{}) {
		return nil, nil, nil, fmt.Errorf("%w: zero liquidity recipient", dex.ErrInvalidRequest)
	}
	minA := orZero(req.MinAmountA)
	minB := orZero(req.MinAmountB)

	routerAddr := c.router.Address()
	if err := c.ledger.Approve(ctx, req.AssetA, c.self, routerAddr, req.AmountA); err != nil {
		return nil, nil, nil, asTransferFailure(err, "approve router for %s", req.AssetA.Hex())
	}
	if err := c.ledger.Approve(ctx, req.AssetB, c.self, routerAddr, req.AmountB); err != nil {
		return nil, nil, nil, asTransferFailure(err, "approve router for %s", req.AssetB.Hex())
	}

	usedA, usedB, liquidity, err := c.router.AddLiquidity(
		ctx,
		c.self,
		req.AssetA, req.AssetB,
		req.AmountA, req.AmountB,
		minA, minB,
		req.Recipient,
		req.Deadline,
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("add liquidity: %w", err)
	}
	if usedA.Cmp(minA) < 0 || usedB.Cmp(minB) < 0 {
		return nil, nil, nil, fmt.Errorf("%w: used %s/%s, minimum %s/%s", dex.ErrInsufficientLiquidityOutput, usedA, usedB, minA, minB)
	}

	if err := c.ledger.Approve(ctx, req.AssetA, c.self, routerAddr, new(big.Int)); err != nil {
		return nil, nil, nil, asTransferFailure(err, "clear router allowance")
	}
	if err := c.ledger.Approve(ctx, req.AssetB, c.self, routerAddr, new(big.Int)); err != nil {
		return nil, nil, nil, asTransferFailure(err, "clear router allowance")
	}

	c.journal.compose(req.AssetA, req.AssetB, usedA, usedB, liquidity, req.Recipient)
	return usedA, usedB, liquidity, nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
