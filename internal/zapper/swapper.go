package zapper

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lpzap/internal/dex"
	"lpzap/internal/model"
)

// Swapper runs one swap leg through the router on behalf of the zapper.
type Swapper struct {
	self    common.Address
	ledger  dex.Ledger
	router  dex.Router
	guard   *Guard
	now     func() uint64
	journal *journal
}

func NewSwapper(self common.Address, ledger dex.Ledger, router dex.Router, guard *Guard, now func() uint64) *Swapper {
	return &Swapper{self: self, ledger: ledger, router: router, guard: guard, now: now}
}

func (s *Swapper) withJournal(j *journal) *Swapper {
	clone := *s
	clone.journal = j
	return &clone
}

// Swap converts leg.InputAmount along leg.Path and returns the amount of the
// output token that reached recipient. A path with fewer than two elements is
// a no-op returning the input amount.
func (s *Swapper) Swap(ctx context.Context, leg model.SwapLeg, recipient common.Address, deadline uint64) (*big.Int, error) {
	if now := s.now(); now > deadline {
		return nil, fmt.Errorf("%w: now %d > deadline %d", dex.ErrExpired, now, deadline)
	}
	if leg.InputAmount == nil || leg.InputAmount.Sign() < 0 {
		return nil, fmt.Errorf("%w: invalid leg amount", dex.ErrInvalidRequest)
	}
	if first, ok := leg.Path.First(); ok && first != leg.InputAsset {
		return nil, fmt.Errorf("%w: path starts at %s, input is %s", dex.ErrPathMismatch, first.Hex(), leg.InputAsset.Hex())
	}
	if leg.Path.IsTrivial() {
		return new(big.Int).Set(leg.InputAmount), nil
	}
	if leg.InputAmount.Sign() == 0 {
		return nil, fmt.Errorf("%w: zero swap input", dex.ErrInvalidRequest)
	}
	if err := s.guard.CheckPath(ctx, leg.Path); err != nil {
		return nil, err
	}

	output := leg.OutputAsset()
	before, err := s.ledger.BalanceOf(ctx, model.Token(output), recipient)
	if err != nil {
		return nil, fmt.Errorf("balance before swap: %w", err)
	}

	routerAddr := s.router.Address()
	if err := s.ledger.Approve(ctx, leg.InputAsset, s.self, routerAddr, leg.InputAmount); err != nil {
		return nil, asTransferFailure(err, "approve router")
	}
	minOut := leg.MinOutput
	if minOut == nil {
		minOut = new(big.Int)
	}
	if _, err := s.router.SwapExactTokensForTokens(ctx, s.self, leg.InputAmount, minOut, leg.Path, recipient, deadline); err != nil {
		return nil, fmt.Errorf("swap %s: %w", leg.Path, err)
	}
	if err := s.ledger.Approve(ctx, leg.InputAsset, s.self, routerAddr, new(big.Int)); err != nil {
		return nil, asTransferFailure(err, "clear router allowance")
	}

	after, err := s.ledger.BalanceOf(ctx, model.Token(output), recipient)
	if err != nil {
		return nil, fmt.Errorf("balance after swap: %w", err)
	}
	received := new(big.Int).Sub(after, before)
	if output == leg.InputAsset && recipient == s.self {
		received.Add(received, leg.InputAmount)
	}
	if received.Cmp(minOut) < 0 {
		return nil, fmt.Errorf("%w: received %s below minimum %s", dex.ErrSlippageExceeded, received, minOut)
	}

	s.journal.swap(leg.Path, leg.InputAmount, received)
	return received, nil
}
