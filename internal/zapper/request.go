package zapper

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lpzap/internal/dex"
	"lpzap/internal/model"
)

// Entry names the public entry point a zap came through.
type Entry string

const (
	EntryZap       Entry = "zap"
	EntryZapNative Entry = "zap_native"
)

// Call carries the transaction context: who is calling and how much native
// currency is attached.
type Call struct {
	Caller common.Address
	Value  *big.Int
}

// ZapRequest converts InputAmount of the InputAsset token into LP shares of
// the pair formed by the terminal tokens of Path0 and Path1. An empty or
// single-element path keeps that side in the input token. PairHint, when
// set, must name the same two tokens in either order.
type ZapRequest struct {
	InputAsset   common.Address
	InputAmount  *big.Int
	Path0        model.Path
	Path1        model.Path
	PairHint     [2]common.Address
	MinSwapOut   [2]*big.Int
	MinLiquidity [2]*big.Int
	Recipient    common.Address
	Deadline     uint64
}

// NativeZapRequest is a ZapRequest funded by the call's attached value.
type NativeZapRequest struct {
	Path0        model.Path
	Path1        model.Path
	PairHint     [2]common.Address
	MinSwapOut   [2]*big.Int
	MinLiquidity [2]*big.Int
	Recipient    common.Address
	Deadline     uint64
}

func (r NativeZapRequest) withInput(token common.Address, amount *big.Int) ZapRequest {
	return ZapRequest{
		InputAsset:   token,
		InputAmount:  amount,
		Path0:        r.Path0,
		Path1:        r.Path1,
		PairHint:     r.PairHint,
		MinSwapOut:   r.MinSwapOut,
		MinLiquidity: r.MinLiquidity,
		Recipient:    r.Recipient,
		Deadline:     r.Deadline,
	}
}

// plan is a validated request: target sides resolved and input split.
type plan struct {
	input        common.Address
	amount       *big.Int
	sides        [2]common.Address
	legs         [2]model.SwapLeg
	minLiquidity [2]*big.Int
	recipient    common.Address
	deadline     uint64
}

func newPlan(req ZapRequest, now uint64) (*plan, error) {
	if req.InputAsset == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero input asset", dex.ErrInvalidRequest)
	}
	if req.InputAmount == nil || req.InputAmount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: input amount must be positive", dex.ErrInvalidRequest)
	}
	if req.Recipient == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero recipient", dex.ErrInvalidRequest)
	}
	for _, path := range []model.Path{req.Path0, req.Path1} {
		for _, token := range path {
			if token == (common.Address{}) {
				return nil, fmt.Errorf("%w: zero address in path %s", dex.ErrInvalidRequest, path)
			}
		}
	}
	if now > req.Deadline {
		return nil, fmt.Errorf("%w: now %d > deadline %d", dex.ErrExpired, now, req.Deadline)
	}

	sides, err := resolveSides(req.InputAsset, req.Path0, req.Path1, req.PairHint)
	if err != nil {
		return nil, err
	}

	half := new(big.Int).Rsh(req.InputAmount, 1)
	other := new(big.Int).Sub(req.InputAmount, half)
	p := &plan{
		input:        req.InputAsset,
		amount:       new(big.Int).Set(req.InputAmount),
		sides:        sides,
		minLiquidity: [2]*big.Int{orZero(req.MinLiquidity[0]), orZero(req.MinLiquidity[1])},
		recipient:    req.Recipient,
		deadline:     req.Deadline,
	}
	p.legs[0] = model.SwapLeg{InputAsset: req.InputAsset, InputAmount: half, Path: req.Path0.Clone(), MinOutput: orZero(req.MinSwapOut[0])}
	p.legs[1] = model.SwapLeg{InputAsset: req.InputAsset, InputAmount: other, Path: req.Path1.Clone(), MinOutput: orZero(req.MinSwapOut[1])}
	return p, nil
}

// resolveSides picks each side's token from its path terminus and checks the
// pair hint against them.
func resolveSides(input common.Address, path0, path1 model.Path, hint [2]common.Address) ([2]common.Address, error) {
	var sides [2]common.Address
	for i, path := range []model.Path{path0, path1} {
		first, ok := path.First()
		if !ok {
			sides[i] = input
			continue
		}
		if first != input {
			return sides, fmt.Errorf("%w: path%d starts at %s, input is %s", dex.ErrPathMismatch, i, first.Hex(), input.Hex())
		}
		sides[i], _ = path.Last()
	}
	if sides[0] == sides[1] {
		return sides, fmt.Errorf("%w: both sides resolve to %s", dex.ErrPathMismatch, sides[0].Hex())
	}

	zero := common.Address{}
	switch {
	case hint[0] == zero && hint[1] == zero:
	case hint[0] == zero || hint[1] == zero:
		return sides, fmt.Errorf("%w: pair hint needs both tokens", dex.ErrInvalidRequest)
	default:
		target := model.NewPair(hint[0], hint[1], zero)
		if !target.Matches(sides[0], sides[1]) {
			return sides, fmt.Errorf("%w: sides %s/%s do not match pair %s/%s",
				dex.ErrPathMismatch, sides[0].Hex(), sides[1].Hex(), hint[0].Hex(), hint[1].Hex())
		}
	}
	return sides, nil
}

// check guards the target pair and every hop of both legs.
func (p *plan) check(ctx context.Context, guard *Guard) (model.Pair, error) {
	pair, err := guard.Check(ctx, p.sides[0], p.sides[1])
	if err != nil {
		return model.Pair{}, err
	}
	for _, leg := range p.legs {
		if err := guard.CheckPath(ctx, leg.Path); err != nil {
			return model.Pair{}, err
		}
	}
	return pair, nil
}

func (p *plan) liquidityRequest(amount0, amount1 *big.Int) model.LiquidityRequest {
	return model.LiquidityRequest{
		AssetA:     p.sides[0],
		AmountA:    amount0,
		AssetB:     p.sides[1],
		AmountB:    amount1,
		MinAmountA: p.minLiquidity[0],
		MinAmountB: p.minLiquidity[1],
		Deadline:   p.deadline,
		Recipient:  p.recipient,
	}
}

// Preflight runs request validation and every pair check against registry
// without moving any value.
func Preflight(ctx context.Context, registry dex.PairRegistry, now uint64, req ZapRequest) (model.Pair, error) {
	p, err := newPlan(req, now)
	if err != nil {
		return model.Pair{}, &Error{State: StateInit, Err: err}
	}
	pair, err := p.check(ctx, NewGuard(registry))
	if err != nil {
		return model.Pair{}, &Error{State: StateInit, Err: err}
	}
	return pair, nil
}
