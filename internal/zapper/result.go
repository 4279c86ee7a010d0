package zapper

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lpzap/internal/model"
)

// Result describes one zap call. Failed calls still produce a Result with
// State set to StateFailed and Err set; their effects were reverted.
type Result struct {
	ID          string
	Entry       Entry
	Caller      common.Address
	Recipient   common.Address
	Input       model.Asset
	InputAmount *big.Int
	Pair        model.Pair

	// Sides are the side tokens in Path0/Path1 order.
	Sides     [2]common.Address
	Outputs   [2]*big.Int
	Used      [2]*big.Int
	Liquidity *big.Int
	Dust      []model.DustTransfer
	Effects   []string
	State     State
	Err       error
	Timestamp uint64
}

// DustOf returns how much of asset was returned to the caller.
func (r *Result) DustOf(asset model.Asset) *big.Int {
	for _, d := range r.Dust {
		if d.Asset != asset {
			continue
		}
		if v, ok := new(big.Int).SetString(d.Amount, 10); ok {
			return v
		}
	}
	return new(big.Int)
}

// Receipt converts the result to its persisted form.
func (r *Result) Receipt() model.ZapReceipt {
	receipt := model.ZapReceipt{
		ID:          r.ID,
		Entry:       string(r.Entry),
		Caller:      r.Caller.Hex(),
		Recipient:   r.Recipient.Hex(),
		InputAsset:  r.Input,
		InputAmount: bigString(r.InputAmount),
		Amount0:     bigString(r.Outputs[0]),
		Amount1:     bigString(r.Outputs[1]),
		Used0:       bigString(r.Used[0]),
		Used1:       bigString(r.Used[1]),
		Liquidity:   bigString(r.Liquidity),
		Dust:        r.Dust,
		Effects:     r.Effects,
		State:       string(r.State),
		Result:      Label(r.Err),
		Timestamp:   r.Timestamp,
	}
	if r.Pair.Address != (common.Address{}) {
		receipt.Pair = r.Pair.Address.Hex()
	}
	if r.Sides[0] != (common.Address{}) {
		receipt.Token0 = r.Sides[0].Hex()
		receipt.Token1 = r.Sides[1].Hex()
	}
	if r.Err != nil {
		receipt.Error = r.Err.Error()
	}
	return receipt
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
