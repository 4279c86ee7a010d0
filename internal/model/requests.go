package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SwapLeg is one side's conversion from the input asset to the side token.
type SwapLeg struct {
	InputAsset  common.Address
	InputAmount *big.Int
	Path        Path
	MinOutput   *big.Int
}

// OutputAsset returns the side token produced by the leg.
func (l SwapLeg) OutputAsset() common.Address {
	if last, ok := l.Path.Last(); ok {
		return last
	}
	return l.InputAsset
}

// LiquidityRequest is the deposit built once both legs resolve.
type LiquidityRequest struct {
	AssetA     common.Address
	AmountA    *big.Int
	AssetB     common.Address
	AmountB    *big.Int
	MinAmountA *big.Int
	MinAmountB *big.Int
	Deadline   uint64
	Recipient  common.Address
}

// DustTransfer records one leftover balance returned to the caller.
type DustTransfer struct {
	Asset  Asset  `json:"asset"`
	Amount string `json:"amount"`
}
