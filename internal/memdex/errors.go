package memdex

import "errors"

var (
	ErrIdenticalAddresses          = errors.New("identical addresses")
	ErrPairExists                  = errors.New("pair exists")
	ErrInsufficientLiquidity       = errors.New("insufficient liquidity")
	ErrInsufficientInputAmount     = errors.New("insufficient input amount")
	ErrInsufficientLiquidityMinted = errors.New("insufficient liquidity minted")
)
