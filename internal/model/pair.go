package model

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// Pair is one AMM market. Token0 sorts below Token1.
type Pair struct {
	Token0  common.Address `json:"token0"`
	Token1  common.Address `json:"token1"`
	Address common.Address `json:"address"`
}

// SortTokens orders two token addresses the way pair registries key them.
func SortTokens(a, b common.Address) (common.Address, common.Address) {
	if bytes.Compare(a.Bytes(), b.Bytes()) < 0 {
		return a, b
	}
	return b, a
}

// NewPair builds a Pair with sorted tokens.
func NewPair(a, b, address common.Address) Pair {
	token0, token1 := SortTokens(a, b)
	return Pair{Token0: token0, Token1: token1, Address: address}
}

// Has reports whether token is one side of the pair.
func (p Pair) Has(token common.Address) bool {
	return p.Token0 == token || p.Token1 == token
}

// Matches reports whether {a, b} is the same unordered set as the pair tokens.
func (p Pair) Matches(a, b common.Address) bool {
	return (p.Token0 == a && p.Token1 == b) || (p.Token0 == b && p.Token1 == a)
}
