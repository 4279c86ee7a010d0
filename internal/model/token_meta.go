package model

import "fmt"

// TokenMeta is the ERC20 metadata shown next to token addresses.
type TokenMeta struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals uint8  `json:"decimals"`
}

// String renders "SYMBOL (0x...)", or the bare address without a symbol.
func (m TokenMeta) String() string {
	if m.Symbol == "" {
		return m.Address
	}
	return fmt.Sprintf("%s (%s)", m.Symbol, m.Address)
}
