package model

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const nativeSymbol = "native"

type assetKind uint8

const (
	kindToken assetKind = iota
	kindNative
)

// Asset identifies a fungible value unit: either the chain's native currency
// or a standard token at an address. The zero value is the token at the zero
// address and is never valid in a request.
type Asset struct {
	kind    assetKind
	address common.Address
}

// Native returns the native currency asset.
func Native() Asset {
	return Asset{kind: kindNative}
}

// Token returns the token asset at address.
func Token(address common.Address) Asset {
	return Asset{kind: kindToken, address: address}
}

func (a Asset) IsNative() bool {
	return a.kind == kindNative
}

// TokenAddress returns the token address and false for the native asset.
func (a Asset) TokenAddress() (common.Address, bool) {
	if a.kind == kindNative {
		return common.Address{}, false
	}
	return a.address, true
}

// IsZero reports whether a is the zero-address token.
func (a Asset) IsZero() bool {
	return a.kind == kindToken && a.address == (common.Address{})
}

func (a Asset) String() string {
	if a.kind == kindNative {
		return nativeSymbol
	}
	return a.address.Hex()
}

// MarshalText encodes the asset as "native" or a checksummed hex address.
func (a Asset) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes "native" or a hex address.
func (a *Asset) UnmarshalText(text []byte) error {
	parsed, err := ParseAsset(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAsset parses "native" (case-insensitive) or a hex token address.
func ParseAsset(input string) (Asset, error) {
	input = strings.TrimSpace(input)
	if strings.EqualFold(input, nativeSymbol) {
		return Native(), nil
	}
	if !common.IsHexAddress(input) {
		return Asset{}, fmt.Errorf("invalid asset: %s", input)
	}
	return Token(common.HexToAddress(input)), nil
}
