package chain

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lpzap/internal/model"
)

// tokenCache caches token metadata by address.
type tokenCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.TokenMeta
}

func (c *tokenCache) get(address common.Address) (model.TokenMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *tokenCache) set(address common.Address, meta model.TokenMeta) {
	c.mu.Lock()
	if c.data == nil {
		c.data = make(map[common.Address]model.TokenMeta)
	}
	c.data[address] = meta
	c.mu.Unlock()
}

// TokenMeta loads a token's decimals and symbol. Decimals are required; a
// missing symbol is logged and left empty. Results are cached.
func (r *Registry) TokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	if meta, ok := r.tokens.get(token); ok {
		return meta, nil
	}
	meta := model.TokenMeta{Address: token.Hex()}

	erc20, err := ERC20ABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := r.call(ctx, token, erc20, "decimals")
	if err != nil {
		return meta, err
	}
	if meta.Decimals, err = asUint8(values[0]); err != nil {
		return meta, err
	}

	if values, err := r.call(ctx, token, erc20, "symbol"); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if legacy, abiErr := erc20Bytes32Instance(); abiErr == nil {
		if values, err := r.call(ctx, token, legacy, "symbol"); err == nil {
			meta.Symbol = bytes32ToString(values[0])
		} else {
			r.logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
		}
	}

	r.tokens.set(token, meta)
	return meta, nil
}

func bytes32ToString(value interface{}) string {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00"))
	case []byte:
		return string(bytes.TrimRight(v, "\x00"))
	default:
		return ""
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
