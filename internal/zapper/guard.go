package zapper

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"lpzap/internal/dex"
	"lpzap/internal/model"
)

// Guard confirms markets exist before value moves through them.
type Guard struct {
	registry dex.PairRegistry
}

func NewGuard(registry dex.PairRegistry) *Guard {
	return &Guard{registry: registry}
}

// Check returns the pair for a and b, failing with dex.ErrPairNotFound when
// the registry has none or a equals b.
func (g *Guard) Check(ctx context.Context, a, b common.Address) (model.Pair, error) {
	if a == b {
		return model.Pair{}, fmt.Errorf("%w: %s/%s", dex.ErrPairNotFound, a.Hex(), b.Hex())
	}
	address, err := g.registry.GetPair(ctx, a, b)
	if err != nil {
		return model.Pair{}, fmt.Errorf("get pair %s/%s: %w", a.Hex(), b.Hex(), err)
	}
	if address == (common.Address{}) {
		return model.Pair{}, fmt.Errorf("%w: %s/%s", dex.ErrPairNotFound, a.Hex(), b.Hex())
	}
	return model.NewPair(a, b, address), nil
}

// CheckPath guards every hop of path.
func (g *Guard) CheckPath(ctx context.Context, path model.Path) error {
	for _, hop := range path.Hops() {
		if _, err := g.Check(ctx, hop[0], hop[1]); err != nil {
			return fmt.Errorf("path %s: %w", path, err)
		}
	}
	return nil
}
