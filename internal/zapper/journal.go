package zapper

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lpzap/internal/model"
)

// journal keeps a readable trace of every effect a zap performed, in order.
type journal struct {
	entries []string
}

func (j *journal) record(format string, args ...any) {
	if j == nil {
		return
	}
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) pull(asset model.Asset, from common.Address, amount *big.Int) {
	j.record("pull %s %s from %s", amount, asset, from.Hex())
}

func (j *journal) wrap(amount *big.Int) {
	j.record("wrap %s", amount)
}

func (j *journal) unwrap(amount *big.Int) {
	j.record("unwrap %s", amount)
}

func (j *journal) swap(path model.Path, in, out *big.Int) {
	j.record("swap %s %s -> %s", path, in, out)
}

func (j *journal) compose(tokenA, tokenB common.Address, usedA, usedB, liquidity *big.Int, to common.Address) {
	j.record("add liquidity %s/%s used %s/%s minted %s to %s", tokenA.Hex(), tokenB.Hex(), usedA, usedB, liquidity, to.Hex())
}

func (j *journal) sweep(asset model.Asset, amount *big.Int, to common.Address) {
	j.record("sweep %s %s to %s", amount, asset, to.Hex())
}

func (j *journal) snapshot() []string {
	if j == nil || len(j.entries) == 0 {
		return nil
	}
	out := make([]string, len(j.entries))
	copy(out, j.entries)
	return out
}
