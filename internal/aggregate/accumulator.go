// Package aggregate folds zap receipts into per-pair totals.
package aggregate

import (
	"fmt"
	"math/big"
	"sort"

	"lpzap/internal/model"
)

// Unresolved groups receipts that failed before a pair was known.
const Unresolved = "unresolved"

// Accumulator holds the totals for one pair.
type Accumulator struct {
	Pair      string
	Token0    string
	Token1    string
	Zaps      uint64
	Settled   uint64
	Results   map[string]uint64
	Liquidity *big.Int
	Used0     *big.Int
	Used1     *big.Int
	// Dust sums every returned leftover by asset.
	Dust    map[model.Asset]*big.Int
	FirstTS uint64
	LastTS  uint64
}

func NewAccumulator(receipt model.ZapReceipt) *Accumulator {
	pair := receipt.Pair
	if pair == "" {
		pair = Unresolved
	}
	return &Accumulator{
		Pair:      pair,
		Token0:    receipt.Token0,
		Token1:    receipt.Token1,
		Results:   make(map[string]uint64),
		Liquidity: big.NewInt(0),
		Used0:     big.NewInt(0),
		Used1:     big.NewInt(0),
		Dust:      make(map[model.Asset]*big.Int),
		FirstTS:   receipt.Timestamp,
		LastTS:    receipt.Timestamp,
	}
}

// AddReceipt folds one receipt into the totals. Amounts of failed zaps are
// not counted.
func (a *Accumulator) AddReceipt(receipt model.ZapReceipt) error {
	if receipt.Timestamp < a.FirstTS {
		a.FirstTS = receipt.Timestamp
	}
	if receipt.Timestamp > a.LastTS {
		a.LastTS = receipt.Timestamp
	}
	a.Zaps++

	result := receipt.Result
	if result == "" {
		result = "ok"
		if !receipt.Succeeded() {
			result = "other"
		}
	}
	a.Results[result]++
	if !receipt.Succeeded() {
		return nil
	}
	a.Settled++

	for _, field := range []struct {
		target *big.Int
		value  string
	}{
		{a.Liquidity, receipt.Liquidity},
		{a.Used0, receipt.Used0},
		{a.Used1, receipt.Used1},
	} {
		v, err := parseBigInt(field.value)
		if err != nil {
			return fmt.Errorf("receipt %s: %w", receipt.ID, err)
		}
		field.target.Add(field.target, v)
	}

	for _, dust := range receipt.Dust {
		v, err := parseBigInt(dust.Amount)
		if err != nil {
			return fmt.Errorf("receipt %s dust: %w", receipt.ID, err)
		}
		if v.Sign() == 0 {
			continue
		}
		total, ok := a.Dust[dust.Asset]
		if !ok {
			total = big.NewInt(0)
			a.Dust[dust.Asset] = total
		}
		total.Add(total, v)
	}
	return nil
}

// Summarize groups receipts by pair, ordered by pair address with the
// unresolved group last.
func Summarize(receipts []model.ZapReceipt) ([]*Accumulator, error) {
	byPair := make(map[string]*Accumulator)
	for _, receipt := range receipts {
		key := receipt.Pair
		if key == "" {
			key = Unresolved
		}
		acc, ok := byPair[key]
		if !ok {
			acc = NewAccumulator(receipt)
			byPair[key] = acc
		}
		if err := acc.AddReceipt(receipt); err != nil {
			return nil, err
		}
	}

	out := make([]*Accumulator, 0, len(byPair))
	for _, acc := range byPair {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].Pair == Unresolved) != (out[j].Pair == Unresolved) {
			return out[j].Pair == Unresolved
		}
		return out[i].Pair < out[j].Pair
	})
	return out, nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}
