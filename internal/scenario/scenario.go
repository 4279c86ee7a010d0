// Package scenario scripts zap simulations against the in-memory exchange.
package scenario

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// NativeSymbol names the native currency in balances and zap inputs.
	NativeSymbol = "NATIVE"
	// WrappedSymbol names the exchange's wrapped native token.
	WrappedSymbol = "WNATIVE"

	defaultDecimals   = 18
	defaultDeadlineIn = 600
)

// Scenario is a scripted market plus a sequence of zaps.
type Scenario struct {
	Name     string    `yaml:"name"`
	Now      uint64    `yaml:"now"`
	Tokens   []Token   `yaml:"tokens"`
	Accounts []Account `yaml:"accounts"`
	Pools    []Pool    `yaml:"pools"`
	Zaps     []Zap     `yaml:"zaps"`
}

type Token struct {
	Symbol   string `yaml:"symbol"`
	Decimals int32  `yaml:"decimals"`
}

// Account balances are human decimal amounts keyed by symbol.
type Account struct {
	Name     string            `yaml:"name"`
	Balances map[string]string `yaml:"balances"`
}

// Pool seeds a pair with initial reserves.
type Pool struct {
	Tokens  [2]string `yaml:"tokens"`
	Amounts [2]string `yaml:"amounts"`
}

// Zap is one scripted call. Input NATIVE uses the native entry point.
type Zap struct {
	Name         string    `yaml:"name"`
	Caller       string    `yaml:"caller"`
	Recipient    string    `yaml:"recipient"`
	Input        string    `yaml:"input"`
	Amount       string    `yaml:"amount"`
	Path0        []string  `yaml:"path0"`
	Path1        []string  `yaml:"path1"`
	Pair         []string  `yaml:"pair"`
	MinSwapOut   [2]string `yaml:"min_swap_out"`
	MinLiquidity [2]string `yaml:"min_liquidity"`
	DeadlineIn   *int64    `yaml:"deadline_in"`
	SkipApproval bool      `yaml:"skip_approval"`
	Expect       string    `yaml:"expect"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario, rejecting unknown keys.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	symbols := map[string]struct{}{NativeSymbol: {}, WrappedSymbol: {}}
	for i, token := range sc.Tokens {
		symbol := strings.TrimSpace(token.Symbol)
		if symbol == "" {
			return fmt.Errorf("token %d: symbol is required", i)
		}
		if _, ok := symbols[symbol]; ok {
			return fmt.Errorf("token %s: duplicate or reserved symbol", symbol)
		}
		if token.Decimals < 0 || token.Decimals > 36 {
			return fmt.Errorf("token %s: decimals out of range", symbol)
		}
		symbols[symbol] = struct{}{}
	}
	known := func(symbol string) error {
		if _, ok := symbols[symbol]; !ok {
			return fmt.Errorf("unknown token %q", symbol)
		}
		return nil
	}

	accounts := make(map[string]struct{}, len(sc.Accounts))
	for _, account := range sc.Accounts {
		if account.Name == "" {
			return fmt.Errorf("account name is required")
		}
		accounts[account.Name] = struct{}{}
		for symbol := range account.Balances {
			if err := known(symbol); err != nil {
				return fmt.Errorf("account %s: %w", account.Name, err)
			}
		}
	}
	for i, pool := range sc.Pools {
		for _, symbol := range pool.Tokens {
			if symbol == NativeSymbol {
				return fmt.Errorf("pool %d: native currency cannot be pooled, use %s", i, WrappedSymbol)
			}
			if err := known(symbol); err != nil {
				return fmt.Errorf("pool %d: %w", i, err)
			}
		}
	}
	for i, zap := range sc.Zaps {
		name := zap.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		if _, ok := accounts[zap.Caller]; !ok {
			return fmt.Errorf("zap %s: unknown caller %q", name, zap.Caller)
		}
		if zap.Recipient != "" {
			if _, ok := accounts[zap.Recipient]; !ok {
				return fmt.Errorf("zap %s: unknown recipient %q", name, zap.Recipient)
			}
		}
		if err := known(zap.Input); err != nil {
			return fmt.Errorf("zap %s: %w", name, err)
		}
		if len(zap.Pair) != 0 && len(zap.Pair) != 2 {
			return fmt.Errorf("zap %s: pair needs exactly two tokens", name)
		}
		for _, symbol := range append(append(append([]string{}, zap.Path0...), zap.Path1...), zap.Pair...) {
			if symbol == NativeSymbol {
				return fmt.Errorf("zap %s: paths and pairs take %s, not %s", name, WrappedSymbol, NativeSymbol)
			}
			if err := known(symbol); err != nil {
				return fmt.Errorf("zap %s: %w", name, err)
			}
		}
	}
	return nil
}
