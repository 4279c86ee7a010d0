// Package memdex is an in-memory constant-product exchange: a journaled
// ledger of balances and allowances, a pair factory, a router and a wrapped
// native token. Every mutation is journaled so a failed transaction can be
// rolled back to its snapshot.
package memdex

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"lpzap/internal/dex"
	"lpzap/internal/model"
)

// Config controls exchange construction.
type Config struct {
	// Now pins the block timestamp. Zero follows the wall clock.
	Now uint64
}

// Exchange owns the ledger state and serializes transactions.
type Exchange struct {
	mu    sync.Mutex
	state *state

	clockMu sync.RWMutex
	now     uint64

	router  *Router
	wrapped *Wrapped
}

// New builds an empty exchange with its router and wrapped native token.
func New(cfg Config) *Exchange {
	ex := &Exchange{
		state: newState(),
		now:   cfg.Now,
	}
	ex.wrapped = &Wrapped{ex: ex, address: LabelAddress("wrapped-native")}
	ex.router = &Router{ex: ex, address: LabelAddress("router")}
	return ex
}

// LabelAddress derives a stable address from a human label.
func LabelAddress(label string) common.Address {
	hash := crypto.Keccak256Hash([]byte(label))
	return common.BytesToAddress(hash[12:])
}

func (ex *Exchange) Router() *Router {
	return ex.router
}

func (ex *Exchange) Wrapped() *Wrapped {
	return ex.wrapped
}

// Now returns the block timestamp.
func (ex *Exchange) Now() uint64 {
	ex.clockMu.RLock()
	now := ex.now
	ex.clockMu.RUnlock()
	if now == 0 {
		return uint64(time.Now().Unix())
	}
	return now
}

// SetNow pins the block timestamp.
func (ex *Exchange) SetNow(ts uint64) {
	ex.clockMu.Lock()
	ex.now = ts
	ex.clockMu.Unlock()
}

// Atomic runs fn while holding the exchange lock and rolls back every effect
// fn made if it returns an error. It is not reentrant.
func (ex *Exchange) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	ex.mu.Lock()
	defer ex.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := ex.state.snapshot()
	if err := fn(ctx); err != nil {
		ex.state.revertTo(snapshot)
		return err
	}
	ex.state.journal = ex.state.journal[:0]
	return nil
}

// BalanceOf returns owner's balance of asset.
func (ex *Exchange) BalanceOf(_ context.Context, asset model.Asset, owner common.Address) (*big.Int, error) {
	return ex.state.balance(asset, owner), nil
}

// TotalSupply returns the minted supply of a token asset.
func (ex *Exchange) TotalSupply(asset model.Asset) *big.Int {
	return ex.state.totalSupply(asset)
}

// Allowance returns the remaining amount spender may pull from owner.
func (ex *Exchange) Allowance(token, owner, spender common.Address) *big.Int {
	return ex.state.allowance(allowanceKey{token: token, owner: owner, spender: spender})
}

// Transfer moves amount of asset between accounts.
func (ex *Exchange) Transfer(_ context.Context, asset model.Asset, from, to common.Address, amount *big.Int) error {
	return ex.transfer(asset, from, to, amount)
}

// TransferFrom moves tokens from owner, consuming spender's allowance.
func (ex *Exchange) TransferFrom(_ context.Context, token, spender, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: invalid amount", dex.ErrTransferFailed)
	}
	if spender != from {
		key := allowanceKey{token: token, owner: from, spender: spender}
		allowed := ex.state.allowance(key)
		if allowed.Cmp(amount) < 0 {
			return fmt.Errorf("%w: allowance %s < %s for %s", dex.ErrTransferFailed, allowed, amount, token.Hex())
		}
		ex.state.setAllowance(key, allowed.Sub(allowed, amount))
	}
	return ex.transfer(model.Token(token), from, to, amount)
}

// Approve sets the amount spender may pull from owner.
func (ex *Exchange) Approve(_ context.Context, token, owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: invalid approval amount", dex.ErrTransferFailed)
	}
	ex.state.setAllowance(allowanceKey{token: token, owner: owner, spender: spender}, amount)
	return nil
}

func (ex *Exchange) transfer(asset model.Asset, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: invalid amount", dex.ErrTransferFailed)
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	fromBal := ex.state.balance(asset, from)
	if fromBal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s balance %s < %s for %s", dex.ErrTransferFailed, asset, fromBal, amount, from.Hex())
	}
	toBal := ex.state.balance(asset, to)
	ex.state.setBalance(asset, from, fromBal.Sub(fromBal, amount))
	ex.state.setBalance(asset, to, toBal.Add(toBal, amount))
	return nil
}

// Mint credits amount of asset to owner, growing its supply.
func (ex *Exchange) Mint(asset model.Asset, to common.Address, amount *big.Int) {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	ex.mint(asset, to, amount)
}

func (ex *Exchange) mint(asset model.Asset, to common.Address, amount *big.Int) {
	bal := ex.state.balance(asset, to)
	ex.state.setBalance(asset, to, bal.Add(bal, amount))
	supply := ex.state.totalSupply(asset)
	ex.state.setSupply(asset, supply.Add(supply, amount))
}

func (ex *Exchange) burn(asset model.Asset, from common.Address, amount *big.Int) error {
	bal := ex.state.balance(asset, from)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: burn %s exceeds balance %s", dex.ErrTransferFailed, amount, bal)
	}
	ex.state.setBalance(asset, from, bal.Sub(bal, amount))
	supply := ex.state.totalSupply(asset)
	ex.state.setSupply(asset, supply.Sub(supply, amount))
	return nil
}

// CreatePair registers the market for two tokens.
func (ex *Exchange) CreatePair(tokenA, tokenB common.Address) (common.Address, error) {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.createPair(tokenA, tokenB)
}

func (ex *Exchange) createPair(tokenA, tokenB common.Address) (common.Address, error) {
	if tokenA == tokenB {
		return common.Address{}, ErrIdenticalAddresses
	}
	key := newPairKey(tokenA, tokenB)
	if _, ok := ex.state.pairs[key]; ok {
		return common.Address{}, ErrPairExists
	}
	hash := crypto.Keccak256Hash(key.token0.Bytes(), key.token1.Bytes())
	pair := model.Pair{Token0: key.token0, Token1: key.token1, Address: common.BytesToAddress(hash[12:])}
	ex.state.addPair(pair)
	return pair.Address, nil
}

// GetPair returns the pair address or the zero address when absent.
func (ex *Exchange) GetPair(_ context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	return ex.state.pairs[newPairKey(tokenA, tokenB)], nil
}

// Pair returns the metadata of a created pair.
func (ex *Exchange) Pair(address common.Address) (model.Pair, bool) {
	pair, ok := ex.state.pairMeta[address]
	return pair, ok
}

// Reserves returns the pair's holdings of tokenA and tokenB, in that order.
func (ex *Exchange) Reserves(pair, tokenA, tokenB common.Address) (*big.Int, *big.Int) {
	return ex.state.balance(model.Token(tokenA), pair), ex.state.balance(model.Token(tokenB), pair)
}

// Seed creates the pair if needed and deposits liquidity from provider, which
// must already hold both amounts.
func (ex *Exchange) Seed(ctx context.Context, provider, tokenA, tokenB common.Address, amountA, amountB *big.Int) (*big.Int, error) {
	var liquidity *big.Int
	err := ex.Atomic(ctx, func(ctx context.Context) error {
		if err := ex.Approve(ctx, tokenA, provider, ex.router.address, amountA); err != nil {
			return err
		}
		if err := ex.Approve(ctx, tokenB, provider, ex.router.address, amountB); err != nil {
			return err
		}
		var err error
		_, _, liquidity, err = ex.router.AddLiquidity(ctx, provider, tokenA, tokenB, amountA, amountB, big.NewInt(0), big.NewInt(0), provider, ex.Now())
		return err
	})
	return liquidity, err
}
