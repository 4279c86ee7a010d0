package memdex

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lpzap/internal/model"
)

type allowanceKey struct {
	token   common.Address
	owner   common.Address
	spender common.Address
}

type pairKey struct {
	token0 common.Address
	token1 common.Address
}

func newPairKey(a, b common.Address) pairKey {
	token0, token1 := model.SortTokens(a, b)
	return pairKey{token0: token0, token1: token1}
}

// state is the journaled ledger. Stored *big.Int values are never mutated in
// place; every write stores a fresh value so journal entries stay valid.
type state struct {
	balances   map[model.Asset]map[common.Address]*big.Int
	allowances map[allowanceKey]*big.Int
	supply     map[model.Asset]*big.Int
	pairs      map[pairKey]common.Address
	pairMeta   map[common.Address]model.Pair
	journal    []journalEntry
}

func newState() *state {
	return &state{
		balances:   make(map[model.Asset]map[common.Address]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
		supply:     make(map[model.Asset]*big.Int),
		pairs:      make(map[pairKey]common.Address),
		pairMeta:   make(map[common.Address]model.Pair),
	}
}

func (s *state) balance(asset model.Asset, owner common.Address) *big.Int {
	if bal, ok := s.balances[asset][owner]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

func (s *state) setBalance(asset model.Asset, owner common.Address, value *big.Int) {
	owners, ok := s.balances[asset]
	if !ok {
		owners = make(map[common.Address]*big.Int)
		s.balances[asset] = owners
	}
	prev := owners[owner]
	s.journal = append(s.journal, balanceChange{asset: asset, owner: owner, prev: prev})
	owners[owner] = new(big.Int).Set(value)
}

func (s *state) allowance(key allowanceKey) *big.Int {
	if val, ok := s.allowances[key]; ok {
		return new(big.Int).Set(val)
	}
	return new(big.Int)
}

func (s *state) setAllowance(key allowanceKey, value *big.Int) {
	prev := s.allowances[key]
	s.journal = append(s.journal, allowanceChange{key: key, prev: prev})
	s.allowances[key] = new(big.Int).Set(value)
}

func (s *state) totalSupply(asset model.Asset) *big.Int {
	if val, ok := s.supply[asset]; ok {
		return new(big.Int).Set(val)
	}
	return new(big.Int)
}

func (s *state) setSupply(asset model.Asset, value *big.Int) {
	prev := s.supply[asset]
	s.journal = append(s.journal, supplyChange{asset: asset, prev: prev})
	s.supply[asset] = new(big.Int).Set(value)
}

func (s *state) addPair(pair model.Pair) {
	key := pairKey{token0: pair.Token0, token1: pair.Token1}
	s.journal = append(s.journal, pairCreated{key: key, address: pair.Address})
	s.pairs[key] = pair.Address
	s.pairMeta[pair.Address] = pair
}

func (s *state) snapshot() int {
	return len(s.journal)
}

func (s *state) revertTo(id int) {
	for i := len(s.journal) - 1; i >= id; i-- {
		s.journal[i].revert(s)
	}
	s.journal = s.journal[:id]
}
