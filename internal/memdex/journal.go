package memdex

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"lpzap/internal/model"
)

// journalEntry is one reversible state change. Entries are undone in reverse
// order back to a snapshot index.
type journalEntry interface {
	revert(s *state)
}

type balanceChange struct {
	asset model.Asset
	owner common.Address
	prev  *big.Int
}

func (c balanceChange) revert(s *state) {
	owners := s.balances[c.asset]
	if c.prev == nil {
		delete(owners, c.owner)
		return
	}
	owners[c.owner] = c.prev
}

type allowanceChange struct {
	key  allowanceKey
	prev *big.Int
}

func (c allowanceChange) revert(s *state) {
	if c.prev == nil {
		delete(s.allowances, c.key)
		return
	}
	s.allowances[c.key] = c.prev
}

type supplyChange struct {
	asset model.Asset
	prev  *big.Int
}

func (c supplyChange) revert(s *state) {
	if c.prev == nil {
		delete(s.supply, c.asset)
		return
	}
	s.supply[c.asset] = c.prev
}

type pairCreated struct {
	key     pairKey
	address common.Address
}

func (c pairCreated) revert(s *state) {
	delete(s.pairs, c.key)
	delete(s.pairMeta, c.address)
}
