package zapper

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"lpzap/internal/dex"
	"lpzap/internal/model"
)

// Sweeper returns the zapper's whole balance of each touched asset.
type Sweeper struct {
	self    common.Address
	ledger  dex.Ledger
	journal *journal
}

func NewSweeper(self common.Address, ledger dex.Ledger) *Sweeper {
	return &Sweeper{self: self, ledger: ledger}
}

func (s *Sweeper) withJournal(j *journal) *Sweeper {
	clone := *s
	clone.journal = j
	return &clone
}

// Sweep transfers every distinct asset's balance to to. Zero balances are
// reported without touching the ledger.
func (s *Sweeper) Sweep(ctx context.Context, assets []model.Asset, to common.Address) ([]model.DustTransfer, error) {
	seen := make(map[model.Asset]struct{}, len(assets))
	out := make([]model.DustTransfer, 0, len(assets))
	for _, asset := range assets {
		if _, ok := seen[asset]; ok {
			continue
		}
		seen[asset] = struct{}{}

		bal, err := s.ledger.BalanceOf(ctx, asset, s.self)
		if err != nil {
			return nil, fmt.Errorf("balance of %s: %w", asset, err)
		}
		if bal.Sign() > 0 {
			if err := s.ledger.Transfer(ctx, asset, s.self, to, bal); err != nil {
				return nil, asTransferFailure(err, "sweep %s", asset)
			}
			s.journal.sweep(asset, bal, to)
		}
		out = append(out, model.DustTransfer{Asset: asset, Amount: bal.String()})
	}
	return out, nil
}
