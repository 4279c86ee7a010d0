package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lpzap/internal/model"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS zap_receipts (
	id           TEXT PRIMARY KEY,
	entry        TEXT NOT NULL,
	caller       TEXT NOT NULL,
	recipient    TEXT NOT NULL,
	input_asset  TEXT NOT NULL,
	input_amount NUMERIC,
	pair_address TEXT,
	token0       TEXT,
	token1       TEXT,
	amount0      NUMERIC,
	amount1      NUMERIC,
	used0        NUMERIC,
	used1        NUMERIC,
	liquidity    NUMERIC,
	dust         JSONB NOT NULL DEFAULT '[]',
	effects      JSONB NOT NULL DEFAULT '[]',
	state        TEXT NOT NULL,
	result       TEXT NOT NULL,
	error        TEXT,
	ts           BIGINT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertReceiptSQL = `
	INSERT INTO zap_receipts (
		id, entry, caller, recipient, input_asset, input_amount, pair_address, token0, token1,
		amount0, amount1, used0, used1, liquidity, dust, effects, state, result, error, ts
	) VALUES (
		$1, $2, $3, $4, $5, NULLIF($6, '')::numeric, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''),
		NULLIF($10, '')::numeric, NULLIF($11, '')::numeric, NULLIF($12, '')::numeric, NULLIF($13, '')::numeric,
		NULLIF($14, '')::numeric, $15, $16, $17, $18, NULLIF($19, ''), $20
	)
	ON CONFLICT (id)
	DO UPDATE SET
		state = EXCLUDED.state,
		result = EXCLUDED.result,
		error = EXCLUDED.error,
		dust = EXCLUDED.dust,
		effects = EXCLUDED.effects,
		liquidity = EXCLUDED.liquidity
`

// Store persists zap receipts in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the receipts table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

// PutReceiptBatch inserts receipts, updating the outcome of ids already stored.
func (s *Store) PutReceiptBatch(ctx context.Context, receipts []model.ZapReceipt) error {
	if len(receipts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range receipts {
		args, err := receiptArgs(r)
		if err != nil {
			return err
		}
		batch.Queue(upsertReceiptSQL, args...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, r := range receipts {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert receipt %s: %w", r.ID, err)
		}
	}
	return nil
}

// CountByState returns how many stored receipts ended in each state.
func (s *Store) CountByState(ctx context.Context) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT state, count(*) FROM zap_receipts GROUP BY state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var state string
		var n int64
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[state] = n
	}
	return counts, rows.Err()
}

func receiptArgs(r model.ZapReceipt) ([]any, error) {
	dust := r.Dust
	if dust == nil {
		dust = []model.DustTransfer{}
	}
	dustJSON, err := json.Marshal(dust)
	if err != nil {
		return nil, fmt.Errorf("marshal dust: %w", err)
	}
	effects := r.Effects
	if effects == nil {
		effects = []string{}
	}
	effectsJSON, err := json.Marshal(effects)
	if err != nil {
		return nil, fmt.Errorf("marshal effects: %w", err)
	}
	return []any{
		r.ID,
		r.Entry,
		r.Caller,
		r.Recipient,
		r.InputAsset.String(),
		r.InputAmount,
		r.Pair,
		r.Token0,
		r.Token1,
		r.Amount0,
		r.Amount1,
		r.Used0,
		r.Used1,
		r.Liquidity,
		dustJSON,
		effectsJSON,
		r.State,
		r.Result,
		r.Error,
		int64(r.Timestamp),
	}, nil
}
