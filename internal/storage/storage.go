package storage

import (
	"context"

	"lpzap/internal/model"
)

// Storage defines a sink for zap receipts.
type Storage interface {
	PutReceiptBatch(ctx context.Context, receipts []model.ZapReceipt) error
}

// Multi fans a batch out to every sink in order and stops at the first error.
type Multi []Storage

func (m Multi) PutReceiptBatch(ctx context.Context, receipts []model.ZapReceipt) error {
	for _, sink := range m {
		if err := sink.PutReceiptBatch(ctx, receipts); err != nil {
			return err
		}
	}
	return nil
}
