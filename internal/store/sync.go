package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/hometechhq/installr-backend/pkg/db/models"
)

// SyncTarget is the reconciliation worker's narrow view of the primary store:
// a uniqueness probe and a plain insert. It deliberately bypasses the
// resilient layer; the worker runs against the primary store directly and
// treats its errors as retryable.
type SyncTarget struct {
	remote *remoteRepository
}

// NewSyncTarget builds a sync target over the primary store connection.
func NewSyncTarget(db *gorm.DB) (*SyncTarget, error) {
	if db == nil {
		return nil, fmt.Errorf("primary store db required")
	}
	return &SyncTarget{remote: newRemoteRepository(db)}, nil
}

// Exists reports whether the primary store already holds an order with this
// order number.
func (t *SyncTarget) Exists(ctx context.Context, orderNumber string) (bool, error) {
	return t.remote.ExistsByOrderNumber(ctx, orderNumber)
}

// Insert writes the reconciled document to the primary store. The unique
// index on order_number makes a racing duplicate insert fail rather than
// produce two documents.
func (t *SyncTarget) Insert(ctx context.Context, order *models.Order) error {
	return t.remote.Create(ctx, order)
}
