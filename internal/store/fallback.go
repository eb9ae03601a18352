package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hometechhq/installr-backend/pkg/db/models"
)

// Ledger is the local fallback ledger: a durable, process-local record of
// orders the primary store rejected at creation time. The sync worker is the
// only deleter; a delete of an already-removed record counts as success so
// overlapping sync passes stay safe.
type Ledger struct {
	db *gorm.DB
}

// NewLedger builds a ledger over the provided sqlite connection.
func NewLedger(db *gorm.DB) (*Ledger, error) {
	if db == nil {
		return nil, fmt.Errorf("fallback ledger db required")
	}
	return &Ledger{db: db}, nil
}

// Append stores a degraded-durability copy of the order. The record is keyed
// by the order's own id so there is exactly one identity: the one inside the
// document, the one on the ledger row, and the one the sync worker inserts
// remotely are all the same value.
func (l *Ledger) Append(ctx context.Context, order *models.Order) (*models.FallbackOrder, error) {
	id := order.ID
	if id == uuid.Nil {
		id = uuid.New()
		order.ID = id
	}
	doc, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order document: %w", err)
	}
	record := &models.FallbackOrder{
		ID:          id,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		Status:      order.Status,
		Document:    doc,
	}
	if err := l.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// List returns every record still awaiting reconciliation, oldest first.
func (l *Ledger) List(ctx context.Context) ([]models.FallbackOrder, error) {
	var records []models.FallbackOrder
	err := l.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListForCustomer returns the customer's pending-sync records.
func (l *Ledger) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.FallbackOrder, error) {
	var records []models.FallbackOrder
	err := l.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Remove deletes a reconciled record. A missing record is success, not an
// error: a concurrent sync pass may have retired it first.
func (l *Ledger) Remove(ctx context.Context, id uuid.UUID) error {
	return l.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.FallbackOrder{}).Error
}

// Decode unmarshals the stored order document.
func Decode(record models.FallbackOrder) (*models.Order, error) {
	var order models.Order
	if err := json.Unmarshal(record.Document, &order); err != nil {
		return nil, fmt.Errorf("decode fallback document %s: %w", record.OrderNumber, err)
	}
	return &order, nil
}

// IsNotFound reports whether err is the store's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
