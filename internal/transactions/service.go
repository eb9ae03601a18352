package transactions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hometechhq/installr-backend/pkg/db/models"
	"github.com/hometechhq/installr-backend/pkg/enums"
	"github.com/hometechhq/installr-backend/pkg/pagination"
)

// Service records and queries the append-only transaction log. A failed
// record call must fail the operation that produced it; the log write is
// part of the same logical unit of work as the state change it describes.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.Transaction, error)
	Query(ctx context.Context, filters Filters, params pagination.Params) (*TransactionList, error)
}

// RecordInput captures the immutable data one log entry requires.
type RecordInput struct {
	Type            enums.TransactionType
	OrderID         *uuid.UUID
	OrderNumber     string
	AmountCents     *int
	Currency        string
	PerformedBy     uuid.UUID
	PerformedByRole enums.ActorRole
	Metadata        map[string]any
}

// TransactionList wraps a newest-first page of log entries.
type TransactionList struct {
	Transactions []models.Transaction `json:"transactions"`
	NextCursor   string               `json:"next_cursor,omitempty"`
}

type service struct {
	repo Repository
}

// NewService wires a transaction log service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.Transaction, error) {
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid transaction type %q", input.Type)
	}
	if input.PerformedBy == uuid.Nil {
		return nil, fmt.Errorf("performed-by identity is required")
	}
	if !input.PerformedByRole.IsValid() {
		return nil, fmt.Errorf("invalid actor role %q", input.PerformedByRole)
	}

	txn := &models.Transaction{
		Type:            input.Type,
		OrderID:         input.OrderID,
		PerformedBy:     input.PerformedBy,
		PerformedByRole: input.PerformedByRole,
		AmountCents:     input.AmountCents,
	}
	if input.OrderNumber != "" {
		num := input.OrderNumber
		txn.OrderNumber = &num
	}
	if input.Currency != "" {
		cur := input.Currency
		txn.Currency = &cur
	}
	if len(input.Metadata) > 0 {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal transaction metadata: %w", err)
		}
		txn.Metadata = raw
	}

	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) Query(ctx context.Context, filters Filters, params pagination.Params) (*TransactionList, error) {
	txns, err := s.repo.Query(ctx, filters, params)
	if err != nil {
		return nil, err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	list := &TransactionList{}
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[len(txns)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Transactions = txns
	return list, nil
}
