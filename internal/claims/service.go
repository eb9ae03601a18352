package claims

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hometechhq/installr-backend/internal/store"
	"github.com/hometechhq/installr-backend/internal/transactions"
	"github.com/hometechhq/installr-backend/pkg/db/models"
	"github.com/hometechhq/installr-backend/pkg/enums"
	pkgerrors "github.com/hometechhq/installr-backend/pkg/errors"
	"github.com/hometechhq/installr-backend/pkg/types"
)

// Service is the job board side of the order lifecycle. Claim is the only
// operation that assigns a technician; Decline is advisory and leaves the
// order untouched for other technicians.
type Service interface {
	Claim(ctx context.Context, input ClaimInput) (*models.Order, error)
	Decline(ctx context.Context, input DeclineInput) error
}

// ClaimInput identifies the technician taking the job.
type ClaimInput struct {
	OrderID      uuid.UUID
	TechnicianID uuid.UUID
	Technician   types.TechnicianSnapshot
}

// DeclineInput records a technician passing on a pending job.
type DeclineInput struct {
	OrderID      uuid.UUID
	TechnicianID uuid.UUID
	Reason       string
}

// ServiceParams configure the claim service.
type ServiceParams struct {
	Store store.OrderStore
	Txns  transactions.Service
	Now   func() time.Time
}

type service struct {
	store store.OrderStore
	txns  transactions.Service
	now   func() time.Time
}

// NewService builds a claim service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if params.Txns == nil {
		return nil, fmt.Errorf("transactions service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{store: params.Store, txns: params.Txns, now: now}, nil
}

// Claim assigns the technician through the store's guarded write. Any number
// of technicians may race on the same order; at most one of them gets a
// success and everyone else sees ALREADY_CLAIMED.
func (s *service) Claim(ctx context.Context, input ClaimInput) (*models.Order, error) {
	if input.TechnicianID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "technician identity missing")
	}
	if strings.TrimSpace(input.Technician.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "technician name is required")
	}

	now := s.now().UTC()
	order, err := s.store.ClaimPending(ctx, store.ClaimInput{
		OrderID:      input.OrderID,
		TechnicianID: input.TechnicianID,
		Snapshot:     input.Technician,
		HistoryEntry: types.StatusHistoryEntry{
			Status:        enums.OrderStatusAccepted,
			Timestamp:     now,
			Note:          "job accepted",
			ChangedBy:     input.TechnicianID.String(),
			ChangedByRole: enums.ActorRoleTechnician,
		},
		AcceptedAt: now,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.txns.Record(ctx, transactions.RecordInput{
		Type:            enums.TransactionTypeOrderAccepted,
		OrderID:         &order.ID,
		OrderNumber:     order.OrderNumber,
		Currency:        order.Currency,
		PerformedBy:     input.TechnicianID,
		PerformedByRole: enums.ActorRoleTechnician,
		Metadata:        map[string]any{"technician": input.Technician.Name},
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record claim")
	}
	return order, nil
}

// Decline never mutates the order. It only leaves a log entry so the job
// board can stop resurfacing the order to this technician.
func (s *service) Decline(ctx context.Context, input DeclineInput) error {
	if input.TechnicianID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "technician identity missing")
	}

	order, err := s.store.Get(ctx, input.OrderID)
	if err != nil {
		return err
	}
	if order.Status != enums.OrderStatusPending || order.TechnicianID != nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "job is no longer open")
	}

	metadata := map[string]any{}
	if strings.TrimSpace(input.Reason) != "" {
		metadata["reason"] = input.Reason
	}
	if _, err := s.txns.Record(ctx, transactions.RecordInput{
		Type:            enums.TransactionTypeJobDeclined,
		OrderID:         &order.ID,
		OrderNumber:     order.OrderNumber,
		PerformedBy:     input.TechnicianID,
		PerformedByRole: enums.ActorRoleTechnician,
		Metadata:        metadata,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record decline")
	}
	return nil
}
