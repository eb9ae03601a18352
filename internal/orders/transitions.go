package orders

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hometechhq/installr-backend/internal/transactions"
	"github.com/hometechhq/installr-backend/pkg/db/models"
	"github.com/hometechhq/installr-backend/pkg/enums"
	pkgerrors "github.com/hometechhq/installr-backend/pkg/errors"
	"github.com/hometechhq/installr-backend/pkg/types"
)

// transitionRequest describes one status change. The shared engine below is
// the only code path that moves an order between statuses outside the claim
// protocol.
type transitionRequest struct {
	orderID uuid.UUID
	actor   Actor
	target  enums.OrderStatus
	txnType enums.TransactionType
	note    string

	// authorize runs before the edge check so ownership failures surface as
	// FORBIDDEN rather than INVALID_TRANSITION.
	authorize func(order *models.Order) error
	// precondition runs after the edge check (e.g. completion evidence).
	precondition func(order *models.Order) error
	// mutate applies extra field changes alongside the status flip.
	mutate func(order *models.Order, now time.Time)
	// amount optionally attaches a monetary value to the log entry.
	amount func(order *models.Order) *int
}

// transition loads the order, validates the edge, appends history, writes
// through the persistence layer, then records the matching log entry. The
// persistence write is the durability boundary: if it fails the whole
// operation fails and the caller retries the entire transition. Retrying a
// transition the order has already made short-circuits to success without a
// duplicate history entry.
func (s *service) transition(ctx context.Context, req transitionRequest) (*models.Order, error) {
	order, err := s.store.Get(ctx, req.orderID)
	if err != nil {
		return nil, err
	}

	// Authorization comes before the idempotent short-circuit: a caller who
	// may not touch the order gets FORBIDDEN even when the order already sits
	// in the requested status.
	if req.authorize != nil {
		if err := req.authorize(order); err != nil {
			return nil, err
		}
	}

	if order.Status == req.target {
		return order, nil
	}

	if !order.Status.CanTransitionTo(req.target) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "status change not permitted").
			WithDetails(map[string]any{"from": order.Status, "to": req.target})
	}

	// No order advances past pending until its payment has settled.
	if req.target != enums.OrderStatusCancelled && order.PaymentStatus != enums.PaymentStatusCompleted && req.target != enums.OrderStatusRefunded {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "payment not completed")
	}

	if req.precondition != nil {
		if err := req.precondition(order); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	order.Status = req.target
	order.StatusHistory = append(order.StatusHistory, types.StatusHistoryEntry{
		Status:        req.target,
		Timestamp:     now,
		Note:          req.note,
		ChangedBy:     req.actor.ID.String(),
		ChangedByRole: req.actor.Role,
	})
	if req.mutate != nil {
		req.mutate(order, now)
	}

	if err := s.store.Update(ctx, order); err != nil {
		return nil, err
	}

	input := transactions.RecordInput{
		Type:            req.txnType,
		OrderID:         &order.ID,
		OrderNumber:     order.OrderNumber,
		Currency:        order.Currency,
		PerformedBy:     req.actor.ID,
		PerformedByRole: req.actor.Role,
		Metadata:        map[string]any{"status": order.Status},
	}
	if req.amount != nil {
		input.AmountCents = req.amount(order)
	}
	if _, err := s.txns.Record(ctx, input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record status change")
	}

	return order, nil
}

// refundAmount reports the full paid amount for refund log entries.
func refundAmount(order *models.Order) *int {
	amount := order.PaymentAmountCents
	return &amount
}
