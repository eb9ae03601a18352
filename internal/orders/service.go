package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hometechhq/installr-backend/internal/payments"
	"github.com/hometechhq/installr-backend/internal/store"
	"github.com/hometechhq/installr-backend/internal/transactions"
	"github.com/hometechhq/installr-backend/pkg/db/models"
	"github.com/hometechhq/installr-backend/pkg/enums"
	pkgerrors "github.com/hometechhq/installr-backend/pkg/errors"
	"github.com/hometechhq/installr-backend/pkg/ordernum"
	"github.com/hometechhq/installr-backend/pkg/types"
)

// Service owns every order status mutation. Nothing else in the system edits
// order fields directly; the persisted document changes only through these
// operations or the claim protocol.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*store.PlacedOrder, error)
	Start(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	Complete(ctx context.Context, orderID uuid.UUID, actor Actor, note string) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
	Refund(ctx context.Context, orderID uuid.UUID, actor Actor, reason string) (*models.Order, error)
	AddSitePhotos(ctx context.Context, orderID uuid.UUID, actor Actor, photos []types.Photo) (*models.Order, error)
	AddInstallationPhotos(ctx context.Context, orderID uuid.UUID, actor Actor, photos []types.Photo) (*models.Order, error)
	Rate(ctx context.Context, input RateInput) (*models.Order, error)
}

// ServiceParams configure the order service.
type ServiceParams struct {
	Store      store.OrderStore
	Txns       transactions.Service
	Gateway    payments.Gateway
	OrderNums  *ordernum.Generator
	TaxRateBps int
	Now        func() time.Time
}

type service struct {
	store      store.OrderStore
	txns       transactions.Service
	gateway    payments.Gateway
	orderNums  *ordernum.Generator
	taxRateBps int
	now        func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if params.Txns == nil {
		return nil, fmt.Errorf("transactions service required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	nums := params.OrderNums
	if nums == nil {
		nums = ordernum.New()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		store:      params.Store,
		txns:       params.Txns,
		gateway:    params.Gateway,
		orderNums:  nums,
		taxRateBps: params.TaxRateBps,
		now:        now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*store.PlacedOrder, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	subtotal, tax, total := computeAmounts(input.PriceCents, s.taxRateBps)
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "USD"
	}

	number := s.orderNums.Next()

	// Payment comes first: a declined charge means no order exists at all,
	// and the order is never persisted with an unpaid advance-ready state.
	charge, err := s.gateway.Charge(ctx, payments.ChargeInput{
		AmountCents: int64(total),
		Currency:    currency,
		SourceID:    input.PaymentSourceID,
		ReferenceID: number,
		Note:        input.ServiceName,
	})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	txnID := charge.TransactionID
	order := &models.Order{
		OrderNumber:      number,
		CustomerID:       input.Customer.ID,
		ProductName:      input.ProductName,
		ServiceName:      input.ServiceName,
		PriceCents:       input.PriceCents,
		DurationMinutes:  input.DurationMinutes,
		InstallationDate: input.InstallationDate,
		TimeSlot:         input.TimeSlot,
		Status:           enums.OrderStatusPending,
		StatusHistory: types.StatusHistory{{
			Status:        enums.OrderStatusPending,
			Timestamp:     now,
			Note:          "order placed",
			ChangedBy:     input.Customer.ID.String(),
			ChangedByRole: enums.ActorRoleCustomer,
		}},
		Currency:             currency,
		PaymentAmountCents:   total,
		PaymentSubtotalCents: subtotal,
		PaymentTaxCents:      tax,
		PaymentStatus:        enums.PaymentStatusCompleted,
		PaymentMethod:        charge.Method,
		PaymentTransactionID: &txnID,
		SitePhotos:           append(types.Photos{}, input.SitePhotos...),
		InstallationPhotos:   types.Photos{},
		CreatedAt:            now,
	}

	placed, err := s.store.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	// The transaction log lives in the primary store. When the order landed
	// in the fallback ledger the primary is down, so the creation and payment
	// entries are written by the sync worker once the order reaches the
	// primary, not here. The customer already paid; this path must succeed.
	if placed.Degraded() {
		return placed, nil
	}

	amount := total
	if _, err := s.txns.Record(ctx, transactions.RecordInput{
		Type:            enums.TransactionTypeOrderCreated,
		OrderID:         &placed.Order.ID,
		OrderNumber:     number,
		AmountCents:     &amount,
		Currency:        currency,
		PerformedBy:     input.Customer.ID,
		PerformedByRole: enums.ActorRoleCustomer,
		Metadata:        map[string]any{"origin": placed.Origin},
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order creation")
	}
	if _, err := s.txns.Record(ctx, transactions.RecordInput{
		Type:            enums.TransactionTypePaymentReceived,
		OrderID:         &placed.Order.ID,
		OrderNumber:     number,
		AmountCents:     &amount,
		Currency:        currency,
		PerformedBy:     input.Customer.ID,
		PerformedByRole: enums.ActorRoleCustomer,
		Metadata:        map[string]any{"transaction_id": txnID, "method": charge.Method},
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
	}

	return placed, nil
}

func (s *service) Start(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	return s.transition(ctx, transitionRequest{
		orderID: orderID,
		actor:   actor,
		target:  enums.OrderStatusInProgress,
		txnType: enums.TransactionTypeOrderStarted,
		note:    "installation started",
		authorize: func(order *models.Order) error {
			return requireAssignedTechnician(order, actor)
		},
	})
}

func (s *service) Complete(ctx context.Context, orderID uuid.UUID, actor Actor, note string) (*models.Order, error) {
	if note == "" {
		note = "installation completed"
	}
	return s.transition(ctx, transitionRequest{
		orderID: orderID,
		actor:   actor,
		target:  enums.OrderStatusCompleted,
		txnType: enums.TransactionTypeOrderCompleted,
		note:    note,
		authorize: func(order *models.Order) error {
			return requireAssignedTechnician(order, actor)
		},
		precondition: func(order *models.Order) error {
			if len(order.InstallationPhotos) == 0 {
				return pkgerrors.New(pkgerrors.CodeInvalidTransition, "completion requires installation evidence").
					WithDetails(map[string]any{"installation_photos": 0})
			}
			return nil
		},
	})
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	if strings.TrimSpace(input.Reason) == "" && input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin cancellation requires a reason")
	}
	return s.transition(ctx, transitionRequest{
		orderID: input.OrderID,
		actor:   input.Actor,
		target:  enums.OrderStatusCancelled,
		txnType: enums.TransactionTypeOrderCancelled,
		note:    input.Reason,
		authorize: func(order *models.Order) error {
			if input.Actor.IsAdmin() {
				return nil
			}
			// Customers can withdraw their own order, but only while it is
			// still waiting for a technician. An order they already cancelled
			// stays retryable.
			if input.Actor.Role == enums.ActorRoleCustomer && order.CustomerID == input.Actor.ID {
				if order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusCancelled {
					return pkgerrors.New(pkgerrors.CodeInvalidTransition, "only pending orders can be cancelled by the customer")
				}
				return nil
			}
			return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to cancel this order")
		},
		mutate: func(order *models.Order, now time.Time) {
			order.Cancellation = &types.Cancellation{
				Reason:          input.Reason,
				CancelledBy:     input.Actor.ID.String(),
				CancelledByRole: input.Actor.Role,
				RefundRequested: input.RefundRequested,
				CancelledAt:     now,
			}
		},
	})
}

func (s *service) Refund(ctx context.Context, orderID uuid.UUID, actor Actor, reason string) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "refunds are admin-only")
	}
	return s.transition(ctx, transitionRequest{
		orderID: orderID,
		actor:   actor,
		target:  enums.OrderStatusRefunded,
		txnType: enums.TransactionTypeOrderRefunded,
		note:    reason,
		amount:  refundAmount,
		mutate: func(order *models.Order, now time.Time) {
			order.PaymentStatus = enums.PaymentStatusRefunded
		},
	})
}

func (s *service) AddSitePhotos(ctx context.Context, orderID uuid.UUID, actor Actor, photos []types.Photo) (*models.Order, error) {
	return s.appendPhotos(ctx, orderID, actor, photos, func(order *models.Order) error {
		if order.CustomerID != actor.ID && !actor.IsAdmin() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to caller")
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order is closed")
		}
		return nil
	}, func(order *models.Order) {
		order.SitePhotos = append(order.SitePhotos, photos...)
	})
}

func (s *service) AddInstallationPhotos(ctx context.Context, orderID uuid.UUID, actor Actor, photos []types.Photo) (*models.Order, error) {
	return s.appendPhotos(ctx, orderID, actor, photos, func(order *models.Order) error {
		if err := requireAssignedTechnician(order, actor); err != nil {
			return err
		}
		if order.Status != enums.OrderStatusAccepted && order.Status != enums.OrderStatusInProgress {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "evidence can only be attached to an active job")
		}
		return nil
	}, func(order *models.Order) {
		order.InstallationPhotos = append(order.InstallationPhotos, photos...)
	})
}

func (s *service) Rate(ctx context.Context, input RateInput) (*models.Order, error) {
	if input.Stars < 1 || input.Stars > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stars must be between 1 and 5")
	}

	order, err := s.store.Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != input.Actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to caller")
	}
	if order.Status != enums.OrderStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "only completed orders can be rated")
	}
	if order.Rating != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already rated")
	}

	now := s.now().UTC()
	order.Rating = &types.Rating{
		Stars:   input.Stars,
		Comment: input.Comment,
		RatedAt: now,
	}
	if err := s.store.Update(ctx, order); err != nil {
		return nil, err
	}

	if _, err := s.txns.Record(ctx, transactions.RecordInput{
		Type:            enums.TransactionTypeOrderRated,
		OrderID:         &order.ID,
		OrderNumber:     order.OrderNumber,
		PerformedBy:     input.Actor.ID,
		PerformedByRole: input.Actor.Role,
		Metadata:        map[string]any{"stars": input.Stars},
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record rating")
	}
	return order, nil
}

func (s *service) appendPhotos(
	ctx context.Context,
	orderID uuid.UUID,
	actor Actor,
	photos []types.Photo,
	authorize func(*models.Order) error,
	apply func(*models.Order),
) (*models.Order, error) {
	if len(photos) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one photo is required")
	}
	for _, photo := range photos {
		if strings.TrimSpace(photo.URL) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo url is required")
		}
	}

	order, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorize(order); err != nil {
		return nil, err
	}
	apply(order)
	if err := s.store.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func validateCreate(input CreateInput) error {
	if input.Customer.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if strings.TrimSpace(input.ProductName) == "" || strings.TrimSpace(input.ServiceName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product and service names are required")
	}
	if input.PriceCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.DurationMinutes <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "duration must be positive")
	}
	if input.InstallationDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "installation date is required")
	}
	if strings.TrimSpace(input.TimeSlot) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "time slot is required")
	}
	if strings.TrimSpace(input.PaymentSourceID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment source is required")
	}
	return nil
}

// computeAmounts derives the payment breakdown from the snapshot price.
func computeAmounts(priceCents, taxRateBps int) (subtotal, tax, total int) {
	subtotal = priceCents
	if taxRateBps > 0 {
		taxDec := decimal.NewFromInt(int64(subtotal)).
			Mul(decimal.NewFromInt(int64(taxRateBps))).
			Div(decimal.NewFromInt(10000)).
			Round(0)
		tax = int(taxDec.IntPart())
	}
	total = subtotal + tax
	return subtotal, tax, total
}

func requireAssignedTechnician(order *models.Order, actor Actor) error {
	if actor.Role != enums.ActorRoleTechnician {
		return pkgerrors.New(pkgerrors.CodeForbidden, "technician role required")
	}
	if order.TechnicianID == nil || *order.TechnicianID != actor.ID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "job is assigned to another technician")
	}
	return nil
}
