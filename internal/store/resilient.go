package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hometechhq/installr-backend/pkg/db/models"
	"github.com/hometechhq/installr-backend/pkg/enums"
	pkgerrors "github.com/hometechhq/installr-backend/pkg/errors"
	"github.com/hometechhq/installr-backend/pkg/logger"
	"github.com/hometechhq/installr-backend/pkg/pagination"
)

const defaultOpTimeout = 5 * time.Second

// ResilientParams configure the resilient order store.
type ResilientParams struct {
	Remote    *gorm.DB
	Ledger    *Ledger
	Logger    *logger.Logger
	OpTimeout time.Duration
}

type resilientStore struct {
	remote    *remoteRepository
	ledger    *Ledger
	logg      *logger.Logger
	opTimeout time.Duration
}

// NewResilient builds the OrderStore every caller writes through.
func NewResilient(params ResilientParams) (OrderStore, error) {
	if params.Remote == nil {
		return nil, fmt.Errorf("remote db required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("fallback ledger required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := params.OpTimeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &resilientStore{
		remote:    newRemoteRepository(params.Remote),
		ledger:    params.Ledger,
		logg:      params.Logger,
		opTimeout: timeout,
	}, nil
}

// bounded derives a deadline for one remote call. An expired deadline is a
// remote failure, never an indefinite wait.
func (s *resilientStore) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *resilientStore) Create(ctx context.Context, order *models.Order) (*PlacedOrder, error) {
	remoteCtx, cancel := s.bounded(ctx)
	err := s.remote.Create(remoteCtx, order)
	cancel()
	if err == nil {
		return &PlacedOrder{Order: *order, Origin: enums.OrderOriginRemote}, nil
	}

	logCtx := s.logg.WithOrderNumber(ctx, order.OrderNumber)
	s.logg.Warn(s.logg.WithField(logCtx, "remote_error", err.Error()), "primary store rejected order creation; writing to fallback ledger")

	record, ledgerErr := s.ledger.Append(ctx, order)
	if ledgerErr != nil {
		// Both stores failed; there is nothing left to degrade to.
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, errors.Join(err, ledgerErr), "order creation failed in both stores")
	}

	order.ID = record.ID
	s.logg.Info(s.logg.WithField(logCtx, "fallback_id", record.ID), "order saved to fallback ledger pending sync")
	return &PlacedOrder{Order: *order, Origin: enums.OrderOriginFallback}, nil
}

func (s *resilientStore) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	remoteCtx, cancel := s.bounded(ctx)
	defer cancel()
	order, err := s.remote.Get(remoteCtx, id)
	if err != nil {
		return nil, classifyReadError(err, "load order")
	}
	return order, nil
}

func (s *resilientStore) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	remoteCtx, cancel := s.bounded(ctx)
	defer cancel()
	order, err := s.remote.GetByOrderNumber(remoteCtx, orderNumber)
	if err != nil {
		return nil, classifyReadError(err, "load order by number")
	}
	return order, nil
}

func (s *resilientStore) Update(ctx context.Context, order *models.Order) error {
	remoteCtx, cancel := s.bounded(ctx)
	defer cancel()
	if err := s.remote.Save(remoteCtx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "write order")
	}
	return nil
}

func (s *resilientStore) ClaimPending(ctx context.Context, input ClaimInput) (*models.Order, error) {
	remoteCtx, cancel := s.bounded(ctx)
	defer cancel()

	current, err := s.remote.Get(remoteCtx, input.OrderID)
	if err != nil {
		return nil, classifyReadError(err, "load order for claim")
	}
	if current.Status != enums.OrderStatusPending || current.TechnicianID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyClaimed, "order is no longer available").
			WithDetails(map[string]any{"status": current.Status})
	}

	order, err := s.remote.ClaimPending(remoteCtx, input, current)
	if err != nil {
		if errors.Is(err, ErrClaimLost) {
			return nil, pkgerrors.New(pkgerrors.CodeAlreadyClaimed, "another technician claimed this order first")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "claim write")
	}
	return order, nil
}

func (s *resilientStore) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	remoteCtx, cancel := s.bounded(ctx)
	remote, err := s.remote.ListForCustomer(remoteCtx, customerID, params)
	cancel()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "list customer orders")
	}

	records, err := s.ledger.ListForCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read fallback ledger")
	}

	return mergeOrders(remote, records, params)
}

func (s *resilientStore) ListForTechnician(ctx context.Context, technicianID uuid.UUID, params pagination.Params) (*OrderList, error) {
	remoteCtx, cancel := s.bounded(ctx)
	defer cancel()
	remote, err := s.remote.ListForTechnician(remoteCtx, technicianID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "list technician orders")
	}
	// Fallback records are never claimed, so a technician list has no local
	// component to merge.
	return mergeOrders(remote, nil, params)
}

func (s *resilientStore) ListUnclaimed(ctx context.Context, params pagination.Params) (*OrderList, error) {
	remoteCtx, cancel := s.bounded(ctx)
	defer cancel()
	remote, err := s.remote.ListUnclaimed(remoteCtx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "list unclaimed orders")
	}
	return mergeOrders(remote, nil, params)
}

func (s *resilientStore) ListAll(ctx context.Context, params pagination.Params) (*OrderList, error) {
	remoteCtx, cancel := s.bounded(ctx)
	remote, err := s.remote.ListAll(remoteCtx, params)
	cancel()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "list orders")
	}

	records, err := s.ledger.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read fallback ledger")
	}
	return mergeOrders(remote, records, params)
}

// mergeOrders folds fallback records into the remote page, dropping local
// copies whose order number already exists remotely (the remote copy is
// authoritative), newest first.
func mergeOrders(remote []models.Order, records []models.FallbackOrder, params pagination.Params) (*OrderList, error) {
	seen := make(map[string]struct{}, len(remote))
	views := make([]OrderView, 0, len(remote)+len(records))
	for _, order := range remote {
		seen[order.OrderNumber] = struct{}{}
		views = append(views, OrderView{Order: order, Origin: enums.OrderOriginRemote})
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	for _, record := range records {
		if _, ok := seen[record.OrderNumber]; ok {
			continue
		}
		// Same cursor predicate as the remote query: strictly older, or the
		// same instant with a smaller id.
		if cursor != nil {
			if record.CreatedAt.After(cursor.CreatedAt) {
				continue
			}
			if record.CreatedAt.Equal(cursor.CreatedAt) && bytes.Compare(record.ID[:], cursor.ID[:]) >= 0 {
				continue
			}
		}
		order, err := Decode(record)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "corrupt fallback record")
		}
		order.ID = record.ID
		order.CreatedAt = record.CreatedAt
		views = append(views, OrderView{Order: *order, Origin: enums.OrderOriginFallback})
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Order.CreatedAt.After(views[j].Order.CreatedAt)
	})

	limit := pagination.NormalizeLimit(params.Limit)
	list := &OrderList{}
	if len(views) > limit {
		views = views[:limit]
		last := views[len(views)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.Order.CreatedAt,
			ID:        last.Order.ID,
		})
	}
	list.Orders = views
	return list, nil
}

func classifyReadError(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, op)
}
