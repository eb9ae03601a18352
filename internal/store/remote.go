package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hometechhq/installr-backend/pkg/db/models"
	"github.com/hometechhq/installr-backend/pkg/enums"
	"github.com/hometechhq/installr-backend/pkg/pagination"
	"github.com/hometechhq/installr-backend/pkg/types"
)

// remoteRepository talks to the primary store. All methods return the raw
// driver errors; classification happens in the resilient layer.
type remoteRepository struct {
	db *gorm.DB
}

func newRemoteRepository(db *gorm.DB) *remoteRepository {
	return &remoteRepository{db: db}
}

func (r *remoteRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *remoteRepository) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *remoteRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("order_number = ?", orderNumber).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *remoteRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *remoteRepository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// ClaimPending issues the guarded conditional write. The WHERE clause is the
// precondition: the update applies only when the order is still pending and
// unassigned, so concurrent claimants cannot both win. Zero rows affected
// means the race was lost (or the order is gone).
func (r *remoteRepository) ClaimPending(ctx context.Context, input ClaimInput, current *models.Order) (*models.Order, error) {
	snapshot := input.Snapshot
	accepted := input.AcceptedAt
	updated := *current
	updated.Status = enums.OrderStatusAccepted
	updated.TechnicianID = &input.TechnicianID
	updated.TechnicianInfo = &snapshot
	updated.AcceptedAt = &accepted
	history := append(types.StatusHistory{}, current.StatusHistory...)
	updated.StatusHistory = append(history, input.HistoryEntry)

	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ? AND technician_id IS NULL", input.OrderID, enums.OrderStatusPending).
		Select("status", "technician_id", "technician_info", "accepted_at", "status_history", "updated_at").
		Updates(&updated)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrClaimLost
	}
	return r.Get(ctx, input.OrderID)
}

func (r *remoteRepository) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	return r.list(ctx, params, "customer_id = ?", customerID)
}

func (r *remoteRepository) ListForTechnician(ctx context.Context, technicianID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	return r.list(ctx, params, "technician_id = ?", technicianID)
}

func (r *remoteRepository) ListUnclaimed(ctx context.Context, params pagination.Params) ([]models.Order, error) {
	return r.list(ctx, params, "status = ? AND technician_id IS NULL", enums.OrderStatusPending)
}

func (r *remoteRepository) ListAll(ctx context.Context, params pagination.Params) ([]models.Order, error) {
	return r.list(ctx, params, "1 = 1")
}

func (r *remoteRepository) list(ctx context.Context, params pagination.Params, cond string, args ...any) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Where(cond, args...).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
