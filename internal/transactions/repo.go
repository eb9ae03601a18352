package transactions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hometechhq/installr-backend/pkg/db/models"
	"github.com/hometechhq/installr-backend/pkg/enums"
	"github.com/hometechhq/installr-backend/pkg/pagination"
)

// Filters narrow a transaction log query. Zero values are ignored.
type Filters struct {
	Type        *enums.TransactionType
	OrderID     *uuid.UUID
	OrderNumber string
	PerformedBy *uuid.UUID
	Role        *enums.ActorRole
	From        *time.Time
	To          *time.Time
}

// Repository persists transaction log entries. The log is append-only: there
// is deliberately no update or delete method.
type Repository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	Query(ctx context.Context, filters Filters, params pagination.Params) ([]models.Transaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transaction repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) Query(ctx context.Context, filters Filters, params pagination.Params) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).Model(&models.Transaction{})

	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.OrderID != nil {
		query = query.Where("order_id = ?", *filters.OrderID)
	}
	if filters.OrderNumber != "" {
		query = query.Where("order_number = ?", filters.OrderNumber)
	}
	if filters.PerformedBy != nil {
		query = query.Where("performed_by = ?", *filters.PerformedBy)
	}
	if filters.Role != nil {
		query = query.Where("performed_by_role = ?", *filters.Role)
	}
	if filters.From != nil {
		query = query.Where("created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("created_at < ?", *filters.To)
	}

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

	var txns []models.Transaction
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}
