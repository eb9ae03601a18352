package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hometechhq/installr-backend/pkg/enums"
)

// Transaction records one immutable audit fact. Rows are only ever inserted;
// corrections are compensating records, never updates.
type Transaction struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type            enums.TransactionType `gorm:"column:type;type:text;not null;index"`
	OrderID         *uuid.UUID            `gorm:"column:order_id;type:uuid;index"`
	OrderNumber     *string               `gorm:"column:order_number"`
	AmountCents     *int                  `gorm:"column:amount_cents"`
	Currency        *string               `gorm:"column:currency"`
	PerformedBy     uuid.UUID             `gorm:"column:performed_by;type:uuid;not null"`
	PerformedByRole enums.ActorRole       `gorm:"column:performed_by_role;type:text;not null"`
	Metadata        json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime;index"`
}
