package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hometechhq/installr-backend/pkg/enums"
	"github.com/hometechhq/installr-backend/pkg/types"
)

// Order is the aggregate root for one customer's product + installation
// purchase. Status mutations go through the order service only; commercial
// snapshot and scheduling fields are set at creation and never touched again.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber string    `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`

	CustomerID     uuid.UUID                 `gorm:"column:customer_id;type:uuid;not null"`
	TechnicianID   *uuid.UUID                `gorm:"column:technician_id;type:uuid"`
	TechnicianInfo *types.TechnicianSnapshot `gorm:"column:technician_info;type:jsonb;serializer:json"`

	ProductName     string `gorm:"column:product_name;not null"`
	ServiceName     string `gorm:"column:service_name;not null"`
	PriceCents      int    `gorm:"column:price_cents;not null"`
	DurationMinutes int    `gorm:"column:duration_minutes;not null"`

	InstallationDate time.Time `gorm:"column:installation_date;not null"`
	TimeSlot         string    `gorm:"column:time_slot;not null"`

	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	StatusHistory types.StatusHistory `gorm:"column:status_history;type:jsonb;serializer:json"`

	Currency             string              `gorm:"column:currency;type:text;not null;default:'USD'"`
	PaymentAmountCents   int                 `gorm:"column:payment_amount_cents;not null"`
	PaymentSubtotalCents int                 `gorm:"column:payment_subtotal_cents;not null"`
	PaymentTaxCents      int                 `gorm:"column:payment_tax_cents;not null;default:0"`
	PaymentStatus        enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod        string              `gorm:"column:payment_method"`
	PaymentTransactionID *string             `gorm:"column:payment_transaction_id"`

	SitePhotos         types.Photos `gorm:"column:site_photos;type:jsonb;serializer:json"`
	InstallationPhotos types.Photos `gorm:"column:installation_photos;type:jsonb;serializer:json"`

	Cancellation *types.Cancellation `gorm:"column:cancellation;type:jsonb;serializer:json"`
	Rating       *types.Rating       `gorm:"column:rating;type:jsonb;serializer:json"`

	AcceptedAt *time.Time `gorm:"column:accepted_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
