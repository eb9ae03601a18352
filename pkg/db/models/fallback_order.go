package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hometechhq/installr-backend/pkg/enums"
)

// FallbackOrder is the degraded-durability copy of an order written to the
// local ledger when the primary store rejected the creation write. The full
// order document rides along as JSON so the sync worker can replay it
// verbatim. Deleted only after a confirmed remote write for the same
// order number.
type FallbackOrder struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber string            `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID  uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null"`
	Document    json.RawMessage   `gorm:"column:document;not null"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}
