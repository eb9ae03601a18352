package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/hometechhq/installr-backend/pkg/enums"
	"github.com/hometechhq/installr-backend/pkg/types"
)

// Actor identifies the party performing an operation, as supplied by the
// identity layer. The core trusts it and does not re-verify.
type Actor struct {
	ID   uuid.UUID
	Role enums.ActorRole
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.ActorRoleAdmin
}

// CreateInput captures everything order creation needs. Product and service
// fields are snapshotted onto the order; later catalog edits never change a
// placed order.
type CreateInput struct {
	Customer Actor

	ProductName     string
	ServiceName     string
	PriceCents      int
	DurationMinutes int

	InstallationDate time.Time
	TimeSlot         string

	Currency        string
	PaymentSourceID string

	SitePhotos []types.Photo
}

// CancelInput carries the recorded reason for a cancellation.
type CancelInput struct {
	OrderID         uuid.UUID
	Actor           Actor
	Reason          string
	RefundRequested bool
}

// RateInput is the customer's one-shot review of a completed order.
type RateInput struct {
	OrderID uuid.UUID
	Actor   Actor
	Stars   int
	Comment string
}
