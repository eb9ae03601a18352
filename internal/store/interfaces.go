package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hometechhq/installr-backend/pkg/db/models"
	"github.com/hometechhq/installr-backend/pkg/enums"
	"github.com/hometechhq/installr-backend/pkg/pagination"
	"github.com/hometechhq/installr-backend/pkg/types"
)

// OrderView is one entry in a merged list, tagged with the store it came
// from. Fallback-origin entries are saved but still pending reconciliation.
type OrderView struct {
	Order  models.Order      `json:"order"`
	Origin enums.OrderOrigin `json:"origin"`
}

// OrderList wraps merged paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// PlacedOrder is the result of a creation write. Origin reports which store
// accepted the document; callers must surface fallback origin to the user as
// an advisory, not an error.
type PlacedOrder struct {
	Order  models.Order      `json:"order"`
	Origin enums.OrderOrigin `json:"origin"`
}

// Degraded reports whether the order landed in the local ledger instead of
// the primary store.
func (p PlacedOrder) Degraded() bool {
	return p.Origin == enums.OrderOriginFallback
}

// ClaimInput carries everything the guarded claim write stamps onto an order.
type ClaimInput struct {
	OrderID      uuid.UUID
	TechnicianID uuid.UUID
	Snapshot     types.TechnicianSnapshot
	HistoryEntry types.StatusHistoryEntry
	AcceptedAt   time.Time
}

// OrderStore is the single logical read/write surface over the primary store
// and the local fallback ledger. Every caller, including the state machine
// and the claim protocol, goes through it.
type OrderStore interface {
	// Create persists the order remotely, falling back to the local ledger
	// when the primary store is unreachable. It never fails for transient
	// remote errors; the returned origin says where the document landed.
	Create(ctx context.Context, order *models.Order) (*PlacedOrder, error)

	// Get loads an order from the primary store by id.
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)

	// GetByOrderNumber loads an order from the primary store by order number.
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)

	// Update overwrites the full order document in the primary store. It is
	// a plain last-writer-wins write; callers are expected to have checked
	// ownership and status preconditions first.
	Update(ctx context.Context, order *models.Order) error

	// ClaimPending performs the one true compare-and-set in the system: it
	// assigns the technician only if the order is still pending and
	// unclaimed at write time.
	ClaimPending(ctx context.Context, input ClaimInput) (*models.Order, error)

	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListForTechnician(ctx context.Context, technicianID uuid.UUID, params pagination.Params) (*OrderList, error)

	// ListAll is the operator view: every order regardless of party,
	// including unreconciled fallback records.
	ListAll(ctx context.Context, params pagination.Params) (*OrderList, error)

	// ListUnclaimed returns pending, unassigned orders for the technician
	// job board. Remote only: a fallback-origin order cannot be claimed
	// until it reaches the primary store.
	ListUnclaimed(ctx context.Context, params pagination.Params) (*OrderList, error)
}

// ErrClaimLost is how the remote layer reports a failed compare-and-set
// precondition; the resilient layer translates it to the typed claim error.
var ErrClaimLost = errClaimLost{}

type errClaimLost struct{}

func (errClaimLost) Error() string { return "claim precondition failed" }
