package types

import (
	"time"

	"github.com/hometechhq/installr-backend/pkg/enums"
)

// StatusHistoryEntry is one append-only row in an order's status history.
type StatusHistoryEntry struct {
	Status        enums.OrderStatus `json:"status"`
	Timestamp     time.Time         `json:"timestamp"`
	Note          string            `json:"note,omitempty"`
	ChangedBy     string            `json:"changed_by"`
	ChangedByRole enums.ActorRole   `json:"changed_by_role"`
}

// StatusHistory is stored as a JSON column and only ever appended to.
type StatusHistory []StatusHistoryEntry

// Last returns the most recent entry, or a zero value when empty.
func (h StatusHistory) Last() StatusHistoryEntry {
	if len(h) == 0 {
		return StatusHistoryEntry{}
	}
	return h[len(h)-1]
}

// Photo is a single evidence attachment reference.
type Photo struct {
	URL     string    `json:"url"`
	TakenAt time.Time `json:"taken_at"`
}

// Photos is an append-only set of evidence attachments.
type Photos []Photo

// TechnicianSnapshot is the contact info copied onto an order when a
// technician claims it.
type TechnicianSnapshot struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Cancellation records why and by whom an order was cancelled.
type Cancellation struct {
	Reason          string          `json:"reason"`
	CancelledBy     string          `json:"cancelled_by"`
	CancelledByRole enums.ActorRole `json:"cancelled_by_role"`
	RefundRequested bool            `json:"refund_requested"`
	CancelledAt     time.Time       `json:"cancelled_at"`
}

// Rating is the customer's one-shot post-completion review.
type Rating struct {
	Stars   int       `json:"stars"`
	Comment string    `json:"comment,omitempty"`
	RatedAt time.Time `json:"rated_at"`
}
