package enums

import "fmt"

// TransactionType enumerates the auditable event kinds recorded in the
// transaction log.
type TransactionType string

const (
	TransactionTypeOrderCreated    TransactionType = "order_created"
	TransactionTypeOrderAccepted   TransactionType = "order_accepted"
	TransactionTypeOrderStarted    TransactionType = "order_started"
	TransactionTypeOrderCompleted  TransactionType = "order_completed"
	TransactionTypeOrderCancelled  TransactionType = "order_cancelled"
	TransactionTypeOrderRefunded   TransactionType = "order_refunded"
	TransactionTypeOrderRated      TransactionType = "order_rated"
	TransactionTypePaymentReceived TransactionType = "payment_received"
	TransactionTypeJobDeclined     TransactionType = "job_declined"
	TransactionTypeFallbackSynced  TransactionType = "fallback_synced"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeOrderCreated,
	TransactionTypeOrderAccepted,
	TransactionTypeOrderStarted,
	TransactionTypeOrderCompleted,
	TransactionTypeOrderCancelled,
	TransactionTypeOrderRefunded,
	TransactionTypeOrderRated,
	TransactionTypePaymentReceived,
	TransactionTypeJobDeclined,
	TransactionTypeFallbackSynced,
}

// IsValid reports whether the value matches a canonical transaction type.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
