package payments

import "context"

// Charge is the opaque result of a successful payment.
type Charge struct {
	TransactionID string
	Method        string
}

// ChargeInput carries what the capability needs to take a payment. SourceID
// is the tokenized payment instrument supplied by the client.
type ChargeInput struct {
	AmountCents int64
	Currency    string
	SourceID    string
	ReferenceID string
	Note        string
}

// Gateway is the external payment capability. It either resolves with a
// transaction id or errors; no partial outcome is modeled, and callers must
// not assume a retry is safe unless the implementation says so.
type Gateway interface {
	Charge(ctx context.Context, input ChargeInput) (*Charge, error)
}
