package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/hometechhq/installr-backend/pkg/config"
	pkgerrors "github.com/hometechhq/installr-backend/pkg/errors"
	"github.com/hometechhq/installr-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://connect.squareupsandbox.com",
	productionEnv: "https://connect.squareup.com",
}

var (
	errAccessTokenRequired = errors.New("square access token is required")
	errInvalidSquareEnv    = fmt.Errorf("square environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired      = errors.New("square logger is required")
)

// SquareGateway implements Gateway on the Square Payments API with
// centralized auth, logging, idempotency keys, and error mapping. A charge
// retry reuses a fresh idempotency key, so retries are NOT safe to assume
// idempotent from the caller's side.
type SquareGateway struct {
	sdk        *sqclient.Client
	locationID string
	logg       *logger.Logger
}

// NewSquareGateway initializes the gateway and validates the credentials.
func NewSquareGateway(cfg config.PaymentsConfig, logg *logger.Logger) (*SquareGateway, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env := strings.ToLower(strings.TrimSpace(cfg.SquareEnvironment))
	baseURL, ok := baseURLs[env]
	if !ok {
		return nil, errInvalidSquareEnv
	}
	accessToken := strings.TrimSpace(cfg.SquareAccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}

	sdk := sqclient.NewClient(
		sqoption.WithBaseURL(baseURL),
		sqoption.WithToken(accessToken),
	)
	return &SquareGateway{
		sdk:        sdk,
		locationID: strings.TrimSpace(cfg.SquareLocationID),
		logg:       logg,
	}, nil
}

// Charge takes the payment and returns the external transaction id. Any
// Square-side failure surfaces as a typed payment error before the order is
// ever marked paid.
func (g *SquareGateway) Charge(ctx context.Context, input ChargeInput) (*Charge, error) {
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}
	if strings.TrimSpace(input.SourceID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment source is required")
	}

	req := &sq.CreatePaymentRequest{
		IdempotencyKey: fmt.Sprintf("payment-%s", uuid.NewString()),
		SourceID:       input.SourceID,
		AmountMoney:    moneyPtr(input.AmountCents, input.Currency),
	}
	if g.locationID != "" {
		req.LocationID = &g.locationID
	}
	if trimmed := strings.TrimSpace(input.ReferenceID); trimmed != "" {
		req.ReferenceID = &trimmed
	}
	if trimmed := strings.TrimSpace(input.Note); trimmed != "" {
		req.Note = &trimmed
	}

	logCtx := g.logg.WithFields(ctx, map[string]any{
		"operation": "create_payment",
		"amount":    input.AmountCents,
		"reference": input.ReferenceID,
	})
	g.logg.Info(logCtx, "square request")

	resp, err := g.sdk.Payments.Create(ctx, req)
	if err != nil {
		g.logg.Error(logCtx, "square create_payment", err)
		return nil, mapSquareError(err)
	}

	payment := resp.GetPayment()
	charge := &Charge{
		TransactionID: stringValue(payment.GetID()),
		Method:        methodFromPayment(payment),
	}
	g.logg.Info(g.logg.WithField(logCtx, "payment_id", charge.TransactionID), "square response")
	return charge, nil
}

func methodFromPayment(payment *sq.Payment) string {
	if payment == nil {
		return "card"
	}
	if src := payment.GetSourceType(); src != nil && *src != "" {
		return strings.ToLower(string(*src))
	}
	return "card"
}

func mapSquareError(err error) error {
	var apiErr *sqcore.APIError
	if errors.As(err, &apiErr) {
		return pkgerrors.Wrap(pkgerrors.CodePayment, err, "payment declined").
			WithDetails(map[string]any{"status": apiErr.StatusCode})
	}
	return pkgerrors.Wrap(pkgerrors.CodePayment, err, "payment failed")
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func moneyPtr(amount int64, currency string) *sq.Money {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = "USD"
	}
	cur := sq.Currency(code)
	return &sq.Money{
		Amount:   &amount,
		Currency: &cur,
	}
}
