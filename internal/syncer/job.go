package syncer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/hometechhq/installr-backend/internal/store"
	"github.com/hometechhq/installr-backend/internal/transactions"
	"github.com/hometechhq/installr-backend/pkg/db"
	"github.com/hometechhq/installr-backend/pkg/db/models"
	"github.com/hometechhq/installr-backend/pkg/enums"
	"github.com/hometechhq/installr-backend/pkg/logger"
)

// systemActorID stamps reconciliation log entries. It is a reserved identity,
// not a real account.
var systemActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Job drains the fallback ledger into the primary store. Each record is
// handled independently: a document already present remotely is a conflict
// and the local copy is dropped, an absent one is inserted then retired. The
// order_number unique index backstops the existence probe, so a racing pass
// or a racing insert can never duplicate an order. Failed records stay in the
// ledger for the next cycle.
type Job struct {
	ledger *store.Ledger
	target *store.SyncTarget
	txns   transactions.Service
	logg   *logger.Logger
}

// JobParams configure the reconciliation job.
type JobParams struct {
	Ledger *store.Ledger
	Target *store.SyncTarget
	Txns   transactions.Service
	Logger *logger.Logger
}

// NewJob builds the reconciliation job.
func NewJob(params JobParams) (*Job, error) {
	if params.Ledger == nil {
		return nil, fmt.Errorf("fallback ledger required")
	}
	if params.Target == nil {
		return nil, fmt.Errorf("sync target required")
	}
	if params.Txns == nil {
		return nil, fmt.Errorf("transactions service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Job{
		ledger: params.Ledger,
		target: params.Target,
		txns:   params.Txns,
		logg:   params.Logger,
	}, nil
}

// Name implements cron.Job.
func (j *Job) Name() string { return "fallback-sync" }

// Run reconciles every ledger record it can and collects the rest. The
// returned error aggregates per-record failures; no record blocks another.
func (j *Job) Run(ctx context.Context) error {
	records, err := j.ledger.List(ctx)
	if err != nil {
		return fmt.Errorf("list fallback ledger: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	var errs error
	synced := 0
	for _, record := range records {
		if err := j.syncRecord(ctx, record); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", record.OrderNumber, err))
			continue
		}
		synced++
	}

	ctx = j.logg.WithFields(ctx, map[string]any{
		"pending": len(records),
		"synced":  synced,
	})
	j.logg.Info(ctx, "fallback ledger sweep finished")
	return errs
}

func (j *Job) syncRecord(ctx context.Context, record models.FallbackOrder) error {
	ctx = j.logg.WithOrderNumber(ctx, record.OrderNumber)

	order, err := store.Decode(record)
	if err != nil {
		// An undecodable record can never sync; keep it for operator triage
		// rather than silently dropping a paid order.
		return err
	}

	exists, err := j.target.Exists(ctx, record.OrderNumber)
	if err != nil {
		return fmt.Errorf("probe primary store: %w", err)
	}
	if exists {
		j.logg.Warn(ctx, "order already in primary store; dropping local copy")
		return j.ledger.Remove(ctx, record.ID)
	}

	if err := j.target.Insert(ctx, order); err != nil {
		if db.IsUniqueViolation(err, "") {
			j.logg.Warn(ctx, "lost insert race to another pass; dropping local copy")
			return j.ledger.Remove(ctx, record.ID)
		}
		return fmt.Errorf("insert into primary store: %w", err)
	}

	if err := j.ledger.Remove(ctx, record.ID); err != nil {
		// The document is already durable remotely. The next cycle finds the
		// leftover record and retires it through the conflict path.
		return fmt.Errorf("retire ledger record: %w", err)
	}

	if err := j.recordHistory(ctx, order, record); err != nil {
		return err
	}

	j.logg.Info(ctx, "order reconciled into primary store")
	return nil
}

// recordHistory backfills the log entries a degraded placement could not
// write. The transaction log lives in the primary store, so an order created
// against the fallback ledger carries no creation or payment entry until it
// lands here.
func (j *Job) recordHistory(ctx context.Context, order *models.Order, record models.FallbackOrder) error {
	amount := order.PaymentAmountCents
	if _, err := j.txns.Record(ctx, transactions.RecordInput{
		Type:            enums.TransactionTypeOrderCreated,
		OrderID:         &order.ID,
		OrderNumber:     order.OrderNumber,
		AmountCents:     &amount,
		Currency:        order.Currency,
		PerformedBy:     order.CustomerID,
		PerformedByRole: enums.ActorRoleCustomer,
		Metadata:        map[string]any{"origin": enums.OrderOriginFallback},
	}); err != nil {
		return fmt.Errorf("record creation: %w", err)
	}

	paymentMeta := map[string]any{"method": order.PaymentMethod}
	if order.PaymentTransactionID != nil {
		paymentMeta["transaction_id"] = *order.PaymentTransactionID
	}
	if _, err := j.txns.Record(ctx, transactions.RecordInput{
		Type:            enums.TransactionTypePaymentReceived,
		OrderID:         &order.ID,
		OrderNumber:     order.OrderNumber,
		AmountCents:     &amount,
		Currency:        order.Currency,
		PerformedBy:     order.CustomerID,
		PerformedByRole: enums.ActorRoleCustomer,
		Metadata:        paymentMeta,
	}); err != nil {
		return fmt.Errorf("record payment: %w", err)
	}

	if _, err := j.txns.Record(ctx, transactions.RecordInput{
		Type:            enums.TransactionTypeFallbackSynced,
		OrderID:         &order.ID,
		OrderNumber:     order.OrderNumber,
		Currency:        order.Currency,
		PerformedBy:     systemActorID,
		PerformedByRole: enums.ActorRoleSystem,
		Metadata:        map[string]any{"ledger_record": record.ID},
	}); err != nil {
		return fmt.Errorf("record sync: %w", err)
	}
	return nil
}
