package claims

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hometechhq/installr-backend/internal/store"
	"github.com/hometechhq/installr-backend/internal/transactions"
	"github.com/hometechhq/installr-backend/pkg/db/models"
	"github.com/hometechhq/installr-backend/pkg/enums"
	pkgerrors "github.com/hometechhq/installr-backend/pkg/errors"
	"github.com/hometechhq/installr-backend/pkg/pagination"
	"github.com/hometechhq/installr-backend/pkg/types"
)

type stubClaimStore struct {
	order    *models.Order
	claimErr error
	claims   []store.ClaimInput
}

func (s *stubClaimStore) Create(ctx context.Context, order *models.Order) (*store.PlacedOrder, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not used")
}

func (s *stubClaimStore) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubClaimStore) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubClaimStore) Update(ctx context.Context, order *models.Order) error {
	return nil
}

func (s *stubClaimStore) ClaimPending(ctx context.Context, input store.ClaimInput) (*models.Order, error) {
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	s.claims = append(s.claims, input)
	claimed := *s.order
	claimed.Status = enums.OrderStatusAccepted
	claimed.TechnicianID = &input.TechnicianID
	claimed.TechnicianInfo = &input.Snapshot
	claimed.AcceptedAt = &input.AcceptedAt
	claimed.StatusHistory = append(claimed.StatusHistory, input.HistoryEntry)
	return &claimed, nil
}

func (s *stubClaimStore) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*store.OrderList, error) {
	return &store.OrderList{}, nil
}

func (s *stubClaimStore) ListForTechnician(ctx context.Context, technicianID uuid.UUID, params pagination.Params) (*store.OrderList, error) {
	return &store.OrderList{}, nil
}

func (s *stubClaimStore) ListUnclaimed(ctx context.Context, params pagination.Params) (*store.OrderList, error) {
	return &store.OrderList{}, nil
}

func (s *stubClaimStore) ListAll(ctx context.Context, params pagination.Params) (*store.OrderList, error) {
	return &store.OrderList{}, nil
}

type stubTxns struct {
	records []transactions.RecordInput
}

func (s *stubTxns) Record(ctx context.Context, input transactions.RecordInput) (*models.Transaction, error) {
	s.records = append(s.records, input)
	return &models.Transaction{ID: uuid.New(), Type: input.Type}, nil
}

func (s *stubTxns) Query(ctx context.Context, filters transactions.Filters, params pagination.Params) (*transactions.TransactionList, error) {
	return &transactions.TransactionList{}, nil
}

func pendingOrder() *models.Order {
	return &models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-20260829120000-beef",
		CustomerID:  uuid.New(),
		Status:      enums.OrderStatusPending,
		Currency:    "USD",
		StatusHistory: types.StatusHistory{{
			Status:    enums.OrderStatusPending,
			Timestamp: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
		}},
	}
}

func newClaimTest(t *testing.T, order *models.Order) (Service, *stubClaimStore, *stubTxns) {
	t.Helper()
	orderStore := &stubClaimStore{order: order}
	txns := &stubTxns{}
	svc, err := NewService(ServiceParams{
		Store: orderStore,
		Txns:  txns,
		Now:   func() time.Time { return time.Date(2026, 8, 29, 12, 30, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return svc, orderStore, txns
}

func TestClaimStampsTechnicianAndLogs(t *testing.T) {
	order := pendingOrder()
	svc, orderStore, txns := newClaimTest(t, order)
	techID := uuid.New()

	claimed, err := svc.Claim(context.Background(), ClaimInput{
		OrderID:      order.ID,
		TechnicianID: techID,
		Technician:   types.TechnicianSnapshot{Name: "Sam Rivera", Phone: "555-0100"},
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusAccepted, claimed.Status)
	require.NotNil(t, claimed.TechnicianID)
	assert.Equal(t, techID, *claimed.TechnicianID)
	require.NotNil(t, claimed.TechnicianInfo)
	assert.Equal(t, "Sam Rivera", claimed.TechnicianInfo.Name)
	require.NotNil(t, claimed.AcceptedAt)

	require.Len(t, orderStore.claims, 1)
	entry := orderStore.claims[0].HistoryEntry
	assert.Equal(t, enums.OrderStatusAccepted, entry.Status)
	assert.Equal(t, techID.String(), entry.ChangedBy)
	assert.Equal(t, enums.ActorRoleTechnician, entry.ChangedByRole)

	require.Len(t, txns.records, 1)
	assert.Equal(t, enums.TransactionTypeOrderAccepted, txns.records[0].Type)
	assert.Equal(t, order.OrderNumber, txns.records[0].OrderNumber)
}

func TestClaimLostRaceSurfacesTypedError(t *testing.T) {
	order := pendingOrder()
	svc, orderStore, txns := newClaimTest(t, order)
	orderStore.claimErr = pkgerrors.New(pkgerrors.CodeAlreadyClaimed, "another technician claimed this order first")

	_, err := svc.Claim(context.Background(), ClaimInput{
		OrderID:      order.ID,
		TechnicianID: uuid.New(),
		Technician:   types.TechnicianSnapshot{Name: "Sam Rivera"},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAlreadyClaimed))
	assert.Empty(t, txns.records)
}

func TestClaimRequiresIdentityAndName(t *testing.T) {
	order := pendingOrder()
	svc, _, _ := newClaimTest(t, order)

	_, err := svc.Claim(context.Background(), ClaimInput{OrderID: order.ID, Technician: types.TechnicianSnapshot{Name: "Sam"}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Claim(context.Background(), ClaimInput{OrderID: order.ID, TechnicianID: uuid.New()})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDeclineLeavesOrderUntouched(t *testing.T) {
	order := pendingOrder()
	svc, orderStore, txns := newClaimTest(t, order)
	techID := uuid.New()

	err := svc.Decline(context.Background(), DeclineInput{
		OrderID:      order.ID,
		TechnicianID: techID,
		Reason:       "out of service area",
	})
	require.NoError(t, err)

	assert.Empty(t, orderStore.claims)
	assert.Equal(t, enums.OrderStatusPending, orderStore.order.Status)
	assert.Nil(t, orderStore.order.TechnicianID)

	require.Len(t, txns.records, 1)
	assert.Equal(t, enums.TransactionTypeJobDeclined, txns.records[0].Type)
	assert.Equal(t, techID, txns.records[0].PerformedBy)
}

func TestDeclineClosedJobConflicts(t *testing.T) {
	order := pendingOrder()
	techID := uuid.New()
	order.Status = enums.OrderStatusAccepted
	order.TechnicianID = &techID
	svc, _, txns := newClaimTest(t, order)

	err := svc.Decline(context.Background(), DeclineInput{OrderID: order.ID, TechnicianID: uuid.New()})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Empty(t, txns.records)
}
