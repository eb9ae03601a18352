package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hometechhq/installr-backend/pkg/db/models"
	"github.com/hometechhq/installr-backend/pkg/enums"
	pkgerrors "github.com/hometechhq/installr-backend/pkg/errors"
	"github.com/hometechhq/installr-backend/pkg/pagination"
	"github.com/hometechhq/installr-backend/pkg/types"
)

func TestResilientCreateRemoteOrigin(t *testing.T) {
	remote := setupRemoteDB(t)
	ledger := setupLedger(t)
	s := newTestStore(t, remote, ledger)
	ctx := context.Background()

	order := buildOrder(uuid.New(), "ORD-20260829120000-1001", time.Now().UTC())
	placed, err := s.Create(ctx, order)
	require.NoError(t, err)

	assert.Equal(t, enums.OrderOriginRemote, placed.Origin)
	assert.False(t, placed.Degraded())

	loaded, err := s.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, loaded.OrderNumber)

	records, err := ledger.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records, "a successful remote write must not touch the ledger")
}

func TestResilientCreateFallsBackWhenRemoteDown(t *testing.T) {
	remote := setupBrokenDB(t)
	ledger := setupLedger(t)
	s := newTestStore(t, remote, ledger)
	ctx := context.Background()

	order := buildOrder(uuid.New(), "ORD-20260829120000-2001", time.Now().UTC())
	placed, err := s.Create(ctx, order)
	require.NoError(t, err, "a remote outage must not fail creation")

	assert.Equal(t, enums.OrderOriginFallback, placed.Origin)
	assert.True(t, placed.Degraded())
	assert.NotEqual(t, uuid.Nil, order.ID)

	records, err := ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, order.OrderNumber, records[0].OrderNumber)
	assert.Equal(t, order.ID, records[0].ID)

	decoded, err := Decode(records[0])
	require.NoError(t, err)
	assert.Equal(t, order.ID, decoded.ID, "document identity must match the ledger record")
	assert.Equal(t, order.CustomerID, decoded.CustomerID)
}

func TestResilientCreateBothStoresDown(t *testing.T) {
	remote := setupBrokenDB(t)
	brokenLedger, err := NewLedger(setupBrokenDB(t))
	require.NoError(t, err)
	s := newTestStore(t, remote, brokenLedger)

	order := buildOrder(uuid.New(), "ORD-20260829120000-3001", time.Now().UTC())
	_, err = s.Create(context.Background(), order)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRemoteUnavailable))
}

func TestResilientGetNotFound(t *testing.T) {
	s := newTestStore(t, setupRemoteDB(t), setupLedger(t))

	_, err := s.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestResilientClaimPendingSingleWinner(t *testing.T) {
	remote := setupRemoteDB(t)
	s := newTestStore(t, remote, setupLedger(t))
	ctx := context.Background()

	order := buildOrder(uuid.New(), "ORD-20260829120000-4001", time.Now().UTC())
	_, err := s.Create(ctx, order)
	require.NoError(t, err)

	const claimants = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  []uuid.UUID
		claimErr []error
	)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			techID := uuid.New()
			now := time.Now().UTC()
			_, err := s.ClaimPending(ctx, ClaimInput{
				OrderID:      order.ID,
				TechnicianID: techID,
				Snapshot:     types.TechnicianSnapshot{Name: fmt.Sprintf("Tech %d", n)},
				HistoryEntry: types.StatusHistoryEntry{
					Status:        enums.OrderStatusAccepted,
					Timestamp:     now,
					Note:          "job accepted",
					ChangedBy:     techID.String(),
					ChangedByRole: enums.ActorRoleTechnician,
				},
				AcceptedAt: now,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				claimErr = append(claimErr, err)
				return
			}
			winners = append(winners, techID)
		}(i)
	}
	wg.Wait()

	require.Len(t, winners, 1, "exactly one claimant must win")
	require.Len(t, claimErr, claimants-1)
	for _, err := range claimErr {
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAlreadyClaimed), "losers get the claim conflict, got %v", err)
	}

	final, err := s.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAccepted, final.Status)
	require.NotNil(t, final.TechnicianID)
	assert.Equal(t, winners[0], *final.TechnicianID)
	require.NotNil(t, final.TechnicianInfo)
	assert.NotEmpty(t, final.TechnicianInfo.Name)
	assert.NotNil(t, final.AcceptedAt)
	require.Len(t, final.StatusHistory, 2)
	assert.Equal(t, enums.OrderStatusAccepted, final.StatusHistory.Last().Status)
}

func TestResilientClaimPendingAlreadyAccepted(t *testing.T) {
	s := newTestStore(t, setupRemoteDB(t), setupLedger(t))
	ctx := context.Background()

	order := buildOrder(uuid.New(), "ORD-20260829120000-5001", time.Now().UTC())
	_, err := s.Create(ctx, order)
	require.NoError(t, err)

	claim := func(techID uuid.UUID) error {
		now := time.Now().UTC()
		_, err := s.ClaimPending(ctx, ClaimInput{
			OrderID:      order.ID,
			TechnicianID: techID,
			Snapshot:     types.TechnicianSnapshot{Name: "First Tech"},
			HistoryEntry: types.StatusHistoryEntry{
				Status:        enums.OrderStatusAccepted,
				Timestamp:     now,
				ChangedBy:     techID.String(),
				ChangedByRole: enums.ActorRoleTechnician,
			},
			AcceptedAt: now,
		})
		return err
	}

	require.NoError(t, claim(uuid.New()))

	err = claim(uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAlreadyClaimed))
}

func TestResilientListForCustomerMergesFallback(t *testing.T) {
	remote := setupRemoteDB(t)
	ledger := setupLedger(t)
	s := newTestStore(t, remote, ledger)
	ctx := context.Background()
	customerID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	synced := buildOrder(customerID, "ORD-20260829120000-6001", base)
	_, err := s.Create(ctx, synced)
	require.NoError(t, err)

	// A stale local copy of the synced order plus one genuinely unreconciled
	// record. The merged view must keep the remote copy and surface the local
	// one exactly once.
	staleCopy := buildOrder(customerID, synced.OrderNumber, base)
	_, err = ledger.Append(ctx, staleCopy)
	require.NoError(t, err)

	pendingSync := buildOrder(customerID, "ORD-20260829120000-6002", base.Add(time.Minute))
	_, err = ledger.Append(ctx, pendingSync)
	require.NoError(t, err)

	list, err := s.ListForCustomer(ctx, customerID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 2)

	byNumber := make(map[string]OrderView, len(list.Orders))
	for _, view := range list.Orders {
		byNumber[view.Order.OrderNumber] = view
	}
	assert.Equal(t, enums.OrderOriginRemote, byNumber[synced.OrderNumber].Origin)
	assert.Equal(t, enums.OrderOriginFallback, byNumber[pendingSync.OrderNumber].Origin)
}

func TestResilientListUnclaimedExcludesClaimed(t *testing.T) {
	s := newTestStore(t, setupRemoteDB(t), setupLedger(t))
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	open := buildOrder(uuid.New(), "ORD-20260829120000-7001", base)
	_, err := s.Create(ctx, open)
	require.NoError(t, err)

	claimed := buildOrder(uuid.New(), "ORD-20260829120000-7002", base.Add(time.Minute))
	_, err = s.Create(ctx, claimed)
	require.NoError(t, err)
	now := time.Now().UTC()
	techID := uuid.New()
	_, err = s.ClaimPending(ctx, ClaimInput{
		OrderID:      claimed.ID,
		TechnicianID: techID,
		Snapshot:     types.TechnicianSnapshot{Name: "Busy Tech"},
		HistoryEntry: types.StatusHistoryEntry{
			Status:        enums.OrderStatusAccepted,
			Timestamp:     now,
			ChangedBy:     techID.String(),
			ChangedByRole: enums.ActorRoleTechnician,
		},
		AcceptedAt: now,
	})
	require.NoError(t, err)

	list, err := s.ListUnclaimed(ctx, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, open.OrderNumber, list.Orders[0].Order.OrderNumber)
}

func TestResilientListAllPaginates(t *testing.T) {
	s := newTestStore(t, setupRemoteDB(t), setupLedger(t))
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		order := buildOrder(uuid.New(), fmt.Sprintf("ORD-20260829120000-80%02d", i), base.Add(time.Duration(i)*time.Minute))
		_, err := s.Create(ctx, order)
		require.NoError(t, err)
	}

	first, err := s.ListAll(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.True(t, first.Orders[0].Order.CreatedAt.After(first.Orders[1].Order.CreatedAt), "newest first")

	second, err := s.ListAll(ctx, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Empty(t, second.NextCursor)
}

func TestMergeOrdersCursorTiebreakOnEqualTimestamps(t *testing.T) {
	createdAt := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	customerID := uuid.New()

	ledgerRecord := func(id uuid.UUID, number string) models.FallbackOrder {
		order := buildOrder(customerID, number, createdAt)
		order.ID = id
		doc, err := json.Marshal(order)
		require.NoError(t, err)
		return models.FallbackOrder{
			ID:          id,
			OrderNumber: number,
			CustomerID:  customerID,
			Status:      order.Status,
			Document:    doc,
			CreatedAt:   createdAt,
		}
	}

	smaller := ledgerRecord(uuid.MustParse("10000000-0000-0000-0000-000000000000"), "ORD-20260829120000-8101")
	cursorID := uuid.MustParse("80000000-0000-0000-0000-000000000000")
	larger := ledgerRecord(uuid.MustParse("f0000000-0000-0000-0000-000000000000"), "ORD-20260829120000-8102")

	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: createdAt, ID: cursorID})

	// With every row at the same instant, only records whose id sorts below
	// the cursor id belong to the next page. This mirrors the remote query's
	// (created_at = ? AND id < ?) clause.
	list, err := mergeOrders(nil, []models.FallbackOrder{smaller, larger}, pagination.Params{
		Limit:  10,
		Cursor: cursor,
	})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, smaller.OrderNumber, list.Orders[0].Order.OrderNumber)
}
