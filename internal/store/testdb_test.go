package store

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hometechhq/installr-backend/pkg/db/models"
	"github.com/hometechhq/installr-backend/pkg/enums"
	"github.com/hometechhq/installr-backend/pkg/logger"
	"github.com/hometechhq/installr-backend/pkg/types"
)

const ordersSchema = `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  customer_id TEXT NOT NULL,
  technician_id TEXT,
  technician_info TEXT,
  product_name TEXT NOT NULL,
  service_name TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  duration_minutes INTEGER NOT NULL,
  installation_date DATETIME NOT NULL,
  time_slot TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  status_history TEXT,
  currency TEXT NOT NULL DEFAULT 'USD',
  payment_amount_cents INTEGER NOT NULL,
  payment_subtotal_cents INTEGER NOT NULL,
  payment_tax_cents INTEGER NOT NULL DEFAULT 0,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT,
  payment_transaction_id TEXT,
  site_photos TEXT,
  installation_photos TEXT,
  cancellation TEXT,
  rating TEXT,
  accepted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`

// setupRemoteDB opens a fresh in-memory primary store. A single connection
// keeps concurrent test writes serialized the way a real server pool would
// serialize conflicting row updates.
func setupRemoteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec(ordersSchema).Error)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func setupLedger(t *testing.T) *Ledger {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.FallbackOrder{}))
	t.Cleanup(func() { _ = sqlDB.Close() })

	ledger, err := NewLedger(db)
	require.NoError(t, err)
	return ledger
}

// setupBrokenDB returns a connection whose underlying handle is closed, so
// every call fails the way an unreachable primary store would.
func setupBrokenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	return db
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "store-test", Output: io.Discard})
}

func newTestStore(t *testing.T, remote *gorm.DB, ledger *Ledger) OrderStore {
	t.Helper()
	s, err := NewResilient(ResilientParams{
		Remote:    remote,
		Ledger:    ledger,
		Logger:    testLogger(),
		OpTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return s
}

func buildOrder(customerID uuid.UUID, number string, createdAt time.Time) *models.Order {
	return &models.Order{
		ID:               uuid.New(),
		OrderNumber:      number,
		CustomerID:       customerID,
		ProductName:      "Smart Thermostat",
		ServiceName:      "Thermostat installation",
		PriceCents:       25_000,
		DurationMinutes:  60,
		InstallationDate: createdAt.Add(7 * 24 * time.Hour),
		TimeSlot:         "13:00-15:00",
		Status:           enums.OrderStatusPending,
		StatusHistory: types.StatusHistory{{
			Status:        enums.OrderStatusPending,
			Timestamp:     createdAt,
			ChangedBy:     customerID.String(),
			ChangedByRole: enums.ActorRoleCustomer,
		}},
		Currency:             "USD",
		PaymentAmountCents:   27_000,
		PaymentSubtotalCents: 25_000,
		PaymentTaxCents:      2_000,
		PaymentStatus:        enums.PaymentStatusCompleted,
		CreatedAt:            createdAt,
	}
}
