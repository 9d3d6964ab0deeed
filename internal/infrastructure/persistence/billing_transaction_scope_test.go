package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	billingapp "github.com/hospital/backend/internal/application/billing"
	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/shared"
	"github.com/hospital/backend/internal/infrastructure/event"
	"github.com/hospital/backend/internal/infrastructure/persistence/models"
)

// newSQLiteDB opens a throwaway file-backed SQLite database with the billing
// and outbox schema, enough to exercise real transaction semantics.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "billing.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.InvoiceModel{},
		&models.InvoiceItemModel{},
		&models.PaymentModel{},
		&models.OutboxModel{},
	))
	return db
}

func newTestScope(db *gorm.DB) *GormTransactionScope {
	publisher := event.NewOutboxPublisher(event.NewRevenueCycleSerializer())
	return NewGormTransactionScope(db, publisher)
}

func newTestInvoice(t *testing.T, hospitalID uuid.UUID) *billing.Invoice {
	t.Helper()
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	inv, err := billing.NewInvoice(hospitalID, uuid.New(), "INV-20260115-00001", billing.PayerTypePatient, day, nil)
	require.NoError(t, err)
	return inv
}

func TestTransactionScope_CommitsInvoiceAndOutboxTogether(t *testing.T) {
	db := newSQLiteDB(t)
	scope := newTestScope(db)
	hospitalID := uuid.New()
	inv := newTestInvoice(t, hospitalID)

	err := scope.Execute(context.Background(), func(repos billingapp.TransactionalRepositories) error {
		if err := repos.Invoices().Save(context.Background(), inv); err != nil {
			return err
		}
		return repos.Events().Save(context.Background(), inv.GetDomainEvents()...)
	})
	require.NoError(t, err)

	var invoiceCount, outboxCount int64
	require.NoError(t, db.Model(&models.InvoiceModel{}).Count(&invoiceCount).Error)
	require.NoError(t, db.Model(&models.OutboxModel{}).Count(&outboxCount).Error)
	assert.Equal(t, int64(1), invoiceCount)
	assert.Equal(t, int64(len(inv.GetDomainEvents())), outboxCount)

	var entry models.OutboxModel
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, hospitalID, entry.HospitalID)
	assert.Equal(t, billing.EventTypeInvoiceCreated, entry.EventType)
	assert.Equal(t, shared.OutboxStatusPending, entry.Status)
}

func TestTransactionScope_RollsBackEverythingOnError(t *testing.T) {
	db := newSQLiteDB(t)
	scope := newTestScope(db)
	inv := newTestInvoice(t, uuid.New())

	wantErr := errors.New("charge rejected")
	err := scope.Execute(context.Background(), func(repos billingapp.TransactionalRepositories) error {
		if err := repos.Invoices().Save(context.Background(), inv); err != nil {
			return err
		}
		if err := repos.Events().Save(context.Background(), inv.GetDomainEvents()...); err != nil {
			return err
		}
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)

	var invoiceCount, outboxCount int64
	require.NoError(t, db.Model(&models.InvoiceModel{}).Count(&invoiceCount).Error)
	require.NoError(t, db.Model(&models.OutboxModel{}).Count(&outboxCount).Error)
	assert.Zero(t, invoiceCount)
	assert.Zero(t, outboxCount)
}

func TestTransactionScope_RepositoriesShareTheTransaction(t *testing.T) {
	db := newSQLiteDB(t)
	scope := newTestScope(db)
	hospitalID := uuid.New()
	inv := newTestInvoice(t, hospitalID)

	err := scope.Execute(context.Background(), func(repos billingapp.TransactionalRepositories) error {
		if err := repos.Invoices().Save(context.Background(), inv); err != nil {
			return err
		}
		// Uncommitted writes must be visible to the other repositories in
		// the same scope.
		loaded, err := repos.Invoices().FindByID(context.Background(), hospitalID, inv.ID)
		if err != nil {
			return err
		}
		payment, err := billing.NewPayment(hospitalID, loaded.ID, "PAY-20260115-00001",
			decimal.RequireFromString("50"), billing.PaymentMethodCash, "", nil)
		if err != nil {
			return err
		}
		return repos.Payments().Save(context.Background(), payment)
	})
	require.NoError(t, err)

	var paymentCount int64
	require.NoError(t, db.Model(&models.PaymentModel{}).Count(&paymentCount).Error)
	assert.Equal(t, int64(1), paymentCount)
}
