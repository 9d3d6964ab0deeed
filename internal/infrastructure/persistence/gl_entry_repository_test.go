package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hospital/backend/internal/domain/ledger"
)

// newMockDB opens a GORM connection over a sqlmock driver so repository SQL
// can be asserted without a running database.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestGLEntryRepository_SaveInsertsEntries(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormGLEntryRepository(db)

	hospitalID := uuid.New()
	debit, err := ledger.NewDebitEntry(hospitalID, "GL-20260115-abc12345", ledger.AccountAccountsReceivable,
		ledger.AccountTypeAsset, decimal.RequireFromString("150"), "Consultation billed", "INVOICE_ITEM", uuid.New())
	require.NoError(t, err)
	credit, err := ledger.NewCreditEntry(hospitalID, "GL-20260115-abc12345", ledger.AccountPatientRevenue,
		ledger.AccountTypeRevenue, decimal.RequireFromString("150"), "Consultation billed", "INVOICE_ITEM", uuid.New())
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO "gl_entries"`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.Save(context.Background(), debit, credit))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGLEntryRepository_SaveNoEntriesIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormGLEntryRepository(db)

	require.NoError(t, repo.Save(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGLEntryRepository_FindByPeriod(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormGLEntryRepository(db)

	hospitalID := uuid.New()
	entryID := uuid.New()
	sourceID := uuid.New()
	postedAt := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "hospital_id", "entry_number", "account_code",
		"account_type", "cost_center", "debit_amount", "credit_amount", "description",
		"source_type", "source_id", "posted_at",
	}).AddRow(
		entryID.String(), postedAt, postedAt, hospitalID.String(), "GL-20260115-abc12345",
		ledger.AccountCash, string(ledger.AccountTypeAsset), "", "200", "0",
		"Payment received", "PAYMENT", sourceID.String(), postedAt,
	)

	mock.ExpectQuery(`SELECT \* FROM "gl_entries" WHERE hospital_id = .+ AND posted_at >= .+ AND posted_at < .+ ORDER BY posted_at ASC`).
		WillReturnRows(rows)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	entries, err := repo.FindByPeriod(context.Background(), hospitalID, from, to)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, entryID, entry.ID)
	assert.Equal(t, ledger.AccountCash, entry.AccountCode)
	assert.True(t, entry.DebitAmount.Equal(decimal.RequireFromString("200")))
	assert.True(t, entry.CreditAmount.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGLEntryRepository_FindBySource(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormGLEntryRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "gl_entries" WHERE hospital_id = .+ AND source_type = .+ AND source_id = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	entries, err := repo.FindBySource(context.Background(), uuid.New(), "PAYMENT", uuid.New())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
