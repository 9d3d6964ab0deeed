package persistence

import (
	"context"

	"gorm.io/gorm"

	appbilling "github.com/hospital/backend/internal/application/billing"
	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/insurance"
	"github.com/hospital/backend/internal/domain/shared"
)

// GormTransactionScope implements the billing TransactionScope using GORM
// transactions. Repositories and the outbox event saver obtained inside
// Execute all ride the same transaction.
type GormTransactionScope struct {
	db     *gorm.DB
	outbox shared.OutboxEventSaver
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, outbox shared.OutboxEventSaver) *GormTransactionScope {
	return &GormTransactionScope{db: db, outbox: outbox}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx, outbox: s.outbox}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within
// one transaction
type gormTransactionalRepositories struct {
	tx     *gorm.DB
	outbox shared.OutboxEventSaver
}

// Invoices returns the invoice repository scoped to the current transaction
func (r *gormTransactionalRepositories) Invoices() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// Payments returns the payment repository scoped to the current transaction
func (r *gormTransactionalRepositories) Payments() billing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// WriteOffs returns the write-off repository scoped to the current transaction
func (r *gormTransactionalRepositories) WriteOffs() billing.WriteOffRepository {
	return NewGormWriteOffRepository(r.tx)
}

// Claims returns the claim repository scoped to the current transaction
func (r *gormTransactionalRepositories) Claims() insurance.ClaimRepository {
	return NewGormClaimRepository(r.tx)
}

// Events returns an event saver writing to the outbox inside the current
// transaction
func (r *gormTransactionalRepositories) Events() appbilling.EventSaver {
	return &txEventSaver{tx: r.tx, outbox: r.outbox}
}

type txEventSaver struct {
	tx     *gorm.DB
	outbox shared.OutboxEventSaver
}

func (s *txEventSaver) Save(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	return s.outbox.SaveEvents(ctx, s.tx, events...)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appbilling.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appbilling.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
