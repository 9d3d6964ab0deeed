package billing

import (
	"context"

	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/insurance"
	"github.com/hospital/backend/internal/domain/shared"
)

// EventSaver saves domain events to the outbox within the current transaction
type EventSaver interface {
	Save(ctx context.Context, events ...shared.DomainEvent) error
}

// TransactionalRepositories exposes repositories bound to one transaction.
// Everything obtained from it shares the same commit-or-rollback fate,
// including the events handed to the saver.
type TransactionalRepositories interface {
	Invoices() billing.InvoiceRepository
	Payments() billing.PaymentRepository
	WriteOffs() billing.WriteOffRepository
	Claims() insurance.ClaimRepository
	Events() EventSaver
}

// TransactionScope runs a unit of work against transaction-bound
// repositories. Implementations commit when fn returns nil and roll back
// otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// NoOpTransactionScope runs the unit of work against fixed repositories
// without any transaction semantics. Test use only.
type NoOpTransactionScope struct {
	Repos TransactionalRepositories
}

// Execute runs fn directly against the configured repositories
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.Repos)
}

// StaticRepositories is a TransactionalRepositories backed by fixed
// instances, used with NoOpTransactionScope in tests
type StaticRepositories struct {
	InvoiceRepo  billing.InvoiceRepository
	PaymentRepo  billing.PaymentRepository
	WriteOffRepo billing.WriteOffRepository
	ClaimRepo    insurance.ClaimRepository
	EventSaver   EventSaver
}

func (r *StaticRepositories) Invoices() billing.InvoiceRepository   { return r.InvoiceRepo }
func (r *StaticRepositories) Payments() billing.PaymentRepository   { return r.PaymentRepo }
func (r *StaticRepositories) WriteOffs() billing.WriteOffRepository { return r.WriteOffRepo }
func (r *StaticRepositories) Claims() insurance.ClaimRepository     { return r.ClaimRepo }
func (r *StaticRepositories) Events() EventSaver                    { return r.EventSaver }
