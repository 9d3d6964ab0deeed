package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/hospital/backend/internal/domain/billing"
	"github.com/hospital/backend/internal/domain/shared"
)

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, hospitalID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, hospitalID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, hospitalID uuid.UUID, invoiceNumber string) (*billing.Invoice, error) {
	args := m.Called(ctx, hospitalID, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByOpenKey(ctx context.Context, hospitalID uuid.UUID, openKey string) (*billing.Invoice, error) {
	args := m.Called(ctx, hospitalID, openKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) List(ctx context.Context, hospitalID uuid.UUID, filter billing.InvoiceFilter) (shared.Paginated[*billing.Invoice], error) {
	args := m.Called(ctx, hospitalID, filter)
	return args.Get(0).(shared.Paginated[*billing.Invoice]), args.Error(1)
}

func (m *MockInvoiceRepository) NextInvoiceNumber(ctx context.Context, hospitalID uuid.UUID, day time.Time) (string, error) {
	args := m.Called(ctx, hospitalID, day)
	return args.String(0), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, hospitalID, id uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, hospitalID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByInvoice(ctx context.Context, hospitalID, invoiceID uuid.UUID) ([]*billing.Payment, error) {
	args := m.Called(ctx, hospitalID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) NextPaymentNumber(ctx context.Context, hospitalID uuid.UUID, day time.Time) (string, error) {
	args := m.Called(ctx, hospitalID, day)
	return args.String(0), args.Error(1)
}

type MockWriteOffRepository struct {
	mock.Mock
}

func (m *MockWriteOffRepository) Save(ctx context.Context, writeOff *billing.WriteOff) error {
	args := m.Called(ctx, writeOff)
	return args.Error(0)
}

func (m *MockWriteOffRepository) SaveWithLock(ctx context.Context, writeOff *billing.WriteOff) error {
	args := m.Called(ctx, writeOff)
	return args.Error(0)
}

func (m *MockWriteOffRepository) FindByID(ctx context.Context, hospitalID, id uuid.UUID) (*billing.WriteOff, error) {
	args := m.Called(ctx, hospitalID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.WriteOff), args.Error(1)
}

func (m *MockWriteOffRepository) List(ctx context.Context, hospitalID uuid.UUID, filter billing.WriteOffFilter) (shared.Paginated[*billing.WriteOff], error) {
	args := m.Called(ctx, hospitalID, filter)
	return args.Get(0).(shared.Paginated[*billing.WriteOff]), args.Error(1)
}

type MockEventSaver struct {
	mock.Mock
}

func (m *MockEventSaver) Save(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type MockPriceResolver struct {
	mock.Mock
}

func (m *MockPriceResolver) Resolve(code string) (*billing.ChargeItem, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.ChargeItem), args.Error(1)
}
