package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/mfiops/collection-ledger/internal/domain"
)

type MockLoanCycleRepository struct {
	mock.Mock
}

func (m *MockLoanCycleRepository) Create(ctx context.Context, cycle *domain.LoanCycle) error {
	args := m.Called(ctx, cycle)
	return args.Error(0)
}

func (m *MockLoanCycleRepository) GetByCycleNo(ctx context.Context, cycleNo string) (*domain.LoanCycle, error) {
	args := m.Called(ctx, cycleNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanCycle), args.Error(1)
}

func (m *MockLoanCycleRepository) UpdateStatus(ctx context.Context, cycleNo, status, reason string) error {
	args := m.Called(ctx, cycleNo, status, reason)
	return args.Error(0)
}

func (m *MockLoanCycleRepository) ListOpen(ctx context.Context) ([]*domain.LoanCycle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanCycle), args.Error(1)
}

type MockCollectionRepository struct {
	mock.Mock
}

func (m *MockCollectionRepository) Create(ctx context.Context, record *domain.CollectionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockCollectionRepository) GetCommittedByCycle(ctx context.Context, cycleNo string) ([]*domain.CollectionRecord, error) {
	args := m.Called(ctx, cycleNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CollectionRecord), args.Error(1)
}

func (m *MockCollectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CollectionRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectionRecord), args.Error(1)
}

func (m *MockCollectionRepository) UpdateEditable(ctx context.Context, id uuid.UUID, penalty *decimal.Decimal, collector *string) error {
	args := m.Called(ctx, id, penalty, collector)
	return args.Error(0)
}

func (m *MockCollectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCollectionRepository) CommitBatch(ctx context.Context, records []*domain.CollectionRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

type MockRateRepository struct {
	mock.Mock
}

func (m *MockRateRepository) GetAll(ctx context.Context) ([]domain.RateEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RateEntry), args.Error(1)
}

type MockLedgerCache struct {
	mock.Mock
}

func (m *MockLedgerCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockLedgerCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockLedgerCache) Del(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
