package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mfiops/collection-ledger/internal/config"
	"github.com/mfiops/collection-ledger/internal/domain"
	customError "github.com/mfiops/collection-ledger/pkg/errors"
	"github.com/mfiops/collection-ledger/tests/mocks"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: "8080", Host: "0.0.0.0", Env: "development"},
		Database: config.DatabaseConfig{URL: "postgres://localhost/test", ConnMaxLifetime: "30m"},
		Redis:    config.RedisConfig{TTL: "10m"},
		Thresholds: config.ThresholdsConfig{
			DormantDays:                 360,
			LitigationDaysAfterMaturity: 180,
			PastDueDaysAfterMaturity:    90,
			ArrearsDailyDays:            3,
			ArrearsWeeklyDays:           7,
			ArrearsSemiMonthlyDays:      15,
			ArrearsMonthlyDays:          30,
		},
		External: config.ExternalConfig{CallTimeout: "2s", RetryAttempts: 0, RetryBackoff: "1ms"},
	}
}

func newTestLedgerService() (*LedgerService, *mocks.MockLoanCycleRepository, *mocks.MockCollectionRepository, *mocks.MockRateRepository, *mocks.MockLedgerCache) {
	cycleRepo := new(mocks.MockLoanCycleRepository)
	collectionRepo := new(mocks.MockCollectionRepository)
	rateRepo := new(mocks.MockRateRepository)
	cache := new(mocks.MockLedgerCache)
	svc := NewLedgerService(cycleRepo, collectionRepo, rateRepo, cache, testConfig())
	return svc, cycleRepo, collectionRepo, rateRepo, cache
}

func openCycle(cycleNo string) *domain.LoanCycle {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	maturity := start.AddDate(1, 0, 0)
	return &domain.LoanCycle{
		CycleNo:       cycleNo,
		AccountNo:     "AC-001",
		Principal:     decimal.NewFromInt(10000),
		TermMonths:    12,
		PaymentMode:   domain.ModeMonthly,
		MonthlyRate:   decimal.NewFromInt(2),
		StartDate:     &start,
		MaturityDate:  &maturity,
		ProcessStatus: domain.ProcessOpen,
	}
}

func committedRecord(cycleNo, ref string, date time.Time, amount float64) *domain.CollectionRecord {
	return &domain.CollectionRecord{
		ID:          uuid.New(),
		CycleNo:     cycleNo,
		PaymentDate: date,
		ReferenceNo: ref,
		Amount:      decimal.NewFromFloat(amount),
		Provenance:  domain.ProvenanceImported,
		CommitState: domain.CommitStateCommitted,
	}
}

func TestReconcileLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("recomputes from history and caches the snapshot", func(t *testing.T) {
		svc, cycleRepo, collectionRepo, _, cache := newTestLedgerService()

		cycle := openCycle("AC-001-3")
		feb := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
		records := []*domain.CollectionRecord{
			committedRecord("AC-001-3", "OR-2", feb.AddDate(0, 1, 0), 1000),
			committedRecord("AC-001-3", "OR-1", feb, 1000),
		}

		cache.On("Get", mock.Anything, "ledger:AC-001-3").Return("", ErrCacheMiss)
		cycleRepo.On("GetByCycleNo", mock.Anything, "AC-001-3").Return(cycle, nil)
		collectionRepo.On("GetCommittedByCycle", mock.Anything, "AC-001-3").Return(records, nil)
		cache.On("Set", mock.Anything, "ledger:AC-001-3", mock.Anything, mock.Anything).Return(nil)

		ledgerView, err := svc.ReconcileLedger(ctx, "AC-001-3")
		require.NoError(t, err)

		require.Len(t, ledgerView.Entries, 3)
		assert.Equal(t, domain.DisbursementReference, ledgerView.Entries[0].ReferenceNo)
		assert.Equal(t, "OR-1", ledgerView.Entries[1].ReferenceNo)
		assert.True(t, ledgerView.OutstandingBalance.Equal(decimal.NewFromInt(8000)))
		cache.AssertCalled(t, "Set", mock.Anything, "ledger:AC-001-3", mock.Anything, mock.Anything)
	})

	t.Run("serves the cached snapshot without touching the store", func(t *testing.T) {
		svc, cycleRepo, collectionRepo, _, cache := newTestLedgerService()

		snapshot := &domain.OrderedLedger{
			CycleNo:            "AC-001-3",
			OutstandingBalance: decimal.NewFromInt(8000),
		}
		payload, err := json.Marshal(snapshot)
		require.NoError(t, err)

		cache.On("Get", mock.Anything, "ledger:AC-001-3").Return(string(payload), nil)

		ledgerView, err := svc.ReconcileLedger(ctx, "AC-001-3")
		require.NoError(t, err)
		assert.True(t, ledgerView.OutstandingBalance.Equal(decimal.NewFromInt(8000)))

		cycleRepo.AssertNotCalled(t, "GetByCycleNo", mock.Anything, mock.Anything)
		collectionRepo.AssertNotCalled(t, "GetCommittedByCycle", mock.Anything, mock.Anything)
	})

	t.Run("unknown cycle", func(t *testing.T) {
		svc, cycleRepo, _, _, cache := newTestLedgerService()

		cache.On("Get", mock.Anything, "ledger:NOPE").Return("", ErrCacheMiss)
		cycleRepo.On("GetByCycleNo", mock.Anything, "NOPE").Return(nil, sql.ErrNoRows)

		_, err := svc.ReconcileLedger(ctx, "NOPE")
		require.Error(t, err)
		assert.True(t, errors.Is(err, customError.ErrNotFound))
	})

	t.Run("missing disbursement facts", func(t *testing.T) {
		svc, cycleRepo, collectionRepo, _, cache := newTestLedgerService()

		cycle := openCycle("AC-002-1")
		cycle.StartDate = nil

		cache.On("Get", mock.Anything, "ledger:AC-002-1").Return("", ErrCacheMiss)
		cycleRepo.On("GetByCycleNo", mock.Anything, "AC-002-1").Return(cycle, nil)
		collectionRepo.On("GetCommittedByCycle", mock.Anything, "AC-002-1").Return([]*domain.CollectionRecord{}, nil)

		_, err := svc.ReconcileLedger(ctx, "AC-002-1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, customError.ErrState))
	})
}

func TestPostCollection(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	t.Run("success invalidates the cached ledger", func(t *testing.T) {
		svc, cycleRepo, collectionRepo, _, cache := newTestLedgerService()

		cycleRepo.On("GetByCycleNo", mock.Anything, "AC-001-3").Return(openCycle("AC-001-3"), nil)
		collectionRepo.On("GetCommittedByCycle", mock.Anything, "AC-001-3").Return([]*domain.CollectionRecord{}, nil)
		collectionRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.CollectionRecord) bool {
			return r.Provenance == domain.ProvenanceManual && r.CommitState == domain.CommitStateCommitted
		})).Return(nil)
		cache.On("Del", mock.Anything, "ledger:AC-001-3").Return(nil)

		record, err := svc.PostCollection(ctx, "AC-001-3", &domain.PostCollectionRequest{
			PaymentDate: day,
			ReferenceNo: "OR-9",
			Amount:      decimal.NewFromInt(500),
			Collector:   "jdelacruz",
		})
		require.NoError(t, err)
		assert.Equal(t, "OR-9", record.ReferenceNo)
		assert.Equal(t, domain.ModeMonthly, record.PaymentMode)
		cache.AssertCalled(t, "Del", mock.Anything, "ledger:AC-001-3")
	})

	t.Run("duplicate identity rejected at commit time", func(t *testing.T) {
		svc, cycleRepo, collectionRepo, _, _ := newTestLedgerService()

		existing := committedRecord("AC-001-3", "OR-9", day, 500)
		cycleRepo.On("GetByCycleNo", mock.Anything, "AC-001-3").Return(openCycle("AC-001-3"), nil)
		collectionRepo.On("GetCommittedByCycle", mock.Anything, "AC-001-3").Return([]*domain.CollectionRecord{existing}, nil)

		_, err := svc.PostCollection(ctx, "AC-001-3", &domain.PostCollectionRequest{
			PaymentDate: day,
			ReferenceNo: "OR-9",
			Amount:      decimal.NewFromInt(500),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, customError.ErrConflict))
		collectionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("payment dated before disbursement rejected", func(t *testing.T) {
		svc, cycleRepo, collectionRepo, _, _ := newTestLedgerService()
		cycleRepo.On("GetByCycleNo", mock.Anything, "AC-001-3").Return(openCycle("AC-001-3"), nil)

		// Cycle starts 2024-01-15; an earlier payment would sort ahead of
		// the disbursement row and break the running-balance seed.
		_, err := svc.PostCollection(ctx, "AC-001-3", &domain.PostCollectionRequest{
			PaymentDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			ReferenceNo: "OR-0",
			Amount:      decimal.NewFromInt(500),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, customError.ErrValidation))
		assert.Contains(t, err.Error(), "2024-01-10")
		collectionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		svc, cycleRepo, _, _, _ := newTestLedgerService()
		cycleRepo.On("GetByCycleNo", mock.Anything, "AC-001-3").Return(openCycle("AC-001-3"), nil)

		_, err := svc.PostCollection(ctx, "AC-001-3", &domain.PostCollectionRequest{
			PaymentDate: day,
			ReferenceNo: "OR-9",
			Amount:      decimal.Zero,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, customError.ErrValidation))
	})
}

func TestUpdateAndDeleteCollection(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	t.Run("penalty edit", func(t *testing.T) {
		svc, _, collectionRepo, _, cache := newTestLedgerService()

		existing := committedRecord("AC-001-3", "OR-9", day, 500)
		penalty := decimal.NewFromInt(25)

		collectionRepo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)
		collectionRepo.On("UpdateEditable", mock.Anything, existing.ID, &penalty, (*string)(nil)).Return(nil)
		cache.On("Del", mock.Anything, "ledger:AC-001-3").Return(nil)

		updated, err := svc.UpdateCollection(ctx, existing.ID, &domain.UpdateCollectionRequest{Penalty: &penalty})
		require.NoError(t, err)
		assert.True(t, updated.Penalty.Equal(penalty))
	})

	t.Run("delete forces reconciliation", func(t *testing.T) {
		svc, cycleRepo, collectionRepo, _, cache := newTestLedgerService()

		existing := committedRecord("AC-001-3", "OR-9", day, 500)

		collectionRepo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)
		collectionRepo.On("Delete", mock.Anything, existing.ID).Return(nil)
		cache.On("Del", mock.Anything, "ledger:AC-001-3").Return(nil)
		cache.On("Get", mock.Anything, "ledger:AC-001-3").Return("", ErrCacheMiss)
		cycleRepo.On("GetByCycleNo", mock.Anything, "AC-001-3").Return(openCycle("AC-001-3"), nil)
		collectionRepo.On("GetCommittedByCycle", mock.Anything, "AC-001-3").Return([]*domain.CollectionRecord{}, nil)
		cache.On("Set", mock.Anything, "ledger:AC-001-3", mock.Anything, mock.Anything).Return(nil)

		ledgerView, err := svc.DeleteCollection(ctx, existing.ID)
		require.NoError(t, err)
		assert.True(t, ledgerView.OutstandingBalance.Equal(decimal.NewFromInt(10000)))
	})

	t.Run("unknown record", func(t *testing.T) {
		svc, _, collectionRepo, _, _ := newTestLedgerService()

		id := uuid.New()
		collectionRepo.On("GetByID", mock.Anything, id).Return(nil, sql.ErrNoRows)

		_, err := svc.DeleteCollection(ctx, id)
		require.Error(t, err)
		assert.True(t, errors.Is(err, customError.ErrNotFound))
	})
}

func TestComputeAmortization(t *testing.T) {
	ctx := context.Background()

	t.Run("uses the configured rate table", func(t *testing.T) {
		svc, _, _, rateRepo, _ := newTestLedgerService()

		table := []domain.RateEntry{
			{PrincipalMin: decimal.NewFromInt(1000), TermMonths: 12, PaymentMode: domain.ModeMonthly, MonthlyRate: decimal.NewFromInt(2)},
		}
		rateRepo.On("GetAll", mock.Anything).Return(table, nil)

		schedule, err := svc.ComputeAmortization(ctx, &domain.AmortizationRequest{
			Principal:   decimal.NewFromInt(10000),
			TermMonths:  12,
			PaymentMode: domain.ModeMonthly,
		})
		require.NoError(t, err)
		assert.True(t, schedule.Amortization.Equal(decimal.NewFromFloat(945.60)))
	})

	t.Run("no matching rate is surfaced, not defaulted", func(t *testing.T) {
		svc, _, _, rateRepo, _ := newTestLedgerService()
		rateRepo.On("GetAll", mock.Anything).Return([]domain.RateEntry{}, nil)

		_, err := svc.ComputeAmortization(ctx, &domain.AmortizationRequest{
			Principal:   decimal.NewFromInt(10000),
			TermMonths:  12,
			PaymentMode: domain.ModeMonthly,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, customError.ErrNotFound))
	})
}

func TestComputeAdvancePassesThrough(t *testing.T) {
	svc, _, _, _, _ := newTestLedgerService()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	quote, err := svc.ComputeAdvance(context.Background(), &domain.AdvanceRequest{
		InstallmentPrincipal: decimal.NewFromInt(3000),
		PaymentMode:          domain.ModeWeekly,
		Days:                 3,
		StartDate:            &start,
	})
	require.NoError(t, err)
	assert.True(t, quote.Amount.Equal(decimal.NewFromFloat(1285.71)))

	_, err = svc.ComputeAdvance(context.Background(), &domain.AdvanceRequest{
		InstallmentPrincipal: decimal.NewFromInt(3000),
		PaymentMode:          domain.ModeWeekly,
		Days:                 -1,
	})
	assert.True(t, errors.Is(err, customError.ErrValidation))
}

func TestCreateLoanCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("registers a new cycle", func(t *testing.T) {
		svc, cycleRepo, _, _, _ := newTestLedgerService()

		cycleRepo.On("GetByCycleNo", mock.Anything, "AC-010-1").Return(nil, sql.ErrNoRows)
		cycleRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.LoanCycle) bool {
			return c.CycleNo == "AC-010-1" && c.ProcessStatus == domain.ProcessOpen
		})).Return(nil)

		start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
		cycle, err := svc.CreateLoanCycle(ctx, &domain.CreateLoanCycleRequest{
			CycleNo:     "AC-010-1",
			AccountNo:   "AC-010",
			Principal:   decimal.NewFromInt(5000),
			TermMonths:  6,
			PaymentMode: domain.ModeWeekly,
			MonthlyRate: decimal.NewFromInt(3),
			StartDate:   &start,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ProcessOpen, cycle.ProcessStatus)
	})

	t.Run("duplicate cycle number", func(t *testing.T) {
		svc, cycleRepo, _, _, _ := newTestLedgerService()

		cycleRepo.On("GetByCycleNo", mock.Anything, "AC-010-1").Return(openCycle("AC-010-1"), nil)

		_, err := svc.CreateLoanCycle(ctx, &domain.CreateLoanCycleRequest{
			CycleNo:     "AC-010-1",
			AccountNo:   "AC-010",
			Principal:   decimal.NewFromInt(5000),
			TermMonths:  6,
			PaymentMode: domain.ModeWeekly,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, customError.ErrConflict))
	})
}
