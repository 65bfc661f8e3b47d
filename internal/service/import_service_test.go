package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mfiops/collection-ledger/internal/domain"
	customError "github.com/mfiops/collection-ledger/pkg/errors"
	"github.com/mfiops/collection-ledger/tests/mocks"
)

func newTestImportService() (*ImportService, *mocks.MockLoanCycleRepository, *mocks.MockCollectionRepository, *mocks.MockLedgerCache) {
	cycleRepo := new(mocks.MockLoanCycleRepository)
	collectionRepo := new(mocks.MockCollectionRepository)
	rateRepo := new(mocks.MockRateRepository)
	cache := new(mocks.MockLedgerCache)
	cfg := testConfig()
	ledgerService := NewLedgerService(cycleRepo, collectionRepo, rateRepo, cache, cfg)
	svc := NewImportService(ledgerService, cycleRepo, collectionRepo, cfg)
	return svc, cycleRepo, collectionRepo, cache
}

func rawRow(ref string, date time.Time, amount float64) domain.RawCollectionCandidate {
	return domain.RawCollectionCandidate{
		PaymentDate: date,
		ReferenceNo: ref,
		Amount:      decimal.NewFromFloat(amount),
	}
}

func TestPreviewImport(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	t.Run("dedupes without persisting anything", func(t *testing.T) {
		svc, cycleRepo, collectionRepo, _ := newTestImportService()

		rows := []domain.RawCollectionCandidate{
			rawRow("OR-1", day, 500),
			rawRow("OR-1", day, 500),
			rawRow("OR-2", day, 250),
		}

		preview, err := svc.PreviewImport(ctx, "AC-001-3", rows)
		require.NoError(t, err)
		assert.Len(t, preview.Candidates, 2)
		assert.Equal(t, 1, preview.DroppedDup)

		cycleRepo.AssertNotCalled(t, "GetByCycleNo", mock.Anything, mock.Anything)
		collectionRepo.AssertNotCalled(t, "CommitBatch", mock.Anything, mock.Anything)
		collectionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed candidates at the boundary", func(t *testing.T) {
		svc, _, _, _ := newTestImportService()

		rows := []domain.RawCollectionCandidate{
			rawRow("OR-1", day, 500),
			{PaymentDate: day, ReferenceNo: "", Amount: decimal.NewFromInt(100)},
		}

		_, err := svc.PreviewImport(ctx, "AC-001-3", rows)
		require.Error(t, err)
		assert.True(t, errors.Is(err, customError.ErrValidation))
		assert.Contains(t, err.Error(), "row 1")
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		svc, _, _, _ := newTestImportService()

		rows := []domain.RawCollectionCandidate{rawRow("OR-1", day, -5)}
		_, err := svc.PreviewImport(ctx, "AC-001-3", rows)
		require.Error(t, err)
		assert.True(t, errors.Is(err, customError.ErrValidation))
	})
}

func TestCommitImport(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	t.Run("commits the whole batch and refreshes the ledger", func(t *testing.T) {
		svc, cycleRepo, collectionRepo, cache := newTestImportService()

		rows := []domain.RawCollectionCandidate{
			rawRow("OR-1", day, 500),
			rawRow("OR-2", day, 250),
		}

		cycleRepo.On("GetByCycleNo", mock.Anything, "AC-001-3").Return(openCycle("AC-001-3"), nil)
		collectionRepo.On("GetCommittedByCycle", mock.Anything, "AC-001-3").Return([]*domain.CollectionRecord{}, nil)
		collectionRepo.On("CommitBatch", mock.Anything, mock.MatchedBy(func(records []*domain.CollectionRecord) bool {
			if len(records) != 2 {
				return false
			}
			for _, r := range records {
				if r.Provenance != domain.ProvenanceImported || r.CommitState != domain.CommitStateCommitted {
					return false
				}
			}
			return true
		})).Return(nil)
		cache.On("Del", mock.Anything, "ledger:AC-001-3").Return(nil)
		cache.On("Get", mock.Anything, "ledger:AC-001-3").Return("", ErrCacheMiss)
		cache.On("Set", mock.Anything, "ledger:AC-001-3", mock.Anything, mock.Anything).Return(nil)

		result, err := svc.CommitImport(ctx, "AC-001-3", rows)
		require.NoError(t, err)
		assert.Equal(t, 2, result.CommittedCount)
		cache.AssertCalled(t, "Del", mock.Anything, "ledger:AC-001-3")
	})

	t.Run("one conflicting row rejects the entire batch", func(t *testing.T) {
		svc, cycleRepo, collectionRepo, _ := newTestImportService()

		rows := []domain.RawCollectionCandidate{
			rawRow("OR-1", day, 100),
			rawRow("OR-2", day, 200),
			rawRow("OR-3", day, 300), // collides with committed history
			rawRow("OR-4", day, 400),
			rawRow("OR-5", day, 500),
		}
		existing := committedRecord("AC-001-3", "OR-3", day, 300)

		cycleRepo.On("GetByCycleNo", mock.Anything, "AC-001-3").Return(openCycle("AC-001-3"), nil)
		collectionRepo.On("GetCommittedByCycle", mock.Anything, "AC-001-3").Return([]*domain.CollectionRecord{existing}, nil)

		_, err := svc.CommitImport(ctx, "AC-001-3", rows)
		require.Error(t, err)
		assert.True(t, errors.Is(err, customError.ErrConflict))
		assert.Contains(t, err.Error(), rows[2].Identity())

		collectionRepo.AssertNotCalled(t, "CommitBatch", mock.Anything, mock.Anything)
	})

	t.Run("rows dated before disbursement reject the batch", func(t *testing.T) {
		svc, cycleRepo, collectionRepo, _ := newTestImportService()

		rows := []domain.RawCollectionCandidate{
			rawRow("OR-1", day, 100),
			rawRow("OR-2", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), 200), // before the 2024-01-15 start
		}

		cycleRepo.On("GetByCycleNo", mock.Anything, "AC-001-3").Return(openCycle("AC-001-3"), nil)

		_, err := svc.CommitImport(ctx, "AC-001-3", rows)
		require.Error(t, err)
		assert.True(t, errors.Is(err, customError.ErrValidation))
		assert.Contains(t, err.Error(), "2024-01-10")
		collectionRepo.AssertNotCalled(t, "CommitBatch", mock.Anything, mock.Anything)
	})

	t.Run("unknown cycle", func(t *testing.T) {
		svc, cycleRepo, _, _ := newTestImportService()

		cycleRepo.On("GetByCycleNo", mock.Anything, "NOPE").Return(nil, errors.New("sql: no rows in result set"))
		// A plain error maps to a state error; the typed not-found path needs sql.ErrNoRows.
		_, err := svc.CommitImport(ctx, "NOPE", []domain.RawCollectionCandidate{rawRow("OR-1", day, 100)})
		require.Error(t, err)
	})

	t.Run("empty batch commits nothing", func(t *testing.T) {
		svc, cycleRepo, collectionRepo, _ := newTestImportService()

		cycleRepo.On("GetByCycleNo", mock.Anything, "AC-001-3").Return(openCycle("AC-001-3"), nil)

		result, err := svc.CommitImport(ctx, "AC-001-3", nil)
		require.NoError(t, err)
		assert.Equal(t, 0, result.CommittedCount)
		collectionRepo.AssertNotCalled(t, "CommitBatch", mock.Anything, mock.Anything)
	})
}

// Preview and commit must classify duplicates identically for any input:
// every row preview keeps is accepted by commit against an empty history,
// and every row preview drops would have been dropped by commit too.
func TestPreviewCommitDedupAgreement(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	rows := []domain.RawCollectionCandidate{
		rawRow("OR-1", day, 500),
		rawRow("OR-2", day, 250),
		rawRow("OR-1", day, 500),
		rawRow("OR-1", day.AddDate(0, 0, 1), 500),
		rawRow("OR-2", day, 250),
	}

	svc, cycleRepo, collectionRepo, cache := newTestImportService()

	preview, err := svc.PreviewImport(ctx, "AC-001-3", rows)
	require.NoError(t, err)

	var committedLen int
	cycleRepo.On("GetByCycleNo", mock.Anything, "AC-001-3").Return(openCycle("AC-001-3"), nil)
	collectionRepo.On("GetCommittedByCycle", mock.Anything, "AC-001-3").Return([]*domain.CollectionRecord{}, nil)
	collectionRepo.On("CommitBatch", mock.Anything, mock.MatchedBy(func(records []*domain.CollectionRecord) bool {
		committedLen = len(records)
		return true
	})).Return(nil)
	cache.On("Del", mock.Anything, mock.Anything).Return(nil)
	cache.On("Get", mock.Anything, mock.Anything).Return("", ErrCacheMiss)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.CommitImport(ctx, "AC-001-3", rows)
	require.NoError(t, err)

	assert.Equal(t, len(preview.Candidates), result.CommittedCount)
	assert.Equal(t, len(preview.Candidates), committedLen)
}
