package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfiops/collection-ledger/internal/config"
	"github.com/mfiops/collection-ledger/internal/domain"
	"github.com/mfiops/collection-ledger/internal/ledger"
	"github.com/mfiops/collection-ledger/internal/repository"
	customError "github.com/mfiops/collection-ledger/pkg/errors"
	"github.com/mfiops/collection-ledger/pkg/utils"
)

// ImportService is the two-phase ingestion pipeline for externally parsed
// collection rows. Preview never writes; commit is all-or-nothing.
type ImportService struct {
	Ledger         *LedgerService
	CycleRepo      repository.LoanCycleRepository
	CollectionRepo repository.CollectionRepository
	validate       *validator.Validate
	config         *config.Config
}

func NewImportService(
	ledgerService *LedgerService,
	cycleRepo repository.LoanCycleRepository,
	collectionRepo repository.CollectionRepository,
	config *config.Config,
) *ImportService {
	return &ImportService{
		Ledger:         ledgerService,
		CycleRepo:      cycleRepo,
		CollectionRepo: collectionRepo,
		validate:       validator.New(),
		config:         config,
	}
}

// PreviewImport validates raw candidate rows and strips duplicates within
// the batch. Nothing is persisted, so cancelling a preview has no effect to
// undo. Preview and commit share the same identity rule, so a row the
// preview kept can only be rejected at commit time by a row that reached the
// store in between.
func (s *ImportService) PreviewImport(ctx context.Context, cycleNo string, rows []domain.RawCollectionCandidate) (*domain.ImportPreviewResponse, error) {
	if err := s.validateRows(rows); err != nil {
		return nil, err
	}

	unique, dropped := ledger.DedupeCandidates(rows)

	return &domain.ImportPreviewResponse{
		CycleNo:    cycleNo,
		Candidates: unique,
		DroppedDup: dropped,
	}, nil
}

// CommitImport persists the operator-selected subset of previewed rows.
// The batch is re-deduplicated against rows already committed for the cycle,
// not just within itself, and inserted inside one transaction: any conflict
// rejects the whole batch and names the conflicting rows. Once started, a
// commit runs to completion or rolls back; the caller's context is
// deliberately not consulted mid-flight.
func (s *ImportService) CommitImport(ctx context.Context, cycleNo string, rows []domain.RawCollectionCandidate) (*domain.ImportCommitResponse, error) {
	cycle, err := s.Ledger.getCycle(ctx, cycleNo)
	if err != nil {
		return nil, err
	}

	if err := s.validateRows(rows); err != nil {
		return nil, err
	}

	unique, _ := ledger.DedupeCandidates(rows)
	if len(unique) == 0 {
		return &domain.ImportCommitResponse{CycleNo: cycleNo, CommittedCount: 0}, nil
	}

	// Rows dated before the disbursement would sort ahead of the seed row
	// during reconciliation, so they are rejected here, not reordered.
	if cycle.StartDate != nil {
		start := utils.TruncateToDay(*cycle.StartDate)
		for _, row := range unique {
			if utils.TruncateToDay(row.PaymentDate).Before(start) {
				return nil, customError.WrapPaymentBeforeStart(
					row.PaymentDate.Format("2006-01-02"), start.Format("2006-01-02"))
			}
		}
	}

	var committed []*domain.CollectionRecord
	err = s.call(ctx, "load collections", func(callCtx context.Context) error {
		var loadErr error
		committed, loadErr = s.CollectionRepo.GetCommittedByCycle(callCtx, cycleNo)
		return loadErr
	})
	if err != nil {
		if errors.Is(err, customError.ErrTimeout) {
			return nil, err
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if conflicts := ledger.ConflictingIdentities(unique, committed); len(conflicts) > 0 {
		return nil, customError.WrapCommitConflict(cycleNo, conflicts)
	}

	now := time.Now()
	records := make([]*domain.CollectionRecord, 0, len(unique))
	for _, row := range unique {
		records = append(records, &domain.CollectionRecord{
			ID:             uuid.New(),
			CycleNo:        cycleNo,
			PaymentDate:    utils.TruncateToDay(row.PaymentDate),
			ReferenceNo:    row.ReferenceNo,
			Amount:         row.Amount,
			PrincipalPaid:  decimal.Zero,
			InterestPaid:   decimal.Zero,
			Penalty:        decimal.Zero,
			RunningBalance: decimal.Zero, // advisory hints discarded; reconciliation recomputes
			Collector:      row.CollectorName,
			PaymentMode:    cycle.PaymentMode,
			Provenance:     domain.ProvenanceImported,
			CommitState:    domain.CommitStateCommitted,
			CreatedAt:      now,
		})
	}

	// The commit itself must not be cancelable once underway.
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.GetCallTimeout())
	defer cancel()

	if err := s.CollectionRepo.CommitBatch(commitCtx, records); err != nil {
		if isUniqueViolation(err) {
			// A concurrent writer won the race after our pre-commit check.
			ids := make([]string, 0, len(unique))
			for _, row := range unique {
				ids = append(ids, row.Identity())
			}
			return nil, customError.WrapCommitConflict(cycleNo, ids)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, customError.WrapTimeout("commit import", err)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.Ledger.invalidate(ctx, cycleNo)
	if _, err := s.Ledger.ReconcileLedger(ctx, cycleNo); err != nil {
		// The batch is committed; a failed refresh only delays the next view.
		return &domain.ImportCommitResponse{CycleNo: cycleNo, CommittedCount: len(records)}, nil
	}

	return &domain.ImportCommitResponse{CycleNo: cycleNo, CommittedCount: len(records)}, nil
}

func (s *ImportService) validateRows(rows []domain.RawCollectionCandidate) error {
	for i, row := range rows {
		if err := s.validate.Struct(row); err != nil {
			return customError.WrapInvalidCandidate(i, err)
		}
		if !row.Amount.IsPositive() {
			return customError.WrapInvalidCandidate(i, errors.New("amount must be positive"))
		}
	}
	return nil
}

func (s *ImportService) call(ctx context.Context, op string, fn func(context.Context) error) error {
	return withRetry(ctx, op,
		s.config.GetCallTimeout(),
		s.config.External.RetryAttempts,
		s.config.GetRetryBackoff(),
		fn)
}
