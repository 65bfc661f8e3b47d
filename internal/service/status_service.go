package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/mfiops/collection-ledger/internal/config"
	"github.com/mfiops/collection-ledger/internal/domain"
	"github.com/mfiops/collection-ledger/internal/ledger"
	"github.com/mfiops/collection-ledger/internal/repository"
	customError "github.com/mfiops/collection-ledger/pkg/errors"
)

// StatusService derives lifecycle statuses from reconciled ledgers. The
// classification itself is pure; this service feeds it facts and, for the
// batch operation, persists the outcome.
type StatusService struct {
	Ledger    *LedgerService
	CycleRepo repository.LoanCycleRepository
	config    *config.Config
}

func NewStatusService(ledgerService *LedgerService, cycleRepo repository.LoanCycleRepository, config *config.Config) *StatusService {
	return &StatusService{
		Ledger:    ledgerService,
		CycleRepo: cycleRepo,
		config:    config,
	}
}

// ComputeStatus classifies one cycle without persisting anything. dataFresh
// is the external collections-sync freshness flag.
func (s *StatusService) ComputeStatus(ctx context.Context, cycleNo string, dataFresh bool) (*domain.StatusResponse, error) {
	return s.computeAt(ctx, cycleNo, dataFresh, time.Now())
}

func (s *StatusService) computeAt(ctx context.Context, cycleNo string, dataFresh bool, now time.Time) (*domain.StatusResponse, error) {
	cycle, err := s.Ledger.getCycle(ctx, cycleNo)
	if err != nil {
		return nil, err
	}

	reconciled, err := s.Ledger.ReconcileLedger(ctx, cycleNo)
	if err != nil {
		return nil, err
	}

	eval := ledger.EvaluateStatus(ledger.StatusFacts{
		PaymentMode:        cycle.PaymentMode,
		LastCollectionDate: reconciled.LastCollectionDate,
		MaturityDate:       cycle.MaturityDate,
		CurrentDate:        now,
		DataFresh:          dataFresh,
	}, s.config.StatusThresholds())

	status := eval.Status
	if !eval.Asserted {
		// No rule matched: the previously persisted status stands.
		status = cycle.Status
	}

	return &domain.StatusResponse{
		CycleNo:  cycleNo,
		Status:   status,
		Reason:   eval.Reason,
		Asserted: eval.Asserted,
	}, nil
}

// RunBatch re-evaluates every non-closed cycle and persists asserted
// statuses. Cycles whose evaluation asserts nothing keep their stored
// status untouched. Returns the number of cycles updated.
func (s *StatusService) RunBatch(ctx context.Context) (int, error) {
	var cycles []*domain.LoanCycle
	err := withRetry(ctx, "list open cycles",
		s.config.GetCallTimeout(),
		s.config.External.RetryAttempts,
		s.config.GetRetryBackoff(),
		func(callCtx context.Context) error {
			var loadErr error
			cycles, loadErr = s.CycleRepo.ListOpen(callCtx)
			return loadErr
		})
	if err != nil {
		if errors.Is(err, customError.ErrTimeout) {
			return 0, err
		}
		return 0, customError.WrapDatabaseError(err)
	}

	now := time.Now()
	updated := 0
	for _, cycle := range cycles {
		result, err := s.computeAt(ctx, cycle.CycleNo, false, now)
		if err != nil {
			// Cycles that cannot be reconciled (e.g. missing disbursement
			// facts) are skipped, not fatal to the batch.
			log.Printf("status batch: skipping cycle %s: %v", cycle.CycleNo, err)
			continue
		}
		if !result.Asserted {
			continue
		}
		if result.Status == cycle.Status {
			continue
		}

		err = withRetry(ctx, "persist status",
			s.config.GetCallTimeout(),
			s.config.External.RetryAttempts,
			s.config.GetRetryBackoff(),
			func(callCtx context.Context) error {
				return s.CycleRepo.UpdateStatus(callCtx, cycle.CycleNo, result.Status, result.Reason)
			})
		if err != nil {
			log.Printf("status batch: persisting %s for cycle %s failed: %v", result.Status, cycle.CycleNo, err)
			continue
		}
		updated++
	}

	return updated, nil
}
