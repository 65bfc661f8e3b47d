package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mfiops/collection-ledger/internal/config"
	"github.com/mfiops/collection-ledger/internal/domain"
	"github.com/mfiops/collection-ledger/internal/ledger"
	"github.com/mfiops/collection-ledger/internal/repository"
	customError "github.com/mfiops/collection-ledger/pkg/errors"
	"github.com/mfiops/collection-ledger/pkg/utils"
)

// LedgerService owns loan cycle registration, collection postings and the
// reconciled ledger view. Running balances are never read back from storage;
// every read rebuilds them from the full committed history.
type LedgerService struct {
	CycleRepo      repository.LoanCycleRepository
	CollectionRepo repository.CollectionRepository
	RateRepo       repository.RateRepository
	cache          LedgerCache
	config         *config.Config
}

func NewLedgerService(
	cycleRepo repository.LoanCycleRepository,
	collectionRepo repository.CollectionRepository,
	rateRepo repository.RateRepository,
	cache LedgerCache,
	config *config.Config,
) *LedgerService {
	return &LedgerService{
		CycleRepo:      cycleRepo,
		CollectionRepo: collectionRepo,
		RateRepo:       rateRepo,
		cache:          cache,
		config:         config,
	}
}

// CreateLoanCycle registers a disbursed loan cycle.
func (s *LedgerService) CreateLoanCycle(ctx context.Context, request *domain.CreateLoanCycleRequest) (*domain.LoanCycle, error) {
	existing, err := s.getCycle(ctx, request.CycleNo)
	if err == nil && existing != nil {
		return nil, customError.WrapLoanCycleAlreadyExists(request.CycleNo)
	}
	if err != nil && !errors.Is(err, customError.ErrNotFound) {
		return nil, err
	}

	if !request.Principal.IsPositive() {
		return nil, customError.WrapInvalidPrincipal(request.Principal.String())
	}

	now := time.Now()
	cycle := &domain.LoanCycle{
		CycleNo:       request.CycleNo,
		AccountNo:     request.AccountNo,
		Principal:     request.Principal,
		TermMonths:    request.TermMonths,
		PaymentMode:   request.PaymentMode,
		MonthlyRate:   request.MonthlyRate,
		StartDate:     request.StartDate,
		MaturityDate:  request.MaturityDate,
		ProcessStatus: domain.ProcessOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.call(ctx, "create loan cycle", func(callCtx context.Context) error {
		return s.CycleRepo.Create(callCtx, cycle)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, customError.WrapLoanCycleAlreadyExists(request.CycleNo)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	return cycle, nil
}

// GetLoanCycle fetches one cycle.
func (s *LedgerService) GetLoanCycle(ctx context.Context, cycleNo string) (*domain.LoanCycle, error) {
	return s.getCycle(ctx, cycleNo)
}

// ReconcileLedger rebuilds the ordered running-balance ledger for a cycle.
// A cached snapshot is served when present; the snapshot itself was produced
// by the same recomputation, so staleness is bounded by cache invalidation
// on every write plus the TTL.
func (s *LedgerService) ReconcileLedger(ctx context.Context, cycleNo string) (*domain.OrderedLedger, error) {
	if cached, err := s.cache.Get(ctx, ledgerCacheKey(cycleNo)); err == nil {
		var snapshot domain.OrderedLedger
		if err := json.Unmarshal([]byte(cached), &snapshot); err == nil {
			return &snapshot, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		log.Printf("ledger cache read failed for %s: %v", cycleNo, err)
	}

	cycle, err := s.getCycle(ctx, cycleNo)
	if err != nil {
		return nil, err
	}

	var records []*domain.CollectionRecord
	err = s.call(ctx, "load collections", func(callCtx context.Context) error {
		var loadErr error
		records, loadErr = s.CollectionRepo.GetCommittedByCycle(callCtx, cycleNo)
		return loadErr
	})
	if err != nil {
		if errors.Is(err, customError.ErrTimeout) {
			return nil, err
		}
		return nil, customError.WrapDatabaseError(err)
	}

	reconciled, err := ledger.Reconcile(cycle, records)
	if err != nil {
		return nil, err
	}

	if payload, marshalErr := json.Marshal(reconciled); marshalErr == nil {
		if cacheErr := s.cache.Set(ctx, ledgerCacheKey(cycleNo), string(payload), s.config.GetLedgerTTL()); cacheErr != nil {
			log.Printf("ledger cache write failed for %s: %v", cycleNo, cacheErr)
		}
	}

	return reconciled, nil
}

// PostCollection records a manually entered payment. The identity rule used
// here is the same one import preview and commit apply.
func (s *LedgerService) PostCollection(ctx context.Context, cycleNo string, request *domain.PostCollectionRequest) (*domain.CollectionRecord, error) {
	cycle, err := s.getCycle(ctx, cycleNo)
	if err != nil {
		return nil, err
	}

	if !request.Amount.IsPositive() {
		return nil, customError.WrapInvalidPrincipal(request.Amount.String())
	}

	// A payment dated before the disbursement would sort ahead of the
	// disbursement row and corrupt the running-balance scan.
	if cycle.StartDate != nil && utils.TruncateToDay(request.PaymentDate).Before(utils.TruncateToDay(*cycle.StartDate)) {
		return nil, customError.WrapPaymentBeforeStart(
			request.PaymentDate.Format("2006-01-02"), cycle.StartDate.Format("2006-01-02"))
	}

	identity := domain.CompositeIdentity(request.ReferenceNo, request.PaymentDate, request.Amount)

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

	for _, record := range committed {
		if domain.CompositeIdentity(record.ReferenceNo, record.PaymentDate, record.Amount) == identity {
			return nil, customError.WrapDuplicateCollection(identity)
		}
	}

	record := &domain.CollectionRecord{
		ID:            uuid.New(),
		CycleNo:       cycleNo,
		PaymentDate:   utils.TruncateToDay(request.PaymentDate),
		ReferenceNo:   request.ReferenceNo,
		Amount:        request.Amount,
		PrincipalPaid: request.PrincipalPaid,
		InterestPaid:  request.InterestPaid,
		Penalty:       request.Penalty,
		Collector:     request.Collector,
		PaymentMode:   cycle.PaymentMode,
		Provenance:    domain.ProvenanceManual,
		CommitState:   domain.CommitStateCommitted,
		CreatedAt:     time.Now(),
	}

	err = s.call(ctx, "post collection", func(callCtx context.Context) error {
		return s.CollectionRepo.Create(callCtx, record)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, customError.WrapDuplicateCollection(identity)
		}
		if errors.Is(err, customError.ErrTimeout) {
			return nil, err
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidate(ctx, cycleNo)
	return record, nil
}

// UpdateCollection edits the penalty or collector of a committed record.
// All other fields are immutable once committed.
func (s *LedgerService) UpdateCollection(ctx context.Context, id uuid.UUID, request *domain.UpdateCollectionRequest) (*domain.CollectionRecord, error) {
	record, err := s.getCollection(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.call(ctx, "update collection", func(callCtx context.Context) error {
		return s.CollectionRepo.UpdateEditable(callCtx, id, request.Penalty, request.Collector)
	})
	if err != nil {
		if errors.Is(err, customError.ErrTimeout) {
			return nil, err
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if request.Penalty != nil {
		record.Penalty = *request.Penalty
	}
	if request.Collector != nil {
		record.Collector = *request.Collector
	}

	s.invalidate(ctx, record.CycleNo)
	return record, nil
}

// DeleteCollection removes a record by explicit user action and forces the
// next ledger read to reconcile from scratch.
func (s *LedgerService) DeleteCollection(ctx context.Context, id uuid.UUID) (*domain.OrderedLedger, error) {
	record, err := s.getCollection(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.call(ctx, "delete collection", func(callCtx context.Context) error {
		return s.CollectionRepo.Delete(callCtx, id)
	})
	if err != nil {
		if errors.Is(err, customError.ErrTimeout) {
			return nil, err
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidate(ctx, record.CycleNo)
	return s.ReconcileLedger(ctx, record.CycleNo)
}

// ComputeAmortization resolves the configured rate and computes the
// periodic breakdown. There is no default rate on a lookup miss.
func (s *LedgerService) ComputeAmortization(ctx context.Context, request *domain.AmortizationRequest) (*domain.AmortizationSchedule, error) {
	var table []domain.RateEntry
	err := s.call(ctx, "load rate table", func(callCtx context.Context) error {
		var loadErr error
		table, loadErr = s.RateRepo.GetAll(callCtx)
		return loadErr
	})
	if err != nil {
		if errors.Is(err, customError.ErrTimeout) {
			return nil, err
		}
		return nil, customError.WrapDatabaseError(err)
	}

	return ledger.AmortizeWithTable(table, request.Principal, request.TermMonths, request.PaymentMode)
}

// ComputeAdvance quotes an advance payment covering days ahead.
func (s *LedgerService) ComputeAdvance(ctx context.Context, request *domain.AdvanceRequest) (*domain.AdvanceQuote, error) {
	start := time.Now()
	if request.StartDate != nil {
		start = *request.StartDate
	}
	return ledger.ComputeAdvance(request.InstallmentPrincipal, request.PaymentMode, request.Days, start, request.OverrideAmount)
}

func (s *LedgerService) getCycle(ctx context.Context, cycleNo string) (*domain.LoanCycle, error) {
	var cycle *domain.LoanCycle
	err := s.call(ctx, "load loan cycle", func(callCtx context.Context) error {
		var loadErr error
		cycle, loadErr = s.CycleRepo.GetByCycleNo(callCtx, cycleNo)
		return loadErr
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanCycleNotFound(cycleNo)
		}
		if errors.Is(err, customError.ErrTimeout) {
			return nil, err
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return cycle, nil
}

func (s *LedgerService) getCollection(ctx context.Context, id uuid.UUID) (*domain.CollectionRecord, error) {
	var record *domain.CollectionRecord
	err := s.call(ctx, "load collection", func(callCtx context.Context) error {
		var loadErr error
		record, loadErr = s.CollectionRepo.GetByID(callCtx, id)
		return loadErr
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapCollectionNotFound(id.String())
		}
		if errors.Is(err, customError.ErrTimeout) {
			return nil, err
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return record, nil
}

func (s *LedgerService) call(ctx context.Context, op string, fn func(context.Context) error) error {
	return withRetry(ctx, op,
		s.config.GetCallTimeout(),
		s.config.External.RetryAttempts,
		s.config.GetRetryBackoff(),
		fn)
}

func (s *LedgerService) invalidate(ctx context.Context, cycleNo string) {
	if err := s.cache.Del(ctx, ledgerCacheKey(cycleNo)); err != nil {
		log.Printf("ledger cache invalidation failed for %s: %v", cycleNo, err)
	}
}
