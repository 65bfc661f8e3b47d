package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mfiops/collection-ledger/internal/domain"
	customError "github.com/mfiops/collection-ledger/pkg/errors"
	"github.com/mfiops/collection-ledger/pkg/utils"
)

// Reconcile rebuilds the ordered running-balance ledger for one loan cycle
// from its committed collection records and disbursement facts.
//
// The result is fully re-derivable: stored running balances are ignored and
// recomputed by a forward scan, so two calls with the same inputs produce
// identical output. Rows are sorted by payment date ascending, stable on
// input order for same-date ties, behind a synthetic disbursement row whose
// balance equals the principal.
func Reconcile(cycle *domain.LoanCycle, records []*domain.CollectionRecord) (*domain.OrderedLedger, error) {
	if cycle == nil || !cycle.HasDisbursementFacts() {
		cycleNo := ""
		if cycle != nil {
			cycleNo = cycle.CycleNo
		}
		return nil, customError.WrapMissingDisbursementFacts(cycleNo)
	}

	unique := DedupeRecords(records)

	seed := domain.CollectionRecord{
		CycleNo:        cycle.CycleNo,
		PaymentDate:    utils.TruncateToDay(*cycle.StartDate),
		ReferenceNo:    domain.DisbursementReference,
		Amount:         decimal.Zero,
		RunningBalance: cycle.Principal,
		PaymentMode:    cycle.PaymentMode,
		Provenance:     domain.ProvenanceDisbursement,
		CommitState:    domain.CommitStateCommitted,
	}

	entries := make([]domain.LedgerEntry, 0, len(unique)+1)
	entries = append(entries, domain.LedgerEntry{CollectionRecord: seed})
	for _, record := range unique {
		entries = append(entries, domain.LedgerEntry{CollectionRecord: *record})
	}

	// The seed sorts ahead of same-day collections because it was appended
	// first and the sort is stable.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PaymentDate.Before(entries[j].PaymentDate)
	})

	ledger := &domain.OrderedLedger{
		CycleNo:                 cycle.CycleNo,
		TotalCollected:          decimal.Zero,
		TotalPenalty:            decimal.Zero,
		TotalPrincipalReduction: decimal.Zero,
	}

	balance := cycle.Principal
	var lastCollection *time.Time
	for i := range entries {
		entry := &entries[i]
		entry.SeqNo = i

		if entry.Provenance == domain.ProvenanceDisbursement {
			entry.RunningBalance = balance
			continue
		}

		reduction := principalReduction(&entry.CollectionRecord)
		balance = balance.Sub(reduction)
		entry.RunningBalance = balance

		ledger.TotalCollected = ledger.TotalCollected.Add(entry.Amount)
		ledger.TotalPenalty = ledger.TotalPenalty.Add(entry.Penalty)
		ledger.TotalPrincipalReduction = ledger.TotalPrincipalReduction.Add(reduction)

		date := entry.PaymentDate
		if lastCollection == nil || date.After(*lastCollection) {
			lastCollection = &date
		}
	}

	ledger.Entries = entries
	ledger.OutstandingBalance = balance
	ledger.LastCollectionDate = lastCollection
	return ledger, nil
}

// principalReduction is the amount a record takes off the outstanding
// balance. Rows never split into principal/interest count in full, matching
// the even-split amortization simplification.
func principalReduction(record *domain.CollectionRecord) decimal.Decimal {
	if record.PrincipalPaid.IsPositive() {
		return record.PrincipalPaid
	}
	return record.Amount
}
