package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is one row of a reconciled ledger, including the synthetic
// disbursement seed.
type LedgerEntry struct {
	CollectionRecord
	SeqNo int `json:"seq_no"`
}

// OrderedLedger is the authoritative, always recomputed view of a loan
// cycle's collection history.
type OrderedLedger struct {
	CycleNo                 string          `json:"cycle_no"`
	Entries                 []LedgerEntry   `json:"entries"`
	TotalCollected          decimal.Decimal `json:"total_collected"`
	TotalPenalty            decimal.Decimal `json:"total_penalty"`
	TotalPrincipalReduction decimal.Decimal `json:"total_principal_reduction"`
	OutstandingBalance      decimal.Decimal `json:"outstanding_balance"`
	LastCollectionDate      *time.Time      `json:"last_collection_date,omitempty"`
}

// StatusThresholds is the process-wide grace-period configuration. It is
// loaded once and passed explicitly into every evaluation; changes apply on
// the next evaluation only.
type StatusThresholds struct {
	DormantDays                 int `json:"dormant_days"`
	LitigationDaysAfterMaturity int `json:"litigation_days_after_maturity"`
	PastDueDaysAfterMaturity    int `json:"past_due_days_after_maturity"`
	ArrearsDailyDays            int `json:"arrears_daily_days"`
	ArrearsWeeklyDays           int `json:"arrears_weekly_days"`
	ArrearsSemiMonthlyDays      int `json:"arrears_semi_monthly_days"`
	ArrearsMonthlyDays          int `json:"arrears_monthly_days"`
}

// ArrearsDaysFor returns the mode-specific arrears threshold.
func (t StatusThresholds) ArrearsDaysFor(mode string) int {
	switch mode {
	case ModeDaily:
		return t.ArrearsDailyDays
	case ModeWeekly:
		return t.ArrearsWeeklyDays
	case ModeSemiMonthly:
		return t.ArrearsSemiMonthlyDays
	case ModeMonthly:
		return t.ArrearsMonthlyDays
	}
	return 0
}

// RateEntry is one configured row of the rate table. A nil upper bound
// means the bracket is open-ended.
type RateEntry struct {
	ID           int              `json:"id" db:"id"`
	PrincipalMin decimal.Decimal  `json:"principal_min" db:"principal_min"`
	PrincipalMax *decimal.Decimal `json:"principal_max" db:"principal_max"`
	TermMonths   int              `json:"term_months" db:"term_months"`
	PaymentMode  string           `json:"payment_mode" db:"payment_mode"`
	MonthlyRate  decimal.Decimal  `json:"monthly_rate" db:"monthly_rate"`
}

// Matches reports whether the entry covers the given loan parameters.
func (e RateEntry) Matches(principal decimal.Decimal, termMonths int, mode string) bool {
	if e.TermMonths != termMonths || e.PaymentMode != mode {
		return false
	}
	if principal.LessThan(e.PrincipalMin) {
		return false
	}
	if e.PrincipalMax != nil && principal.GreaterThan(*e.PrincipalMax) {
		return false
	}
	return true
}

// AmortizationSchedule is the derived periodic breakdown. The per-period
// principal/interest split divides the totals evenly across periods; this
// mirrors the collected-to-date figures used elsewhere and is intentionally
// not a declining-balance schedule.
type AmortizationSchedule struct {
	Amortization       decimal.Decimal `json:"amortization"`
	PrincipalPerPeriod decimal.Decimal `json:"principal_per_period"`
	InterestPerPeriod  decimal.Decimal `json:"interest_per_period"`
	TotalPayable       decimal.Decimal `json:"total_payable"`
	TotalInterest      decimal.Decimal `json:"total_interest"`
	Periods            int             `json:"periods"`
}

type AmortizationRequest struct {
	Principal   decimal.Decimal `json:"principal" validate:"required"`
	TermMonths  int             `json:"term_months" validate:"required,gt=0"`
	PaymentMode string          `json:"payment_mode" validate:"required,oneof=DAILY WEEKLY SEMI-MONTHLY MONTHLY"`
}

// AdvanceQuote is the outcome of an advance-payment computation. Computed
// always carries the engine's figure even when an override is applied.
type AdvanceQuote struct {
	Amount   decimal.Decimal `json:"amount"`
	Computed decimal.Decimal `json:"computed"`
	EndDate  time.Time       `json:"end_date"`
	Remarks  string          `json:"remarks"`
}

type AdvanceRequest struct {
	InstallmentPrincipal decimal.Decimal  `json:"installment_principal" validate:"required"`
	PaymentMode          string           `json:"payment_mode" validate:"required,oneof=DAILY WEEKLY SEMI-MONTHLY MONTHLY"`
	Days                 int              `json:"days" validate:"required"`
	StartDate            *time.Time       `json:"start_date,omitempty"`
	OverrideAmount       *decimal.Decimal `json:"override_amount,omitempty"`
}
