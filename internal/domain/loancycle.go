package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment modes
const (
	ModeDaily       = "DAILY"
	ModeWeekly      = "WEEKLY"
	ModeSemiMonthly = "SEMI-MONTHLY"
	ModeMonthly     = "MONTHLY"
)

// Lifecycle statuses derived by the status engine
const (
	StatusDormant    = "DORMANT"
	StatusLitigation = "LITIGATION"
	StatusPastDue    = "PAST DUE"
	StatusArrears    = "ARREARS"
	StatusUpdated    = "UPDATED"
)

// Process statuses (administrative, separate from lifecycle status)
const (
	ProcessOpen    = "OPEN"
	ProcessClosed  = "CLOSED"
	ProcessRenewed = "RENEWED"
)

// ValidMode reports whether mode is one of the four payment modes.
func ValidMode(mode string) bool {
	switch mode {
	case ModeDaily, ModeWeekly, ModeSemiMonthly, ModeMonthly:
		return true
	}
	return false
}

// ModeDays returns the number of calendar days one installment covers.
func ModeDays(mode string) int {
	switch mode {
	case ModeDaily:
		return 1
	case ModeWeekly:
		return 7
	case ModeSemiMonthly:
		return 15
	case ModeMonthly:
		return 30
	}
	return 0
}

// LoanCycle is one disbursed loan instance. A renewal creates a new cycle
// with a derived cycle number; cycles are never deleted.
type LoanCycle struct {
	CycleNo       string          `json:"cycle_no" db:"cycle_no"`
	AccountNo     string          `json:"account_no" db:"account_no"`
	Principal     decimal.Decimal `json:"principal" db:"principal"`
	TermMonths    int             `json:"term_months" db:"term_months"`
	PaymentMode   string          `json:"payment_mode" db:"payment_mode"`
	MonthlyRate   decimal.Decimal `json:"monthly_rate" db:"monthly_rate"`
	StartDate     *time.Time      `json:"start_date" db:"start_date"`
	MaturityDate  *time.Time      `json:"maturity_date" db:"maturity_date"`
	Status        string          `json:"status" db:"status"`
	StatusReason  string          `json:"status_reason" db:"status_reason"`
	ProcessStatus string          `json:"process_status" db:"process_status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// HasDisbursementFacts reports whether reconciliation can seed the ledger.
func (c *LoanCycle) HasDisbursementFacts() bool {
	return c.StartDate != nil && c.Principal.IsPositive()
}

type CreateLoanCycleRequest struct {
	CycleNo      string          `json:"cycle_no" validate:"required"`
	AccountNo    string          `json:"account_no" validate:"required"`
	Principal    decimal.Decimal `json:"principal" validate:"required"`
	TermMonths   int             `json:"term_months" validate:"required,gt=0"`
	PaymentMode  string          `json:"payment_mode" validate:"required,oneof=DAILY WEEKLY SEMI-MONTHLY MONTHLY"`
	MonthlyRate  decimal.Decimal `json:"monthly_rate"`
	StartDate    *time.Time      `json:"start_date"`
	MaturityDate *time.Time      `json:"maturity_date"`
}

type StatusResponse struct {
	CycleNo  string `json:"cycle_no"`
	Status   string `json:"status"`
	Reason   string `json:"reason"`
	Asserted bool   `json:"asserted"`
}
