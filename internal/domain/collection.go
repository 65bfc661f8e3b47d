package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Provenance tags
const (
	ProvenanceManual       = "manual"
	ProvenanceImported     = "imported"
	ProvenanceDisbursement = "disbursement-seed"
)

// Commit states
const (
	CommitStateStaged    = "staged"
	CommitStateCommitted = "committed"
)

// DisbursementReference is the reference number carried by the synthetic
// seed row of every reconciled ledger.
const DisbursementReference = "Disbursement"

// CollectionRecord is one money movement against a loan cycle. Committed
// records are immutable except for the penalty and collector fields.
type CollectionRecord struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	CycleNo        string          `json:"cycle_no" db:"cycle_no"`
	PaymentDate    time.Time       `json:"payment_date" db:"payment_date"`
	ReferenceNo    string          `json:"reference_no" db:"reference_no"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	PrincipalPaid  decimal.Decimal `json:"principal_paid" db:"principal_paid"`
	InterestPaid   decimal.Decimal `json:"interest_paid" db:"interest_paid"`
	Penalty        decimal.Decimal `json:"penalty" db:"penalty"`
	RunningBalance decimal.Decimal `json:"running_balance" db:"running_balance"`
	Collector      string          `json:"collector" db:"collector"`
	PaymentMode    string          `json:"payment_mode" db:"payment_mode"`
	Provenance     string          `json:"provenance" db:"provenance"`
	CommitState    string          `json:"commit_state" db:"commit_state"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// Identity returns the deduplication key: the explicit id when present,
// otherwise referenceNo|paymentDate|amount. The same rule is applied at
// preview, commit and reconciliation time.
func (r *CollectionRecord) Identity() string {
	if r.ID != uuid.Nil {
		return r.ID.String()
	}
	return CompositeIdentity(r.ReferenceNo, r.PaymentDate, r.Amount)
}

// CompositeIdentity builds the referenceNo|paymentDate|amount key with the
// amount normalized to two decimals so 100 and 100.00 collide.
func CompositeIdentity(referenceNo string, paymentDate time.Time, amount decimal.Decimal) string {
	return fmt.Sprintf("%s|%s|%s", referenceNo, paymentDate.Format("2006-01-02"), amount.Round(2).StringFixed(2))
}

// RawCollectionCandidate is one parsed row from the document-parsing
// collaborator. RunningBalanceHint is advisory only; reconciliation always
// recomputes balances.
type RawCollectionCandidate struct {
	PaymentDate        time.Time        `json:"payment_date" validate:"required"`
	ReferenceNo        string           `json:"reference_no" validate:"required"`
	Amount             decimal.Decimal  `json:"amount" validate:"required"`
	RunningBalanceHint *decimal.Decimal `json:"running_balance_hint,omitempty"`
	CollectorName      string           `json:"collector_name,omitempty"`
}

// Identity applies the composite rule; raw candidates never carry ids.
func (c *RawCollectionCandidate) Identity() string {
	return CompositeIdentity(c.ReferenceNo, c.PaymentDate, c.Amount)
}

type PostCollectionRequest struct {
	PaymentDate   time.Time       `json:"payment_date" validate:"required"`
	ReferenceNo   string          `json:"reference_no" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	PrincipalPaid decimal.Decimal `json:"principal_paid"`
	InterestPaid  decimal.Decimal `json:"interest_paid"`
	Penalty       decimal.Decimal `json:"penalty"`
	Collector     string          `json:"collector"`
}

// UpdateCollectionRequest covers the only fields editable after commit.
type UpdateCollectionRequest struct {
	Penalty   *decimal.Decimal `json:"penalty,omitempty"`
	Collector *string          `json:"collector,omitempty"`
}

type ImportPreviewRequest struct {
	Rows []RawCollectionCandidate `json:"rows" validate:"required,dive"`
}

type ImportPreviewResponse struct {
	CycleNo    string                   `json:"cycle_no"`
	Candidates []RawCollectionCandidate `json:"candidates"`
	DroppedDup int                      `json:"dropped_duplicates"`
}

type ImportCommitRequest struct {
	Rows []RawCollectionCandidate `json:"rows" validate:"required,min=1,dive"`
}

type ImportCommitResponse struct {
	CycleNo        string `json:"cycle_no"`
	CommittedCount int    `json:"committed_count"`
}
