package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error leaving the engine wraps exactly one of these,
// so callers can branch with errors.Is without parsing messages.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrState      = errors.New("invalid state")
	ErrTimeout    = errors.New("timeout")
)

// Error codes
const (
	CodeInvalidDays              = "INVALID_DAYS"
	CodeInvalidPrincipal         = "INVALID_PRINCIPAL"
	CodeInvalidTerm              = "INVALID_TERM"
	CodeInvalidRate              = "INVALID_RATE"
	CodeInvalidCandidate         = "INVALID_CANDIDATE"
	CodePaymentBeforeStart       = "PAYMENT_BEFORE_START"
	CodeNoMatchingRate           = "NO_MATCHING_RATE"
	CodeLoanCycleNotFound        = "LOAN_CYCLE_NOT_FOUND"
	CodeCollectionNotFound       = "COLLECTION_NOT_FOUND"
	CodeDuplicateCollection      = "DUPLICATE_COLLECTION"
	CodeLoanCycleAlreadyExists   = "LOAN_CYCLE_ALREADY_EXISTS"
	CodeMissingDisbursementFacts = "MISSING_DISBURSEMENT_FACTS"
	CodeCommitConflict           = "COMMIT_CONFLICT"
	CodeDatabaseError            = "DATABASE_ERROR"
	CodeCacheError               = "CACHE_ERROR"
	CodeTimeout                  = "TIMEOUT"
)

// Error carries a machine-readable code and kind alongside the message.
type Error struct {
	Kind    error
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Cause returns the wrapped low-level error, if any.
func (e *Error) Cause() error {
	return e.Err
}

// New creates an Error of the given kind.
func New(kind error, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func WrapInvalidDays(days int) *Error {
	return New(ErrValidation, CodeInvalidDays,
		fmt.Sprintf("days to advance must be positive, got %d", days), nil)
}

func WrapInvalidPrincipal(principal string) *Error {
	return New(ErrValidation, CodeInvalidPrincipal,
		fmt.Sprintf("principal must be positive, got %s", principal), nil)
}

func WrapInvalidTerm(term int) *Error {
	return New(ErrValidation, CodeInvalidTerm,
		fmt.Sprintf("term in months must be positive, got %d", term), nil)
}

func WrapInvalidRate(rate string) *Error {
	return New(ErrValidation, CodeInvalidRate,
		fmt.Sprintf("monthly rate must not be negative, got %s", rate), nil)
}

func WrapInvalidCandidate(index int, err error) *Error {
	return New(ErrValidation, CodeInvalidCandidate,
		fmt.Sprintf("candidate row %d failed validation", index), err)
}

func WrapPaymentBeforeStart(paymentDate, startDate string) *Error {
	return New(ErrValidation, CodePaymentBeforeStart,
		fmt.Sprintf("payment dated %s precedes the disbursement date %s", paymentDate, startDate), nil)
}

func WrapNoMatchingRate(principal string, term int, mode string) *Error {
	return New(ErrNotFound, CodeNoMatchingRate,
		fmt.Sprintf("no rate table entry matches principal=%s term=%d mode=%s", principal, term, mode), nil)
}

func WrapLoanCycleNotFound(cycleNo string) *Error {
	return New(ErrNotFound, CodeLoanCycleNotFound,
		fmt.Sprintf("loan cycle %s not found", cycleNo), nil)
}

func WrapCollectionNotFound(id string) *Error {
	return New(ErrNotFound, CodeCollectionNotFound,
		fmt.Sprintf("collection record %s not found", id), nil)
}

func WrapLoanCycleAlreadyExists(cycleNo string) *Error {
	return New(ErrConflict, CodeLoanCycleAlreadyExists,
		fmt.Sprintf("loan cycle %s already exists", cycleNo), nil)
}

func WrapMissingDisbursementFacts(cycleNo string) *Error {
	return New(ErrState, CodeMissingDisbursementFacts,
		fmt.Sprintf("loan cycle %s has no usable principal or disbursement date", cycleNo), nil)
}

// WrapCommitConflict reports the identities that collided with already
// committed rows. The whole batch is rejected when this is returned.
func WrapCommitConflict(cycleNo string, identities []string) *Error {
	return New(ErrConflict, CodeCommitConflict,
		fmt.Sprintf("import commit for loan cycle %s rejected, conflicting rows: %s",
			cycleNo, strings.Join(identities, ", ")), nil)
}

func WrapDuplicateCollection(identity string) *Error {
	return New(ErrConflict, CodeDuplicateCollection,
		fmt.Sprintf("collection with identity %s already committed", identity), nil)
}

func WrapDatabaseError(err error) *Error {
	return New(ErrState, CodeDatabaseError, "database operation failed", err)
}

func WrapCacheError(err error) *Error {
	return New(ErrState, CodeCacheError, "cache operation failed", err)
}

func WrapTimeout(op string, err error) *Error {
	return New(ErrTimeout, CodeTimeout,
		fmt.Sprintf("%s exceeded its deadline", op), err)
}
