package ledger

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/mfiops/collection-ledger/internal/domain"
	customError "github.com/mfiops/collection-ledger/pkg/errors"
	"github.com/mfiops/collection-ledger/pkg/utils"
)

// LookupRate finds the configured monthly rate for (principal, term, mode).
// There is deliberately no default: a loan outside every bracket is a
// configuration problem, not a 0% loan.
func LookupRate(table []domain.RateEntry, principal decimal.Decimal, termMonths int, mode string) (decimal.Decimal, error) {
	for _, entry := range table {
		if entry.Matches(principal, termMonths, mode) {
			return entry.MonthlyRate, nil
		}
	}
	return decimal.Zero, customError.WrapNoMatchingRate(principal.String(), termMonths, mode)
}

// Amortize computes the periodic amortization for a loan.
//
// With a zero rate the amortization is straight-line principal/term.
// Otherwise the standard annuity formula applies:
//
//	amortization = P * r * (1+r)^n / ((1+r)^n - 1)
//
// where r is the monthly rate as a fraction and n the term in months.
// The per-period principal and interest portions split the totals evenly
// across periods rather than following a declining balance. That is the
// split the rest of the system's collected-to-date figures assume.
func Amortize(principal decimal.Decimal, termMonths int, monthlyRatePercent decimal.Decimal) (*domain.AmortizationSchedule, error) {
	if !principal.IsPositive() {
		return nil, customError.WrapInvalidPrincipal(principal.String())
	}
	if termMonths <= 0 {
		return nil, customError.WrapInvalidTerm(termMonths)
	}
	if monthlyRatePercent.IsNegative() {
		return nil, customError.WrapInvalidRate(monthlyRatePercent.String())
	}

	n := decimal.NewFromInt(int64(termMonths))

	var amortization decimal.Decimal
	if monthlyRatePercent.IsZero() {
		amortization = utils.Round2(principal.Div(n))
	} else {
		// The power term needs float math; monetary arithmetic stays decimal.
		r := monthlyRatePercent.InexactFloat64() / 100.0
		factor := math.Pow(1+r, float64(termMonths))
		payment := principal.InexactFloat64() * r * factor / (factor - 1)
		amortization = utils.Round2(decimal.NewFromFloat(payment))
	}

	totalPayable := amortization.Mul(n)
	totalInterest := totalPayable.Sub(principal)
	if totalInterest.IsNegative() {
		totalInterest = decimal.Zero
	}

	return &domain.AmortizationSchedule{
		Amortization:       amortization,
		PrincipalPerPeriod: utils.Round2(principal.Div(n)),
		InterestPerPeriod:  utils.Round2(totalInterest.Div(n)),
		TotalPayable:       utils.Round2(totalPayable),
		TotalInterest:      utils.Round2(totalInterest),
		Periods:            termMonths,
	}, nil
}

// AmortizeWithTable resolves the rate from the table first, then amortizes.
func AmortizeWithTable(table []domain.RateEntry, principal decimal.Decimal, termMonths int, mode string) (*domain.AmortizationSchedule, error) {
	rate, err := LookupRate(table, principal, termMonths, mode)
	if err != nil {
		return nil, err
	}
	return Amortize(principal, termMonths, rate)
}
