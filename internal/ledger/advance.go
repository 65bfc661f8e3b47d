package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mfiops/collection-ledger/internal/domain"
	customError "github.com/mfiops/collection-ledger/pkg/errors"
	"github.com/mfiops/collection-ledger/pkg/utils"
)

// ComputeAdvance prorates an installment's principal per day of its payment
// mode and quotes the amount covering the requested number of days ahead.
// When override is non-nil the quoted Amount is the override; Computed keeps
// the engine's own figure so the caller can show both.
func ComputeAdvance(installmentPrincipal decimal.Decimal, mode string, days int, startDate time.Time, override *decimal.Decimal) (*domain.AdvanceQuote, error) {
	if days <= 0 {
		return nil, customError.WrapInvalidDays(days)
	}
	if !installmentPrincipal.IsPositive() {
		return nil, customError.WrapInvalidPrincipal(installmentPrincipal.String())
	}
	modeDays := domain.ModeDays(mode)
	if modeDays == 0 {
		return nil, customError.New(customError.ErrValidation, customError.CodeInvalidCandidate,
			fmt.Sprintf("unknown payment mode %q", mode), nil)
	}

	if startDate.IsZero() {
		startDate = time.Now()
	}
	startDate = utils.TruncateToDay(startDate)

	perDay := installmentPrincipal.Div(decimal.NewFromInt(int64(modeDays)))
	computed := utils.Round2(perDay.Mul(decimal.NewFromInt(int64(days))))
	endDate := startDate.AddDate(0, 0, days)

	amount := computed
	remarks := fmt.Sprintf("Advance payment of %s for %d day(s), %s to %s",
		computed.StringFixed(2), days, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	if override != nil {
		amount = utils.Round2(*override)
		remarks = fmt.Sprintf("%s (manual override %s, computed %s)",
			remarks, amount.StringFixed(2), computed.StringFixed(2))
	}

	return &domain.AdvanceQuote{
		Amount:   amount,
		Computed: computed,
		EndDate:  endDate,
		Remarks:  remarks,
	}, nil
}
