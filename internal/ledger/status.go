package ledger

import (
	"fmt"
	"time"

	"github.com/mfiops/collection-ledger/internal/domain"
	"github.com/mfiops/collection-ledger/pkg/utils"
)

// StatusEvaluation is the outcome of one classification. Asserted=false
// means no rule matched and the caller must keep whatever status is
// currently persisted.
type StatusEvaluation struct {
	Status   string
	Reason   string
	Asserted bool
}

// StatusFacts are the inputs to one classification, all supplied by the
// caller. LastCollectionDate comes from the reconciled ledger; DataFresh is
// the external collections-sync freshness flag.
type StatusFacts struct {
	PaymentMode        string
	LastCollectionDate *time.Time
	MaturityDate       *time.Time
	CurrentDate        time.Time
	DataFresh          bool
}

// EvaluateStatus classifies a loan cycle. The rules form a priority list
// evaluated fresh from facts each time; there is no dependency on the
// previously persisted status.
//
// Order: DORMANT, LITIGATION, PAST DUE, ARREARS, UPDATED. A cycle with no
// collections at all is DORMANT unconditionally, ahead of any maturity rule,
// since it has no last-collection date to compare against maturity.
func EvaluateStatus(facts StatusFacts, thresholds domain.StatusThresholds) StatusEvaluation {
	now := utils.TruncateToDay(facts.CurrentDate)

	if facts.LastCollectionDate == nil {
		return StatusEvaluation{
			Status:   domain.StatusDormant,
			Reason:   "no collection has ever been recorded",
			Asserted: true,
		}
	}

	last := utils.TruncateToDay(*facts.LastCollectionDate)
	daysSinceLast := utils.DaysBetween(last, now)

	if daysSinceLast >= thresholds.DormantDays {
		return StatusEvaluation{
			Status:   domain.StatusDormant,
			Reason:   fmt.Sprintf("last collection %d day(s) ago, dormant threshold is %d", daysSinceLast, thresholds.DormantDays),
			Asserted: true,
		}
	}

	if facts.MaturityDate != nil {
		maturity := utils.TruncateToDay(*facts.MaturityDate)
		daysPastMaturity := utils.DaysBetween(maturity, now)
		collectedAfterMaturity := last.After(maturity)

		if daysPastMaturity > thresholds.LitigationDaysAfterMaturity && !collectedAfterMaturity {
			return StatusEvaluation{
				Status:   domain.StatusLitigation,
				Reason:   fmt.Sprintf("%d day(s) past maturity with no collection after maturity, litigation threshold is %d", daysPastMaturity, thresholds.LitigationDaysAfterMaturity),
				Asserted: true,
			}
		}

		if daysPastMaturity > thresholds.PastDueDaysAfterMaturity && !collectedAfterMaturity {
			return StatusEvaluation{
				Status:   domain.StatusPastDue,
				Reason:   fmt.Sprintf("%d day(s) past maturity with no collection after maturity, past due threshold is %d", daysPastMaturity, thresholds.PastDueDaysAfterMaturity),
				Asserted: true,
			}
		}
	}

	if arrearsDays := thresholds.ArrearsDaysFor(facts.PaymentMode); arrearsDays > 0 && daysSinceLast >= arrearsDays {
		return StatusEvaluation{
			Status:   domain.StatusArrears,
			Reason:   fmt.Sprintf("last collection %d day(s) ago, %s arrears threshold is %d", daysSinceLast, facts.PaymentMode, arrearsDays),
			Asserted: true,
		}
	}

	if facts.DataFresh {
		return StatusEvaluation{
			Status:   domain.StatusUpdated,
			Reason:   "collection data reported current by sync",
			Asserted: true,
		}
	}

	return StatusEvaluation{
		Reason:   "no rule matched; existing status retained",
		Asserted: false,
	}
}
