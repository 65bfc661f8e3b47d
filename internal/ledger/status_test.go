package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mfiops/collection-ledger/internal/domain"
)

func testThresholds() domain.StatusThresholds {
	return domain.StatusThresholds{
		DormantDays:                 360,
		LitigationDaysAfterMaturity: 180,
		PastDueDaysAfterMaturity:    90,
		ArrearsDailyDays:            3,
		ArrearsWeeklyDays:           7,
		ArrearsSemiMonthlyDays:      15,
		ArrearsMonthlyDays:          30,
	}
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestEvaluateStatus(t *testing.T) {
	thresholds := testThresholds()

	tests := []struct {
		name           string
		facts          StatusFacts
		expectAsserted bool
		expectStatus   string
	}{
		{
			name: "never collected is dormant regardless of maturity breach",
			facts: StatusFacts{
				PaymentMode:        domain.ModeMonthly,
				LastCollectionDate: nil,
				MaturityDate:       datePtr(2020, 1, 1),
				CurrentDate:        time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
			},
			expectAsserted: true,
			expectStatus:   domain.StatusDormant,
		},
		{
			name: "dormant by elapsed days",
			facts: StatusFacts{
				PaymentMode:        domain.ModeMonthly,
				LastCollectionDate: datePtr(2023, 1, 1),
				CurrentDate:        time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
			},
			expectAsserted: true,
			expectStatus:   domain.StatusDormant,
		},
		{
			name: "litigation boundary scenario",
			facts: StatusFacts{
				PaymentMode:        domain.ModeMonthly,
				LastCollectionDate: datePtr(2023, 12, 15),
				MaturityDate:       datePtr(2024, 1, 1),
				CurrentDate:        time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC), // 191 days past maturity
			},
			expectAsserted: true,
			expectStatus:   domain.StatusLitigation,
		},
		{
			name: "collection after maturity cures litigation",
			facts: StatusFacts{
				PaymentMode:        domain.ModeDaily,
				LastCollectionDate: datePtr(2024, 7, 8),
				MaturityDate:       datePtr(2024, 1, 1),
				CurrentDate:        time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
			},
			expectAsserted: false,
		},
		{
			name: "past due inside the litigation window",
			facts: StatusFacts{
				PaymentMode:        domain.ModeMonthly,
				LastCollectionDate: datePtr(2024, 1, 1),
				MaturityDate:       datePtr(2024, 1, 1),
				CurrentDate:        time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), // 121 days past maturity
			},
			expectAsserted: true,
			expectStatus:   domain.StatusPastDue,
		},
		{
			name: "weekly arrears",
			facts: StatusFacts{
				PaymentMode:        domain.ModeWeekly,
				LastCollectionDate: datePtr(2024, 7, 1),
				MaturityDate:       datePtr(2024, 12, 1),
				CurrentDate:        time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
			},
			expectAsserted: true,
			expectStatus:   domain.StatusArrears,
		},
		{
			name: "monthly not yet in arrears",
			facts: StatusFacts{
				PaymentMode:        domain.ModeMonthly,
				LastCollectionDate: datePtr(2024, 7, 1),
				MaturityDate:       datePtr(2024, 12, 1),
				CurrentDate:        time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
			},
			expectAsserted: false,
		},
		{
			name: "fresh data asserts updated",
			facts: StatusFacts{
				PaymentMode:        domain.ModeMonthly,
				LastCollectionDate: datePtr(2024, 7, 1),
				MaturityDate:       datePtr(2024, 12, 1),
				CurrentDate:        time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
				DataFresh:          true,
			},
			expectAsserted: true,
			expectStatus:   domain.StatusUpdated,
		},
		{
			name: "no maturity date skips maturity rules",
			facts: StatusFacts{
				PaymentMode:        domain.ModeSemiMonthly,
				LastCollectionDate: datePtr(2024, 6, 1),
				CurrentDate:        time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
			},
			expectAsserted: true,
			expectStatus:   domain.StatusArrears,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := EvaluateStatus(tt.facts, thresholds)

			assert.Equal(t, tt.expectAsserted, eval.Asserted)
			if tt.expectAsserted {
				assert.Equal(t, tt.expectStatus, eval.Status)
			} else {
				assert.Empty(t, eval.Status)
			}
			assert.NotEmpty(t, eval.Reason)
		})
	}
}

func TestEvaluateStatusExactThresholds(t *testing.T) {
	thresholds := testThresholds()

	t.Run("arrears fires at the exact day count", func(t *testing.T) {
		eval := EvaluateStatus(StatusFacts{
			PaymentMode:        domain.ModeWeekly,
			LastCollectionDate: datePtr(2024, 7, 3),
			CurrentDate:        time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
		}, thresholds)
		assert.True(t, eval.Asserted)
		assert.Equal(t, domain.StatusArrears, eval.Status)
	})

	t.Run("litigation requires strictly more than the threshold", func(t *testing.T) {
		eval := EvaluateStatus(StatusFacts{
			PaymentMode:        domain.ModeDaily,
			LastCollectionDate: datePtr(2023, 12, 31),
			MaturityDate:       datePtr(2024, 1, 1),
			CurrentDate:        time.Date(2024, 6, 29, 0, 0, 0, 0, time.UTC), // exactly 180 days
		}, thresholds)
		// 180 is not "more than" 180; falls through to past due.
		assert.Equal(t, domain.StatusPastDue, eval.Status)
	})
}
