package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mfiops/collection-ledger/internal/domain"
)

type loanCycleRepository struct {
	db *sqlx.DB
}

func NewLoanCycleRepository(db *sqlx.DB) LoanCycleRepository {
	return &loanCycleRepository{db: db}
}

func (r *loanCycleRepository) Create(ctx context.Context, cycle *domain.LoanCycle) error {
	query := `
		INSERT INTO loan_cycles (cycle_no, account_no, principal, term_months, payment_mode, monthly_rate,
			start_date, maturity_date, status, status_reason, process_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		cycle.CycleNo,
		cycle.AccountNo,
		cycle.Principal,
		cycle.TermMonths,
		cycle.PaymentMode,
		cycle.MonthlyRate,
		cycle.StartDate,
		cycle.MaturityDate,
		cycle.Status,
		cycle.StatusReason,
		cycle.ProcessStatus,
		cycle.CreatedAt,
		cycle.UpdatedAt,
	)

	return err
}

func (r *loanCycleRepository) GetByCycleNo(ctx context.Context, cycleNo string) (*domain.LoanCycle, error) {
	query := `
		SELECT cycle_no, account_no, principal, term_months, payment_mode, monthly_rate,
			start_date, maturity_date, status, status_reason, process_status, created_at, updated_at
		FROM loan_cycles
		WHERE cycle_no = $1
	`

	var cycle domain.LoanCycle
	err := r.db.GetContext(ctx, &cycle, query, cycleNo)
	if err != nil {
		return nil, err
	}

	return &cycle, nil
}

func (r *loanCycleRepository) UpdateStatus(ctx context.Context, cycleNo, status, reason string) error {
	query := `
		UPDATE loan_cycles
		SET status = $2, status_reason = $3, updated_at = $4
		WHERE cycle_no = $1
	`

	_, err := r.db.ExecContext(ctx, query, cycleNo, status, reason, time.Now())
	return err
}

func (r *loanCycleRepository) ListOpen(ctx context.Context) ([]*domain.LoanCycle, error) {
	query := `
		SELECT cycle_no, account_no, principal, term_months, payment_mode, monthly_rate,
			start_date, maturity_date, status, status_reason, process_status, created_at, updated_at
		FROM loan_cycles
		WHERE process_status <> 'CLOSED'
		ORDER BY cycle_no
	`

	var cycles []*domain.LoanCycle
	err := r.db.SelectContext(ctx, &cycles, query)
	if err != nil {
		return nil, err
	}

	return cycles, nil
}
