package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/mfiops/collection-ledger/internal/domain"
)

type rateRepository struct {
	db *sqlx.DB
}

func NewRateRepository(db *sqlx.DB) RateRepository {
	return &rateRepository{db: db}
}

func (r *rateRepository) GetAll(ctx context.Context) ([]domain.RateEntry, error) {
	query := `
		SELECT id, principal_min, principal_max, term_months, payment_mode, monthly_rate
		FROM rate_table
		ORDER BY payment_mode, term_months, principal_min
	`

	var entries []domain.RateEntry
	err := r.db.SelectContext(ctx, &entries, query)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
