package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/mfiops/collection-ledger/internal/domain"
)

type collectionRepository struct {
	db *sqlx.DB
}

func NewCollectionRepository(db *sqlx.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

const insertCollectionQuery = `
	INSERT INTO collection_records (id, cycle_no, payment_date, reference_no, amount,
		principal_paid, interest_paid, penalty, running_balance, collector,
		payment_mode, provenance, commit_state, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

func (r *collectionRepository) Create(ctx context.Context, record *domain.CollectionRecord) error {
	_, err := r.db.ExecContext(ctx, insertCollectionQuery,
		record.ID,
		record.CycleNo,
		record.PaymentDate,
		record.ReferenceNo,
		record.Amount,
		record.PrincipalPaid,
		record.InterestPaid,
		record.Penalty,
		record.RunningBalance,
		record.Collector,
		record.PaymentMode,
		record.Provenance,
		record.CommitState,
		record.CreatedAt,
	)

	return err
}

func (r *collectionRepository) GetCommittedByCycle(ctx context.Context, cycleNo string) ([]*domain.CollectionRecord, error) {
	query := `
		SELECT id, cycle_no, payment_date, reference_no, amount, principal_paid, interest_paid,
			penalty, running_balance, collector, payment_mode, provenance, commit_state, created_at
		FROM collection_records
		WHERE cycle_no = $1 AND commit_state = 'committed'
		ORDER BY created_at, id
	`

	var records []*domain.CollectionRecord
	err := r.db.SelectContext(ctx, &records, query, cycleNo)
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *collectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CollectionRecord, error) {
	query := `
		SELECT id, cycle_no, payment_date, reference_no, amount, principal_paid, interest_paid,
			penalty, running_balance, collector, payment_mode, provenance, commit_state, created_at
		FROM collection_records
		WHERE id = $1
	`

	var record domain.CollectionRecord
	err := r.db.GetContext(ctx, &record, query, id)
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// UpdateEditable touches only penalty and collector; everything else on a
// committed record is immutable.
func (r *collectionRepository) UpdateEditable(ctx context.Context, id uuid.UUID, penalty *decimal.Decimal, collector *string) error {
	query := `
		UPDATE collection_records
		SET penalty = COALESCE($2, penalty), collector = COALESCE($3, collector)
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, penalty, collector)
	return err
}

func (r *collectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM collection_records WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// CommitBatch inserts the whole batch in one transaction. The per-cycle
// uniqueness constraint on (cycle_no, reference_no, payment_date, amount)
// aborts the transaction on any collision a concurrent writer slipped in
// after the service's pre-commit check.
func (r *collectionRepository) CommitBatch(ctx context.Context, records []*domain.CollectionRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, record := range records {
		_, err = tx.ExecContext(ctx, insertCollectionQuery,
			record.ID,
			record.CycleNo,
			record.PaymentDate,
			record.ReferenceNo,
			record.Amount,
			record.PrincipalPaid,
			record.InterestPaid,
			record.Penalty,
			record.RunningBalance,
			record.Collector,
			record.PaymentMode,
			record.Provenance,
			record.CommitState,
			record.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
