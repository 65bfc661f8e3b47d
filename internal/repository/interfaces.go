package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfiops/collection-ledger/internal/domain"
)

// LoanCycleRepository defines the interface for loan cycle data operations
type LoanCycleRepository interface {
	// Create registers a new loan cycle
	Create(ctx context.Context, cycle *domain.LoanCycle) error

	// GetByCycleNo retrieves a loan cycle by its cycle number
	GetByCycleNo(ctx context.Context, cycleNo string) (*domain.LoanCycle, error)

	// UpdateStatus persists a derived lifecycle status and its reason
	UpdateStatus(ctx context.Context, cycleNo, status, reason string) error

	// ListOpen retrieves all cycles whose process status is not closed
	ListOpen(ctx context.Context) ([]*domain.LoanCycle, error)
}

// CollectionRepository defines the interface for collection record operations
type CollectionRepository interface {
	// Create inserts a single committed collection record
	Create(ctx context.Context, record *domain.CollectionRecord) error

	// GetCommittedByCycle retrieves all committed records for a cycle,
	// in no guaranteed order
	GetCommittedByCycle(ctx context.Context, cycleNo string) ([]*domain.CollectionRecord, error)

	// GetByID retrieves one record
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CollectionRecord, error)

	// UpdateEditable changes the only fields editable after commit
	UpdateEditable(ctx context.Context, id uuid.UUID, penalty *decimal.Decimal, collector *string) error

	// Delete removes a record by explicit user action
	Delete(ctx context.Context, id uuid.UUID) error

	// CommitBatch inserts all records in one transaction; either every
	// record is committed or none is
	CommitBatch(ctx context.Context, records []*domain.CollectionRecord) error
}

// RateRepository defines the interface for rate table lookups
type RateRepository interface {
	// GetAll retrieves the full configured rate table
	GetAll(ctx context.Context) ([]domain.RateEntry, error)
}
