package device

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccumulatorRepository persists accumulators.
type AccumulatorRepository interface {
	// FindByEntity returns shared.ErrNotFound when no row exists
	FindByEntity(ctx context.Context, entityID uuid.UUID) (*Accumulator, error)
	// FindByEntityForUpdate row-locks the accumulator inside the surrounding
	// transaction. Returns shared.ErrNotFound when no row exists.
	FindByEntityForUpdate(ctx context.Context, entityID uuid.UUID) (*Accumulator, error)
	// Create inserts a new row; a concurrent insert for the same entity
	// yields shared.ErrConflict
	Create(ctx context.Context, a *Accumulator) error
	// SaveWithLock writes a only if the stored version is a.Version-1
	SaveWithLock(ctx context.Context, a *Accumulator) error
	ListTop(ctx context.Context, limit int) ([]Accumulator, error)
}

// SaleFilter narrows ledger reads. Nil fields match every row; From and To
// bound SaleDate inclusively.
type SaleFilter struct {
	ShopID *uuid.UUID
	From   *time.Time
	To     *time.Time
	Limit  int
}

// SaleSummary aggregates ledger rows.
type SaleSummary struct {
	TotalSold       int64
	TotalReturned   int64
	TotalCommission decimal.Decimal
	Shops           int64
}

// SaleRepository persists device sales ledger rows.
type SaleRepository interface {
	Create(ctx context.Context, s *Sale) error
	// List returns matching rows, newest sale first
	List(ctx context.Context, filter SaleFilter) ([]Sale, error)
	// Summarize totals the rows matching filter; ShopID and Limit are ignored
	Summarize(ctx context.Context, filter SaleFilter) (SaleSummary, error)
}
