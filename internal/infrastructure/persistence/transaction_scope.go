package persistence

import (
	"context"

	"github.com/kolnet/backend/internal/application/transaction"
	"github.com/kolnet/backend/internal/domain/commission"
	"github.com/kolnet/backend/internal/domain/device"
	"github.com/kolnet/backend/internal/domain/integrity"
	"github.com/kolnet/backend/internal/domain/network"
	"gorm.io/gorm"
)

// GormTransactionScope implements transaction.Scope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. A returned error, a panic
// or a cancelled context rolls everything back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos transaction.Repositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(&gormRepositories{tx: tx}); err != nil {
			return err
		}
		// do not commit work whose caller has already given up
		return ctx.Err()
	})
	return translateError(err, "transaction")
}

// gormRepositories hands out repositories bound to one transaction.
type gormRepositories struct {
	tx *gorm.DB
}

// NewRepositories returns repositories on db outside any transaction, for
// reads that tolerate seeing the latest committed state.
func NewRepositories(db *gorm.DB) transaction.Repositories {
	return &gormRepositories{tx: db}
}

func (r *gormRepositories) Relationships() network.RelationshipRepository {
	return NewGormRelationshipRepository(r.tx)
}

func (r *gormRepositories) Entities() network.EntityStore {
	return NewGormEntityStore(r.tx)
}

func (r *gormRepositories) Accumulators() device.AccumulatorRepository {
	return NewGormAccumulatorRepository(r.tx)
}

func (r *gormRepositories) DeviceSales() device.SaleRepository {
	return NewGormDeviceSaleRepository(r.tx)
}

func (r *gormRepositories) CommissionEntries() commission.EntryRepository {
	return NewGormCommissionEntryRepository(r.tx)
}

func (r *gormRepositories) Tables() integrity.Registry {
	return NewGormTableRegistry(r.tx)
}

var _ transaction.Scope = (*GormTransactionScope)(nil)
var _ transaction.Repositories = (*gormRepositories)(nil)
