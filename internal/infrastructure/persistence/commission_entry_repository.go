package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/commission"
	"github.com/kolnet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCommissionEntryRepository implements commission.EntryRepository using GORM
type GormCommissionEntryRepository struct {
	db *gorm.DB
}

// NewGormCommissionEntryRepository creates a new GormCommissionEntryRepository
func NewGormCommissionEntryRepository(db *gorm.DB) *GormCommissionEntryRepository {
	return &GormCommissionEntryRepository{db: db}
}

// Create appends a ledger row
func (r *GormCommissionEntryRepository) Create(ctx context.Context, e *commission.Entry) error {
	return translateError(r.db.WithContext(ctx).Create(models.CommissionEntryModelFromDomain(e)).Error, "commission entry")
}

// ListByEntity returns the newest entries credited to entityID
func (r *GormCommissionEntryRepository) ListByEntity(ctx context.Context, entityID uuid.UUID, limit int) ([]commission.Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var rows []models.CommissionEntryModel
	if err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "commission entry")
	}
	out := make([]commission.Entry, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

var _ commission.EntryRepository = (*GormCommissionEntryRepository)(nil)
