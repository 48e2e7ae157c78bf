package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/device"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/kolnet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAccumulatorRepository implements device.AccumulatorRepository using GORM
type GormAccumulatorRepository struct {
	db *gorm.DB
}

// NewGormAccumulatorRepository creates a new GormAccumulatorRepository
func NewGormAccumulatorRepository(db *gorm.DB) *GormAccumulatorRepository {
	return &GormAccumulatorRepository{db: db}
}

// FindByEntity finds the accumulator of a top-level entity
func (r *GormAccumulatorRepository) FindByEntity(ctx context.Context, entityID uuid.UUID) (*device.Accumulator, error) {
	return r.find(r.db.WithContext(ctx), entityID)
}

// FindByEntityForUpdate row-locks the accumulator for the rest of the transaction
func (r *GormAccumulatorRepository) FindByEntityForUpdate(ctx context.Context, entityID uuid.UUID) (*device.Accumulator, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), entityID)
}

func (r *GormAccumulatorRepository) find(q *gorm.DB, entityID uuid.UUID) (*device.Accumulator, error) {
	var m models.AccumulatorModel
	if err := q.Where("entity_id = ?", entityID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("no accumulator for entity %s", entityID)
		}
		return nil, translateError(err, "accumulator")
	}
	return m.ToDomain(), nil
}

// Create inserts a new accumulator. Two first sales racing for the same
// entity collide on the unique entity_id index.
func (r *GormAccumulatorRepository) Create(ctx context.Context, a *device.Accumulator) error {
	if err := r.db.WithContext(ctx).Create(models.AccumulatorModelFromDomain(a)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.NewConflictError("accumulator for entity %s was created concurrently", a.EntityID)
		}
		return translateError(err, "accumulator")
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormAccumulatorRepository) SaveWithLock(ctx context.Context, a *device.Accumulator) error {
	result := r.db.WithContext(ctx).
		Model(&models.AccumulatorModel{}).
		Where("id = ? AND version = ?", a.ID, a.Version-1).
		Updates(map[string]any{
			"total_sold":      a.TotalSold,
			"total_returned":  a.TotalReturned,
			"net_sold":        a.NetSold,
			"current_tier":    string(a.CurrentTier),
			"tier_changed_at": a.TierChangedAt,
			"last_updated":    a.LastUpdated,
			"version":         a.Version,
			"updated_at":      a.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "accumulator")
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError("accumulator for entity %s was modified by another transaction", a.EntityID)
	}
	return nil
}

// ListTop returns accumulators ordered by net units sold
func (r *GormAccumulatorRepository) ListTop(ctx context.Context, limit int) ([]device.Accumulator, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var rows []models.AccumulatorModel
	if err := r.db.WithContext(ctx).
		Order("net_sold DESC").
		Order("entity_id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "accumulator")
	}
	out := make([]device.Accumulator, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// CountByTier counts accumulators currently in tier
func (r *GormAccumulatorRepository) CountByTier(ctx context.Context, tier device.Tier) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AccumulatorModel{}).
		Where("current_tier = ?", string(tier)).
		Count(&count).Error; err != nil {
		return 0, translateError(err, "accumulator")
	}
	return count, nil
}

var _ device.AccumulatorRepository = (*GormAccumulatorRepository)(nil)
