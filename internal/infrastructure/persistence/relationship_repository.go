package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/network"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/kolnet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// defaultListLimit caps List when the filter leaves Limit empty
const defaultListLimit = 500

// GormRelationshipRepository implements network.RelationshipRepository using GORM
type GormRelationshipRepository struct {
	db *gorm.DB
}

// NewGormRelationshipRepository creates a new GormRelationshipRepository
func NewGormRelationshipRepository(db *gorm.DB) *GormRelationshipRepository {
	return &GormRelationshipRepository{db: db}
}

// FindByID finds a relationship by its ID
func (r *GormRelationshipRepository) FindByID(ctx context.Context, id uuid.UUID) (*network.Relationship, error) {
	var m models.RelationshipModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("relationship %s not found", id)
		}
		return nil, translateError(err, "relationship")
	}
	return m.ToDomain(), nil
}

// FindActiveByChild returns the active relationship of a child, or nil
func (r *GormRelationshipRepository) FindActiveByChild(ctx context.Context, childID uuid.UUID) (*network.Relationship, error) {
	return r.findActive(r.db.WithContext(ctx), childID)
}

// FindActiveByChildForUpdate locks the active row with SELECT ... FOR UPDATE.
// SQLite has no row locks and ignores the clause.
func (r *GormRelationshipRepository) FindActiveByChildForUpdate(ctx context.Context, childID uuid.UUID) (*network.Relationship, error) {
	return r.findActive(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), childID)
}

func (r *GormRelationshipRepository) findActive(q *gorm.DB, childID uuid.UUID) (*network.Relationship, error) {
	var rows []models.RelationshipModel
	if err := q.Where("child_id = ? AND is_active = ?", childID, true).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "relationship")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain(), nil
}

// FindActiveAt returns the relationship governing childID at instant t.
// Only rows still flagged active qualify, so an edge ended after t is not
// returned; FindHistoryByChild covers past periods.
func (r *GormRelationshipRepository) FindActiveAt(ctx context.Context, childID uuid.UUID, t time.Time) (*network.Relationship, error) {
	var rows []models.RelationshipModel
	if err := r.db.WithContext(ctx).
		Where("child_id = ? AND is_active = ? AND started_at <= ?", childID, true, t).
		Where("ended_at IS NULL OR ended_at >= ?", t).
		Order("started_at DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "relationship")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain(), nil
}

// FindActiveChildren returns the active relationships pointing at parentID
func (r *GormRelationshipRepository) FindActiveChildren(ctx context.Context, parentID uuid.UUID) ([]network.Relationship, error) {
	var rows []models.RelationshipModel
	if err := r.db.WithContext(ctx).
		Where("parent_id = ? AND is_active = ?", parentID, true).
		Order("started_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "relationship")
	}
	return toRelationships(rows), nil
}

// FindAllActiveEdges returns parent/child pairs of every active relationship
// that has a parent.
func (r *GormRelationshipRepository) FindAllActiveEdges(ctx context.Context) ([]network.Edge, error) {
	var rows []struct {
		ParentID uuid.UUID
		ChildID  uuid.UUID
	}
	if err := r.db.WithContext(ctx).
		Model(&models.RelationshipModel{}).
		Select("parent_id, child_id").
		Where("is_active = ? AND parent_id IS NOT NULL", true).
		Scan(&rows).Error; err != nil {
		return nil, translateError(err, "relationship")
	}
	edges := make([]network.Edge, len(rows))
	for i, row := range rows {
		edges[i] = network.Edge{ParentID: row.ParentID, ChildID: row.ChildID}
	}
	return edges, nil
}

// FindHistoryByChild returns every relationship of a child, newest first
func (r *GormRelationshipRepository) FindHistoryByChild(ctx context.Context, childID uuid.UUID) ([]network.Relationship, error) {
	var rows []models.RelationshipModel
	if err := r.db.WithContext(ctx).
		Where("child_id = ?", childID).
		Order("started_at DESC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "relationship")
	}
	return toRelationships(rows), nil
}

// List returns relationships matching filter, newest first
func (r *GormRelationshipRepository) List(ctx context.Context, filter network.RelationshipFilter) ([]network.Relationship, error) {
	query := r.db.WithContext(ctx).Model(&models.RelationshipModel{})
	if filter.ChildID != nil {
		query = query.Where("child_id = ?", *filter.ChildID)
	}
	if filter.ParentID != nil {
		query = query.Where("parent_id = ?", *filter.ParentID)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows []models.RelationshipModel
	if err := query.Order("started_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, translateError(err, "relationship")
	}
	return toRelationships(rows), nil
}

// Create inserts a relationship. The partial unique index on active children
// turns a concurrent second insert into a conflict.
func (r *GormRelationshipRepository) Create(ctx context.Context, rel *network.Relationship) error {
	if err := rel.Validate(); err != nil {
		return err
	}
	m := models.RelationshipModelFromDomain(rel)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.NewConflictError("entity %s already has an active relationship", rel.ChildID)
		}
		return translateError(err, "relationship")
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormRelationshipRepository) SaveWithLock(ctx context.Context, rel *network.Relationship) error {
	if err := rel.Validate(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&models.RelationshipModel{}).
		Where("id = ? AND version = ?", rel.ID, rel.Version-1).
		Updates(map[string]any{
			"parent_id":  rel.ParentID,
			"ended_at":   rel.EndedAt,
			"is_active":  rel.IsActive,
			"notes":      rel.Notes,
			"version":    rel.Version,
			"updated_at": rel.UpdatedAt,
		})
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return shared.NewConflictError("entity %s already has an active relationship", rel.ChildID)
		}
		return translateError(result.Error, "relationship")
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError("relationship %s was modified by another transaction", rel.ID)
	}
	return nil
}

// DeleteByID hard-deletes a single relationship
func (r *GormRelationshipRepository) DeleteByID(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.RelationshipModel{}, "id = ?", id)
	if result.Error != nil {
		return 0, translateError(result.Error, "relationship")
	}
	return result.RowsAffected, nil
}

// DeleteByChild hard-deletes every relationship of a child
func (r *GormRelationshipRepository) DeleteByChild(ctx context.Context, childID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.RelationshipModel{}, "child_id = ?", childID)
	if result.Error != nil {
		return 0, translateError(result.Error, "relationship")
	}
	return result.RowsAffected, nil
}

// CountActive counts active relationships. Feeds the periodic gauge.
func (r *GormRelationshipRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RelationshipModel{}).
		Where("is_active = ?", true).
		Count(&count).Error; err != nil {
		return 0, translateError(err, "relationship")
	}
	return count, nil
}

func toRelationships(rows []models.RelationshipModel) []network.Relationship {
	out := make([]network.Relationship, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ network.RelationshipRepository = (*GormRelationshipRepository)(nil)
