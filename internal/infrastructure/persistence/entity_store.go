package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/network"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/kolnet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormEntityStore reads commercial entities from the profiles table
type GormEntityStore struct {
	db *gorm.DB
}

// NewGormEntityStore creates a new GormEntityStore
func NewGormEntityStore(db *gorm.DB) *GormEntityStore {
	return &GormEntityStore{db: db}
}

// GetEntity returns one profile
func (s *GormEntityStore) GetEntity(ctx context.Context, id uuid.UUID) (*network.Entity, error) {
	var m models.ProfileModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("entity %s not found", id)
		}
		return nil, translateError(err, "entity")
	}
	e := m.ToDomain()
	return &e, nil
}

// ListEntities returns every profile ordered by name
func (s *GormEntityStore) ListEntities(ctx context.Context) ([]network.Entity, error) {
	var rows []models.ProfileModel
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err, "entity")
	}
	out := make([]network.Entity, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ network.EntityStore = (*GormEntityStore)(nil)
