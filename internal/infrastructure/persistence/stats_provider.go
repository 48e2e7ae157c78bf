package persistence

import (
	"context"

	"github.com/kolnet/backend/internal/domain/device"
	"gorm.io/gorm"
)

// NetworkStats answers the periodic gauge queries of the telemetry package
type NetworkStats struct {
	relationships *GormRelationshipRepository
	accumulators  *GormAccumulatorRepository
}

// NewNetworkStats creates a NetworkStats over db
func NewNetworkStats(db *gorm.DB) *NetworkStats {
	return &NetworkStats{
		relationships: NewGormRelationshipRepository(db),
		accumulators:  NewGormAccumulatorRepository(db),
	}
}

// CountActiveRelationships counts active relationships
func (s *NetworkStats) CountActiveRelationships(ctx context.Context) (int64, error) {
	return s.relationships.CountActive(ctx)
}

// CountHighTierEntities counts top-level entities in the high tier
func (s *NetworkStats) CountHighTierEntities(ctx context.Context) (int64, error) {
	return s.accumulators.CountByTier(ctx, device.TierHigh)
}
