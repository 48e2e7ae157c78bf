package network

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/application/transaction"
	"github.com/kolnet/backend/internal/domain/network"
	"github.com/stretchr/testify/mock"
)

// MockRelationshipRepository is a mock implementation of network.RelationshipRepository
type MockRelationshipRepository struct {
	mock.Mock
}

func (m *MockRelationshipRepository) FindByID(ctx context.Context, id uuid.UUID) (*network.Relationship, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*network.Relationship), args.Error(1)
}

func (m *MockRelationshipRepository) FindActiveByChild(ctx context.Context, childID uuid.UUID) (*network.Relationship, error) {
	args := m.Called(ctx, childID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*network.Relationship), args.Error(1)
}

func (m *MockRelationshipRepository) FindActiveByChildForUpdate(ctx context.Context, childID uuid.UUID) (*network.Relationship, error) {
	args := m.Called(ctx, childID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*network.Relationship), args.Error(1)
}

func (m *MockRelationshipRepository) FindActiveAt(ctx context.Context, childID uuid.UUID, t time.Time) (*network.Relationship, error) {
	args := m.Called(ctx, childID, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*network.Relationship), args.Error(1)
}

func (m *MockRelationshipRepository) FindActiveChildren(ctx context.Context, parentID uuid.UUID) ([]network.Relationship, error) {
	args := m.Called(ctx, parentID)
	return args.Get(0).([]network.Relationship), args.Error(1)
}

func (m *MockRelationshipRepository) FindAllActiveEdges(ctx context.Context) ([]network.Edge, error) {
	args := m.Called(ctx)
	return args.Get(0).([]network.Edge), args.Error(1)
}

func (m *MockRelationshipRepository) FindHistoryByChild(ctx context.Context, childID uuid.UUID) ([]network.Relationship, error) {
	args := m.Called(ctx, childID)
	return args.Get(0).([]network.Relationship), args.Error(1)
}

func (m *MockRelationshipRepository) List(ctx context.Context, filter network.RelationshipFilter) ([]network.Relationship, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]network.Relationship), args.Error(1)
}

func (m *MockRelationshipRepository) Create(ctx context.Context, r *network.Relationship) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRelationshipRepository) SaveWithLock(ctx context.Context, r *network.Relationship) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRelationshipRepository) DeleteByID(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRelationshipRepository) DeleteByChild(ctx context.Context, childID uuid.UUID) (int64, error) {
	args := m.Called(ctx, childID)
	return args.Get(0).(int64), args.Error(1)
}

// MockEntityStore is a mock implementation of network.EntityStore
type MockEntityStore struct {
	mock.Mock
}

func (m *MockEntityStore) GetEntity(ctx context.Context, id uuid.UUID) (*network.Entity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*network.Entity), args.Error(1)
}

func (m *MockEntityStore) ListEntities(ctx context.Context) ([]network.Entity, error) {
	args := m.Called(ctx)
	return args.Get(0).([]network.Entity), args.Error(1)
}

// MockTreeCache is a mock implementation of TreeCache
type MockTreeCache struct {
	mock.Mock
}

func (m *MockTreeCache) Get(ctx context.Context) (*network.ForestResult, uint64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Get(1).(uint64), args.Error(2)
	}
	return args.Get(0).(*network.ForestResult), args.Get(1).(uint64), args.Error(2)
}

func (m *MockTreeCache) Set(ctx context.Context, generation uint64, forest network.ForestResult, ttl time.Duration) error {
	args := m.Called(ctx, generation, forest, ttl)
	return args.Error(0)
}

func (m *MockTreeCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newTestService(repo *MockRelationshipRepository, entities *MockEntityStore) *RelationshipService {
	scope := transaction.NewNoOpScope(transaction.Set{
		RelationshipRepo: repo,
		EntityStore:      entities,
	})
	return NewRelationshipService(scope, repo, entities, DefaultConfig(), nil)
}
