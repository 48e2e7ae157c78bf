package network

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/application/transaction"
	"github.com/kolnet/backend/internal/domain/network"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/kolnet/backend/internal/infrastructure/logger"
	"github.com/kolnet/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// TreeCache caches the organization forest between relationship changes.
// Get reports the cache generation; Set stores only under that generation.
type TreeCache interface {
	Get(ctx context.Context) (*network.ForestResult, uint64, error)
	Set(ctx context.Context, generation uint64, forest network.ForestResult, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// Config bounds traversal and request work.
type Config struct {
	MaxChainDepth    int
	MaxTreeDepth     int
	TreeCacheTTL     time.Duration
	OperationTimeout time.Duration
}

// DefaultConfig returns the standard traversal caps.
func DefaultConfig() Config {
	return Config{
		MaxChainDepth:    10,
		MaxTreeDepth:     10,
		TreeCacheTTL:     5 * time.Minute,
		OperationTimeout: 10 * time.Second,
	}
}

// RelationshipService manages the parent/child graph between entities.
// Mutations run inside one transaction; traversals read committed state
// directly and are bounded by Config.
type RelationshipService struct {
	scope    transaction.Scope
	repo     network.RelationshipRepository
	entities network.EntityStore
	cache    TreeCache
	cfg      Config
	logger   *zap.Logger
	metrics  *telemetry.NetworkMetrics
}

// NewRelationshipService creates a RelationshipService
func NewRelationshipService(
	scope transaction.Scope,
	repo network.RelationshipRepository,
	entities network.EntityStore,
	cfg Config,
	logger *zap.Logger,
) *RelationshipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.MaxChainDepth <= 0 {
		cfg.MaxChainDepth = def.MaxChainDepth
	}
	if cfg.MaxTreeDepth <= 0 {
		cfg.MaxTreeDepth = def.MaxTreeDepth
	}
	return &RelationshipService{
		scope:    scope,
		repo:     repo,
		entities: entities,
		cfg:      cfg,
		logger:   logger,
	}
}

// SetTreeCache enables caching of BuildOrganizationTree
func (s *RelationshipService) SetTreeCache(c TreeCache) {
	s.cache = c
}

// SetNetworkMetrics sets the metrics collector
func (s *RelationshipService) SetNetworkMetrics(m *telemetry.NetworkMetrics) {
	s.metrics = m
}

func (s *RelationshipService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.OperationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.OperationTimeout)
}

// Create attaches ChildID under ParentID. The "no active relationship yet"
// check, the cycle check and the insert share one transaction, and the
// partial unique index on child_id backs the check under concurrency.
func (s *RelationshipService) Create(ctx context.Context, actor shared.Actor, req CreateRelationshipRequest) (resp *RelationshipResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "relationship", "create", telemetry.UUIDAttr("child_id", req.ChildID))
	defer span.End()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	defer s.observe(ctx, "create", time.Now(), &err)

	if err = actor.RequireAdmin("create relationship"); err != nil {
		return nil, err
	}

	startedAt := time.Now()
	if req.StartedAt != nil {
		startedAt = *req.StartedAt
	}
	rel, err := network.NewRelationship(req.ChildID, req.ParentID, startedAt, network.RelationshipType(req.RelationshipType), req.Notes)
	if err != nil {
		return nil, err
	}
	if actor.ID != uuid.Nil {
		by := actor.ID
		rel.CreatedBy = &by
	}

	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		rels := repos.Relationships()
		existing, err := rels.FindActiveByChildForUpdate(ctx, req.ChildID)
		if err != nil {
			return err
		}
		if existing != nil {
			return shared.NewConflictError("entity %s already has an active relationship", req.ChildID)
		}
		if err := network.CheckNoCycle(ctx, rel.ChildID, rel.ParentID, s.cfg.MaxChainDepth, network.ActiveParentLookup(rels)); err != nil {
			return err
		}
		return rels.Create(ctx, rel)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommit(ctx, rel)
	out := ToRelationshipResponse(rel)
	return &out, nil
}

// Update repoints a relationship to a new parent. StartedAt is kept.
func (s *RelationshipService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateRelationshipRequest) (resp *RelationshipResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "relationship", "update", telemetry.UUIDAttr("relationship_id", id))
	defer span.End()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	defer s.observe(ctx, "update", time.Now(), &err)

	if err = actor.RequireAdmin("update relationship"); err != nil {
		return nil, err
	}

	var rel *network.Relationship
	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		rels := repos.Relationships()
		found, err := rels.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := found.Repoint(req.ParentID, req.Notes); err != nil {
			return err
		}
		if found.IsActive {
			if err := network.CheckNoCycle(ctx, found.ChildID, found.ParentID, s.cfg.MaxChainDepth, network.ActiveParentLookup(rels)); err != nil {
				return err
			}
		}
		if err := rels.SaveWithLock(ctx, found); err != nil {
			return err
		}
		rel = found
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommit(ctx, rel)
	out := ToRelationshipResponse(rel)
	return &out, nil
}

// End closes a relationship. The row is kept for history.
func (s *RelationshipService) End(ctx context.Context, actor shared.Actor, id uuid.UUID, req EndRelationshipRequest) (resp *RelationshipResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "relationship", "end", telemetry.UUIDAttr("relationship_id", id))
	defer span.End()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	defer s.observe(ctx, "end", time.Now(), &err)

	if err = actor.RequireAdmin("end relationship"); err != nil {
		return nil, err
	}
	endedAt := time.Now()
	if req.EndedAt != nil {
		endedAt = *req.EndedAt
	}

	var rel *network.Relationship
	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		found, err := repos.Relationships().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := found.End(endedAt); err != nil {
			return err
		}
		if err := repos.Relationships().SaveWithLock(ctx, found); err != nil {
			return err
		}
		rel = found
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommit(ctx, rel)
	out := ToRelationshipResponse(rel)
	return &out, nil
}

// Delete hard-removes one relationship row.
func (s *RelationshipService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "relationship", "delete", telemetry.UUIDAttr("relationship_id", id))
	defer span.End()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	defer s.observe(ctx, "delete", time.Now(), &err)

	if err = actor.RequireAdmin("delete relationship"); err != nil {
		return err
	}
	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		n, err := repos.Relationships().DeleteByID(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return shared.NewNotFoundError("relationship %s not found", id)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	logger.L(ctx, s.logger).Info("Relationship deleted", zap.String("relationship_id", id.String()))
	s.invalidateTree(ctx)
	return nil
}

// DeleteByChild hard-removes every relationship row of childID, active or
// not. Deleting nothing is not an error.
func (s *RelationshipService) DeleteByChild(ctx context.Context, actor shared.Actor, childID uuid.UUID) (result *DeleteResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "relationship", "delete_by_child", telemetry.UUIDAttr("child_id", childID))
	defer span.End()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	defer s.observe(ctx, "delete_by_child", time.Now(), &err)

	if err = actor.RequireAdmin("delete relationships"); err != nil {
		return nil, err
	}
	var deleted int64
	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		n, err := repos.Relationships().DeleteByChild(ctx, childID)
		deleted = n
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.L(ctx, s.logger).Info("Relationships deleted for child",
		zap.String("child_id", childID.String()),
		zap.Int64("rows", deleted),
	)
	if deleted > 0 {
		s.invalidateTree(ctx)
	}
	return &DeleteResult{Deleted: deleted}, nil
}

// GetActive returns the relationship governing childID at `at` (now when
// nil), or nil when the child is unattached at that instant.
func (s *RelationshipService) GetActive(ctx context.Context, actor shared.Actor, childID uuid.UUID, at *time.Time) (*RelationshipResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "relationship", "get_active", telemetry.UUIDAttr("child_id", childID))
	defer span.End()

	if err := requireReader(actor); err != nil {
		return nil, err
	}
	t := time.Now().UTC()
	if at != nil {
		t = at.UTC()
	}
	rel, err := s.repo.FindActiveAt(ctx, childID, t)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if rel == nil {
		return nil, nil
	}
	out := ToRelationshipResponse(rel)
	return &out, nil
}

// List returns relationships matching filter
func (s *RelationshipService) List(ctx context.Context, actor shared.Actor, filter ListRelationshipsFilter) ([]RelationshipResponse, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	rels, err := s.repo.List(ctx, network.RelationshipFilter{
		ChildID:    filter.ChildID,
		ParentID:   filter.ParentID,
		ActiveOnly: filter.ActiveOnly,
		Limit:      filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	return ToRelationshipResponses(rels), nil
}

// History returns every relationship row of childID, newest first
func (s *RelationshipService) History(ctx context.Context, actor shared.Actor, childID uuid.UUID) ([]RelationshipResponse, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	rels, err := s.repo.FindHistoryByChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	return ToRelationshipResponses(rels), nil
}

// GetParentChain walks active edges upward from childID. Hitting the depth
// cap or a repeated node is not an error; the partial chain is returned.
func (s *RelationshipService) GetParentChain(ctx context.Context, actor shared.Actor, childID uuid.UUID) (*ParentChainResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "relationship", "parent_chain", telemetry.UUIDAttr("child_id", childID))
	defer span.End()

	if err := requireReader(actor); err != nil {
		return nil, err
	}
	chain, err := network.WalkParentChain(ctx, childID, s.cfg.MaxChainDepth, network.ActiveParentLookup(s.repo))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if chain.Truncated {
		s.traversalTruncated(ctx, "parent_chain", zap.String("child_id", childID.String()), zap.Int("depth", len(chain.Ancestors)))
	}

	resp := &ParentChainResponse{
		ChildID:   childID,
		Ancestors: chain.Ancestors,
		Truncated: chain.Truncated,
	}
	if top, ok := chain.TopLevel(); ok {
		resp.TopLevelID = &top
	}
	span.SetAttributes(attribute.Int("chain.length", len(chain.Ancestors)))
	return resp, nil
}

// GetSubordinates returns the active direct children of parentID
func (s *RelationshipService) GetSubordinates(ctx context.Context, actor shared.Actor, parentID uuid.UUID) ([]RelationshipResponse, error) {
	if err := requireReader(actor); err != nil {
		return nil, err
	}
	rels, err := s.repo.FindActiveChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return ToRelationshipResponses(rels), nil
}

// BuildOrganizationTree assembles the forest of every entity. Roots are
// entities with no incoming active edge.
func (s *RelationshipService) BuildOrganizationTree(ctx context.Context, actor shared.Actor) (*network.ForestResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "relationship", "organization_tree")
	defer span.End()

	if err := requireReader(actor); err != nil {
		return nil, err
	}
	log := logger.L(ctx, s.logger)

	// the generation is read before storage so a concurrent change wins
	cacheable := false
	var generation uint64
	if s.cache != nil {
		cached, gen, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			log.Warn("Organization tree cache read failed", zap.Error(err))
		case cached != nil:
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		default:
			cacheable, generation = true, gen
		}
	}

	entities, err := s.entities.ListEntities(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	edges, err := s.repo.FindAllActiveEdges(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	forest := network.BuildForest(entities, edges, s.cfg.MaxTreeDepth)
	if forest.Truncated {
		s.traversalTruncated(ctx, "organization_tree", zap.Int("entities", len(entities)), zap.Int("edges", len(edges)))
	}

	if cacheable {
		if err := s.cache.Set(ctx, generation, forest, s.cfg.TreeCacheTTL); err != nil {
			log.Warn("Organization tree cache write failed", zap.Error(err))
		}
	}
	span.SetAttributes(attribute.Int("tree.roots", len(forest.Roots)))
	return &forest, nil
}

// afterCommit drains the aggregate's events once the transaction is durable.
func (s *RelationshipService) afterCommit(ctx context.Context, rel *network.Relationship) {
	log := logger.L(ctx, s.logger)
	for _, ev := range rel.GetDomainEvents() {
		fields := []zap.Field{
			zap.String("event", ev.EventType()),
			zap.String("relationship_id", rel.ID.String()),
			zap.String("child_id", rel.ChildID.String()),
		}
		if rel.ParentID != nil {
			fields = append(fields, zap.String("parent_id", rel.ParentID.String()))
		}
		log.Info("Relationship changed", fields...)
	}
	rel.ClearDomainEvents()
	s.invalidateTree(ctx)
}

func (s *RelationshipService) invalidateTree(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.L(ctx, s.logger).Warn("Organization tree cache invalidation failed", zap.Error(err))
	}
}

func (s *RelationshipService) traversalTruncated(ctx context.Context, op string, fields ...zap.Field) {
	logger.L(ctx, s.logger).Warn("Traversal stopped at safety limit", append(fields, zap.String("operation", op))...)
	if s.metrics != nil {
		s.metrics.RecordTraversalTruncated(ctx, op)
	}
}

func (s *RelationshipService) observe(ctx context.Context, op string, start time.Time, err *error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordRelationshipOp(ctx, op, *err)
	s.metrics.ObserveOperation(ctx, "relationship."+op, start, *err)
}

// requireReader admits every known role.
func requireReader(actor shared.Actor) error {
	if !actor.Role.IsValid() {
		return shared.NewForbiddenError("unknown role %q", actor.Role)
	}
	return nil
}
