// Package integrity answers "may this record be deleted" and performs
// catalog-driven cascading deletes.
package integrity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/application/transaction"
	"github.com/kolnet/backend/internal/domain/integrity"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/kolnet/backend/internal/infrastructure/logger"
	"github.com/kolnet/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultMaxCascadeDepth bounds recursive deletes.
const DefaultMaxCascadeDepth = 16

// Config tunes the engine.
type Config struct {
	MaxCascadeDepth  int
	OperationTimeout time.Duration
}

// TreeInvalidator drops the cached organization tree.
type TreeInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service is the referential integrity engine.
type Service struct {
	scope   transaction.Scope
	catalog integrity.Catalog
	cfg     Config
	logger  *zap.Logger
	metrics *telemetry.NetworkMetrics
	tree    TreeInvalidator
}

// NewService creates a Service. The catalog is validated up front so a bad
// declaration fails at startup instead of at delete time.
func NewService(scope transaction.Scope, catalog integrity.Catalog, cfg Config, logger *zap.Logger) (*Service, error) {
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid integrity catalog: %w", err)
	}
	if cfg.MaxCascadeDepth <= 0 {
		cfg.MaxCascadeDepth = DefaultMaxCascadeDepth
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{scope: scope, catalog: catalog, cfg: cfg, logger: logger}, nil
}

// SetNetworkMetrics sets the metrics collector
func (s *Service) SetNetworkMetrics(m *telemetry.NetworkMetrics) {
	s.metrics = m
}

// SetTreeCache sets the organization tree cache dropped when a delete
// removes profiles or relationships
func (s *Service) SetTreeCache(c TreeInvalidator) {
	s.tree = c
}

// ListCatalog returns every reference declaration.
func (s *Service) ListCatalog() CatalogResponse {
	entries := make([]integrity.CatalogEntry, len(s.catalog))
	copy(entries, s.catalog)
	return CatalogResponse{Version: integrity.CatalogVersion, Entries: entries}
}

// CatalogFor returns the declarations that reference table.
func (s *Service) CatalogFor(table integrity.Table) CatalogResponse {
	entries := s.catalog.Targeting(table)
	if entries == nil {
		entries = []integrity.CatalogEntry{}
	}
	return CatalogResponse{Version: integrity.CatalogVersion, Entries: entries}
}

// CheckIntegrity lists every row referencing table/id, classified by policy.
// The record itself need not exist.
func (s *Service) CheckIntegrity(ctx context.Context, actor shared.Actor, table integrity.Table, id uuid.UUID) (*integrity.Report, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "integrity", "check",
		attribute.String("table", table.String()), telemetry.UUIDAttr("record_id", id))
	defer span.End()

	if !actor.Role.IsValid() {
		return nil, shared.NewForbiddenError("unknown role %q", actor.Role)
	}
	if !table.IsValid() {
		return nil, shared.NewValidationError("unknown table %q", table)
	}

	var report integrity.Report
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		r, err := s.check(ctx, repos.Tables(), table, id)
		report = r
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Bool("can_delete", report.CanDelete))
	return &report, nil
}

// SafeDelete removes table/id. Restrict references block the delete unless
// force is set; cascade references (and, under force, restrict references)
// are deleted first, depth first, each through the same procedure so their
// own dependents are handled. Dangle references are left alone. The whole
// cascade commits or rolls back as one transaction.
func (s *Service) SafeDelete(ctx context.Context, actor shared.Actor, table integrity.Table, id uuid.UUID, force bool) (result *SafeDeleteResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "integrity", "safe_delete",
		attribute.String("table", table.String()),
		telemetry.UUIDAttr("record_id", id),
		attribute.Bool("force", force),
	)
	defer span.End()
	if s.cfg.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.OperationTimeout)
		defer cancel()
	}
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveOperation(ctx, "integrity.safe_delete", start, err)
		}
	}()

	if err = actor.RequireAdmin("delete " + table.String()); err != nil {
		return nil, err
	}
	if !table.IsValid() {
		return nil, shared.NewValidationError("unknown table %q", table)
	}

	run := &cascadeRun{
		svc:     s,
		force:   force,
		visited: make(map[string]bool),
		deleted: make(map[integrity.Table]int64),
	}
	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		run.tables = repos.Tables()
		acc, err := run.tables.Accessor(table)
		if err != nil {
			return err
		}
		exists, err := acc.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return shared.NewNotFoundError("%s record %s not found", table, id)
		}

		report, err := s.check(ctx, run.tables, table, id)
		if err != nil {
			return err
		}
		if !report.CanDelete && !force {
			return report.Err()
		}
		_, err = run.delete(ctx, table, id, 0)
		return err
	})
	if err != nil {
		if shared.CodeOf(err) == shared.CodeIntegrity && s.metrics != nil {
			s.metrics.RecordIntegrityBlocked(ctx, table.String())
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	result = &SafeDeleteResult{
		Table:          table.String(),
		RecordID:       id,
		Forced:         force,
		DeletedByTable: make(map[string]int64, len(run.deleted)),
	}
	for t, n := range run.deleted {
		result.DeletedByTable[t.String()] = n
		result.CascadeDeleted += n
		if s.metrics != nil {
			s.metrics.RecordCascade(ctx, t.String(), n)
		}
	}
	// the record itself is not a cascade
	result.CascadeDeleted--

	if run.deleted[integrity.TableProfiles] > 0 || run.deleted[integrity.TableShopRelationships] > 0 {
		s.invalidateTree(ctx)
	}

	logger.L(ctx, s.logger).Info("Record deleted",
		zap.String("table", table.String()),
		zap.String("record_id", id.String()),
		zap.Bool("force", force),
		zap.Int64("cascade_deleted", result.CascadeDeleted),
	)
	return result, nil
}

func (s *Service) invalidateTree(ctx context.Context) {
	if s.tree == nil {
		return
	}
	if err := s.tree.Invalidate(ctx); err != nil {
		logger.L(ctx, s.logger).Warn("Organization tree cache invalidation failed", zap.Error(err))
	}
}

// check counts every referencing row of table/id.
func (s *Service) check(ctx context.Context, tables integrity.Registry, table integrity.Table, id uuid.UUID) (integrity.Report, error) {
	entries := s.catalog.Targeting(table)
	refs := make([]integrity.Reference, 0, len(entries))
	for _, entry := range entries {
		acc, err := tables.Accessor(entry.Source)
		if err != nil {
			return integrity.Report{}, err
		}
		n, err := acc.Count(ctx, entry.ForeignKey, id)
		if err != nil {
			return integrity.Report{}, err
		}
		refs = append(refs, integrity.Reference{Entry: entry, Count: n})
	}
	return integrity.NewReport(table, id, refs), nil
}

// cascadeRun carries the state of one SafeDelete call.
type cascadeRun struct {
	svc     *Service
	tables  integrity.Registry
	force   bool
	visited map[string]bool
	deleted map[integrity.Table]int64
}

// delete removes the dependents of table/id and then the row itself,
// returning the rows removed. A row reached twice is deleted once.
func (r *cascadeRun) delete(ctx context.Context, table integrity.Table, id uuid.UUID, depth int) (int64, error) {
	key := table.String() + ":" + id.String()
	if r.visited[key] {
		return 0, nil
	}
	r.visited[key] = true

	if depth > r.svc.cfg.MaxCascadeDepth {
		return 0, shared.NewValidationError("cascade from %s exceeds %d levels", table, r.svc.cfg.MaxCascadeDepth)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var total int64
	for _, entry := range r.svc.catalog.Targeting(table) {
		switch entry.Policy {
		case integrity.PolicyDangle:
			continue
		case integrity.PolicyRestrict:
			if !r.force {
				// nested rows are checked here; the root was checked up front
				if depth == 0 {
					continue
				}
				src, err := r.tables.Accessor(entry.Source)
				if err != nil {
					return 0, err
				}
				n, err := src.Count(ctx, entry.ForeignKey, id)
				if err != nil {
					return 0, err
				}
				if n > 0 {
					return 0, shared.NewIntegrityError(table.String(), []shared.Violation{{
						Table:  entry.Source.String(),
						Column: entry.ForeignKey.String(),
						Count:  n,
					}})
				}
				continue
			}
		}

		src, err := r.tables.Accessor(entry.Source)
		if err != nil {
			return 0, err
		}
		ids, err := src.ReferencingIDs(ctx, entry.ForeignKey, id)
		if err != nil {
			return 0, err
		}
		for _, refID := range ids {
			n, err := r.delete(ctx, entry.Source, refID, depth+1)
			if err != nil {
				return 0, err
			}
			total += n
		}
	}

	acc, err := r.tables.Accessor(table)
	if err != nil {
		return 0, err
	}
	n, err := acc.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	if n == 0 && depth == 0 {
		return 0, shared.NewNotFoundError("%s record %s not found", table, id)
	}
	r.deleted[table] += n
	return total + n, nil
}
