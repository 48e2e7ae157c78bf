package integrity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/application/transaction"
	"github.com/kolnet/backend/internal/domain/integrity"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = shared.Actor{ID: uuid.New(), Role: shared.RoleAdmin}

// memRegistry keeps rows as column maps per table
type memRegistry struct {
	rows    map[integrity.Table]map[uuid.UUID]map[integrity.Column]uuid.UUID
	failOn  integrity.Table
	deletes []integrity.Table
}

func newMemRegistry() *memRegistry {
	return &memRegistry{rows: make(map[integrity.Table]map[uuid.UUID]map[integrity.Column]uuid.UUID)}
}

func (m *memRegistry) insert(table integrity.Table, cols map[integrity.Column]uuid.UUID) uuid.UUID {
	id := uuid.New()
	if m.rows[table] == nil {
		m.rows[table] = make(map[uuid.UUID]map[integrity.Column]uuid.UUID)
	}
	if cols == nil {
		cols = map[integrity.Column]uuid.UUID{}
	}
	m.rows[table][id] = cols
	return id
}

func (m *memRegistry) has(table integrity.Table, id uuid.UUID) bool {
	_, ok := m.rows[table][id]
	return ok
}

func (m *memRegistry) Accessor(table integrity.Table) (integrity.TableAccessor, error) {
	if !table.IsValid() {
		return nil, shared.NewValidationError("unknown table %q", table)
	}
	return &memAccessor{reg: m, table: table}, nil
}

func (m *memRegistry) Supports(integrity.Table, integrity.Column) bool { return true }

type memAccessor struct {
	reg   *memRegistry
	table integrity.Table
}

func (a *memAccessor) Count(_ context.Context, column integrity.Column, id uuid.UUID) (int64, error) {
	ids, _ := a.ReferencingIDs(context.Background(), column, id)
	return int64(len(ids)), nil
}

func (a *memAccessor) ReferencingIDs(_ context.Context, column integrity.Column, id uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for rowID, cols := range a.reg.rows[a.table] {
		if v, ok := cols[column]; ok && v == id {
			out = append(out, rowID)
		}
	}
	return out, nil
}

func (a *memAccessor) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	if a.table == a.reg.failOn {
		return 0, shared.NewInternalError("delete failed", errors.New("disk full"))
	}
	if !a.reg.has(a.table, id) {
		return 0, nil
	}
	delete(a.reg.rows[a.table], id)
	a.reg.deletes = append(a.reg.deletes, a.table)
	return 1, nil
}

func (a *memAccessor) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return a.reg.has(a.table, id), nil
}

func newTestService(t *testing.T, reg *memRegistry) *Service {
	t.Helper()
	scope := transaction.NewNoOpScope(transaction.Set{Registry: reg})
	svc, err := NewService(scope, integrity.DefaultCatalog(), Config{}, nil)
	require.NoError(t, err)
	return svc
}

func TestSafeDelete_RestrictBlocksUntilForced(t *testing.T) {
	ctx := context.Background()
	reg := newMemRegistry()
	svc := newTestService(t, reg)

	product := reg.insert(integrity.TableProducts, nil)
	profile := reg.insert(integrity.TableProfiles, nil)
	order := reg.insert(integrity.TableOrders, map[integrity.Column]uuid.UUID{integrity.ColumnShopID: profile})
	item := reg.insert(integrity.TableOrderItems, map[integrity.Column]uuid.UUID{
		integrity.ColumnOrderID:   order,
		integrity.ColumnProductID: product,
	})

	_, err := svc.SafeDelete(ctx, admin, integrity.TableProfiles, profile, false)
	var ie *shared.IntegrityError
	require.True(t, errors.As(err, &ie))
	require.Len(t, ie.Violations, 1)
	assert.Equal(t, shared.Violation{Table: "orders", Column: "shop_id", Count: 1}, ie.Violations[0])
	assert.True(t, reg.has(integrity.TableProfiles, profile))
	assert.True(t, reg.has(integrity.TableOrders, order))

	res, err := svc.SafeDelete(ctx, admin, integrity.TableProfiles, profile, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.CascadeDeleted)
	assert.Equal(t, []integrity.Table{integrity.TableOrderItems, integrity.TableOrders, integrity.TableProfiles}, reg.deletes)
	assert.False(t, reg.has(integrity.TableOrderItems, item))
	assert.True(t, reg.has(integrity.TableProducts, product))

	report, err := svc.CheckIntegrity(ctx, admin, integrity.TableProfiles, profile)
	require.NoError(t, err)
	assert.True(t, report.CanDelete)
	assert.Empty(t, report.Violations)
	assert.Empty(t, report.Cascades)
}

func TestSafeDelete_CascadeWithoutForce(t *testing.T) {
	ctx := context.Background()
	reg := newMemRegistry()
	svc := newTestService(t, reg)

	profile := reg.insert(integrity.TableProfiles, nil)
	reg.insert(integrity.TableNotifications, map[integrity.Column]uuid.UUID{integrity.ColumnUserID: profile})
	reg.insert(integrity.TableSelfGrowthCards, map[integrity.Column]uuid.UUID{integrity.ColumnShopID: profile})
	audit := reg.insert(integrity.TableAuditLogs, map[integrity.Column]uuid.UUID{integrity.ColumnUserID: profile})

	report, err := svc.CheckIntegrity(ctx, admin, integrity.TableProfiles, profile)
	require.NoError(t, err)
	assert.True(t, report.CanDelete)
	assert.Len(t, report.Cascades, 2)
	require.Len(t, report.Dangling, 1)
	assert.Equal(t, integrity.TableAuditLogs, report.Dangling[0].Entry.Source)

	res, err := svc.SafeDelete(ctx, admin, integrity.TableProfiles, profile, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.CascadeDeleted)
	assert.Equal(t, int64(1), res.DeletedByTable["notifications"])
	// dangling references stay behind
	assert.True(t, reg.has(integrity.TableAuditLogs, audit))
}

func TestSafeDelete_NestedRestrictBlocks(t *testing.T) {
	reg := newMemRegistry()
	catalog := integrity.Catalog{
		{Source: integrity.TableOrders, Target: integrity.TableProfiles, ForeignKey: integrity.ColumnShopID, Policy: integrity.PolicyCascade},
		{Source: integrity.TableOrderItems, Target: integrity.TableOrders, ForeignKey: integrity.ColumnOrderID, Policy: integrity.PolicyRestrict},
	}
	svc, err := NewService(transaction.NewNoOpScope(transaction.Set{Registry: reg}), catalog, Config{}, nil)
	require.NoError(t, err)

	profile := reg.insert(integrity.TableProfiles, nil)
	order := reg.insert(integrity.TableOrders, map[integrity.Column]uuid.UUID{integrity.ColumnShopID: profile})
	reg.insert(integrity.TableOrderItems, map[integrity.Column]uuid.UUID{integrity.ColumnOrderID: order})

	_, err = svc.SafeDelete(context.Background(), admin, integrity.TableProfiles, profile, false)
	var ie *shared.IntegrityError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "order_items", ie.Violations[0].Table)
	assert.True(t, reg.has(integrity.TableOrders, order))
	assert.True(t, reg.has(integrity.TableProfiles, profile))
}

func TestSafeDelete_ClinicalCaseCascadesPhotos(t *testing.T) {
	reg := newMemRegistry()
	svc := newTestService(t, reg)

	profile := reg.insert(integrity.TableProfiles, nil)
	cc := reg.insert(integrity.TableClinicalCases, map[integrity.Column]uuid.UUID{integrity.ColumnShopID: profile})
	reg.insert(integrity.TableClinicalPhotos, map[integrity.Column]uuid.UUID{integrity.ColumnClinicalCaseID: cc})
	reg.insert(integrity.TableConsentFiles, map[integrity.Column]uuid.UUID{integrity.ColumnClinicalCaseID: cc})

	res, err := svc.SafeDelete(context.Background(), admin, integrity.TableClinicalCases, cc, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.CascadeDeleted)
	assert.True(t, reg.has(integrity.TableProfiles, profile))
}

func TestSafeDelete_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing record", func(t *testing.T) {
		svc := newTestService(t, newMemRegistry())
		_, err := svc.SafeDelete(ctx, admin, integrity.TableProfiles, uuid.New(), false)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("non-admin", func(t *testing.T) {
		svc := newTestService(t, newMemRegistry())
		_, err := svc.SafeDelete(ctx, shared.Actor{Role: shared.RoleShopOwner}, integrity.TableProfiles, uuid.New(), true)
		assert.True(t, errors.Is(err, shared.ErrForbidden))
	})

	t.Run("unknown table", func(t *testing.T) {
		svc := newTestService(t, newMemRegistry())
		_, err := svc.SafeDelete(ctx, admin, integrity.Table("users"), uuid.New(), false)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("storage failure mid cascade propagates", func(t *testing.T) {
		reg := newMemRegistry()
		svc := newTestService(t, reg)
		profile := reg.insert(integrity.TableProfiles, nil)
		reg.insert(integrity.TableNotifications, map[integrity.Column]uuid.UUID{integrity.ColumnUserID: profile})
		reg.failOn = integrity.TableNotifications

		_, err := svc.SafeDelete(ctx, admin, integrity.TableProfiles, profile, false)
		assert.Equal(t, shared.CodeInternal, shared.CodeOf(err))
	})
}

func TestSafeDelete_DepthCap(t *testing.T) {
	reg := newMemRegistry()
	scope := transaction.NewNoOpScope(transaction.Set{Registry: reg})
	svc, err := NewService(scope, integrity.DefaultCatalog(), Config{MaxCascadeDepth: 1}, nil)
	require.NoError(t, err)

	profile := reg.insert(integrity.TableProfiles, nil)
	cc := reg.insert(integrity.TableClinicalCases, map[integrity.Column]uuid.UUID{integrity.ColumnShopID: profile})
	reg.insert(integrity.TableClinicalPhotos, map[integrity.Column]uuid.UUID{integrity.ColumnClinicalCaseID: cc})

	_, err = svc.SafeDelete(context.Background(), admin, integrity.TableProfiles, profile, true)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestNewService_RejectsBadCatalog(t *testing.T) {
	bad := integrity.Catalog{{Source: "nope", Target: integrity.TableProfiles, ForeignKey: "x", Policy: integrity.PolicyCascade}}
	_, err := NewService(transaction.NewNoOpScope(transaction.Set{}), bad, Config{}, nil)
	assert.Error(t, err)
}

func TestCatalogIntrospection(t *testing.T) {
	svc := newTestService(t, newMemRegistry())

	all := svc.ListCatalog()
	assert.Equal(t, integrity.CatalogVersion, all.Version)
	assert.Len(t, all.Entries, len(integrity.DefaultCatalog()))

	orders := svc.CatalogFor(integrity.TableOrders)
	require.Len(t, orders.Entries, 1)
	assert.Equal(t, integrity.TableOrderItems, orders.Entries[0].Source)

	assert.Empty(t, svc.CatalogFor(integrity.TableAuditLogs).Entries)
}
