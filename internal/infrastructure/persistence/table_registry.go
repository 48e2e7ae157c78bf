package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/integrity"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/kolnet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// tableSpec binds a table identifier to its GORM model and the foreign key
// columns it exposes to the integrity engine.
type tableSpec struct {
	model   func() any
	columns map[integrity.Column]struct{}
}

func columns(cols ...integrity.Column) map[integrity.Column]struct{} {
	m := make(map[integrity.Column]struct{}, len(cols))
	for _, c := range cols {
		m[c] = struct{}{}
	}
	return m
}

// tableSpecs is the closed set of tables the engine can query. Column names
// only ever come from here, never from request input.
var tableSpecs = map[integrity.Table]tableSpec{
	integrity.TableProfiles: {
		model:   func() any { return &models.ProfileModel{} },
		columns: columns(integrity.ColumnApprovedBy),
	},
	integrity.TableShopRelationships: {
		model:   func() any { return &models.RelationshipModel{} },
		columns: columns(integrity.ColumnChildID, integrity.ColumnParentID),
	},
	integrity.TableProducts: {
		model:   func() any { return &models.ProductModel{} },
		columns: columns(),
	},
	integrity.TableOrders: {
		model:   func() any { return &models.OrderModel{} },
		columns: columns(integrity.ColumnShopID),
	},
	integrity.TableOrderItems: {
		model:   func() any { return &models.OrderItemModel{} },
		columns: columns(integrity.ColumnOrderID, integrity.ColumnProductID),
	},
	integrity.TableDeviceSales: {
		model:   func() any { return &models.DeviceSaleModel{} },
		columns: columns(integrity.ColumnShopID),
	},
	integrity.TableDeviceAccumulators: {
		model:   func() any { return &models.AccumulatorModel{} },
		columns: columns(integrity.ColumnEntityID),
	},
	integrity.TableCommissionEntries: {
		model:   func() any { return &models.CommissionEntryModel{} },
		columns: columns(integrity.ColumnEntityID),
	},
	integrity.TableCRMCards: {
		model:   func() any { return &models.CRMCardModel{} },
		columns: columns(integrity.ColumnKOLID, integrity.ColumnShopID),
	},
	integrity.TableSelfGrowthCards: {
		model:   func() any { return &models.SelfGrowthCardModel{} },
		columns: columns(integrity.ColumnShopID),
	},
	integrity.TableClinicalCases: {
		model:   func() any { return &models.ClinicalCaseModel{} },
		columns: columns(integrity.ColumnShopID),
	},
	integrity.TableClinicalPhotos: {
		model:   func() any { return &models.ClinicalPhotoModel{} },
		columns: columns(integrity.ColumnClinicalCaseID),
	},
	integrity.TableConsentFiles: {
		model:   func() any { return &models.ConsentFileModel{} },
		columns: columns(integrity.ColumnClinicalCaseID),
	},
	integrity.TableNotifications: {
		model:   func() any { return &models.NotificationModel{} },
		columns: columns(integrity.ColumnUserID),
	},
	integrity.TableAuditLogs: {
		model:   func() any { return &models.AuditLogModel{} },
		columns: columns(integrity.ColumnUserID),
	},
}

// GormTableRegistry implements integrity.Registry over tableSpecs
type GormTableRegistry struct {
	db *gorm.DB
}

// NewGormTableRegistry creates a registry bound to db (normally a transaction)
func NewGormTableRegistry(db *gorm.DB) *GormTableRegistry {
	return &GormTableRegistry{db: db}
}

// Accessor returns the typed accessor of table
func (r *GormTableRegistry) Accessor(table integrity.Table) (integrity.TableAccessor, error) {
	spec, ok := tableSpecs[table]
	if !ok {
		return nil, shared.NewValidationError("unknown table %q", table)
	}
	return &gormTableAccessor{db: r.db, table: table, spec: spec}, nil
}

// Supports reports whether table exposes column
func (r *GormTableRegistry) Supports(table integrity.Table, column integrity.Column) bool {
	spec, ok := tableSpecs[table]
	if !ok {
		return false
	}
	_, ok = spec.columns[column]
	return ok
}

type gormTableAccessor struct {
	db    *gorm.DB
	table integrity.Table
	spec  tableSpec
}

func (a *gormTableAccessor) column(c integrity.Column) (string, error) {
	if _, ok := a.spec.columns[c]; !ok {
		return "", shared.NewValidationError("table %s has no column %s", a.table, c)
	}
	return string(c), nil
}

// Count returns how many rows reference id through column
func (a *gormTableAccessor) Count(ctx context.Context, column integrity.Column, id uuid.UUID) (int64, error) {
	col, err := a.column(column)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := a.db.WithContext(ctx).
		Model(a.spec.model()).
		Where(col+" = ?", id).
		Count(&count).Error; err != nil {
		return 0, translateError(err, a.table.String())
	}
	return count, nil
}

// ReferencingIDs returns the primary keys of rows referencing id through column
func (a *gormTableAccessor) ReferencingIDs(ctx context.Context, column integrity.Column, id uuid.UUID) ([]uuid.UUID, error) {
	col, err := a.column(column)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	if err := a.db.WithContext(ctx).
		Model(a.spec.model()).
		Where(col+" = ?", id).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, translateError(err, a.table.String())
	}
	return ids, nil
}

// Delete removes one row by primary key
func (a *gormTableAccessor) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := a.db.WithContext(ctx).Delete(a.spec.model(), "id = ?", id)
	if result.Error != nil {
		return 0, translateError(result.Error, a.table.String())
	}
	return result.RowsAffected, nil
}

// Exists reports whether a row with primary key id exists
func (a *gormTableAccessor) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := a.db.WithContext(ctx).
		Model(a.spec.model()).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, translateError(err, a.table.String())
	}
	return count > 0, nil
}

var _ integrity.Registry = (*GormTableRegistry)(nil)
