package integrity

import (
	"github.com/kolnet/backend/internal/domain/shared"
)

// Table identifies a physical table the integrity engine may inspect.
// Only tables declared here can appear in the catalog.
type Table string

const (
	TableProfiles           Table = "profiles"
	TableShopRelationships  Table = "shop_relationships"
	TableProducts           Table = "products"
	TableOrders             Table = "orders"
	TableOrderItems         Table = "order_items"
	TableDeviceSales        Table = "device_sales"
	TableDeviceAccumulators Table = "device_accumulators"
	TableCommissionEntries  Table = "commission_entries"
	TableCRMCards           Table = "crm_cards"
	TableSelfGrowthCards    Table = "self_growth_cards"
	TableClinicalCases      Table = "clinical_cases"
	TableClinicalPhotos     Table = "clinical_photos"
	TableConsentFiles       Table = "consent_files"
	TableNotifications      Table = "notifications"
	TableAuditLogs          Table = "audit_logs"
)

// AllTables lists every known table in a stable order.
var AllTables = []Table{
	TableProfiles,
	TableShopRelationships,
	TableProducts,
	TableOrders,
	TableOrderItems,
	TableDeviceSales,
	TableDeviceAccumulators,
	TableCommissionEntries,
	TableCRMCards,
	TableSelfGrowthCards,
	TableClinicalCases,
	TableClinicalPhotos,
	TableConsentFiles,
	TableNotifications,
	TableAuditLogs,
}

// String returns the table name
func (t Table) String() string {
	return string(t)
}

// IsValid returns true if the table is known
func (t Table) IsValid() bool {
	for _, known := range AllTables {
		if known == t {
			return true
		}
	}
	return false
}

// ParseTable converts external input into a Table.
func ParseTable(s string) (Table, error) {
	t := Table(s)
	if !t.IsValid() {
		return "", shared.NewValidationError("unknown table %q", s)
	}
	return t, nil
}

// Column is a foreign key column on a source table.
type Column string

const (
	ColumnChildID        Column = "child_id"
	ColumnParentID       Column = "parent_id"
	ColumnShopID         Column = "shop_id"
	ColumnOrderID        Column = "order_id"
	ColumnProductID      Column = "product_id"
	ColumnEntityID       Column = "entity_id"
	ColumnKOLID          Column = "kol_id"
	ColumnClinicalCaseID Column = "clinical_case_id"
	ColumnUserID         Column = "user_id"
	ColumnApprovedBy     Column = "approved_by"
)

// String returns the column name
func (c Column) String() string {
	return string(c)
}
