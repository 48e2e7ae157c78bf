package integrity

import (
	"fmt"
)

// CatalogVersion changes whenever DefaultCatalog changes. Deletion behavior
// is system-wide, so bump it in the same change as a schema migration.
const CatalogVersion = 3

// Policy is what happens to referencing rows when the target row is deleted
type Policy string

const (
	// PolicyCascade deletes referencing rows along with the target
	PolicyCascade Policy = "cascade"
	// PolicyRestrict blocks the delete unless forced
	PolicyRestrict Policy = "restrict"
	// PolicyDangle leaves referencing rows in place pointing at nothing
	PolicyDangle Policy = "dangle"
)

// IsValid returns true if the policy is known
func (p Policy) IsValid() bool {
	switch p {
	case PolicyCascade, PolicyRestrict, PolicyDangle:
		return true
	}
	return false
}

// CatalogEntry declares that Source.ForeignKey references Target.id.
type CatalogEntry struct {
	Source     Table  `json:"source_table"`
	Target     Table  `json:"target_table"`
	ForeignKey Column `json:"foreign_key"`
	Policy     Policy `json:"policy"`
}

// String renders the entry as source.fk -> target (policy)
func (e CatalogEntry) String() string {
	return fmt.Sprintf("%s.%s -> %s (%s)", e.Source, e.ForeignKey, e.Target, e.Policy)
}

// Catalog is the ordered set of reference declarations.
type Catalog []CatalogEntry

// DefaultCatalog returns the reference catalog of the platform.
func DefaultCatalog() Catalog {
	return Catalog{
		{Source: TableShopRelationships, Target: TableProfiles, ForeignKey: ColumnChildID, Policy: PolicyCascade},
		{Source: TableShopRelationships, Target: TableProfiles, ForeignKey: ColumnParentID, Policy: PolicyRestrict},
		{Source: TableOrders, Target: TableProfiles, ForeignKey: ColumnShopID, Policy: PolicyRestrict},
		{Source: TableOrderItems, Target: TableOrders, ForeignKey: ColumnOrderID, Policy: PolicyCascade},
		{Source: TableOrderItems, Target: TableProducts, ForeignKey: ColumnProductID, Policy: PolicyRestrict},
		{Source: TableDeviceSales, Target: TableProfiles, ForeignKey: ColumnShopID, Policy: PolicyRestrict},
		{Source: TableDeviceAccumulators, Target: TableProfiles, ForeignKey: ColumnEntityID, Policy: PolicyCascade},
		{Source: TableCommissionEntries, Target: TableProfiles, ForeignKey: ColumnEntityID, Policy: PolicyRestrict},
		{Source: TableCRMCards, Target: TableProfiles, ForeignKey: ColumnKOLID, Policy: PolicyRestrict},
		{Source: TableCRMCards, Target: TableProfiles, ForeignKey: ColumnShopID, Policy: PolicyCascade},
		{Source: TableSelfGrowthCards, Target: TableProfiles, ForeignKey: ColumnShopID, Policy: PolicyCascade},
		{Source: TableClinicalCases, Target: TableProfiles, ForeignKey: ColumnShopID, Policy: PolicyRestrict},
		{Source: TableClinicalPhotos, Target: TableClinicalCases, ForeignKey: ColumnClinicalCaseID, Policy: PolicyCascade},
		{Source: TableConsentFiles, Target: TableClinicalCases, ForeignKey: ColumnClinicalCaseID, Policy: PolicyCascade},
		{Source: TableNotifications, Target: TableProfiles, ForeignKey: ColumnUserID, Policy: PolicyCascade},
		{Source: TableAuditLogs, Target: TableProfiles, ForeignKey: ColumnUserID, Policy: PolicyDangle},
		{Source: TableProfiles, Target: TableProfiles, ForeignKey: ColumnApprovedBy, Policy: PolicyDangle},
	}
}

// Targeting returns the entries whose target is table, in catalog order.
func (c Catalog) Targeting(table Table) []CatalogEntry {
	var out []CatalogEntry
	for _, e := range c {
		if e.Target == table {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks every entry is well formed and unique.
func (c Catalog) Validate() error {
	seen := make(map[string]bool, len(c))
	for i, e := range c {
		if !e.Source.IsValid() || !e.Target.IsValid() {
			return fmt.Errorf("catalog entry %d: unknown table in %s", i, e)
		}
		if e.ForeignKey == "" {
			return fmt.Errorf("catalog entry %d: empty foreign key", i)
		}
		if !e.Policy.IsValid() {
			return fmt.Errorf("catalog entry %d: unknown policy %q", i, e.Policy)
		}
		key := string(e.Source) + "." + string(e.ForeignKey)
		if seen[key] {
			return fmt.Errorf("catalog entry %d: duplicate foreign key %s", i, key)
		}
		seen[key] = true
	}
	return nil
}
