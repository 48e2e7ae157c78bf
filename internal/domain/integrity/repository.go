package integrity

import (
	"context"

	"github.com/google/uuid"
)

// TableAccessor is the typed query surface of one table. Implementations
// are bound to a single transaction.
type TableAccessor interface {
	// Count returns how many rows have column = id
	Count(ctx context.Context, column Column, id uuid.UUID) (int64, error)
	// ReferencingIDs returns the primary keys of rows with column = id
	ReferencingIDs(ctx context.Context, column Column, id uuid.UUID) ([]uuid.UUID, error)
	// Delete removes the row with primary key id and returns rows affected
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	// Exists reports whether a row with primary key id exists
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Registry resolves a Table to its accessor.
type Registry interface {
	Accessor(table Table) (TableAccessor, error)
	// Supports reports whether table has the given foreign key column
	Supports(table Table, column Column) bool
}

// CheckCoverage verifies that registry can serve every table and column the
// catalog mentions.
func CheckCoverage(c Catalog, registry Registry) error {
	for _, e := range c {
		if _, err := registry.Accessor(e.Source); err != nil {
			return err
		}
		if _, err := registry.Accessor(e.Target); err != nil {
			return err
		}
		if !registry.Supports(e.Source, e.ForeignKey) {
			return &coverageError{entry: e}
		}
	}
	return nil
}

type coverageError struct {
	entry CatalogEntry
}

func (e *coverageError) Error() string {
	return "registry has no column for catalog entry " + e.entry.String()
}
