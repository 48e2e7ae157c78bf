package integrity

import (
	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/integrity"
)

// SafeDeleteResult describes a completed delete
type SafeDeleteResult struct {
	Table    string    `json:"table"`
	RecordID uuid.UUID `json:"record_id"`
	Forced   bool      `json:"forced"`
	// CascadeDeleted counts referencing rows removed along with the record
	CascadeDeleted int64            `json:"cascade_deleted"`
	DeletedByTable map[string]int64 `json:"deleted_by_table"`
}

// CatalogResponse is the reference catalog as served to callers
type CatalogResponse struct {
	Version int                      `json:"version"`
	Entries []integrity.CatalogEntry `json:"entries"`
}
