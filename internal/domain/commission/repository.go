package commission

import (
	"context"

	"github.com/google/uuid"
)

// EntryRepository persists commission ledger rows.
type EntryRepository interface {
	Create(ctx context.Context, e *Entry) error
	ListByEntity(ctx context.Context, entityID uuid.UUID, limit int) ([]Entry, error)
}
