package integrity

import (
	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/shared"
)

// Reference is a non-empty set of rows pointing at a record.
type Reference struct {
	Entry CatalogEntry `json:"entry"`
	Count int64        `json:"count"`
}

// Report is the outcome of an integrity check.
type Report struct {
	Table    Table     `json:"table"`
	RecordID uuid.UUID `json:"record_id"`
	// CanDelete is false when any restrict reference exists
	CanDelete  bool               `json:"can_delete"`
	Violations []shared.Violation `json:"violations"`
	// Cascades are rows that a delete would remove along with the record
	Cascades []Reference `json:"cascades"`
	// Dangling are rows that a delete would leave pointing at nothing
	Dangling []Reference `json:"dangling"`
}

// NewReport classifies found references by policy.
func NewReport(table Table, id uuid.UUID, refs []Reference) Report {
	r := Report{
		Table:      table,
		RecordID:   id,
		Violations: []shared.Violation{},
		Cascades:   []Reference{},
		Dangling:   []Reference{},
	}
	for _, ref := range refs {
		if ref.Count == 0 {
			continue
		}
		switch ref.Entry.Policy {
		case PolicyRestrict:
			r.Violations = append(r.Violations, shared.Violation{
				Table:  ref.Entry.Source.String(),
				Column: ref.Entry.ForeignKey.String(),
				Count:  ref.Count,
			})
		case PolicyCascade:
			r.Cascades = append(r.Cascades, ref)
		case PolicyDangle:
			r.Dangling = append(r.Dangling, ref)
		}
	}
	r.CanDelete = len(r.Violations) == 0
	return r
}

// Err returns an IntegrityError when the report blocks deletion.
func (r Report) Err() error {
	if r.CanDelete {
		return nil
	}
	return shared.NewIntegrityError(r.Table.String(), r.Violations)
}
