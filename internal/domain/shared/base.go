package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and audit timestamps.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity assigns a fresh ID stamped now (UTC).
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch records a modification at the given instant.
func (e *BaseEntity) Touch(at time.Time) {
	e.UpdatedAt = at
}

// BaseAggregateRoot is embedded by aggregates that are written under
// optimistic concurrency and raise events. Version is the value read from
// storage; repositories compare it on update and bump it on success.
type BaseAggregateRoot struct {
	BaseEntity
	Version int

	events []DomainEvent
}

// NewBaseAggregateRoot starts a new aggregate at version 1.
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

// GetVersion returns the version the aggregate was loaded at
func (a *BaseAggregateRoot) GetVersion() int { return a.Version }

// IncrementVersion is called by repositories after a successful write
func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }

// AddDomainEvent queues ev until the owning transaction commits.
func (a *BaseAggregateRoot) AddDomainEvent(ev DomainEvent) {
	a.events = append(a.events, ev)
}

// GetDomainEvents returns the queued events in the order they were raised
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent { return a.events }

// ClearDomainEvents drops the queue. Call it once the events are handled.
func (a *BaseAggregateRoot) ClearDomainEvents() { a.events = nil }
