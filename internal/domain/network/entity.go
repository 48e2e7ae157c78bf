package network

import (
	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/shared"
)

// EntityStatus is the approval status of a profile in the entity store
type EntityStatus string

const (
	EntityStatusPending  EntityStatus = "pending"
	EntityStatusApproved EntityStatus = "approved"
	EntityStatusRejected EntityStatus = "rejected"
)

// Entity is the read-only view of a commercial entity owned by the entity store.
type Entity struct {
	ID     uuid.UUID    `json:"id"`
	Name   string       `json:"name"`
	Role   shared.Role  `json:"role"`
	Status EntityStatus `json:"status"`
}
