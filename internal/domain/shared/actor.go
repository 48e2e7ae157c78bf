package shared

import (
	"github.com/google/uuid"
)

// Role is the business role of a profile.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleKOL       Role = "kol"
	RoleOL        Role = "ol"
	RoleShopOwner Role = "shop_owner"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleKOL, RoleOL, RoleShopOwner:
		return true
	}
	return false
}

// Actor is the capability handed to every service operation. Services
// never reach for ambient identity; whoever builds the Actor (HTTP
// middleware, a job runner, a test) decides who is acting.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// SystemActor is used by internal jobs and migrations.
var SystemActor = Actor{ID: uuid.Nil, Role: RoleAdmin}

// NewActor builds an Actor, rejecting unknown roles.
func NewActor(id uuid.UUID, role Role) (Actor, error) {
	if !role.IsValid() {
		return Actor{}, NewValidationError("unknown role %q", role)
	}
	return Actor{ID: id, Role: role}, nil
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// RequireAdmin returns a Forbidden error unless the actor is an admin.
func (a Actor) RequireAdmin(operation string) error {
	if !a.IsAdmin() {
		return NewForbiddenError("%s requires admin role", operation)
	}
	return nil
}

// RequireAny returns nil if the actor holds one of roles.
func (a Actor) RequireAny(operation string, roles ...Role) error {
	for _, r := range roles {
		if a.Role == r {
			return nil
		}
	}
	return NewForbiddenError("%s not permitted for role %s", operation, a.Role)
}
