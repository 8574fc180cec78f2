package domain

import "github.com/google/uuid"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uuid.UUID
	Role   Role
	// System marks background callers such as event consumers.
	System bool
}

func SystemActor() Actor {
	return Actor{Role: RoleHR, System: true}
}

func (a Actor) IsHR() bool {
	return a.Role == RoleHR
}

func (a Actor) Is(id uuid.UUID) bool {
	return !a.System && a.UserID == id
}
