package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleHR       Role = "HR"
)

var ErrUnknownRole = fmt.Errorf("unknown role")

func ParseRole(v string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(v)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, v)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleHR:
		return true
	default:
		return false
	}
}

// CanReview reports whether the role may act as a reviewer at all.
// Whether a given request is in scope is decided per request.
func (r Role) CanReview() bool {
	return r == RoleManager || r == RoleHR
}

// CanLead reports whether the role may be assigned as a project lead.
func (r Role) CanLead() bool {
	return r == RoleManager || r == RoleHR
}

func (r Role) String() string {
	return string(r)
}
