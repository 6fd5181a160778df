package users

import "errors"

// ErrForbidden is returned when an actor's role fails a capability check.
// Role-gated services share this sentinel so controllers map it to 403
// uniformly.
var ErrForbidden = errors.New("caller role may not perform this operation")

// Role is the park-wide access level of an account. The hierarchy is
// VISITOR < STAFF < MANAGER < ADMIN; operational checks go through the
// capability predicates rather than comparing roles directly.
type Role string

const (
	RoleVisitor Role = "VISITOR"
	RoleStaff   Role = "STAFF"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

func (r Role) String() string {
	return string(r)
}

// IsStaff reports whether the role may operate gate terminals (scan tickets).
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleManager || r == RoleAdmin
}

// IsAdministrative reports whether the role may void tickets and force
// manual overrides.
func (r Role) IsAdministrative() bool {
	return r == RoleManager || r == RoleAdmin
}

func (r Role) IsValid() bool {
	switch r {
	case RoleVisitor, RoleStaff, RoleManager, RoleAdmin:
		return true
	}
	return false
}

func IsValidRole(role string) bool {
	return Role(role).IsValid()
}
