package user

import "errors"

var ErrInvalidRole = errors.New("invalid role")

type Role string

const (
	RoleGuest    Role = "guest"
	RoleHost     Role = "host"
	RoleReviewer Role = "reviewer"
	RoleAdmin    Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleGuest, RoleHost, RoleReviewer, RoleAdmin:
		return true
	default:
		return false
	}
}

// Allows reports whether r may act as one of the wanted roles. Admin acts as every role.
func (r Role) Allows(wanted ...Role) bool {
	if r == RoleAdmin {
		return true
	}
	for _, w := range wanted {
		if r == w {
			return true
		}
	}
	return false
}

func NewRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}
