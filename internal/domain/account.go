package domain

import (
	"context"
	"time"
)

// Role is the closed set of portal roles. Allowed-role declarations on
// endpoints are sets over this enumeration, never raw string comparison.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

// ParseRole maps a stored role value onto the enumeration.
// Unknown values return false so stale rows never grant access.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleInstructor, RoleStudent:
		return Role(s), true
	}
	return "", false
}

// RoleSet is an allowed-role declaration for an endpoint.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether the role is a member of the set.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// Account is a portal user account. The security middleware only ever
// reads accounts; creation and deletion belong to the admin surfaces.
type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AccountStatus is the live view the access controller re-reads on every
// protected request. It is never cached across requests: an account
// disabled mid-session must be rejected on its very next request.
type AccountStatus struct {
	UserID   int64
	Role     Role
	IsActive bool
}

// AccountRepository defines read access to the account store plus the
// profile fields the portal lets users edit about themselves.
type AccountRepository interface {
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetStatus(ctx context.Context, id int64) (*AccountStatus, error)
	UpdateProfile(ctx context.Context, id int64, email, displayName string) error
}
