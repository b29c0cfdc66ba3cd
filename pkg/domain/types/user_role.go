package types

import "fmt"

// UserRole distinguishes onboarding participants
type UserRole string

const (
	UserRoleNewHire       UserRole = "NEW_HIRE"
	UserRoleHiringManager UserRole = "HIRING_MANAGER"
)

// IsValid checks if the user role is valid
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleNewHire, UserRoleHiringManager:
		return true
	default:
		return false
	}
}

// String returns the string representation of the user role
func (r UserRole) String() string {
	return string(r)
}

// ParseUserRole parses a string into a UserRole
func ParseUserRole(s string) (UserRole, error) {
	role := UserRole(s)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid user role: %s", s)
	}
	return role, nil
}
