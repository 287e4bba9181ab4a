package enums

import "fmt"

// UserRole maps to the user_role enum in Postgres.
type UserRole string

const (
	UserRoleUser     UserRole = "user"
	UserRoleOwner    UserRole = "owner"
	UserRoleVendor   UserRole = "vendor"
	UserRoleAdmin    UserRole = "admin"
	UserRoleSubAdmin UserRole = "sub_admin"
)

var validUserRoles = []UserRole{
	UserRoleUser,
	UserRoleOwner,
	UserRoleVendor,
	UserRoleAdmin,
	UserRoleSubAdmin,
}

// IsValid checks whether the value matches the canonical enum.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role belongs to marketplace staff.
func (r UserRole) IsStaff() bool {
	return r == UserRoleAdmin || r == UserRoleSubAdmin
}

// ParseUserRole converts raw strings into UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
