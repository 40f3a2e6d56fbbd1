package enums

import "fmt"

// UserRole is the closed set of roles an identity can hold.
type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleStaff      UserRole = "staff"
	UserRoleTechnician UserRole = "technician"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleStaff,
	UserRoleTechnician,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanManageJobs reports whether the role may create or re-assign jobs.
func (r UserRole) CanManageJobs() bool {
	return r == UserRoleAdmin || r == UserRoleStaff
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
