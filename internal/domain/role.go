package domain

// Role enumerates the account roles known to the system.
type Role string

const (
	RoleClient  Role = "client"
	RoleAgent   Role = "agent"
	RoleSupport Role = "support"
	RoleAdmin   Role = "admin"
)

// ValidRoles is the set a token subject must belong to.
var ValidRoles = []Role{RoleClient, RoleAgent, RoleSupport, RoleAdmin}

// IsValid reports whether the role is a known one.
func (r Role) IsValid() bool {
	for _, candidate := range ValidRoles {
		if r == candidate {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role carries elevated ticket-handling
// privileges.
func (r Role) IsStaff() bool {
	return r == RoleAgent || r == RoleSupport || r == RoleAdmin
}
