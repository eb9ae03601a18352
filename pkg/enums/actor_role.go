package enums

import "fmt"

// ActorRole identifies which kind of party performed an action.
type ActorRole string

const (
	ActorRoleCustomer   ActorRole = "customer"
	ActorRoleTechnician ActorRole = "technician"
	ActorRoleAdmin      ActorRole = "admin"
	ActorRoleSystem     ActorRole = "system"
)

var validActorRoles = []ActorRole{
	ActorRoleCustomer,
	ActorRoleTechnician,
	ActorRoleAdmin,
	ActorRoleSystem,
}

// IsValid reports whether the value matches a canonical actor role.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
