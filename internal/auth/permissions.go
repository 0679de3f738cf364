package auth

// Permission represents a named capability in the system.
type Permission string

// Permission constants.
const (
	PermApplianceRead    Permission = "appliance:read"
	PermApplianceCommand Permission = "appliance:command"
	PermApplianceRefresh Permission = "appliance:refresh"
	PermSystemAdmin      Permission = "system:admin"
)

// rolePermissions maps each role to its granted permissions.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermApplianceRead,
	},
	RoleOperator: {
		PermApplianceRead,
		PermApplianceCommand,
		PermApplianceRefresh,
	},
	RoleAdmin: {
		PermApplianceRead,
		PermApplianceCommand,
		PermApplianceRefresh,
		PermSystemAdmin,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}
