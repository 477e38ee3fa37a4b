package domain

// Role is a seeded administrative category. Roles are not created or edited
// through the API.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
)

// Permission is a static capability tag.
type Permission string

const (
	PermissionManageAdmins Permission = "manage_admins"
	PermissionManageUsers  Permission = "manage_users"
)

var rolePermissions = map[string][]Permission{
	RoleSuperadmin: {PermissionManageAdmins, PermissionManageUsers},
	RoleAdmin:      {PermissionManageUsers},
}

// Grants reports whether the named role carries permission p.
// Unknown roles grant nothing.
func Grants(role string, p Permission) bool {
	for _, granted := range rolePermissions[role] {
		if granted == p {
			return true
		}
	}
	return false
}
