package models

import "github.com/golang-jwt/jwt/v5"

// Roles
const (
	RoleSender     = "sender"
	RoleCompliance = "compliance"
	RoleAdmin      = "admin"
)

// Application permissions
const (
	PermissionTransferRead  = "transfer:read"
	PermissionTransferWrite = "transfer:write"
	PermissionCatalogRead   = "catalog:read"
	PermissionReportRead    = "report:read"

	// Admin permissions
	PermissionReadAdmin  = "admin:read"
	PermissionWriteAdmin = "admin:write"
)

// UserClaims is the JWT payload issued by the identity service. UserID is
// the sender id transfers are recorded under.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the caller may act on any sender's transfers.
func (c *UserClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionTransferRead,
			PermissionTransferWrite,
			PermissionCatalogRead,
			PermissionReportRead,
			PermissionReadAdmin,
			PermissionWriteAdmin,
		}
	case RoleCompliance:
		return []string{
			PermissionTransferRead,
			PermissionCatalogRead,
			PermissionReportRead,
		}
	case RoleSender:
		return []string{
			PermissionTransferRead,
			PermissionTransferWrite,
			PermissionCatalogRead,
		}
	default:
		return []string{}
	}
}
