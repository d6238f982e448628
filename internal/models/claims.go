package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	PermissionBookingRead  = "booking:read"
	PermissionBookingWrite = "booking:write"
	PermissionPaymentWrite = "payment:write"
	PermissionJobsRun      = "jobs:run"
)

// Roles issued by the identity provider.
const (
	RoleResident  = "resident"
	RoleBusiness  = "business"
	RoleMunicipal = "municipal"
	RoleAdmin     = "admin"
)

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

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionBookingRead,
			PermissionBookingWrite,
			PermissionPaymentWrite,
			PermissionJobsRun,
		}
	case RoleResident, RoleBusiness, RoleMunicipal:
		return []string{
			PermissionBookingRead,
			PermissionBookingWrite,
			PermissionPaymentWrite,
		}
	default:
		return []string{}
	}
}
