// internal/domain/models/admin.go
package models

import "time"

// Admin represents an authorized operator of the admin surface.
//
// The document _id is the identity provider's subject claim, so membership
// lookup after token verification is a single primary-key read. Admins are
// provisioned out-of-band (or seeded at startup); at runtime the record is
// read-only except for LastLoginAt.
type Admin struct {
	UID          string       `bson:"_id" json:"uid"` // provider subject
	Email        string       `bson:"email" json:"email"`
	DisplayName  string       `bson:"display_name" json:"displayName"`
	Role         string       `bson:"role" json:"role"` // admin, superadmin
	Capabilities Capabilities `bson:"capabilities" json:"capabilities"`

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updatedAt"`
}

// Capabilities is the per-admin permission set. Superadmins implicitly hold
// every capability regardless of the stored booleans.
type Capabilities struct {
	CanCreate        bool `bson:"can_create" json:"canCreate"`
	CanEdit          bool `bson:"can_edit" json:"canEdit"`
	CanDelete        bool `bson:"can_delete" json:"canDelete"`
	CanPublish       bool `bson:"can_publish" json:"canPublish"`
	CanViewAnalytics bool `bson:"can_view_analytics" json:"canViewAnalytics"`
}

// Admin roles
const (
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// AllAdminRoles returns all valid admin roles.
func AllAdminRoles() []string {
	return []string{
		RoleAdmin,
		RoleSuperadmin,
	}
}

// IsValidAdminRole checks if a role is valid.
func IsValidAdminRole(role string) bool {
	for _, r := range AllAdminRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// Capability names used by the route handlers.
const (
	CapCreate        = "create"
	CapEdit          = "edit"
	CapDelete        = "delete"
	CapPublish       = "publish"
	CapViewAnalytics = "view_analytics"
)

// Can reports whether the admin holds the named capability.
func (a *Admin) Can(capability string) bool {
	if a.Role == RoleSuperadmin {
		return true
	}
	switch capability {
	case CapCreate:
		return a.Capabilities.CanCreate
	case CapEdit:
		return a.Capabilities.CanEdit
	case CapDelete:
		return a.Capabilities.CanDelete
	case CapPublish:
		return a.Capabilities.CanPublish
	case CapViewAnalytics:
		return a.Capabilities.CanViewAnalytics
	default:
		return false
	}
}

// FullCapabilities returns a capability set with everything enabled.
// Used when seeding the startup admin.
func FullCapabilities() Capabilities {
	return Capabilities{
		CanCreate:        true,
		CanEdit:          true,
		CanDelete:        true,
		CanPublish:       true,
		CanViewAnalytics: true,
	}
}
