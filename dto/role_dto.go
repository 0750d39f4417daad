package dto

type CreateRoleDTO struct {
	Name                   string `json:"name" binding:"required"`
	DefaultRole            bool   `json:"defaultRole"`
	SessionBindingRequired bool   `json:"sessionBindingRequired"`
}

type UpdateRoleDTO struct {
	Name                   *string `json:"name,omitempty"`
	DefaultRole            *bool   `json:"defaultRole,omitempty"`
	SessionBindingRequired *bool   `json:"sessionBindingRequired,omitempty"`
}

// GrantDTO is one (menu, grant) pair in a bulk permission replace. Either
// the grant is plain visibility or it names a specific permission.
type GrantDTO struct {
	MenuID       string  `json:"menuId" binding:"required"`
	GrantType    string  `json:"grantType" binding:"required,oneof=visible permission"`
	PermissionID *string `json:"permissionId,omitempty"`
}

type ReplaceGrantsDTO struct {
	Grants []GrantDTO `json:"grants" binding:"required,dive"`
}
