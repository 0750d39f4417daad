package dto

type UpdateSecuritySettingsDTO struct {
	MaxLoginAttempts      *int  `json:"maxLoginAttempts,omitempty" binding:"omitempty,min=1"`
	LockTimeMinutes       *int  `json:"lockTimeMinutes,omitempty" binding:"omitempty,min=1"`
	AccountLockingEnabled *bool `json:"accountLockingEnabled,omitempty"`
}
