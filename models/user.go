package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is the login identity. Lockout counters, MFA state and the session
// binding all live on this record so a single findOneAndUpdate can mutate
// them atomically during a login attempt.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string        `bson:"username" json:"username"`
	Email        string        `bson:"email" json:"email"`
	PasswordHash string        `bson:"passwordHash" json:"-"` // never expose
	RoleID       bson.ObjectID `bson:"roleId" json:"roleId"`
	EmployeeID   bson.ObjectID `bson:"employeeId" json:"employeeId"`

	FailedLoginAttempts int        `bson:"failedLoginAttempts" json:"-"`
	AccountLocked       bool       `bson:"accountLocked" json:"-"`
	LockUntil           *time.Time `bson:"lockUntil,omitempty" json:"-"`

	MfaEnabled bool   `bson:"mfaEnabled" json:"mfaEnabled"`
	MfaSecret  string `bson:"mfaSecret,omitempty" json:"-"`

	SessionID        string     `bson:"sessionId,omitempty" json:"-"`
	SessionExpiresAt *time.Time `bson:"sessionExpiresAt,omitempty" json:"-"`

	// Stamped whenever the owning role's grants change; tokens issued
	// before this instant are rejected by the auth middleware.
	PermissionsUpdatedAt *time.Time `bson:"permissionsUpdatedAt,omitempty" json:"-"`

	PasswordResetRequired bool `bson:"passwordResetRequired" json:"passwordResetRequired"`

	IsDeleted bool      `bson:"isDeleted" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Employee is the HR profile a credential points at.
type Employee struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName   string        `bson:"firstName" json:"firstName"`
	LastName    string        `bson:"lastName" json:"lastName"`
	CompanyID   bson.ObjectID `bson:"companyId" json:"companyId"`
	Designation string        `bson:"designation,omitempty" json:"designation,omitempty"`
	IsDeleted   bool          `bson:"isDeleted" json:"-"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`
}

func (e Employee) DisplayName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// SanitizedUser is the projection returned on a successful login. Password,
// MFA and session fields stay server-side.
type SanitizedUser struct {
	ID                    bson.ObjectID `json:"id"`
	Username              string        `json:"username"`
	Email                 string        `json:"email"`
	DisplayName           string        `json:"displayName"`
	RoleID                bson.ObjectID `json:"roleId"`
	RoleName              string        `json:"roleName"`
	CompanyID             bson.ObjectID `json:"companyId"`
	MfaEnabled            bool          `json:"mfaEnabled"`
	PasswordResetRequired bool          `json:"passwordResetRequired"`
}

func Sanitize(u User, e Employee, roleName string) SanitizedUser {
	return SanitizedUser{
		ID:                    u.ID,
		Username:              u.Username,
		Email:                 u.Email,
		DisplayName:           e.DisplayName(),
		RoleID:                u.RoleID,
		RoleName:              roleName,
		CompanyID:             e.CompanyID,
		MfaEnabled:            u.MfaEnabled,
		PasswordResetRequired: u.PasswordResetRequired,
	}
}
