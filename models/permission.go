package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Permission struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string        `bson:"name" json:"name"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	IsDeleted   bool          `bson:"isDeleted" json:"-"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// Grant types for RoleMenuPermission. A grant is either plain visibility or
// a reference to a specific Permission document, never both.
const (
	GrantVisible    = "visible"
	GrantPermission = "permission"
)

// RoleMenuPermission links a role to a menu. (roleId, menuId) is unique
// among non-deleted rows.
type RoleMenuPermission struct {
	ID           bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	RoleID       bson.ObjectID  `bson:"roleId" json:"roleId"`
	MenuID       bson.ObjectID  `bson:"menuId" json:"menuId"`
	GrantType    string         `bson:"grantType" json:"grantType"`
	PermissionID *bson.ObjectID `bson:"permissionId,omitempty" json:"permissionId,omitempty"`
	IsDeleted    bool           `bson:"isDeleted" json:"-"`
	CreatedAt    time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time      `bson:"updatedAt" json:"updatedAt"`
}
