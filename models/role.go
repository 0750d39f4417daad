package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role groups users for menu/permission grants. SessionBindingRequired is an
// explicit capability: members of such a role get their session id persisted
// and validated on refresh and on every protected request, so a later login
// elsewhere invalidates earlier tokens.
type Role struct {
	ID                     bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                   string        `bson:"name" json:"name"`
	DefaultRole            bool          `bson:"defaultRole" json:"defaultRole"`
	SessionBindingRequired bool          `bson:"sessionBindingRequired" json:"sessionBindingRequired"`
	IsDeleted              bool          `bson:"isDeleted" json:"-"`
	CreatedBy              bson.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	UpdatedBy              bson.ObjectID `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	CreatedAt              time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt              time.Time     `bson:"updatedAt" json:"updatedAt"`
}
