package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Company is the tenant every employee belongs to.
type Company struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string        `bson:"name" json:"name"`
	IsDeleted bool          `bson:"isDeleted" json:"-"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}
