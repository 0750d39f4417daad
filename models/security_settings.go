package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// SecuritySettings is a singleton document, lazily created with defaults the
// first time it is read.
type SecuritySettings struct {
	ID                    bson.ObjectID `bson:"_id,omitempty" json:"id"`
	MaxLoginAttempts      int           `bson:"maxLoginAttempts" json:"maxLoginAttempts"`
	LockTimeMinutes       int           `bson:"lockTimeMinutes" json:"lockTimeMinutes"`
	AccountLockingEnabled bool          `bson:"accountLockingEnabled" json:"accountLockingEnabled"`
	UpdatedAt             time.Time     `bson:"updatedAt" json:"updatedAt"`
}

const (
	DefaultMaxLoginAttempts = 3
	DefaultLockTimeMinutes  = 1
)
