package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// PasswordResetOTP is one forgot-password challenge. Only the sha256 of the
// 6-digit code is stored. ConsumedAt marks single use; resending a code
// consumes all earlier outstanding ones.
type PasswordResetOTP struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	UserID     bson.ObjectID `bson:"userId"`
	CodeHash   string        `bson:"codeHash"`
	ExpiresAt  time.Time     `bson:"expiresAt"`
	ConsumedAt *time.Time    `bson:"consumedAt,omitempty"`
	CreatedAt  time.Time     `bson:"createdAt"`
}
