package database

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EnsureIndexes creates the unique indexes the conflict handling relies on.
// CreateMany is idempotent for identical definitions. Uniqueness is scoped
// to non-deleted rows, so a deactivated account or a deleted role does not
// block reuse of its natural key.
func EnsureIndexes(ctx context.Context) error {
	unique := options.Index().
		SetUnique(true).
		SetPartialFilterExpression(bson.M{"isDeleted": false})

	_, err := OpenCollection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
	})
	if err != nil {
		return err
	}

	if _, err := OpenCollection("roles").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}

	if _, err := OpenCollection("menus").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "key", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}

	if _, err := OpenCollection("permissions").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}

	_, err = OpenCollection("password_reset_otps").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(3600),
	})
	return err
}
