package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/princinho/sahohr/database"
	"github.com/princinho/sahohr/dto"
	"github.com/princinho/sahohr/models"
	"github.com/princinho/sahohr/utils"
)

// getSecuritySettings reads the singleton, creating it with defaults on
// first use. The upsert keeps concurrent first reads from racing into two
// documents.
func getSecuritySettings(ctx context.Context) (models.SecuritySettings, error) {
	col := database.OpenCollection("security_settings")

	res := col.FindOneAndUpdate(ctx,
		bson.M{},
		bson.M{"$setOnInsert": bson.M{
			"maxLoginAttempts":      models.DefaultMaxLoginAttempts,
			"lockTimeMinutes":       models.DefaultLockTimeMinutes,
			"accountLockingEnabled": true,
			"updatedAt":             time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After))

	var settings models.SecuritySettings
	if err := res.Decode(&settings); err != nil {
		return models.SecuritySettings{}, err
	}
	return settings, nil
}

// GET /admin/security-settings
func GetSecuritySettings() gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := getSecuritySettings(c.Request.Context())
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

// PUT /admin/security-settings
func UpdateSecuritySettings() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.UpdateSecuritySettingsDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}

		set := bson.M{"updatedAt": time.Now().UTC()}
		if body.MaxLoginAttempts != nil {
			set["maxLoginAttempts"] = *body.MaxLoginAttempts
		}
		if body.LockTimeMinutes != nil {
			set["lockTimeMinutes"] = *body.LockTimeMinutes
		}
		if body.AccountLockingEnabled != nil {
			set["accountLockingEnabled"] = *body.AccountLockingEnabled
		}

		ctx := c.Request.Context()
		// Ensure the singleton exists before the partial update.
		if _, err := getSecuritySettings(ctx); err != nil {
			utils.RespondError(c, err)
			return
		}

		col := database.OpenCollection("security_settings")
		res := col.FindOneAndUpdate(ctx, bson.M{}, bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After))

		var settings models.SecuritySettings
		if err := res.Decode(&settings); err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}
