package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/princinho/sahohr/database"
	"github.com/princinho/sahohr/models"
	"github.com/princinho/sahohr/utils"
)

type permissionBody struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// POST /admin/permissions
func CreatePermission() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body permissionBody
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}

		now := time.Now().UTC()
		perm := models.Permission{
			ID:          bson.NewObjectID(),
			Name:        strings.TrimSpace(body.Name),
			Description: strings.TrimSpace(body.Description),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		col := database.OpenCollection("permissions")
		if _, err := col.InsertOne(c.Request.Context(), perm); err != nil {
			if utils.IsDuplicateKey(err) {
				utils.RespondError(c, utils.ConflictError("permission name already exists"))
				return
			}
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, perm)
	}
}

// GET /admin/permissions
func GetPermissions() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("permissions")

		cursor, err := col.Find(ctx, utils.ActiveOnly(bson.M{}),
			options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		defer cursor.Close(ctx)

		items := make([]models.Permission, 0)
		for cursor.Next(ctx) {
			var perm models.Permission
			if err := cursor.Decode(&perm); err != nil {
				utils.RespondError(c, err)
				return
			}
			items = append(items, perm)
		}
		if err := cursor.Err(); err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

// DELETE /admin/permissions/:id
func DeletePermission() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondError(c, utils.ValidationError("invalid permission id"))
			return
		}

		grantsCol := database.OpenCollection("role_menu_permissions")
		inUse, err := grantsCol.CountDocuments(ctx, utils.ActiveOnly(bson.M{"permissionId": id}))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if inUse > 0 {
			utils.RespondError(c, utils.ConflictError("permission is still granted to roles"))
			return
		}

		col := database.OpenCollection("permissions")
		res, err := col.UpdateOne(ctx, utils.ActiveOnly(bson.M{"_id": id}),
			bson.M{"$set": bson.M{"isDeleted": true, "updatedAt": time.Now().UTC()}})
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if res.MatchedCount == 0 {
			utils.RespondError(c, utils.NotFoundError("permission not found"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "permission deleted"})
	}
}
