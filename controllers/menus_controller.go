package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/princinho/sahohr/database"
	"github.com/princinho/sahohr/dto"
	"github.com/princinho/sahohr/models"
	"github.com/princinho/sahohr/utils"
)

// Sibling group = non-deleted menus under the same parent. Order indexes
// stay contiguous (0..n-1) inside a group: inserts shift later siblings up,
// deletes close the gap, moves do both.

func siblingFilter(parentID *bson.ObjectID) bson.M {
	if parentID == nil {
		return utils.ActiveOnly(bson.M{"parentId": bson.M{"$exists": false}})
	}
	return utils.ActiveOnly(bson.M{"parentId": *parentID})
}

func siblingCount(ctx context.Context, col *mongo.Collection, parentID *bson.ObjectID) (int, error) {
	n, err := col.CountDocuments(ctx, siblingFilter(parentID))
	return int(n), err
}

// shiftSiblings applies delta to every sibling with orderIndex >= from
// (and < to, when to >= 0).
func shiftSiblings(ctx context.Context, col *mongo.Collection, parentID *bson.ObjectID, from, to, delta int) error {
	filter := siblingFilter(parentID)
	idx := bson.M{"$gte": from}
	if to >= 0 {
		idx["$lt"] = to
	}
	filter["orderIndex"] = idx
	_, err := col.UpdateMany(ctx, filter, bson.M{"$inc": bson.M{"orderIndex": delta}})
	return err
}

func parseParentID(raw *string) (*bson.ObjectID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := bson.ObjectIDFromHex(*raw)
	if err != nil {
		return nil, utils.ValidationError("invalid parentId")
	}
	return &id, nil
}

// POST /admin/menus
func CreateMenu() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreateMenuDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}

		ctx := c.Request.Context()
		menusCol := database.OpenCollection("menus")

		parentID, err := parseParentID(body.ParentID)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if parentID != nil {
			if err := menusCol.FindOne(ctx, utils.ActiveOnly(bson.M{"_id": *parentID})).Err(); err != nil {
				utils.RespondError(c, utils.NotFoundError("parent menu not found"))
				return
			}
		}

		count, err := siblingCount(ctx, menusCol, parentID)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		idx := count
		if body.OrderIndex != nil {
			idx = *body.OrderIndex
			if idx < 0 {
				idx = 0
			}
			if idx > count {
				idx = count
			}
		}

		if err := shiftSiblings(ctx, menusCol, parentID, idx, -1, 1); err != nil {
			utils.RespondError(c, err)
			return
		}

		now := time.Now().UTC()
		active := true
		if body.IsActive != nil {
			active = *body.IsActive
		}
		menu := models.Menu{
			ID:         bson.NewObjectID(),
			Key:        strings.TrimSpace(body.Key),
			Name:       strings.TrimSpace(body.Name),
			Route:      strings.TrimSpace(body.Route),
			ParentID:   parentID,
			OrderIndex: idx,
			IsActive:   active,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if _, err := menusCol.InsertOne(ctx, menu); err != nil {
			if utils.IsDuplicateKey(err) {
				utils.RespondError(c, utils.ConflictError("menu key already exists"))
				return
			}
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, menu)
	}
}

// GET /admin/menus
func GetMenus() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		menusCol := database.OpenCollection("menus")

		cursor, err := menusCol.Find(ctx, utils.ActiveOnly(bson.M{}),
			options.Find().SetSort(bson.D{{Key: "parentId", Value: 1}, {Key: "orderIndex", Value: 1}}))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		defer cursor.Close(ctx)

		menus := make([]models.Menu, 0)
		for cursor.Next(ctx) {
			var menu models.Menu
			if err := cursor.Decode(&menu); err != nil {
				utils.RespondError(c, err)
				return
			}
			menus = append(menus, menu)
		}
		if err := cursor.Err(); err != nil {
			utils.RespondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"menus": utils.BuildMenuTree(menus)})
	}
}

// PATCH /admin/menus/:id
func UpdateMenu() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondError(c, utils.ValidationError("invalid menu id"))
			return
		}

		var body dto.UpdateMenuDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}

		menusCol := database.OpenCollection("menus")
		var menu models.Menu
		if err := menusCol.FindOne(ctx, utils.ActiveOnly(bson.M{"_id": id})).Decode(&menu); err != nil {
			utils.RespondError(c, utils.NotFoundError("menu not found"))
			return
		}

		now := time.Now().UTC()
		set := bson.M{"updatedAt": now}
		if body.Name != nil {
			set["name"] = strings.TrimSpace(*body.Name)
		}
		if body.Route != nil {
			set["route"] = strings.TrimSpace(*body.Route)
		}
		if body.IsActive != nil {
			set["isActive"] = *body.IsActive
		}

		newParent := menu.ParentID
		parentChanged := false
		if body.ParentID != nil {
			parsed, err := parseParentID(body.ParentID)
			if err != nil {
				utils.RespondError(c, err)
				return
			}
			if parsed != nil && parsed.Hex() == id.Hex() {
				utils.RespondError(c, utils.ValidationError("menu cannot be its own parent"))
				return
			}
			parentChanged = !sameParent(menu.ParentID, parsed)
			newParent = parsed
		}

		switch {
		case parentChanged:
			// Close the gap in the old group, open one in the new.
			if err := shiftSiblings(ctx, menusCol, menu.ParentID, menu.OrderIndex+1, -1, -1); err != nil {
				utils.RespondError(c, err)
				return
			}
			count, err := siblingCount(ctx, menusCol, newParent)
			if err != nil {
				utils.RespondError(c, err)
				return
			}
			idx := count
			if body.OrderIndex != nil {
				idx = clampIndex(*body.OrderIndex, count)
			}
			if err := shiftSiblings(ctx, menusCol, newParent, idx, -1, 1); err != nil {
				utils.RespondError(c, err)
				return
			}
			set["orderIndex"] = idx
			if newParent == nil {
				if _, err := menusCol.UpdateOne(ctx, bson.M{"_id": id},
					bson.M{"$unset": bson.M{"parentId": ""}}); err != nil {
					utils.RespondError(c, err)
					return
				}
			} else {
				set["parentId"] = *newParent
			}

		case body.OrderIndex != nil && *body.OrderIndex != menu.OrderIndex:
			count, err := siblingCount(ctx, menusCol, menu.ParentID)
			if err != nil {
				utils.RespondError(c, err)
				return
			}
			newIdx := clampIndex(*body.OrderIndex, count-1)
			if newIdx > menu.OrderIndex {
				err = shiftSiblings(ctx, menusCol, menu.ParentID, menu.OrderIndex+1, newIdx+1, -1)
			} else {
				err = shiftSiblings(ctx, menusCol, menu.ParentID, newIdx, menu.OrderIndex, 1)
			}
			if err != nil {
				utils.RespondError(c, err)
				return
			}
			set["orderIndex"] = newIdx
		}

		if _, err := menusCol.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "menu updated"})
	}
}

// DELETE /admin/menus/:id
func DeleteMenu() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondError(c, utils.ValidationError("invalid menu id"))
			return
		}

		menusCol := database.OpenCollection("menus")
		var menu models.Menu
		if err := menusCol.FindOne(ctx, utils.ActiveOnly(bson.M{"_id": id})).Decode(&menu); err != nil {
			utils.RespondError(c, utils.NotFoundError("menu not found"))
			return
		}

		children, err := menusCol.CountDocuments(ctx, utils.ActiveOnly(bson.M{"parentId": id}))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if children > 0 {
			utils.RespondError(c, utils.ConflictError("menu still has child menus"))
			return
		}

		now := time.Now().UTC()
		if _, err := menusCol.UpdateOne(ctx, bson.M{"_id": id},
			bson.M{"$set": bson.M{"isDeleted": true, "updatedAt": now}}); err != nil {
			utils.RespondError(c, err)
			return
		}
		if err := shiftSiblings(ctx, menusCol, menu.ParentID, menu.OrderIndex+1, -1, -1); err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "menu deleted"})
	}
}

func sameParent(a, b *bson.ObjectID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Hex() == b.Hex()
}

func clampIndex(idx, max int) int {
	if idx < 0 {
		return 0
	}
	if max < 0 {
		return 0
	}
	if idx > max {
		return max
	}
	return idx
}
