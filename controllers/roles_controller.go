package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/princinho/sahohr/database"
	"github.com/princinho/sahohr/dto"
	"github.com/princinho/sahohr/middleware"
	"github.com/princinho/sahohr/models"
	"github.com/princinho/sahohr/utils"
)

// POST /admin/roles
func CreateRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreateRoleDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}

		ctx := c.Request.Context()
		now := time.Now().UTC()
		user, _ := middleware.CurrentUser(c)

		role := models.Role{
			ID:                     bson.NewObjectID(),
			Name:                   strings.TrimSpace(body.Name),
			DefaultRole:            body.DefaultRole,
			SessionBindingRequired: body.SessionBindingRequired,
			CreatedBy:              user.ID,
			UpdatedBy:              user.ID,
			CreatedAt:              now,
			UpdatedAt:              now,
		}

		rolesCol := database.OpenCollection("roles")
		if _, err := rolesCol.InsertOne(ctx, role); err != nil {
			if utils.IsDuplicateKey(err) {
				utils.RespondError(c, utils.ConflictError("role name already exists"))
				return
			}
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, role)
	}
}

// GET /admin/roles
func GetRoles() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, limit, skip := utils.Pagination(c.Query("page"), c.Query("limit"), 50, 200)

		filter := utils.ActiveOnly(bson.M{})
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			filter["name"] = bson.M{"$regex": q, "$options": "i"}
		}

		opts := options.Find().
			SetSkip(skip).
			SetLimit(int64(limit)).
			SetSort(bson.D{{Key: "name", Value: 1}})

		rolesCol := database.OpenCollection("roles")
		cursor, err := rolesCol.Find(ctx, filter, opts)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		defer cursor.Close(ctx)

		items := make([]models.Role, 0)
		for cursor.Next(ctx) {
			var role models.Role
			if err := cursor.Decode(&role); err != nil {
				utils.RespondError(c, err)
				return
			}
			items = append(items, role)
		}
		if err := cursor.Err(); err != nil {
			utils.RespondError(c, err)
			return
		}

		total, err := rolesCol.CountDocuments(ctx, filter)
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"items": items,
			"page":  page,
			"limit": limit,
			"total": total,
		})
	}
}

// PATCH /admin/roles/:id
func UpdateRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondError(c, utils.ValidationError("invalid role id"))
			return
		}

		var body dto.UpdateRoleDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}

		now := time.Now().UTC()
		user, _ := middleware.CurrentUser(c)
		set := bson.M{"updatedAt": now, "updatedBy": user.ID}
		if body.Name != nil {
			set["name"] = strings.TrimSpace(*body.Name)
		}
		if body.DefaultRole != nil {
			set["defaultRole"] = *body.DefaultRole
		}
		if body.SessionBindingRequired != nil {
			set["sessionBindingRequired"] = *body.SessionBindingRequired
		}

		rolesCol := database.OpenCollection("roles")
		res, err := rolesCol.UpdateOne(ctx, utils.ActiveOnly(bson.M{"_id": id}), bson.M{"$set": set})
		if err != nil {
			if utils.IsDuplicateKey(err) {
				utils.RespondError(c, utils.ConflictError("role name already exists"))
				return
			}
			utils.RespondError(c, err)
			return
		}
		if res.MatchedCount == 0 {
			utils.RespondError(c, utils.NotFoundError("role not found"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "role updated"})
	}
}

// DELETE /admin/roles/:id
func DeleteRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondError(c, utils.ValidationError("invalid role id"))
			return
		}

		usersCol := database.OpenCollection("users")
		members, err := usersCol.CountDocuments(ctx, utils.ActiveOnly(bson.M{"roleId": id}))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if members > 0 {
			utils.RespondError(c, utils.ConflictError("role still has active members"))
			return
		}

		now := time.Now().UTC()
		rolesCol := database.OpenCollection("roles")
		res, err := rolesCol.UpdateOne(ctx, utils.ActiveOnly(bson.M{"_id": id}),
			bson.M{"$set": bson.M{"isDeleted": true, "updatedAt": now}})
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if res.MatchedCount == 0 {
			utils.RespondError(c, utils.NotFoundError("role not found"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "role deleted"})
	}
}

// PUT /admin/roles/:id/permissions
//
// Bulk grant replace. The soft-delete of the old set and the insert of the
// new one run in a single transaction so the role never observably has zero
// permissions. Afterwards every member's permissionsUpdatedAt is stamped
// and their session binding dropped: all outstanding tokens die on their
// next request.
func ReplaceRoleGrants() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		roleID, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondError(c, utils.ValidationError("invalid role id"))
			return
		}

		var body dto.ReplaceGrantsDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}

		rolesCol := database.OpenCollection("roles")
		if err := rolesCol.FindOne(ctx, utils.ActiveOnly(bson.M{"_id": roleID})).Err(); err != nil {
			utils.RespondError(c, utils.NotFoundError("role not found"))
			return
		}

		now := time.Now().UTC()
		grants := make([]interface{}, 0, len(body.Grants))
		seen := make(map[string]bool, len(body.Grants))
		for _, g := range body.Grants {
			menuID, err := bson.ObjectIDFromHex(g.MenuID)
			if err != nil {
				utils.RespondError(c, utils.ValidationError("invalid menuId "+g.MenuID))
				return
			}
			if seen[g.MenuID] {
				utils.RespondError(c, utils.ValidationError("duplicate menuId "+g.MenuID))
				return
			}
			seen[g.MenuID] = true

			grant := models.RoleMenuPermission{
				ID:        bson.NewObjectID(),
				RoleID:    roleID,
				MenuID:    menuID,
				GrantType: g.GrantType,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if g.GrantType == models.GrantPermission {
				if g.PermissionID == nil {
					utils.RespondError(c, utils.ValidationError("permissionId required for permission grants"))
					return
				}
				permID, err := bson.ObjectIDFromHex(*g.PermissionID)
				if err != nil {
					utils.RespondError(c, utils.ValidationError("invalid permissionId"))
					return
				}
				grant.PermissionID = &permID
			}
			grants = append(grants, grant)
		}

		grantsCol := database.OpenCollection("role_menu_permissions")
		session, err := database.Client().StartSession()
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sc context.Context) (interface{}, error) {
			if _, err := grantsCol.UpdateMany(sc,
				utils.ActiveOnly(bson.M{"roleId": roleID}),
				bson.M{"$set": bson.M{"isDeleted": true, "updatedAt": now}}); err != nil {
				return nil, err
			}
			if len(grants) > 0 {
				if _, err := grantsCol.InsertMany(sc, grants); err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		usersCol := database.OpenCollection("users")
		if _, err := usersCol.UpdateMany(ctx, utils.ActiveOnly(bson.M{"roleId": roleID}), bson.M{
			"$set":   bson.M{"permissionsUpdatedAt": now, "updatedAt": now},
			"$unset": bson.M{"sessionId": "", "sessionExpiresAt": ""},
		}); err != nil {
			utils.RespondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "permissions replaced", "count": len(grants)})
	}
}

// resolveMenuTree loads the role's visible menus and assembles the tree.
// Soft-deleted and inactive menus are skipped; duplicate grants collapse.
func resolveMenuTree(ctx context.Context, roleID bson.ObjectID) ([]*models.MenuNode, error) {
	grantsCol := database.OpenCollection("role_menu_permissions")
	cursor, err := grantsCol.Find(ctx, utils.ActiveOnly(bson.M{"roleId": roleID}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	menuIDs := make([]bson.ObjectID, 0)
	for cursor.Next(ctx) {
		var grant models.RoleMenuPermission
		if err := cursor.Decode(&grant); err != nil {
			return nil, err
		}
		menuIDs = append(menuIDs, grant.MenuID)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if len(menuIDs) == 0 {
		return []*models.MenuNode{}, nil
	}

	menusCol := database.OpenCollection("menus")
	menuCursor, err := menusCol.Find(ctx, utils.ActiveOnly(bson.M{
		"_id":      bson.M{"$in": menuIDs},
		"isActive": true,
	}))
	if err != nil {
		return nil, err
	}
	defer menuCursor.Close(ctx)

	menus := make([]models.Menu, 0, len(menuIDs))
	for menuCursor.Next(ctx) {
		var menu models.Menu
		if err := menuCursor.Decode(&menu); err != nil {
			return nil, err
		}
		menus = append(menus, menu)
	}
	if err := menuCursor.Err(); err != nil {
		return nil, err
	}

	return utils.BuildMenuTree(menus), nil
}

// GET /me/menus
func GetMyMenus() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			utils.RespondError(c, utils.AuthenticationError("missing token"))
			return
		}
		tree, err := resolveMenuTree(c.Request.Context(), user.RoleID)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"menus": tree})
	}
}

// GET /admin/roles/:id/menus
func GetRoleMenus() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleID, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondError(c, utils.ValidationError("invalid role id"))
			return
		}
		tree, err := resolveMenuTree(c.Request.Context(), roleID)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"menus": tree})
	}
}
