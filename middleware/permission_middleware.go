package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/princinho/sahohr/database"
	"github.com/princinho/sahohr/models"
	"github.com/princinho/sahohr/utils"
)

// roleHasMenu reports whether the role holds an active grant on the active,
// non-deleted menu with the given key. A missing or inactive menu is simply
// a deny; menu configuration is never leaked through a 404 here.
func roleHasMenu(ctx context.Context, roleID bson.ObjectID, menuKey string) (bool, error) {
	var menu models.Menu
	menusCol := database.OpenCollection("menus")
	filter := utils.ActiveOnly(bson.M{"key": menuKey, "isActive": true})
	if err := menusCol.FindOne(ctx, filter).Decode(&menu); err != nil {
		return false, nil
	}

	grantsCol := database.OpenCollection("role_menu_permissions")
	count, err := grantsCol.CountDocuments(ctx, utils.ActiveOnly(bson.M{
		"roleId": roleID,
		"menuId": menu.ID,
	}))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RequireMenu gates a route on a single menu permission.
func RequireMenu(menuKey string) gin.HandlerFunc {
	return RequireAnyMenu(menuKey)
}

// RequireAnyMenu allows the request when the caller's role holds a grant on
// at least one of the given menu keys.
func RequireAnyMenu(menuKeys ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			utils.AbortWithError(c, utils.AuthenticationError("missing token"))
			return
		}

		ctx := c.Request.Context()
		for _, key := range menuKeys {
			allowed, err := roleHasMenu(ctx, user.RoleID, key)
			if err != nil {
				utils.AbortWithError(c, err)
				return
			}
			if allowed {
				c.Next()
				return
			}
		}
		utils.AbortWithError(c, utils.AuthorizationError("insufficient permission"))
	}
}
