package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/princinho/sahohr/database"
	"github.com/princinho/sahohr/models"
	"github.com/princinho/sahohr/utils"
)

// Context keys set by AuthMiddleware for downstream handlers.
const (
	CtxUser     = "authUser"
	CtxEmployee = "authEmployee"
	CtxRole     = "authRole"
	CtxClaims   = "authClaims"
)

// BearerToken pulls the raw token out of the Authorization header.
func BearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", utils.AuthenticationError("missing token")
	}
	return strings.TrimPrefix(header, "Bearer "), nil
}

// AuthMiddleware guards every protected route. Beyond signature and expiry
// it re-validates two pieces of server-side state on each request: the
// session binding (for session-bound roles) and the permission-version
// stamp, so a role edit or a session rotation invalidates outstanding
// tokens immediately.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := BearerToken(c)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		claims, err := utils.ValidateAccessToken(tokenStr)
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				utils.AbortWithError(c, utils.AuthenticationError("token expired"))
				return
			}
			utils.AbortWithError(c, utils.AuthenticationError("invalid token"))
			return
		}

		ctx := c.Request.Context()

		userID, err := bson.ObjectIDFromHex(claims.UserID)
		if err != nil {
			utils.AbortWithError(c, utils.AuthenticationError("invalid token"))
			return
		}

		var user models.User
		usersCol := database.OpenCollection("users")
		if err := usersCol.FindOne(ctx, utils.ActiveOnly(bson.M{"_id": userID})).Decode(&user); err != nil {
			utils.AbortWithError(c, utils.AuthenticationError("invalid token"))
			return
		}

		var employee models.Employee
		employeesCol := database.OpenCollection("employees")
		if err := employeesCol.FindOne(ctx, utils.ActiveOnly(bson.M{"_id": user.EmployeeID})).Decode(&employee); err != nil {
			utils.AbortWithError(c, utils.AuthenticationError("invalid token"))
			return
		}

		var role models.Role
		rolesCol := database.OpenCollection("roles")
		if err := rolesCol.FindOne(ctx, utils.ActiveOnly(bson.M{"_id": user.RoleID})).Decode(&role); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				utils.AbortWithError(c, utils.AuthenticationError("invalid token"))
				return
			}
			utils.AbortWithError(c, err)
			return
		}

		if utils.SessionBindingEnforced(role) && claims.SessionID != "" && claims.SessionID != user.SessionID {
			utils.AbortWithError(c, utils.AuthorizationError("session invalidated, log in again"))
			return
		}

		if utils.PermissionsChangedSince(claims, user.PermissionsUpdatedAt) {
			utils.AbortWithError(c, utils.AuthenticationError("permissions changed, log in again"))
			return
		}

		c.Set(CtxUser, user)
		c.Set(CtxEmployee, employee)
		c.Set(CtxRole, role)
		c.Set(CtxClaims, claims)
		c.Next()
	}
}

// CurrentUser returns the identity attached by AuthMiddleware.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

func CurrentEmployee(c *gin.Context) (models.Employee, bool) {
	v, ok := c.Get(CtxEmployee)
	if !ok {
		return models.Employee{}, false
	}
	employee, ok := v.(models.Employee)
	return employee, ok
}

func CurrentRole(c *gin.Context) (models.Role, bool) {
	v, ok := c.Get(CtxRole)
	if !ok {
		return models.Role{}, false
	}
	role, ok := v.(models.Role)
	return role, ok
}
