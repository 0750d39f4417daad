package controllers

import (
	"log"
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

// POST /admin/users
//
// Invite-style creation: the account gets a generated temporary password,
// passwordResetRequired is set, and the credentials go out by email. The
// caller never sees the password.
func CreateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreateUserDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}

		ctx := c.Request.Context()
		email := strings.ToLower(strings.TrimSpace(body.Email))

		roleID, err := bson.ObjectIDFromHex(body.RoleID)
		if err != nil {
			utils.RespondError(c, utils.ValidationError("invalid roleId"))
			return
		}
		var role models.Role
		rolesCol := database.OpenCollection("roles")
		if err := rolesCol.FindOne(ctx, utils.ActiveOnly(bson.M{"_id": roleID})).Decode(&role); err != nil {
			utils.RespondError(c, utils.NotFoundError("role not found"))
			return
		}

		inviter, _ := middleware.CurrentEmployee(c)

		now := time.Now().UTC()
		employee := models.Employee{
			ID:          bson.NewObjectID(),
			FirstName:   strings.TrimSpace(body.FirstName),
			LastName:    strings.TrimSpace(body.LastName),
			CompanyID:   inviter.CompanyID,
			Designation: strings.TrimSpace(body.Designation),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		employeesCol := database.OpenCollection("employees")
		if _, err := employeesCol.InsertOne(ctx, employee); err != nil {
			utils.RespondError(c, err)
			return
		}

		tempPassword, err := utils.GenerateTempPassword()
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		hash, err := utils.HashPassword(tempPassword)
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		localPart, _, _ := strings.Cut(email, "@")
		user := models.User{
			ID:                    bson.NewObjectID(),
			Username:              utils.NormalizeUsername(localPart),
			Email:                 email,
			PasswordHash:          hash,
			RoleID:                roleID,
			EmployeeID:            employee.ID,
			PasswordResetRequired: true,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		usersCol := database.OpenCollection("users")
		if _, err := usersCol.InsertOne(ctx, user); err != nil {
			// Roll back the profile so a conflict leaves no orphaned
			// employee behind.
			if _, delErr := employeesCol.DeleteOne(ctx, bson.M{"_id": employee.ID}); delErr != nil {
				log.Printf("rollback employee %s: %v", employee.ID.Hex(), delErr)
			}
			if utils.IsDuplicateKey(err) {
				utils.RespondError(c, utils.ConflictError("username or email already exists"))
				return
			}
			utils.RespondError(c, err)
			return
		}

		// The invite also carries a short-lived initial-setup token, so the
		// user can choose a password without logging in with the temporary
		// one first.
		setupToken, err := utils.GeneratePurposeToken(user, utils.PurposeInitialSetup, "")
		if err != nil {
			log.Printf("generate setup token for %s: %v", email, err)
			setupToken = ""
		}
		if err := utils.SendInviteEmail(email, user.Username, tempPassword, setupToken); err != nil {
			log.Printf("send invite email to %s: %v", email, err)
		}

		c.JSON(http.StatusCreated, models.Sanitize(user, employee, role.Name))
	}
}

// GET /admin/users
func GetUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, limit, skip := utils.Pagination(c.Query("page"), c.Query("limit"), 20, 100)

		filter := utils.ActiveOnly(bson.M{})
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			filter["$or"] = []bson.M{
				{"username": bson.M{"$regex": q, "$options": "i"}},
				{"email": bson.M{"$regex": q, "$options": "i"}},
			}
		}

		opts := options.Find().
			SetSkip(skip).
			SetLimit(int64(limit)).
			SetSort(bson.D{{Key: "username", Value: 1}})

		usersCol := database.OpenCollection("users")
		cursor, err := usersCol.Find(ctx, filter, opts)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		defer cursor.Close(ctx)

		items := make([]models.User, 0)
		for cursor.Next(ctx) {
			var user models.User
			if err := cursor.Decode(&user); err != nil {
				utils.RespondError(c, err)
				return
			}
			items = append(items, user)
		}
		if err := cursor.Err(); err != nil {
			utils.RespondError(c, err)
			return
		}

		total, err := usersCol.CountDocuments(ctx, filter)
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

// GET /admin/users/:id
func GetUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondError(c, utils.ValidationError("invalid user id"))
			return
		}

		var user models.User
		usersCol := database.OpenCollection("users")
		if err := usersCol.FindOne(ctx, utils.ActiveOnly(bson.M{"_id": id})).Decode(&user); err != nil {
			utils.RespondError(c, utils.NotFoundError("user not found"))
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// PATCH /admin/users/:id
func UpdateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondError(c, utils.ValidationError("invalid user id"))
			return
		}

		var body dto.UpdateUserDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}

		var user models.User
		usersCol := database.OpenCollection("users")
		if err := usersCol.FindOne(ctx, utils.ActiveOnly(bson.M{"_id": id})).Decode(&user); err != nil {
			utils.RespondError(c, utils.NotFoundError("user not found"))
			return
		}

		now := time.Now().UTC()

		employeeSet := bson.M{"updatedAt": now}
		if body.FirstName != nil {
			employeeSet["firstName"] = strings.TrimSpace(*body.FirstName)
		}
		if body.LastName != nil {
			employeeSet["lastName"] = strings.TrimSpace(*body.LastName)
		}
		if body.Designation != nil {
			employeeSet["designation"] = strings.TrimSpace(*body.Designation)
		}
		if len(employeeSet) > 1 {
			employeesCol := database.OpenCollection("employees")
			if _, err := employeesCol.UpdateOne(ctx, bson.M{"_id": user.EmployeeID},
				bson.M{"$set": employeeSet}); err != nil {
				utils.RespondError(c, err)
				return
			}
		}

		if body.RoleID != nil {
			roleID, err := bson.ObjectIDFromHex(*body.RoleID)
			if err != nil {
				utils.RespondError(c, utils.ValidationError("invalid roleId"))
				return
			}
			rolesCol := database.OpenCollection("roles")
			if err := rolesCol.FindOne(ctx, utils.ActiveOnly(bson.M{"_id": roleID})).Err(); err != nil {
				utils.RespondError(c, utils.NotFoundError("role not found"))
				return
			}
			// A role change is a permission change: stamp it and drop the
			// session so outstanding tokens die on their next request.
			if _, err := usersCol.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
				"$set":   bson.M{"roleId": roleID, "permissionsUpdatedAt": now, "updatedAt": now},
				"$unset": bson.M{"sessionId": "", "sessionExpiresAt": ""},
			}); err != nil {
				utils.RespondError(c, err)
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "user updated"})
	}
}

// DELETE /admin/users/:id
func DeleteUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondError(c, utils.ValidationError("invalid user id"))
			return
		}

		now := time.Now().UTC()
		usersCol := database.OpenCollection("users")
		res, err := usersCol.UpdateOne(ctx, utils.ActiveOnly(bson.M{"_id": id}), bson.M{
			"$set":   bson.M{"isDeleted": true, "updatedAt": now},
			"$unset": bson.M{"sessionId": "", "sessionExpiresAt": ""},
		})
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if res.MatchedCount == 0 {
			utils.RespondError(c, utils.NotFoundError("user not found"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "user deactivated"})
	}
}

// POST /admin/users/me/password
func ChangeMyPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			utils.RespondError(c, utils.AuthenticationError("missing token"))
			return
		}

		var body dto.ChangeMyPasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}

		if err := utils.CheckPassword(user.PasswordHash, body.CurrentPassword); err != nil {
			utils.RespondError(c, utils.AuthenticationError("current password is incorrect"))
			return
		}
		if err := utils.ValidatePasswordComplexity(body.NewPassword); err != nil {
			utils.RespondError(c, err)
			return
		}

		hash, err := utils.HashPassword(body.NewPassword)
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")
		if _, err := usersCol.UpdateOne(ctx, bson.M{"_id": user.ID},
			bson.M{"$set": bson.M{"passwordHash": hash, "updatedAt": time.Now().UTC()}}); err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password changed"})
	}
}
