package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/princinho/sahohr/database"
	"github.com/princinho/sahohr/dto"
	"github.com/princinho/sahohr/middleware"
	"github.com/princinho/sahohr/models"
	"github.com/princinho/sahohr/utils"
)

// Login statuses returned in the response envelope.
const (
	StatusSuccess               = "success"
	StatusPasswordResetRequired = "passwordResetRequired"
	StatusMfaRequired           = "mfaRequired"
	StatusMfaSetupRequired      = "mfaSetupRequired"
)

var errGenericCredentials = utils.AuthenticationError("incorrect username or password")

// POST /auth
//
// The flow runs credential check → lockout check → password verify →
// reset-required / MFA branches → token issuance. The attempt that crosses
// the failure threshold locks the account in the same response.
func Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}

		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")

		var user models.User
		err := usersCol.FindOne(ctx, bson.M{"username": strings.TrimSpace(body.Username)}).Decode(&user)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				utils.DummyPasswordCheck()
				utils.RespondError(c, errGenericCredentials)
				return
			}
			utils.RespondError(c, err)
			return
		}

		if user.IsDeleted {
			utils.RespondError(c, utils.AuthorizationError("inactive account"))
			return
		}

		// Settings are re-read on every attempt; an admin change applies
		// to the very next login.
		settings, err := getSecuritySettings(ctx)
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		now := time.Now().UTC()
		if locked, minutes := utils.IsLockedOut(user, settings, now); locked {
			utils.RespondError(c, utils.AuthorizationErrorWithData(
				fmt.Sprintf("account locked, try again in %d minute(s)", minutes),
				gin.H{"accountLocked": true}))
			return
		}

		if err := utils.CheckPassword(user.PasswordHash, body.Password); err != nil {
			if !settings.AccountLockingEnabled {
				utils.RespondError(c, errGenericCredentials)
				return
			}
			locked, err := registerFailedAttempt(ctx, usersCol, user.ID, settings, now)
			if err != nil {
				utils.RespondError(c, err)
				return
			}
			if locked {
				utils.RespondError(c, utils.AuthorizationErrorWithData(
					fmt.Sprintf("account locked, try again in %d minute(s)", settings.LockTimeMinutes),
					gin.H{"accountLocked": true}))
				return
			}
			utils.RespondError(c, errGenericCredentials)
			return
		}

		if _, err := usersCol.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
			"$set":   bson.M{"failedLoginAttempts": 0, "accountLocked": false, "updatedAt": now},
			"$unset": bson.M{"lockUntil": ""},
		}); err != nil {
			utils.RespondError(c, err)
			return
		}

		sessionID, err := utils.GenerateSessionID()
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		if user.PasswordResetRequired {
			token, err := utils.GeneratePurposeToken(user, utils.PurposePasswordReset, sessionID)
			if err != nil {
				utils.RespondError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"status":  StatusPasswordResetRequired,
				"message": "password setup required before login",
				"data":    gin.H{"resetToken": token},
			})
			return
		}

		if user.MfaEnabled {
			token, err := utils.GeneratePurposeToken(user, utils.PurposeMfaValidation, sessionID)
			if err != nil {
				utils.RespondError(c, err)
				return
			}

			if user.MfaSecret != "" {
				c.JSON(http.StatusOK, gin.H{
					"status":  StatusMfaRequired,
					"message": "enter the code from your authenticator app",
					"data":    gin.H{"mfaToken": token},
				})
				return
			}

			// MFA is mandated for this account but never provisioned:
			// hand out a fresh secret to finish setup.
			secret, err := utils.GenerateTOTPSecret()
			if err != nil {
				utils.RespondError(c, err)
				return
			}
			uri := utils.BuildTOTPProvisioningURI(user.Email, secret)
			qr, err := utils.GenerateProvisioningQR(uri)
			if err != nil {
				utils.RespondError(c, utils.ValidationError("could not generate QR code"))
				return
			}
			if _, err := usersCol.UpdateOne(ctx, bson.M{"_id": user.ID},
				bson.M{"$set": bson.M{"mfaSecret": secret, "updatedAt": now}}); err != nil {
				utils.RespondError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"status":  StatusMfaSetupRequired,
				"message": "scan the QR code and verify to finish MFA setup",
				"data": gin.H{
					"mfaToken":        token,
					"secret":          secret,
					"provisioningUri": uri,
					"qrCode":          qr,
				},
			})
			return
		}

		respondWithSession(c, user, sessionID)
	}
}

// registerFailedAttempt bumps the counter atomically and, when the new
// count reaches the threshold, locks the account in the same step. The
// conditional filter on the lock write keeps concurrent attempts from
// extending a running lock, while still re-engaging one whose deadline has
// already passed.
func registerFailedAttempt(ctx context.Context, usersCol *mongo.Collection, userID bson.ObjectID, settings models.SecuritySettings, now time.Time) (bool, error) {
	res := usersCol.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$inc": bson.M{"failedLoginAttempts": 1},
			"$set": bson.M{"updatedAt": now},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var updated models.User
	if err := res.Decode(&updated); err != nil {
		return false, err
	}

	if !utils.ShouldLock(updated.FailedLoginAttempts, settings) {
		return false, nil
	}

	lockUntil := utils.LockDeadline(settings, now)
	_, err := usersCol.UpdateOne(ctx,
		utils.LockEngageFilter(userID, settings, now),
		bson.M{"$set": bson.M{"accountLocked": true, "lockUntil": lockUntil, "updatedAt": now}})
	if err != nil {
		return false, err
	}
	return true, nil
}

// respondWithSession is the shared success tail of password login and MFA
// validation: sign both tokens, persist the session binding when the role
// requires it, and return the sanitized user.
func respondWithSession(c *gin.Context, user models.User, sessionID string) {
	ctx := c.Request.Context()

	employee, role, err := loadEmployeeAndRole(ctx, user)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	accessToken, err := utils.GenerateAccessToken(user, employee, role.Name, sessionID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	refreshToken, err := utils.GenerateRefreshToken(user, sessionID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if utils.SessionBindingEnforced(role) {
		now := time.Now().UTC()
		expires := now.Add(utils.RefreshTTL())
		usersCol := database.OpenCollection("users")
		if _, err := usersCol.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
			"$set": bson.M{"sessionId": sessionID, "sessionExpiresAt": expires, "updatedAt": now},
		}); err != nil {
			utils.RespondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  StatusSuccess,
		"message": "login successful",
		"data": gin.H{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
			"user":         models.Sanitize(user, employee, role.Name),
		},
	})
}

// loadEmployeeAndRole resolves the profile and role a credential points at.
// A miss here is a data inconsistency (an active user must always have an
// active employee and role), so the raw error is returned for the boundary
// responder to log; callers on token paths map it themselves.
func loadEmployeeAndRole(ctx context.Context, user models.User) (models.Employee, models.Role, error) {
	var employee models.Employee
	employeesCol := database.OpenCollection("employees")
	if err := employeesCol.FindOne(ctx, utils.ActiveOnly(bson.M{"_id": user.EmployeeID})).Decode(&employee); err != nil {
		return models.Employee{}, models.Role{}, fmt.Errorf("load employee %s: %w", user.EmployeeID.Hex(), err)
	}

	var role models.Role
	rolesCol := database.OpenCollection("roles")
	if err := rolesCol.FindOne(ctx, utils.ActiveOnly(bson.M{"_id": user.RoleID})).Decode(&role); err != nil {
		return models.Employee{}, models.Role{}, fmt.Errorf("load role %s: %w", user.RoleID.Hex(), err)
	}
	return employee, role, nil
}

// POST /auth/refresh-token
//
// A refresh mints a new access+refresh pair carrying the SAME session id.
// For session-bound roles the embedded id must still match the persisted
// one; a rotation elsewhere means this chain is dead.
func RefreshToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RefreshTokenDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}

		claims, err := utils.ValidateRefreshToken(body.RefreshToken)
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				utils.RespondError(c, utils.AuthenticationError("token expired"))
				return
			}
			utils.RespondError(c, utils.AuthenticationError("invalid token"))
			return
		}

		ctx := c.Request.Context()
		userID, err := bson.ObjectIDFromHex(claims.UserID)
		if err != nil {
			utils.RespondError(c, utils.AuthenticationError("invalid token"))
			return
		}

		var user models.User
		usersCol := database.OpenCollection("users")
		if err := usersCol.FindOne(ctx, utils.ActiveOnly(bson.M{"_id": userID})).Decode(&user); err != nil {
			utils.RespondError(c, utils.AuthenticationError("invalid token"))
			return
		}

		employee, role, err := loadEmployeeAndRole(ctx, user)
		if err != nil {
			utils.RespondError(c, utils.AuthenticationError("invalid token"))
			return
		}

		if utils.SessionBindingEnforced(role) && claims.SessionID != user.SessionID {
			utils.RespondError(c, utils.AuthorizationError("session invalidated, log in again"))
			return
		}

		accessToken, err := utils.GenerateAccessToken(user, employee, role.Name, claims.SessionID)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		refreshToken, err := utils.GenerateRefreshToken(user, claims.SessionID)
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		if utils.SessionBindingEnforced(role) {
			now := time.Now().UTC()
			if _, err := usersCol.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
				"$set": bson.M{"sessionExpiresAt": now.Add(utils.RefreshTTL()), "updatedAt": now},
			}); err != nil {
				utils.RespondError(c, err)
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		})
	}
}

// PUT /auth/logout
func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			utils.RespondError(c, utils.AuthenticationError("missing token"))
			return
		}

		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")
		_, err := usersCol.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
			"$set":   bson.M{"updatedAt": time.Now().UTC()},
			"$unset": bson.M{"sessionId": "", "sessionExpiresAt": ""},
		})
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

// POST /auth/initial-reset
//
// Consumes the temporary token handed out when passwordResetRequired was
// set (invite or admin reset) and installs the user's own password.
func InitialReset() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := middleware.BearerToken(c)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		claims, err := utils.ValidatePurposeToken(tokenStr, utils.PurposePasswordReset)
		if err != nil {
			claims, err = utils.ValidatePurposeToken(tokenStr, utils.PurposeInitialSetup)
		}
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				utils.RespondError(c, utils.AuthenticationError("token expired"))
				return
			}
			utils.RespondError(c, utils.AuthenticationError("invalid token"))
			return
		}

		var body dto.InitialResetDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}
		if err := utils.ValidatePasswordComplexity(body.NewPassword); err != nil {
			utils.RespondError(c, err)
			return
		}

		userID, err := bson.ObjectIDFromHex(claims.UserID)
		if err != nil {
			utils.RespondError(c, utils.AuthenticationError("invalid token"))
			return
		}

		hash, err := utils.HashPassword(body.NewPassword)
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")
		res, err := usersCol.UpdateOne(ctx, utils.ActiveOnly(bson.M{"_id": userID}), bson.M{
			"$set": bson.M{
				"passwordHash":          hash,
				"passwordResetRequired": false,
				"failedLoginAttempts":   0,
				"accountLocked":         false,
				"updatedAt":             time.Now().UTC(),
			},
			"$unset": bson.M{"lockUntil": ""},
		})
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if res.MatchedCount == 0 {
			utils.RespondError(c, utils.AuthenticationError("invalid token"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password set, you can now log in"})
	}
}

const forgotPasswordReply = "if the account exists, a reset code has been sent"

// POST /auth/forgot-password and POST /auth/forgot-password/resend-otp
func ForgotPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.ForgotPasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}

		ctx := c.Request.Context()
		email := strings.ToLower(strings.TrimSpace(body.Email))

		var user models.User
		usersCol := database.OpenCollection("users")
		if err := usersCol.FindOne(ctx, utils.ActiveOnly(bson.M{"email": email})).Decode(&user); err != nil {
			// Same reply either way: the endpoint never confirms accounts.
			c.JSON(http.StatusOK, gin.H{"message": forgotPasswordReply})
			return
		}

		if err := issueResetOTP(ctx, user); err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": forgotPasswordReply})
	}
}

// issueResetOTP invalidates all outstanding codes for the user, stores a
// fresh one and emails it. Resending therefore always voids earlier codes.
func issueResetOTP(ctx context.Context, user models.User) error {
	otpsCol := database.OpenCollection("password_reset_otps")
	now := time.Now().UTC()

	if _, err := otpsCol.UpdateMany(ctx,
		bson.M{"userId": user.ID, "consumedAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"consumedAt": now}}); err != nil {
		return err
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return err
	}
	if _, err := otpsCol.InsertOne(ctx, models.PasswordResetOTP{
		UserID:    user.ID,
		CodeHash:  utils.HashOTP(code),
		ExpiresAt: now.Add(utils.OTPTTL),
		CreatedAt: now,
	}); err != nil {
		return err
	}

	var employee models.Employee
	employeesCol := database.OpenCollection("employees")
	displayName := user.Username
	if err := employeesCol.FindOne(ctx, utils.ActiveOnly(bson.M{"_id": user.EmployeeID})).Decode(&employee); err == nil {
		displayName = employee.DisplayName()
	}
	if err := utils.SendOTPEmail(user.Email, displayName, code); err != nil {
		log.Printf("send otp email to %s: %v", user.Email, err)
	}
	return nil
}

var errInvalidOTP = utils.ValidationError("invalid or expired code")

// POST /auth/forgot-password/verify-otp
func VerifyOtp() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.VerifyOtpDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}

		ctx := c.Request.Context()
		email := strings.ToLower(strings.TrimSpace(body.Email))

		var user models.User
		usersCol := database.OpenCollection("users")
		if err := usersCol.FindOne(ctx, utils.ActiveOnly(bson.M{"email": email})).Decode(&user); err != nil {
			utils.RespondError(c, errInvalidOTP)
			return
		}

		otpsCol := database.OpenCollection("password_reset_otps")
		var otp models.PasswordResetOTP
		err := otpsCol.FindOne(ctx,
			bson.M{"userId": user.ID, "consumedAt": bson.M{"$exists": false}},
			options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})).Decode(&otp)
		if err != nil {
			utils.RespondError(c, errInvalidOTP)
			return
		}

		now := time.Now().UTC()
		if !utils.OTPUsable(otp, body.Otp, now) {
			utils.RespondError(c, errInvalidOTP)
			return
		}

		// Conditional consume: a concurrent verify of the same code loses.
		res, err := otpsCol.UpdateOne(ctx,
			bson.M{"_id": otp.ID, "consumedAt": bson.M{"$exists": false}},
			bson.M{"$set": bson.M{"consumedAt": now}})
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if res.ModifiedCount == 0 {
			utils.RespondError(c, errInvalidOTP)
			return
		}

		sessionID, err := utils.GenerateSessionID()
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		token, err := utils.GeneratePurposeToken(user, utils.PurposeOtpVerified, sessionID)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "code verified",
			"data":    gin.H{"resetToken": token},
		})
	}
}

// POST /auth/forgot-password/reset
func ResetPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := middleware.BearerToken(c)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		claims, err := utils.ValidatePurposeToken(tokenStr, utils.PurposeOtpVerified)
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				utils.RespondError(c, utils.AuthenticationError("token expired"))
				return
			}
			utils.RespondError(c, utils.AuthenticationError("invalid token"))
			return
		}

		var body dto.ResetPasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}
		if err := utils.ValidatePasswordComplexity(body.NewPassword); err != nil {
			utils.RespondError(c, err)
			return
		}

		userID, err := bson.ObjectIDFromHex(claims.UserID)
		if err != nil {
			utils.RespondError(c, utils.AuthenticationError("invalid token"))
			return
		}

		hash, err := utils.HashPassword(body.NewPassword)
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")
		res, err := usersCol.UpdateOne(ctx, utils.ActiveOnly(bson.M{"_id": userID}), bson.M{
			"$set": bson.M{
				"passwordHash":        hash,
				"failedLoginAttempts": 0,
				"accountLocked":       false,
				"updatedAt":           time.Now().UTC(),
			},
			// Changing the password kills any live session.
			"$unset": bson.M{"lockUntil": "", "sessionId": "", "sessionExpiresAt": ""},
		})
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if res.MatchedCount == 0 {
			utils.RespondError(c, utils.AuthenticationError("invalid token"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password reset, you can now log in"})
	}
}
