package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/princinho/sahohr/database"
	"github.com/princinho/sahohr/dto"
	"github.com/princinho/sahohr/middleware"
	"github.com/princinho/sahohr/models"
	"github.com/princinho/sahohr/utils"
)

// POST /mfa/generate
//
// Step one of enabling MFA: store a fresh secret and hand back the
// provisioning payload. mfaEnabled stays false until the user proves the
// authenticator works in verify-setup.
func GenerateMfa() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			utils.RespondError(c, utils.AuthenticationError("missing token"))
			return
		}
		if user.MfaEnabled {
			utils.RespondError(c, utils.ConflictError("MFA is already enabled"))
			return
		}

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

		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")
		if _, err := usersCol.UpdateOne(ctx, bson.M{"_id": user.ID},
			bson.M{"$set": bson.M{"mfaSecret": secret, "updatedAt": time.Now().UTC()}}); err != nil {
			utils.RespondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"secret":          secret,
			"provisioningUri": uri,
			"qrCode":          qr,
		})
	}
}

// POST /mfa/verify-setup
//
// Step two: a valid code against the freshly stored secret flips
// mfaEnabled true.
func VerifyMfaSetup() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			utils.RespondError(c, utils.AuthenticationError("missing token"))
			return
		}

		var body dto.MfaTokenDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}

		if user.MfaSecret == "" {
			utils.RespondError(c, utils.ValidationError("no MFA secret provisioned, generate one first"))
			return
		}
		if !utils.VerifyTOTP(user.MfaSecret, body.Token) {
			utils.RespondError(c, utils.AuthenticationError("invalid MFA code"))
			return
		}

		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")
		if _, err := usersCol.UpdateOne(ctx, bson.M{"_id": user.ID},
			bson.M{"$set": bson.M{"mfaEnabled": true, "updatedAt": time.Now().UTC()}}); err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "MFA enabled"})
	}
}

// POST /mfa/validate
//
// The per-login MFA challenge. The bearer token is the short-lived
// mfa-validation token from the login response; a good code completes the
// login with the same issuance path as a plain password success.
func ValidateMfa() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := middleware.BearerToken(c)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		claims, err := utils.ValidatePurposeToken(tokenStr, utils.PurposeMfaValidation)
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				utils.RespondError(c, utils.AuthenticationError("token expired"))
				return
			}
			utils.RespondError(c, utils.AuthenticationError("invalid token"))
			return
		}

		var body dto.MfaTokenDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}

		userID, err := bson.ObjectIDFromHex(claims.UserID)
		if err != nil {
			utils.RespondError(c, utils.AuthenticationError("invalid token"))
			return
		}

		ctx := c.Request.Context()
		var user models.User
		usersCol := database.OpenCollection("users")
		if err := usersCol.FindOne(ctx, utils.ActiveOnly(bson.M{"_id": userID})).Decode(&user); err != nil {
			utils.RespondError(c, utils.AuthenticationError("invalid token"))
			return
		}

		if !user.MfaEnabled || user.MfaSecret == "" {
			utils.RespondError(c, utils.ValidationError("MFA is not enabled for this account"))
			return
		}
		if !utils.VerifyTOTP(user.MfaSecret, body.Token) {
			utils.RespondError(c, utils.AuthenticationError("invalid MFA code"))
			return
		}

		sessionID, err := utils.GenerateSessionID()
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		respondWithSession(c, user, sessionID)
	}
}
