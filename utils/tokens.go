package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/princinho/sahohr/models"
)

// Token purposes. Every signed token carries exactly one, and every consumer
// checks it, so a refresh token can never be replayed as an access token and
// a password-reset token opens nothing but the reset endpoint.
const (
	PurposeAccess        = "access"
	PurposeRefresh       = "refresh"
	PurposePasswordReset = "password-reset"
	PurposeMfaValidation = "mfa-validation"
	PurposeInitialSetup  = "initial-setup"
	PurposeOtpVerified   = "forgot-password-otp-verified"
)

const purposeTokenTTL = 15 * time.Minute

type Claims struct {
	UserID      string `json:"userId"`
	EmployeeID  string `json:"employeeId,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	CompanyID   string `json:"companyId,omitempty"`
	RoleID      string `json:"roleId,omitempty"`
	RoleName    string `json:"roleName,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
	Purpose     string `json:"purpose"`
	jwt.RegisteredClaims
}

func AccessTTL() time.Duration {
	return time.Duration(EnvIntDefault("ACCESS_TOKEN_TTL_MINUTES", 15)) * time.Minute
}

func RefreshTTL() time.Duration {
	return time.Duration(EnvIntDefault("REFRESH_TOKEN_TTL_DAYS", 7)) * 24 * time.Hour
}

func sign(claims Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func baseClaims(ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now().UTC()
	return jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// GenerateAccessToken embeds the full identity so most requests need no
// extra lookups beyond the freshness checks in the auth middleware.
func GenerateAccessToken(user models.User, employee models.Employee, roleName, sessionID string) (string, error) {
	claims := Claims{
		UserID:           user.ID.Hex(),
		EmployeeID:       user.EmployeeID.Hex(),
		Email:            user.Email,
		DisplayName:      employee.DisplayName(),
		CompanyID:        employee.CompanyID.Hex(),
		RoleID:           user.RoleID.Hex(),
		RoleName:         roleName,
		SessionID:        sessionID,
		Purpose:          PurposeAccess,
		RegisteredClaims: baseClaims(AccessTTL()),
	}
	return sign(claims, os.Getenv("JWT_SECRET"))
}

// GenerateRefreshToken carries only the ids needed to rebuild the identity
// plus the session binding.
func GenerateRefreshToken(user models.User, sessionID string) (string, error) {
	claims := Claims{
		UserID:           user.ID.Hex(),
		EmployeeID:       user.EmployeeID.Hex(),
		SessionID:        sessionID,
		Purpose:          PurposeRefresh,
		RegisteredClaims: baseClaims(RefreshTTL()),
	}
	return sign(claims, os.Getenv("JWT_REFRESH_SECRET"))
}

// GeneratePurposeToken signs one of the short-lived single-purpose tokens
// (password reset, MFA validation, initial setup, OTP-verified). The session
// id is a candidate only; nothing is persisted until the flow completes.
func GeneratePurposeToken(user models.User, purpose, sessionID string) (string, error) {
	claims := Claims{
		UserID:           user.ID.Hex(),
		EmployeeID:       user.EmployeeID.Hex(),
		Email:            user.Email,
		SessionID:        sessionID,
		Purpose:          purpose,
		RegisteredClaims: baseClaims(purposeTokenTTL),
	}
	return sign(claims, os.Getenv("JWT_SECRET"))
}

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// ValidateToken parses and verifies a token against the given secret and
// required purpose. Expiry is reported distinctly from all other failures.
func ValidateToken(tokenStr, secret, purpose string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Purpose != purpose {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func ValidateAccessToken(tokenStr string) (*Claims, error) {
	return ValidateToken(tokenStr, os.Getenv("JWT_SECRET"), PurposeAccess)
}

func ValidateRefreshToken(tokenStr string) (*Claims, error) {
	return ValidateToken(tokenStr, os.Getenv("JWT_REFRESH_SECRET"), PurposeRefresh)
}

func ValidatePurposeToken(tokenStr, purpose string) (*Claims, error) {
	return ValidateToken(tokenStr, os.Getenv("JWT_SECRET"), purpose)
}

// GenerateSessionID returns a fresh opaque session identifier with 32 bytes
// of entropy.
func GenerateSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// PermissionsChangedSince reports whether the role's grants were edited
// after the token was issued. JWT truncates iat to whole seconds, so an edit
// within the issuance second also invalidates; that errs on the side of
// forcing a re-login.
func PermissionsChangedSince(claims *Claims, permissionsUpdatedAt *time.Time) bool {
	if permissionsUpdatedAt == nil || claims.IssuedAt == nil {
		return false
	}
	return permissionsUpdatedAt.After(claims.IssuedAt.Time)
}
