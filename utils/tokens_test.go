package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/princinho/sahohr/models"
)

func testUser() (models.User, models.Employee) {
	user := models.User{
		ID:         bson.NewObjectID(),
		Username:   "jane.doe",
		Email:      "jane@saho.test",
		RoleID:     bson.NewObjectID(),
		EmployeeID: bson.NewObjectID(),
	}
	employee := models.Employee{
		ID:        user.EmployeeID,
		FirstName: "Jane",
		LastName:  "Doe",
		CompanyID: bson.NewObjectID(),
	}
	return user, employee
}

func setTestSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "test-refresh-secret")
}

func TestAccessTokenRoundTrip(t *testing.T) {
	setTestSecrets(t)
	user, employee := testUser()

	tokenStr, err := GenerateAccessToken(user, employee, "HR Manager", "session-1")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	claims, err := ValidateAccessToken(tokenStr)
	if err != nil {
		t.Fatalf("ValidateAccessToken failed: %v", err)
	}
	if claims.UserID != user.ID.Hex() {
		t.Errorf("UserID = %q, want %q", claims.UserID, user.ID.Hex())
	}
	if claims.DisplayName != "Jane Doe" {
		t.Errorf("DisplayName = %q, want %q", claims.DisplayName, "Jane Doe")
	}
	if claims.RoleName != "HR Manager" {
		t.Errorf("RoleName = %q, want %q", claims.RoleName, "HR Manager")
	}
	if claims.SessionID != "session-1" {
		t.Errorf("SessionID = %q, want %q", claims.SessionID, "session-1")
	}
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	setTestSecrets(t)
	user, _ := testUser()

	refresh, err := GenerateRefreshToken(user, "session-1")
	if err != nil {
		t.Fatalf("GenerateRefreshToken failed: %v", err)
	}

	if _, err := ValidateAccessToken(refresh); err == nil {
		t.Fatal("refresh token accepted as access token")
	}
	if _, err := ValidateRefreshToken(refresh); err != nil {
		t.Fatalf("refresh token rejected by its own validator: %v", err)
	}
}

func TestPurposeTokensDoNotCross(t *testing.T) {
	setTestSecrets(t)
	user, _ := testUser()

	reset, err := GeneratePurposeToken(user, PurposePasswordReset, "session-1")
	if err != nil {
		t.Fatalf("GeneratePurposeToken failed: %v", err)
	}

	if _, err := ValidatePurposeToken(reset, PurposePasswordReset); err != nil {
		t.Fatalf("reset token rejected by its own validator: %v", err)
	}
	if _, err := ValidatePurposeToken(reset, PurposeMfaValidation); err == nil {
		t.Fatal("password-reset token accepted as mfa-validation token")
	}
	if _, err := ValidateAccessToken(reset); err == nil {
		t.Fatal("password-reset token accepted as access token")
	}
}

// The invite email carries an initial-setup token; it must open nothing but
// the initial-reset endpoint's validator.
func TestInitialSetupTokenScope(t *testing.T) {
	setTestSecrets(t)
	user, _ := testUser()

	setup, err := GeneratePurposeToken(user, PurposeInitialSetup, "")
	if err != nil {
		t.Fatalf("GeneratePurposeToken failed: %v", err)
	}

	claims, err := ValidatePurposeToken(setup, PurposeInitialSetup)
	if err != nil {
		t.Fatalf("setup token rejected by its own validator: %v", err)
	}
	if claims.UserID != user.ID.Hex() {
		t.Errorf("UserID = %q, want %q", claims.UserID, user.ID.Hex())
	}
	if _, err := ValidatePurposeToken(setup, PurposePasswordReset); err == nil {
		t.Fatal("initial-setup token accepted as password-reset token")
	}
	if _, err := ValidateAccessToken(setup); err == nil {
		t.Fatal("initial-setup token accepted as access token")
	}
}

func TestValidateTokenDistinguishesExpiry(t *testing.T) {
	setTestSecrets(t)

	expired := Claims{
		UserID:  bson.NewObjectID().Hex(),
		Purpose: PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, expired)
	tokenStr, err := token.SignedString([]byte("test-access-secret"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := ValidateAccessToken(tokenStr); err != ErrTokenExpired {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
	if _, err := ValidateToken(tokenStr, "wrong-secret", PurposeAccess); err != ErrTokenInvalid {
		t.Fatalf("err = %v, want ErrTokenInvalid for bad secret", err)
	}
	if _, err := ValidateAccessToken("not.a.token"); err != ErrTokenInvalid {
		t.Fatalf("err = %v, want ErrTokenInvalid for garbage", err)
	}
}

func TestGenerateSessionID(t *testing.T) {
	a, err := GenerateSessionID()
	if err != nil {
		t.Fatalf("GenerateSessionID failed: %v", err)
	}
	b, err := GenerateSessionID()
	if err != nil {
		t.Fatalf("GenerateSessionID failed: %v", err)
	}
	if a == b {
		t.Fatal("two session ids are identical")
	}
	// 32 bytes, base64url without padding
	if len(a) != 43 {
		t.Fatalf("session id length = %d, want 43", len(a))
	}
}

func TestPermissionsChangedSince(t *testing.T) {
	issued := time.Now().UTC().Truncate(time.Second)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(issued)},
	}

	after := issued.Add(5 * time.Minute)
	before := issued.Add(-5 * time.Minute)

	if !PermissionsChangedSince(claims, &after) {
		t.Error("edit after issuance did not invalidate")
	}
	if PermissionsChangedSince(claims, &before) {
		t.Error("edit before issuance invalidated")
	}
	if PermissionsChangedSince(claims, nil) {
		t.Error("nil permissionsUpdatedAt invalidated")
	}
	if PermissionsChangedSince(&Claims{}, &after) {
		t.Error("claims without iat invalidated")
	}
}
