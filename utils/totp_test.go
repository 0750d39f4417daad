package utils

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateTOTPSecret(t *testing.T) {
	a, err := GenerateTOTPSecret()
	if err != nil {
		t.Fatalf("GenerateTOTPSecret failed: %v", err)
	}
	b, err := GenerateTOTPSecret()
	if err != nil {
		t.Fatalf("GenerateTOTPSecret failed: %v", err)
	}
	if a == b {
		t.Fatal("two generated secrets are identical")
	}
	if strings.Contains(a, "=") {
		t.Fatalf("secret %q contains base32 padding", a)
	}
}

func TestVerifyTOTPAcceptsCurrentCode(t *testing.T) {
	secret, err := GenerateTOTPSecret()
	if err != nil {
		t.Fatalf("GenerateTOTPSecret failed: %v", err)
	}
	now := time.Now()
	code, err := TOTPCodeAt(secret, now)
	if err != nil {
		t.Fatalf("TOTPCodeAt failed: %v", err)
	}
	if !VerifyTOTPAt(secret, code, now) {
		t.Fatal("current code rejected")
	}
}

func TestVerifyTOTPSkewWindow(t *testing.T) {
	secret, err := GenerateTOTPSecret()
	if err != nil {
		t.Fatalf("GenerateTOTPSecret failed: %v", err)
	}
	now := time.Now()

	for _, steps := range []int{-2, -1, 1, 2} {
		code, err := TOTPCodeAt(secret, now.Add(time.Duration(steps)*30*time.Second))
		if err != nil {
			t.Fatalf("TOTPCodeAt failed: %v", err)
		}
		if !VerifyTOTPAt(secret, code, now) {
			t.Errorf("code %d steps away rejected, want accepted", steps)
		}
	}

	for _, steps := range []int{-4, 4} {
		code, err := TOTPCodeAt(secret, now.Add(time.Duration(steps)*30*time.Second))
		if err != nil {
			t.Fatalf("TOTPCodeAt failed: %v", err)
		}
		if VerifyTOTPAt(secret, code, now) {
			t.Errorf("code %d steps away accepted, want rejected", steps)
		}
	}
}

func TestVerifyTOTPRejectsOtherSecret(t *testing.T) {
	secretA, _ := GenerateTOTPSecret()
	secretB, _ := GenerateTOTPSecret()
	now := time.Now()

	code, err := TOTPCodeAt(secretB, now)
	if err != nil {
		t.Fatalf("TOTPCodeAt failed: %v", err)
	}
	if VerifyTOTPAt(secretA, code, now) {
		t.Fatal("code from a different secret accepted")
	}
}

func TestVerifyTOTPRejectsMalformedInput(t *testing.T) {
	secret, _ := GenerateTOTPSecret()
	now := time.Now()
	code, _ := TOTPCodeAt(secret, now)

	cases := []struct {
		name   string
		secret string
		code   string
	}{
		{"empty code", secret, ""},
		{"short code", secret, "123"},
		{"long code", secret, code + "0"},
		{"non-numeric", secret, "abcdef"},
		{"empty secret", "", code},
		{"garbage secret", "not-base32!", code},
	}
	for _, tc := range cases {
		if VerifyTOTPAt(tc.secret, tc.code, now) {
			t.Errorf("%s: accepted, want rejected", tc.name)
		}
	}
}

func TestVerifyTOTPNormalizesSpaces(t *testing.T) {
	secret, _ := GenerateTOTPSecret()
	now := time.Now()
	code, _ := TOTPCodeAt(secret, now)

	spaced := code[:3] + " " + code[3:]
	if !VerifyTOTPAt(secret, spaced, now) {
		t.Fatal("code with an internal space rejected")
	}
}

func TestBuildTOTPProvisioningURI(t *testing.T) {
	uri := BuildTOTPProvisioningURI("jane@saho.test", "ABC234DEF567GHI2")
	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Fatalf("unexpected scheme in %q", uri)
	}
	if !strings.Contains(uri, "secret=ABC234DEF567GHI2") {
		t.Fatalf("secret missing from %q", uri)
	}
	if !strings.Contains(uri, "jane%40saho.test") {
		t.Fatalf("account label missing from %q", uri)
	}
}

func TestGenerateProvisioningQR(t *testing.T) {
	uri := BuildTOTPProvisioningURI("jane@saho.test", "ABC234DEF567GHI2")
	dataURI, err := GenerateProvisioningQR(uri)
	if err != nil {
		t.Fatalf("GenerateProvisioningQR failed: %v", err)
	}
	if !strings.HasPrefix(dataURI, "data:image/png;base64,") {
		t.Fatalf("unexpected data URI prefix: %.40q", dataURI)
	}
}
