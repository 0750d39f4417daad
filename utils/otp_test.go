package utils

import (
	"testing"
	"time"

	"github.com/princinho/sahohr/models"
)

func TestGenerateOTPFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP failed: %v", err)
		}
		if len(code) != OTPLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), OTPLength)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit", code)
			}
		}
	}
}

func TestOTPMatches(t *testing.T) {
	code, err := GenerateOTP()
	if err != nil {
		t.Fatalf("GenerateOTP failed: %v", err)
	}
	hash := HashOTP(code)

	if !OTPMatches(hash, code) {
		t.Fatal("correct code rejected")
	}
	if OTPMatches(hash, "000000") && code != "000000" {
		t.Fatal("wrong code accepted")
	}
	if OTPMatches(hash, code+"0") {
		t.Fatal("longer code accepted")
	}
	if OTPMatches("", code) {
		t.Fatal("empty stored hash accepted")
	}
}

func TestOTPUsable(t *testing.T) {
	now := time.Now().UTC()
	code := "042917"
	consumed := now.Add(-30 * time.Second)

	fresh := models.PasswordResetOTP{
		CodeHash:  HashOTP(code),
		ExpiresAt: now.Add(OTPTTL),
		CreatedAt: now,
	}

	cases := []struct {
		name string
		otp  models.PasswordResetOTP
		code string
		want bool
	}{
		{"fresh matching code", fresh, code, true},
		{"wrong code", fresh, "999999", false},
		{
			// Matching digits do not rescue a code past its deadline.
			name: "expired code with matching digits",
			otp: models.PasswordResetOTP{
				CodeHash:  HashOTP(code),
				ExpiresAt: now.Add(-time.Second),
				CreatedAt: now.Add(-OTPTTL - time.Second),
			},
			code: code,
		},
		{
			name: "already consumed",
			otp: models.PasswordResetOTP{
				CodeHash:   HashOTP(code),
				ExpiresAt:  now.Add(OTPTTL),
				ConsumedAt: &consumed,
				CreatedAt:  now,
			},
			code: code,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := OTPUsable(tc.otp, tc.code, now); got != tc.want {
				t.Errorf("usable = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHashOTPStable(t *testing.T) {
	if HashOTP("123456") != HashOTP("123456") {
		t.Fatal("hash is not deterministic")
	}
	if HashOTP("123456") == HashOTP("654321") {
		t.Fatal("different codes share a hash")
	}
}
