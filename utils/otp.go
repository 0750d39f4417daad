package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/princinho/sahohr/models"
)

// Forgot-password OTPs: 6 numeric digits, 2-minute lifetime, single use.
const (
	OTPLength = 6
	OTPTTL    = 2 * time.Minute
)

// GenerateOTP draws a 6-digit code from crypto/rand. Leading zeros are kept.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// HashOTP returns the hex sha256 of the code; only the hash is persisted.
func HashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// OTPMatches compares a submitted code against a stored hash in constant
// time.
func OTPMatches(storedHash, candidate string) bool {
	candidateHash := HashOTP(candidate)
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(candidateHash)) == 1
}

// OTPUsable reports whether a stored challenge can still be redeemed with
// the submitted code: not yet consumed, not past its deadline and matching
// the stored hash. A code older than the TTL is rejected even when the
// digits match.
func OTPUsable(otp models.PasswordResetOTP, candidate string, now time.Time) bool {
	if otp.ConsumedAt != nil {
		return false
	}
	if now.After(otp.ExpiresAt) {
		return false
	}
	return OTPMatches(otp.CodeHash, candidate)
}
