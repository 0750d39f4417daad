package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	totpPeriodSec = 30
	totpDigits    = 6
	// ±2 steps absorbs roughly a minute of clock drift either way.
	totpSkewSteps = 2

	totpIssuer = "Saho HR"
)

// GenerateTOTPSecret returns a fresh 20-byte secret, base32 without padding,
// the format authenticator apps expect.
func GenerateTOTPSecret() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}

// BuildTOTPProvisioningURI renders the otpauth:// URI for the given account
// label (normally the user's email).
func BuildTOTPProvisioningURI(accountName, secretBase32 string) string {
	label := totpIssuer
	if accountName = strings.TrimSpace(accountName); accountName != "" {
		label = totpIssuer + ":" + accountName
	}
	q := url.Values{}
	q.Set("secret", strings.TrimSpace(secretBase32))
	q.Set("issuer", totpIssuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", strconv.Itoa(totpDigits))
	q.Set("period", strconv.Itoa(totpPeriodSec))
	u := &url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + url.PathEscape(label),
		RawQuery: q.Encode(),
	}
	return u.String()
}

// GenerateProvisioningQR renders the provisioning URI as a PNG data URI
// suitable for an <img> tag.
func GenerateProvisioningQR(uri string) (string, error) {
	png, err := qrcode.Encode(uri, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("could not generate QR code")
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// VerifyTOTP checks a submitted 6-digit code against the secret at the
// current time, allowing totpSkewSteps steps either side.
func VerifyTOTP(secretBase32, code string) bool {
	return VerifyTOTPAt(secretBase32, code, time.Now())
}

func VerifyTOTPAt(secretBase32, code string, now time.Time) bool {
	secret, err := decodeTOTPSecret(secretBase32)
	if err != nil {
		return false
	}
	code = strings.TrimSpace(strings.ReplaceAll(code, " ", ""))
	if len(code) != totpDigits {
		return false
	}
	if _, err := strconv.Atoi(code); err != nil {
		return false
	}
	counter := now.UTC().Unix() / totpPeriodSec
	for i := int64(-totpSkewSteps); i <= totpSkewSteps; i++ {
		if totpAt(secret, counter+i) == code {
			return true
		}
	}
	return false
}

// TOTPCodeAt computes the expected code for a counter window. Exported for
// the setup flow's own verification and for tests.
func TOTPCodeAt(secretBase32 string, now time.Time) (string, error) {
	secret, err := decodeTOTPSecret(secretBase32)
	if err != nil {
		return "", err
	}
	return totpAt(secret, now.UTC().Unix()/totpPeriodSec), nil
}

func decodeTOTPSecret(secretBase32 string) ([]byte, error) {
	val := strings.ToUpper(strings.TrimSpace(secretBase32))
	val = strings.ReplaceAll(val, " ", "")
	if val == "" {
		return nil, fmt.Errorf("empty totp secret")
	}
	b, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(val)
	if err != nil || len(b) < 10 {
		return nil, fmt.Errorf("invalid totp secret")
	}
	return b, nil
}

func totpAt(secret []byte, counter int64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))
	mac := hmac.New(sha1.New, secret)
	mac.Write(msg[:])
	sum := mac.Sum(nil)
	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)
	return fmt.Sprintf("%06d", bin%1000000)
}
