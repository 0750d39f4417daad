package utils

import (
	"crypto/rand"
	"errors"
	"math/big"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"
)

const bcryptCost = 10

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

func CheckPassword(hash string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// DummyPasswordCheck burns a bcrypt compare when the username does not
// exist, so response timing does not reveal which usernames are real.
func DummyPasswordCheck() {
	_ = bcrypt.CompareHashAndPassword(
		[]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"),
		[]byte("dummy password"))
}

func IsDuplicateKey(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 || e.Code == 11001 {
				return true
			}
		}
	}

	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 || e.Code == 11001 {
				return true
			}
		}
	}

	return strings.Contains(err.Error(), "E11000 duplicate key error")
}

// ActiveOnly extends a filter so every read path excludes soft-deleted rows
// by construction.
func ActiveOnly(filter bson.M) bson.M {
	if filter == nil {
		filter = bson.M{}
	}
	filter["isDeleted"] = false
	return filter
}

var usernameReg = regexp.MustCompile(`[^a-z0-9._-]+`)

// NormalizeUsername lowercases, strips accents and squeezes anything
// unexpected to a dot, so "José Álvarez" invites as "jose.alvarez".
func NormalizeUsername(name string) string {
	t := norm.NFD.String(name)
	var b strings.Builder
	for _, r := range t {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	s := strings.ToLower(strings.TrimSpace(b.String()))
	s = strings.ReplaceAll(s, " ", ".")
	s = usernameReg.ReplaceAllString(s, "")
	return strings.Trim(s, "._-")
}

// ValidatePasswordComplexity enforces the reset-path policy: at least 12
// characters with upper, lower, digit and special.
func ValidatePasswordComplexity(password string) error {
	if len(password) < 12 {
		return ValidationError("password must be at least 12 characters")
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return ValidationError("password must contain uppercase, lowercase, digit and special characters")
	}
	return nil
}

const (
	tempPasswordLen   = 16
	tempPasswordChars = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789!@#$%&*"
)

// GenerateTempPassword draws every character from crypto/rand. The alphabet
// covers all four complexity classes; generation retries until the result
// would itself pass ValidatePasswordComplexity.
func GenerateTempPassword() (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		b := make([]byte, tempPasswordLen)
		for i := range b {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tempPasswordChars))))
			if err != nil {
				return "", err
			}
			b[i] = tempPasswordChars[n.Int64()]
		}
		candidate := string(b)
		if ValidatePasswordComplexity(candidate) == nil {
			return candidate, nil
		}
	}
	return "", errors.New("could not generate a compliant password")
}

func ParseBoolQuery(value string) (*bool, error) {
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func ParseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Pagination clamps page/limit query values the same way everywhere.
func Pagination(pageStr, limitStr string, defaultLimit, maxLimit int) (page, limit int, skip int64) {
	page = ParseIntDefault(pageStr, 1)
	limit = ParseIntDefault(limitStr, defaultLimit)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit, int64((page - 1) * limit)
}

func EnvIntDefault(key string, def int) int {
	v := ParseIntDefault(os.Getenv(key), def)
	if v <= 0 {
		return def
	}
	return v
}
