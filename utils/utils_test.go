package utils

import (
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Correct#Horse9Battery")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if err := CheckPassword(hash, "Correct#Horse9Battery"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := CheckPassword(hash, "wrong password"); err == nil {
		t.Error("wrong password accepted")
	}
}

func TestValidatePasswordComplexity(t *testing.T) {
	cases := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"compliant", "Str0ng&Secure!Pw", false},
		{"too short", "Ab1!x", true},
		{"no uppercase", "weak&secure1password", true},
		{"no lowercase", "WEAK&SECURE1PASSWORD", true},
		{"no digit", "Weak&Secure!Password", true},
		{"no special", "WeakSecure1Password", true},
		{"twelve chars exactly", "Abcdefgh1!jk", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePasswordComplexity(tc.password)
			if (err != nil) != tc.wantErr {
				t.Errorf("err = %v, wantErr = %v", err, tc.wantErr)
			}
		})
	}
}

func TestGenerateTempPasswordIsCompliant(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		pw, err := GenerateTempPassword()
		if err != nil {
			t.Fatalf("GenerateTempPassword failed: %v", err)
		}
		if err := ValidatePasswordComplexity(pw); err != nil {
			t.Fatalf("generated password %q fails complexity: %v", pw, err)
		}
		if seen[pw] {
			t.Fatalf("duplicate generated password %q", pw)
		}
		seen[pw] = true
	}
}

func TestNormalizeUsername(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Jane Doe", "jane.doe"},
		{"José Álvarez", "jose.alvarez"},
		{"  spaced  ", "spaced"},
		{"UPPER_case-ok", "upper_case-ok"},
		{"weird!!chars", "weirdchars"},
	}
	for _, tc := range cases {
		if got := NormalizeUsername(tc.in); got != tc.want {
			t.Errorf("NormalizeUsername(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPagination(t *testing.T) {
	page, limit, skip := Pagination("", "", 20, 100)
	if page != 1 || limit != 20 || skip != 0 {
		t.Errorf("defaults = (%d, %d, %d), want (1, 20, 0)", page, limit, skip)
	}

	page, limit, skip = Pagination("3", "50", 20, 100)
	if page != 3 || limit != 50 || skip != 100 {
		t.Errorf("got (%d, %d, %d), want (3, 50, 100)", page, limit, skip)
	}

	_, limit, _ = Pagination("1", "500", 20, 100)
	if limit != 100 {
		t.Errorf("limit = %d, want clamped to 100", limit)
	}

	page, _, skip = Pagination("-2", "10", 20, 100)
	if page != 1 || skip != 0 {
		t.Errorf("negative page = (%d, %d), want (1, 0)", page, skip)
	}
}

func TestActiveOnly(t *testing.T) {
	filter := ActiveOnly(nil)
	if filter["isDeleted"] != false {
		t.Error("nil filter did not gain isDeleted=false")
	}

	filter = ActiveOnly(bson.M{"email": "a@b.c"})
	if filter["isDeleted"] != false || filter["email"] != "a@b.c" {
		t.Errorf("filter = %v, want email kept and isDeleted=false", filter)
	}
}
