package utils

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/princinho/sahohr/models"
)

func lockingSettings() models.SecuritySettings {
	return models.SecuritySettings{
		MaxLoginAttempts:      3,
		LockTimeMinutes:       1,
		AccountLockingEnabled: true,
	}
}

func TestIsLockedOut(t *testing.T) {
	now := time.Now().UTC()
	future := now.Add(90 * time.Second)
	past := now.Add(-time.Minute)

	cases := []struct {
		name        string
		user        models.User
		settings    models.SecuritySettings
		wantLocked  bool
		wantMinutes int
	}{
		{
			name:        "locked with time remaining",
			user:        models.User{AccountLocked: true, LockUntil: &future},
			settings:    lockingSettings(),
			wantLocked:  true,
			wantMinutes: 2,
		},
		{
			name:     "lock elapsed",
			user:     models.User{AccountLocked: true, LockUntil: &past},
			settings: lockingSettings(),
		},
		{
			name:     "not locked",
			user:     models.User{},
			settings: lockingSettings(),
		},
		{
			name: "locking disabled ignores flag",
			user: models.User{AccountLocked: true, LockUntil: &future},
			settings: models.SecuritySettings{
				MaxLoginAttempts: 3,
				LockTimeMinutes:  1,
			},
		},
		{
			name:     "locked without deadline",
			user:     models.User{AccountLocked: true},
			settings: lockingSettings(),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			locked, minutes := IsLockedOut(tc.user, tc.settings, now)
			if locked != tc.wantLocked {
				t.Errorf("locked = %v, want %v", locked, tc.wantLocked)
			}
			if minutes != tc.wantMinutes {
				t.Errorf("minutes = %d, want %d", minutes, tc.wantMinutes)
			}
		})
	}
}

func TestShouldLockAtThreshold(t *testing.T) {
	settings := lockingSettings()

	if ShouldLock(2, settings) {
		t.Error("locked below threshold")
	}
	// The attempt that reaches the threshold locks in the same step.
	if !ShouldLock(3, settings) {
		t.Error("did not lock at threshold")
	}
	if !ShouldLock(4, settings) {
		t.Error("did not lock above threshold")
	}

	settings.AccountLockingEnabled = false
	if ShouldLock(10, settings) {
		t.Error("locked with locking disabled")
	}
}

func TestLockDeadline(t *testing.T) {
	now := time.Now().UTC()
	settings := lockingSettings()
	settings.LockTimeMinutes = 5

	got := LockDeadline(settings, now)
	if want := now.Add(5 * time.Minute); !got.Equal(want) {
		t.Errorf("deadline = %v, want %v", got, want)
	}
}

// A lock whose deadline has passed must not block the next lock write:
// after a lock expires, further failed attempts past the threshold have to
// re-engage lockout with a fresh deadline instead of matching nothing.
func TestLockEngageFilterReengagesAfterExpiry(t *testing.T) {
	now := time.Now().UTC()
	id := bson.NewObjectID()

	filter := LockEngageFilter(id, lockingSettings(), now)

	if filter["_id"] != id {
		t.Errorf("_id = %v, want %v", filter["_id"], id)
	}
	threshold, ok := filter["failedLoginAttempts"].(bson.M)
	if !ok || threshold["$gte"] != 3 {
		t.Fatalf("failedLoginAttempts condition = %v, want $gte 3", filter["failedLoginAttempts"])
	}

	or, ok := filter["$or"].([]bson.M)
	if !ok || len(or) != 2 {
		t.Fatalf("$or = %v, want two branches", filter["$or"])
	}
	if or[0]["accountLocked"] != false {
		t.Errorf("first branch = %v, want accountLocked false", or[0])
	}
	expired, ok := or[1]["lockUntil"].(bson.M)
	if !ok {
		t.Fatalf("second branch = %v, want a lockUntil condition", or[1])
	}
	if got, ok := expired["$lt"].(time.Time); !ok || !got.Equal(now) {
		t.Errorf("lockUntil condition = %v, want $lt %v", expired, now)
	}
}

func TestSessionBindingEnforced(t *testing.T) {
	bound := models.Role{Name: "HR Manager", SessionBindingRequired: true}
	unbound := models.Role{Name: "Employee"}

	if !SessionBindingEnforced(bound) {
		t.Error("session-bound role not enforced")
	}
	if SessionBindingEnforced(unbound) {
		t.Error("unbound role enforced")
	}
}
