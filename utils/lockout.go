package utils

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/princinho/sahohr/models"
)

// Lockout policy decisions, kept free of I/O. The login controller pairs
// these with atomic counter updates on the users collection.

// IsLockedOut reports whether the account is currently locked and, if so,
// how many whole minutes remain (rounded up, minimum 1).
func IsLockedOut(user models.User, settings models.SecuritySettings, now time.Time) (bool, int) {
	if !settings.AccountLockingEnabled || !user.AccountLocked || user.LockUntil == nil {
		return false, 0
	}
	remaining := user.LockUntil.Sub(now)
	if remaining <= 0 {
		return false, 0
	}
	minutes := int(math.Ceil(remaining.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return true, minutes
}

// ShouldLock reports whether a failed attempt bringing the counter to
// failedCount crosses the configured threshold. The attempt that crosses
// must lock in the same step, not on the next one.
func ShouldLock(failedCount int, settings models.SecuritySettings) bool {
	return settings.AccountLockingEnabled && failedCount >= settings.MaxLoginAttempts
}

// LockEngageFilter is the update filter for (re)applying a lock: the
// counter has reached the threshold and no lock is currently running. An
// expired lockUntil does not block the write, so lockout re-engages on the
// attempt that crosses the threshold again after a lock window has passed.
// A running lock is never extended by later failed attempts.
func LockEngageFilter(userID bson.ObjectID, settings models.SecuritySettings, now time.Time) bson.M {
	return bson.M{
		"_id":                 userID,
		"failedLoginAttempts": bson.M{"$gte": settings.MaxLoginAttempts},
		"$or": []bson.M{
			{"accountLocked": false},
			{"lockUntil": bson.M{"$lt": now}},
		},
	}
}

// LockDeadline returns when a lock applied now would expire.
func LockDeadline(settings models.SecuritySettings, now time.Time) time.Time {
	return now.Add(time.Duration(settings.LockTimeMinutes) * time.Minute)
}

// SessionBindingEnforced reports whether the persisted session id must match
// the one embedded in a token for this role.
func SessionBindingEnforced(role models.Role) bool {
	return role.SessionBindingRequired
}
