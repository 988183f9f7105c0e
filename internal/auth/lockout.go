package auth

import "time"

const (
	// LockoutThreshold is the number of consecutive failed attempts
	// that locks the account.
	LockoutThreshold = 5
	// LockoutDuration is how long the account stays locked once the
	// threshold is reached.
	LockoutDuration = 30 * time.Minute
)

// IsLocked reports whether the user is under an active lockout at now.
// An expired lockout deadline counts as unlocked; the row itself is
// cleared on the next successful login.
func IsLocked(u *User, now time.Time) bool {
	return u.AccountLockedUntil != nil && u.AccountLockedUntil.After(now)
}

// LockoutRemaining returns the whole minutes left on an active lockout,
// rounded up. Zero when the user is not locked.
func LockoutRemaining(u *User, now time.Time) int {
	if !IsLocked(u, now) {
		return 0
	}
	rem := u.AccountLockedUntil.Sub(now)
	mins := int((rem + time.Minute - 1) / time.Minute)
	return mins
}
