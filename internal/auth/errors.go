package auth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrAccountLocked      = errors.New("auth: account locked")
	ErrUserInactive       = errors.New("auth: user inactive")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrInvalidPassword    = errors.New("auth: invalid password")
	ErrSessionNotFound    = errors.New("auth: session not found")
	ErrForbidden          = errors.New("auth: insufficient permissions")
	ErrNotFound           = errors.New("auth: not found")
	ErrInvalidInput       = errors.New("auth: invalid input")
)

// LockedError reports an active lockout together with the remaining
// minutes, derived at evaluation time and never stored.
type LockedError struct {
	RemainingMinutes int
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("auth: account locked for %d more minutes", e.RemainingMinutes)
}

// Is makes LockedError match ErrAccountLocked in errors.Is chains.
func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
