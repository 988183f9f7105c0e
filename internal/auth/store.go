package auth

import (
	"context"
	"time"
)

// Store describes the persistence operations required by the auth
// subsystem. Implementations must map missing rows to ErrNotFound and
// keep every mutation inside the transaction opened by InTx when one
// is active on the context.
type Store interface {
	Users(ctx context.Context) UserStore
	Roles(ctx context.Context) RoleStore
	RefreshTokens(ctx context.Context) RefreshTokenStore
	Sessions(ctx context.Context) SessionStore
	Audit(ctx context.Context) AuditStore

	// InTx runs fn within a single transaction. The store passed to fn
	// operates on that transaction; fn returning an error rolls
	// everything back.
	InTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}

// UserStore manages identity rows and their credential bookkeeping.
type UserStore interface {
	Find(ctx context.Context, id string) (*User, error)
	FindByLegajo(ctx context.Context, legajo string) (*User, error)
	// LockByLegajo loads the row FOR UPDATE so concurrent failed-attempt
	// increments serialize. Only meaningful inside InTx.
	LockByLegajo(ctx context.Context, legajo string) (*User, error)
	// RecordFailure persists the new attempt counter and, when the
	// lockout threshold was crossed, the lockout deadline.
	RecordFailure(ctx context.Context, userID string, attempts int, lockedUntil *time.Time) error
	// RecordSuccess zeroes the counter, clears the lockout and stamps
	// the last successful login.
	RecordSuccess(ctx context.Context, userID string, at time.Time) error
	UpdatePassword(ctx context.Context, userID, passwordHash string, changedAt time.Time) error
}

// RoleStore resolves roles and their permission sets.
type RoleStore interface {
	Find(ctx context.Context, id string) (*Role, error)
	PermissionsForRole(ctx context.Context, roleID string) ([]Permission, error)
}

// RefreshTokenStore manages the refresh token ledger.
type RefreshTokenStore interface {
	Create(ctx context.Context, tok *RefreshToken) error
	// FindActive returns the non-revoked row for token scoped to userID.
	// Expiry is not filtered here; the gateway distinguishes expired
	// from revoked.
	FindActive(ctx context.Context, token, userID string) (*RefreshToken, error)
	// Revoke marks the row revoked. Revoking an already-revoked or
	// unknown token is a no-op.
	Revoke(ctx context.Context, token, userID string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// SessionStore manages login session rows.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	// ListActive returns unexpired sessions, newest first.
	ListActive(ctx context.Context, userID string, now time.Time) ([]*Session, error)
	// Delete removes the session only when it belongs to userID,
	// otherwise ErrSessionNotFound.
	Delete(ctx context.Context, sessionID, userID string) error
}

// AuditStore appends immutable entries.
type AuditStore interface {
	Append(ctx context.Context, entry *AuditEntry) error
}
