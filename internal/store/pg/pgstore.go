// Package pg implements the auth persistence contracts on PostgreSQL
// using database/sql over the pgx stdlib driver.
package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/TheDamage/gestion-policial-fullstack/internal/auth"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the same
// statement code serves pooled and transactional execution.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements auth.Store on PostgreSQL.
type Store struct {
	db *sql.DB
	q  querier
}

var _ auth.Store = (*Store)(nil)

// Open connects to PostgreSQL and tunes the pool.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return NewStore(db), nil
}

// NewStore wraps an existing connection pool (tests use sqlmock here).
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// Close releases the pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the pool for readiness probes.
func (s *Store) DB() *sql.DB { return s.db }

// InTx runs fn against a transaction-scoped store. Errors roll the
// whole transaction back.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, store auth.Store) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		// Already inside a transaction; nested calls join it.
		return fn(ctx, s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, &Store{db: s.db, q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Users(ctx context.Context) auth.UserStore                 { return &userStore{q: s.q} }
func (s *Store) Roles(ctx context.Context) auth.RoleStore                 { return &roleStore{q: s.q} }
func (s *Store) RefreshTokens(ctx context.Context) auth.RefreshTokenStore { return &tokenStore{q: s.q} }
func (s *Store) Sessions(ctx context.Context) auth.SessionStore           { return &sessionStore{q: s.q} }
func (s *Store) Audit(ctx context.Context) auth.AuditStore                { return &auditStore{q: s.q} }

// --- users ---

type userStore struct {
	q querier
}

const userColumns = `id, username, email, password_hash,
	coalesce(nombre,''), coalesce(apellido,''), coalesce(legajo,''),
	coalesce(rango,''), coalesce(area,''), role_id, activo,
	failed_login_attempts, account_locked_until, last_login,
	password_changed_at, created_at, updated_at`

func scanUser(row *sql.Row) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.Nombre, &u.Apellido, &u.Legajo, &u.Rango, &u.Area,
		&u.RoleID, &u.Activo, &u.FailedLoginAttempts, &u.AccountLockedUntil,
		&u.LastLogin, &u.PasswordChangedAt, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *userStore) Find(ctx context.Context, id string) (*auth.User, error) {
	return scanUser(s.q.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = $1`, id))
}

func (s *userStore) FindByLegajo(ctx context.Context, legajo string) (*auth.User, error) {
	return scanUser(s.q.QueryRowContext(ctx,
		`select `+userColumns+` from users where legajo = $1`, legajo))
}

func (s *userStore) LockByLegajo(ctx context.Context, legajo string) (*auth.User, error) {
	return scanUser(s.q.QueryRowContext(ctx,
		`select `+userColumns+` from users where legajo = $1 for update`, legajo))
}

func (s *userStore) RecordFailure(ctx context.Context, userID string, attempts int, lockedUntil *time.Time) error {
	_, err := s.q.ExecContext(ctx, `
		update users
		set failed_login_attempts = $2, account_locked_until = $3, updated_at = now()
		where id = $1
	`, userID, attempts, lockedUntil)
	return err
}

func (s *userStore) RecordSuccess(ctx context.Context, userID string, at time.Time) error {
	_, err := s.q.ExecContext(ctx, `
		update users
		set failed_login_attempts = 0, account_locked_until = null,
		    last_login = $2, updated_at = now()
		where id = $1
	`, userID, at)
	return err
}

func (s *userStore) UpdatePassword(ctx context.Context, userID, passwordHash string, changedAt time.Time) error {
	res, err := s.q.ExecContext(ctx, `
		update users
		set password_hash = $2, password_changed_at = $3, updated_at = now()
		where id = $1
	`, userID, passwordHash, changedAt)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// --- roles ---

type roleStore struct {
	q querier
}

func (s *roleStore) Find(ctx context.Context, id string) (*auth.Role, error) {
	var r auth.Role
	err := s.q.QueryRowContext(ctx, `
		select id, name, coalesce(description,''), created_at
		from roles where id = $1
	`, id).Scan(&r.ID, &r.Name, &r.Description, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *roleStore) PermissionsForRole(ctx context.Context, roleID string) ([]auth.Permission, error) {
	rows, err := s.q.QueryContext(ctx, `
		select p.id, p.name, coalesce(p.description,''), p.created_at
		from permissions p
		join role_permissions rp on rp.permission_id = p.id
		where rp.role_id = $1
		order by p.name
	`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []auth.Permission
	for rows.Next() {
		var p auth.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// --- refresh tokens ---

type tokenStore struct {
	q querier
}

func (s *tokenStore) Create(ctx context.Context, tok *auth.RefreshToken) error {
	_, err := s.q.ExecContext(ctx, `
		insert into refresh_tokens (id, user_id, token, expires_at, created_at, revoked)
		values ($1, $2, $3, $4, $5, false)
	`, tok.ID, tok.UserID, tok.Token, tok.ExpiresAt, tok.CreatedAt)
	return err
}

func (s *tokenStore) FindActive(ctx context.Context, token, userID string) (*auth.RefreshToken, error) {
	var t auth.RefreshToken
	err := s.q.QueryRowContext(ctx, `
		select id, user_id, token, expires_at, created_at, revoked
		from refresh_tokens
		where token = $1 and user_id = $2 and revoked = false
	`, token, userID).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt, &t.Revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *tokenStore) Revoke(ctx context.Context, token, userID string) error {
	// Idempotent: revoking a revoked or unknown token affects no rows
	// and is not an error.
	_, err := s.q.ExecContext(ctx, `
		update refresh_tokens set revoked = true
		where token = $1 and user_id = $2 and revoked = false
	`, token, userID)
	return err
}

func (s *tokenStore) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := s.q.ExecContext(ctx, `
		update refresh_tokens set revoked = true
		where user_id = $1 and revoked = false
	`, userID)
	return err
}

// --- sessions ---

type sessionStore struct {
	q querier
}

func (s *sessionStore) Create(ctx context.Context, sess *auth.Session) error {
	_, err := s.q.ExecContext(ctx, `
		insert into sesiones (id, user_id, ip_address, user_agent, expires_at, created_at, last_activity)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, sess.ID, sess.UserID, sess.IPAddress, sess.UserAgent, sess.ExpiresAt, sess.CreatedAt, sess.LastActivity)
	return err
}

func (s *sessionStore) ListActive(ctx context.Context, userID string, now time.Time) ([]*auth.Session, error) {
	rows, err := s.q.QueryContext(ctx, `
		select id, user_id, coalesce(ip_address,''), coalesce(user_agent,''),
		       expires_at, created_at, last_activity
		from sesiones
		where user_id = $1 and expires_at > $2
		order by created_at desc
	`, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*auth.Session
	for rows.Next() {
		var sess auth.Session
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.IPAddress, &sess.UserAgent,
			&sess.ExpiresAt, &sess.CreatedAt, &sess.LastActivity); err != nil {
			return nil, err
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

func (s *sessionStore) Delete(ctx context.Context, sessionID, userID string) error {
	res, err := s.q.ExecContext(ctx, `
		delete from sesiones where id = $1 and user_id = $2
	`, sessionID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

// --- audit ---

type auditStore struct {
	q querier
}

func (s *auditStore) Append(ctx context.Context, entry *auth.AuditEntry) error {
	detalles := []byte("{}")
	if len(entry.Detalles) > 0 {
		data, err := json.Marshal(entry.Detalles)
		if err != nil {
			return err
		}
		detalles = data
	}
	var userID any
	if entry.UserID != "" {
		userID = entry.UserID
	}
	_, err := s.q.ExecContext(ctx, `
		insert into audit_logs (id, user_id, accion, modulo, detalles, ip_address, user_agent, timestamp)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, userID, entry.Accion, entry.Modulo, detalles, entry.IPAddress, entry.UserAgent, entry.Timestamp)
	return err
}
