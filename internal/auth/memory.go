package auth

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local development.
// It is not meant for production use.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]*User
	roles    map[string]*Role
	perms    map[string][]Permission
	tokens   map[string]*RefreshToken
	sessions map[string]*Session
	audit    []*AuditEntry
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    map[string]*User{},
		roles:    map[string]*Role{},
		perms:    map[string][]Permission{},
		tokens:   map[string]*RefreshToken{},
		sessions: map[string]*Session{},
	}
}

var _ Store = (*MemoryStore)(nil)

// AddUser seeds an identity.
func (m *MemoryStore) AddUser(u *User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
}

// AddRole seeds a role and its permission set.
func (m *MemoryStore) AddRole(r *Role, perms []Permission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.roles[r.ID] = &cp
	m.perms[r.ID] = append([]Permission(nil), perms...)
}

func (m *MemoryStore) Users(context.Context) UserStore                 { return memUsers{m} }
func (m *MemoryStore) Roles(context.Context) RoleStore                 { return memRoles{m} }
func (m *MemoryStore) RefreshTokens(context.Context) RefreshTokenStore { return memTokens{m} }
func (m *MemoryStore) Sessions(context.Context) SessionStore           { return memSessions{m} }
func (m *MemoryStore) Audit(context.Context) AuditStore                { return memAudit{m} }

// InTx runs fn directly; the in-memory store is not transactional.
func (m *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	return fn(ctx, m)
}

type memUsers struct{ m *MemoryStore }

func (s memUsers) Find(_ context.Context, id string) (*User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s memUsers) FindByLegajo(_ context.Context, legajo string) (*User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.Legajo == legajo {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s memUsers) LockByLegajo(ctx context.Context, legajo string) (*User, error) {
	return s.FindByLegajo(ctx, legajo)
}

func (s memUsers) RecordFailure(_ context.Context, userID string, attempts int, lockedUntil *time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.FailedLoginAttempts = attempts
	u.AccountLockedUntil = lockedUntil
	return nil
}

func (s memUsers) RecordSuccess(_ context.Context, userID string, at time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.FailedLoginAttempts = 0
	u.AccountLockedUntil = nil
	u.LastLogin = &at
	return nil
}

func (s memUsers) UpdatePassword(_ context.Context, userID, passwordHash string, changedAt time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.PasswordChangedAt = &changedAt
	return nil
}

type memRoles struct{ m *MemoryStore }

func (s memRoles) Find(_ context.Context, id string) (*Role, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s memRoles) PermissionsForRole(_ context.Context, roleID string) ([]Permission, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return append([]Permission(nil), s.m.perms[roleID]...), nil
}

type memTokens struct{ m *MemoryStore }

func (s memTokens) Create(_ context.Context, tok *RefreshToken) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	cp := *tok
	s.m.tokens[tok.Token] = &cp
	return nil
}

func (s memTokens) FindActive(_ context.Context, token, userID string) (*RefreshToken, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.tokens[token]
	if !ok || t.UserID != userID || t.Revoked {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s memTokens) Revoke(_ context.Context, token, userID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if t, ok := s.m.tokens[token]; ok && t.UserID == userID {
		t.Revoked = true
	}
	return nil
}

func (s memTokens) RevokeAllForUser(_ context.Context, userID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, t := range s.m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

type memSessions struct{ m *MemoryStore }

func (s memSessions) Create(_ context.Context, sess *Session) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	cp := *sess
	s.m.sessions[sess.ID] = &cp
	return nil
}

func (s memSessions) ListActive(_ context.Context, userID string, now time.Time) ([]*Session, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []*Session
	for _, sess := range s.m.sessions {
		if sess.UserID == userID && sess.ExpiresAt.After(now) {
			cp := *sess
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s memSessions) Delete(_ context.Context, sessionID, userID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sess, ok := s.m.sessions[sessionID]
	if !ok || sess.UserID != userID {
		return ErrSessionNotFound
	}
	delete(s.m.sessions, sessionID)
	return nil
}

type memAudit struct{ m *MemoryStore }

func (s memAudit) Append(_ context.Context, entry *AuditEntry) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.audit = append(s.m.audit, entry)
	return nil
}
