package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultSessionTTL = 24 * time.Hour

// Service is the auth gateway: it composes the credential store,
// lockout policy, token issuer, ledgers and resolver into the login,
// refresh, logout and password-change operations.
type Service struct {
	store      Store
	issuer     *TokenIssuer
	resolver   *Resolver
	sessionTTL time.Duration
	now        func() time.Time
	// auditLog receives append failures; audit must never abort the
	// operation that triggered it.
	auditLog func(event string, err error)
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithSessionTTL overrides the session lifetime recorded at login.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithAuditFailureLog sets the sink for audit append failures.
func WithAuditFailureLog(fn func(event string, err error)) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.auditLog = fn
		}
	}
}

// NewService wires the gateway.
func NewService(store Store, issuer *TokenIssuer, resolver *Resolver, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if issuer == nil {
		return nil, errors.New("auth: token issuer is required")
	}
	if resolver == nil {
		return nil, errors.New("auth: resolver is required")
	}
	s := &Service{
		store:      store,
		issuer:     issuer,
		resolver:   resolver,
		sessionTTL: defaultSessionTTL,
		now:        time.Now,
		auditLog:   func(string, error) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// LoginInput carries the parsed login request plus client metadata for
// the session row.
type LoginInput struct {
	Legajo    string
	Password  string
	IPAddress string
	UserAgent string
}

// UserProfile is the identity payload returned by login and me.
type UserProfile struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Nombre      string   `json:"nombre"`
	Apellido    string   `json:"apellido"`
	Legajo      string   `json:"legajo"`
	Rango       string   `json:"rango"`
	Area        string   `json:"area"`
	Activo      bool     `json:"activo"`
	LastLogin   *string  `json:"last_login"`
	Role        *Role    `json:"role,omitempty"`
	Permissions []string `json:"permissions"`
}

// LoginResult is the admitted-login response.
type LoginResult struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserProfile `json:"user"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`
}

// RefreshResult carries the renewed access token.
type RefreshResult struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Login runs the credential state machine inside one transaction so a
// crash cannot leave a counter incremented without its lockout stamp,
// or a token issued without its ledger row. The user row is locked so
// concurrent failed attempts serialize.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	legajo := strings.TrimSpace(in.Legajo)
	if legajo == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	var (
		result   *LoginResult
		loginErr error
		actorID  string
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		user, err := tx.Users(ctx).LockByLegajo(ctx, legajo)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Unknown legajo is indistinguishable from a bad password.
				loginErr = ErrInvalidCredentials
				return nil
			}
			return err
		}
		actorID = user.ID
		now := s.now().UTC()

		if IsLocked(user, now) {
			// No password comparison while locked: the outcome must not
			// leak whether the lockout would have reset.
			loginErr = &LockedError{RemainingMinutes: LockoutRemaining(user, now)}
			return nil
		}

		if VerifyPassword(user.PasswordHash, in.Password) != nil {
			attempts := user.FailedLoginAttempts + 1
			var lockedUntil *time.Time
			if attempts >= LockoutThreshold {
				until := now.Add(LockoutDuration)
				lockedUntil = &until
			}
			if err := tx.Users(ctx).RecordFailure(ctx, user.ID, attempts, lockedUntil); err != nil {
				return err
			}
			if lockedUntil != nil {
				loginErr = &LockedError{RemainingMinutes: int(LockoutDuration / time.Minute)}
			} else {
				loginErr = ErrInvalidCredentials
			}
			return nil
		}

		if !user.Activo {
			loginErr = ErrUserInactive
			return nil
		}

		if err := tx.Users(ctx).RecordSuccess(ctx, user.ID, now); err != nil {
			return err
		}
		user.FailedLoginAttempts = 0
		user.AccountLockedUntil = nil
		user.LastLogin = &now

		accessToken, _, err := s.issuer.IssueAccessToken(user.ID)
		if err != nil {
			return err
		}
		refreshToken, refreshExp, err := s.issuer.IssueRefreshToken(user.ID)
		if err != nil {
			return err
		}
		if err := tx.RefreshTokens(ctx).Create(ctx, &RefreshToken{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			Token:     refreshToken,
			ExpiresAt: refreshExp,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		if err := tx.Sessions(ctx).Create(ctx, &Session{
			ID:           uuid.NewString(),
			UserID:       user.ID,
			IPAddress:    in.IPAddress,
			UserAgent:    in.UserAgent,
			ExpiresAt:    now.Add(s.sessionTTL),
			CreatedAt:    now,
			LastActivity: now,
		}); err != nil {
			return err
		}

		principal, err := s.resolver.Resolve(ctx, user)
		if err != nil {
			return err
		}
		result = &LoginResult{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			User:         s.profile(principal),
			ExpiresIn:    int(s.issuer.AccessTTL() / time.Second),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if loginErr != nil {
		s.appendAudit(ctx, actorID, "login_fallido", in, map[string]any{"legajo": legajo, "error": loginErr.Error()})
		return nil, loginErr
	}
	s.appendAudit(ctx, actorID, "login", in, map[string]any{"legajo": legajo})
	return result, nil
}

// Refresh exchanges a valid, still-usable refresh token for a new
// access token. The refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	claims, err := s.issuer.Verify(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users(ctx).Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserInactive
		}
		return nil, err
	}
	if !user.Activo {
		return nil, ErrUserInactive
	}

	record, err := s.store.RefreshTokens(ctx).FindActive(ctx, refreshToken, user.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if record.ExpiresAt.Before(s.now().UTC()) {
		return nil, ErrTokenExpired
	}

	accessToken, _, err := s.issuer.IssueAccessToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{
		AccessToken: accessToken,
		ExpiresIn:   int(s.issuer.AccessTTL() / time.Second),
	}, nil
}

// Logout revokes the supplied refresh token scoped to the caller. A
// missing refresh token is a successful no-op; the session row is left
// untouched (see DESIGN.md on the session/token asymmetry).
func (s *Service) Logout(ctx context.Context, userID, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	if err := s.store.RefreshTokens(ctx).Revoke(ctx, refreshToken, userID); err != nil {
		return err
	}
	s.appendAudit(ctx, userID, "logout", LoginInput{}, nil)
	return nil
}

// ChangePassword verifies the current password, rehashes and revokes
// every refresh token for the identity in one transaction. Outstanding
// access tokens stay valid until their own expiry.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	var opErr error
	err := s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		user, err := tx.Users(ctx).Find(ctx, userID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				opErr = ErrUserNotFound
				return nil
			}
			return err
		}
		if VerifyPassword(user.PasswordHash, oldPassword) != nil {
			opErr = ErrInvalidPassword
			return nil
		}
		hash, err := HashPassword(newPassword)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if err := tx.Users(ctx).UpdatePassword(ctx, userID, hash, now); err != nil {
			return err
		}
		return tx.RefreshTokens(ctx).RevokeAllForUser(ctx, userID)
	})
	if err != nil {
		return err
	}
	if opErr != nil {
		return opErr
	}
	s.appendAudit(ctx, userID, "cambio_password", LoginInput{}, nil)
	return nil
}

// Authenticate validates an access token and resolves its principal.
// Used by the transport middleware on every authenticated request.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (Principal, error) {
	claims, err := s.issuer.Verify(accessToken, TokenTypeAccess)
	if err != nil {
		return Principal{}, err
	}
	user, err := s.store.Users(ctx).Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrInvalidToken
		}
		return Principal{}, err
	}
	if !user.Activo {
		return Principal{}, ErrUserInactive
	}
	return s.resolver.Resolve(ctx, user)
}

// Me returns the profile for an authenticated user id.
func (s *Service) Me(ctx context.Context, userID string) (*UserProfile, error) {
	user, err := s.store.Users(ctx).Find(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.Activo {
		return nil, ErrUserInactive
	}
	principal, err := s.resolver.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}
	profile := s.profile(principal)
	return &profile, nil
}

// Sessions lists the caller's active sessions, newest first.
func (s *Service) Sessions(ctx context.Context, userID string) ([]*Session, error) {
	return s.store.Sessions(ctx).ListActive(ctx, userID, s.now().UTC())
}

// RevokeSession deletes one of the caller's sessions. Sessions owned by
// another identity surface as not found.
func (s *Service) RevokeSession(ctx context.Context, userID, sessionID string) error {
	if err := s.store.Sessions(ctx).Delete(ctx, sessionID, userID); err != nil {
		return err
	}
	s.appendAudit(ctx, userID, "revocar_sesion", LoginInput{}, map[string]any{"session_id": sessionID})
	return nil
}

// HasPermission re-resolves the identity and evaluates one permission.
func (s *Service) HasPermission(ctx context.Context, userID, permission string) (bool, error) {
	user, err := s.store.Users(ctx).Find(ctx, userID)
	if err != nil {
		return false, err
	}
	principal, err := s.resolver.Resolve(ctx, user)
	if err != nil {
		return false, err
	}
	return principal.HasPermission(permission), nil
}

func (s *Service) profile(p Principal) UserProfile {
	var lastLogin *string
	if p.User.LastLogin != nil {
		v := p.User.LastLogin.UTC().Format(time.RFC3339)
		lastLogin = &v
	}
	return UserProfile{
		ID:          p.User.ID,
		Username:    p.User.Username,
		Email:       p.User.Email,
		Nombre:      p.User.Nombre,
		Apellido:    p.User.Apellido,
		Legajo:      p.User.Legajo,
		Rango:       p.User.Rango,
		Area:        p.User.Area,
		Activo:      p.User.Activo,
		LastLogin:   lastLogin,
		Role:        p.Role,
		Permissions: p.Permissions.List(),
	}
}

// appendAudit persists a security event. Failures are reported to the
// configured sink and never abort the triggering operation.
func (s *Service) appendAudit(ctx context.Context, userID, accion string, in LoginInput, detalles map[string]any) {
	entry := &AuditEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Accion:    accion,
		Modulo:    "auth",
		Detalles:  detalles,
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
		Timestamp: s.now().UTC(),
	}
	if err := s.store.Audit(ctx).Append(ctx, entry); err != nil {
		s.auditLog(accion, err)
	}
}
