package auth

import "time"

// User is an authenticated principal of the internal administrative API.
// Credentials are looked up by legajo, the force-wide personnel number.
type User struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Nombre              string     `json:"nombre"`
	Apellido            string     `json:"apellido"`
	Legajo              string     `json:"legajo"`
	Rango               string     `json:"rango"`
	Area                string     `json:"area"`
	RoleID              *string    `json:"-"`
	Activo              bool       `json:"activo"`
	FailedLoginAttempts int        `json:"-"`
	AccountLockedUntil  *time.Time `json:"-"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
	PasswordChangedAt   *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Role groups permissions under a unique name. The names "admin" and
// "superadmin" are reserved and grant every permission implicitly.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Permission is a flat, dot-namespaced capability such as
// "capacitaciones.crear".
type Permission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RefreshToken is the persisted ledger row for an issued refresh token.
// The token column stores the signed JWT verbatim.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Revoked   bool      `json:"revoked"`
}

// Session tracks a login instance (device/IP) with a lifecycle
// independent of the refresh token issued alongside it.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// AuditEntry is an append-only record of a security-relevant action.
type AuditEntry struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id,omitempty"`
	Accion    string         `json:"accion"`
	Modulo    string         `json:"modulo"`
	Detalles  map[string]any `json:"detalles,omitempty"`
	IPAddress string         `json:"ip_address,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
