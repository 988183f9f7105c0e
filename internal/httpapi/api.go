package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TheDamage/gestion-policial-fullstack/internal/auth"
	"github.com/TheDamage/gestion-policial-fullstack/internal/obs"
)

const maxBodyBytes = 1 << 20

// ReadyProbe pings the database for readiness checks.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

type readinessChecker interface {
	Check(ctx context.Context) error
}

// API is the HTTP layer over the auth gateway.
type API struct {
	router     chi.Router
	svc        *auth.Service
	readyProbe readinessChecker
	version    string

	// Login rate limit, per client IP, independent of account lockout.
	loginRateBurst  int
	loginRatePerMin int
}

// Option configures the API.
type Option func(*API)

// WithLoginRateLimit overrides the per-IP login attempt cap.
func WithLoginRateLimit(perMinute, burst int) Option {
	return func(a *API) {
		if perMinute > 0 {
			a.loginRatePerMin = perMinute
		}
		if burst > 0 {
			a.loginRateBurst = burst
		}
	}
}

// New builds the router with the full middleware stack.
func New(svc *auth.Service, rp readinessChecker, version string, opts ...Option) *API {
	a := &API{
		svc:             svc,
		readyProbe:      rp,
		version:         version,
		loginRateBurst:  5,
		loginRatePerMin: 5,
	}
	for _, opt := range opts {
		opt(a)
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(LoggingJSON)
	r.Use(SecurityHeaders)
	r.Use(MaxBodyBytes(maxBodyBytes))

	r.Get("/api/health", a.handleHealth)
	r.Get("/readyz", a.handleReady)
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.With(RateLimit(a.loginRatePerMin, a.loginRateBurst)).
			Post("/login", a.handleLogin)
		r.Post("/refresh", a.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(a.withAuth)
			r.Post("/logout", a.handleLogout)
			r.Get("/me", a.handleMe)
			r.Post("/change-password", a.handleChangePassword)
			r.Get("/sessions", a.handleSessions)
			r.Delete("/sessions/{sessionID}", a.handleRevokeSession)
		})
	})

	a.router = r
	return a
}

// Handler returns the instrumented root handler.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.router)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "API is running",
		"version": a.version,
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
