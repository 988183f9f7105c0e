package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/TheDamage/gestion-policial-fullstack/internal/audit"
	"github.com/TheDamage/gestion-policial-fullstack/internal/auth"
	"github.com/TheDamage/gestion-policial-fullstack/internal/obs"

	"github.com/go-chi/chi/v5"
)

type loginRequest struct {
	Legajo     string         `json:"legajo"`
	Password   string         `json:"password"`
	DeviceInfo map[string]any `json:"device_info,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "Cuerpo de la solicitud inválido")
		return
	}
	if strings.TrimSpace(req.Legajo) == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "legajo y password son requeridos")
		return
	}

	result, err := a.svc.Login(r.Context(), auth.LoginInput{
		Legajo:    req.Legajo,
		Password:  req.Password,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		obs.CountLogin(loginOutcome(err))
		if errors.Is(err, auth.ErrAccountLocked) {
			obs.CountLockout()
		}
		writeAuthError(w, r, err)
		return
	}

	obs.CountLogin("admitted")
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id": result.User.ID,
		"legajo":  result.User.Legajo,
	})
	writeSuccess(w, r, result, "Login exitoso")
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, auth.ErrAccountLocked):
		return "locked"
	case errors.Is(err, auth.ErrUserInactive):
		return "inactive"
	default:
		return "denied"
	}
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "Cuerpo de la solicitud inválido")
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "refresh_token es requerido")
		return
	}

	result, err := a.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	writeSuccess(w, r, result, "Token renovado exitosamente")
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	// An empty body is a valid no-op logout.
	var req logoutRequest
	_ = decodeJSON(r, &req)

	if err := a.svc.Logout(r.Context(), userID, req.RefreshToken); err != nil {
		writeAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	writeSuccess(w, r, nil, "Logout exitoso")
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	profile, err := a.svc.Me(r.Context(), userID)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	writeSuccess(w, r, profile, "")
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "Cuerpo de la solicitud inválido")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "old_password y new_password son requeridos")
		return
	}
	// The new-password policy is enforced here at the boundary, before
	// the gateway sees the request.
	if err := auth.ValidateNewPassword(req.NewPassword); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, err.Error())
		return
	}

	if err := a.svc.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		writeAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.change_password", nil)
	writeSuccess(w, r, nil, "Contraseña cambiada exitosamente")
}

func (a *API) handleSessions(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	sessions, err := a.svc.Sessions(r.Context(), userID)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []*auth.Session{}
	}
	writeSuccess(w, r, map[string]any{"sessions": sessions}, "")
}

func (a *API) handleRevokeSession(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	if err := a.svc.RevokeSession(r.Context(), userID, sessionID); err != nil {
		writeAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.session_revoked", map[string]any{"session_id": sessionID})
	writeSuccess(w, r, nil, "Sesión revocada exitosamente")
}
