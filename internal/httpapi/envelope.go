package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/TheDamage/gestion-policial-fullstack/internal/audit"
	"github.com/TheDamage/gestion-policial-fullstack/internal/auth"
)

// Error codes recognized by the response envelope.
const (
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeAccountLocked       = "ACCOUNT_LOCKED"
	CodeUserInactive        = "USER_INACTIVE"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeInvalidPassword     = "INVALID_PASSWORD"
	CodeSessionNotFound     = "SESSION_NOT_FOUND"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeInsufficientPerms   = "INSUFFICIENT_PERMISSIONS"
	CodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeMissingToken        = "MISSING_TOKEN"
)

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelopeMetadata struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

type envelope struct {
	Success  bool             `json:"success"`
	Data     any              `json:"data,omitempty"`
	Message  string           `json:"message,omitempty"`
	Error    *envelopeError   `json:"error,omitempty"`
	Metadata envelopeMetadata `json:"metadata"`
}

func metadata(r *http.Request) envelopeMetadata {
	return envelopeMetadata{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: audit.RequestIDFromContext(r.Context()),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, r *http.Request, data any, message string) {
	writeJSON(w, http.StatusOK, envelope{
		Success:  true,
		Data:     data,
		Message:  message,
		Metadata: metadata(r),
	})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, envelope{
		Success:  false,
		Error:    &envelopeError{Code: code, Message: message},
		Metadata: metadata(r),
	})
}

// writeAuthError maps core sentinel errors onto the envelope taxonomy.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var locked *auth.LockedError
	switch {
	case errors.As(err, &locked):
		writeError(w, r, http.StatusForbidden, CodeAccountLocked,
			lockedMessage(locked.RemainingMinutes))
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, CodeInvalidCredentials, "Credenciales inválidas")
	case errors.Is(err, auth.ErrUserInactive):
		writeError(w, r, http.StatusForbidden, CodeUserInactive, "Usuario inactivo")
	case errors.Is(err, auth.ErrUserNotFound):
		writeError(w, r, http.StatusNotFound, CodeUserNotFound, "Usuario no encontrado")
	case errors.Is(err, auth.ErrTokenExpired):
		writeError(w, r, http.StatusUnauthorized, CodeTokenExpired, "Token expirado")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, r, http.StatusUnauthorized, CodeInvalidToken, "Token inválido o revocado")
	case errors.Is(err, auth.ErrInvalidPassword):
		writeError(w, r, http.StatusUnauthorized, CodeInvalidPassword, "Contraseña actual incorrecta")
	case errors.Is(err, auth.ErrSessionNotFound):
		writeError(w, r, http.StatusNotFound, CodeSessionNotFound, "Sesión no encontrada")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, CodeInsufficientPerms, "No tienes permisos para esta acción")
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, CodeValidationError, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, CodeInternalError, "Error interno del servidor")
	}
}

func lockedMessage(minutes int) string {
	return "Cuenta bloqueada. Intente nuevamente en " + strconv.Itoa(minutes) + " minutos"
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
