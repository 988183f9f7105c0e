package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/TheDamage/gestion-policial-fullstack/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// withAuth validates the access token and attaches the resolved
// principal to the request context.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, CodeMissingToken, "Token no proporcionado")
			return
		}

		principal, err := a.svc.Authenticate(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				writeError(w, r, http.StatusUnauthorized, CodeTokenExpired, "El token ha expirado")
			case errors.Is(err, auth.ErrInvalidToken):
				writeError(w, r, http.StatusUnauthorized, CodeInvalidToken, "Token inválido")
			case errors.Is(err, auth.ErrUserInactive):
				writeError(w, r, http.StatusForbidden, CodeUserInactive, "Usuario inactivo")
			default:
				writeError(w, r, http.StatusInternalServerError, CodeInternalError, "Error de autenticación")
			}
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission gates a route on one permission name. It is
// composed explicitly at route registration, after withAuth, and
// receives the resolved principal from the context.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				writeError(w, r, http.StatusUnauthorized, CodeMissingToken, "Token no proporcionado")
				return
			}
			if !principal.HasPermission(permission) {
				writeError(w, r, http.StatusForbidden, CodeInsufficientPerms,
					"Permiso requerido: "+permission)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
