package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/TheDamage/gestion-policial-fullstack/internal/auth"
)

func principalContext(r *http.Request, perms auth.PermissionSet) *http.Request {
	p := auth.Principal{
		User:        &auth.User{ID: "u1"},
		Permissions: perms,
	}
	return r.WithContext(auth.ContextWithPrincipal(r.Context(), p))
}

func TestRequirePermissionAllows(t *testing.T) {
	handler := RequirePermission(auth.PermProtocolosVer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req = principalContext(req, auth.PermissionSet{Names: map[string]struct{}{auth.PermProtocolosVer: {}}})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRequirePermissionHonorsWildcard(t *testing.T) {
	handler := RequirePermission(auth.PermSeguridadGestionarRoles)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req = principalContext(req, auth.PermissionSet{All: true})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRequirePermissionRejectsMissingPermission(t *testing.T) {
	handler := RequirePermission(auth.PermCapacitacionesEliminar)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req = principalContext(req, auth.PermissionSet{Names: map[string]struct{}{auth.PermProtocolosVer: {}}})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestRequirePermissionRejectsMissingPrincipal(t *testing.T) {
	handler := RequirePermission(auth.PermProtocolosVer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc.def.ghi", "abc.def.ghi", true},
		{"  Bearer   abc  ", "abc", true},
		{"", "", false},
		{"Bearer ", "", false},
		{"Basic dXNlcg==", "", false},
		{"abc.def.ghi", "", false},
	}
	for _, tc := range cases {
		got, err := extractBearerToken(tc.header)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("header %q: got %q, err %v", tc.header, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("header %q: expected error", tc.header)
		}
	}
}
