package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/adspotmarket/adspot-backend/pkg/enums"
)

func requestWithSubject(role enums.UserRole) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := WithUserID(req.Context(), uuid.NewString())
	ctx = WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func TestRequireRolesAllowsListedRole(t *testing.T) {
	handler := RequireRoles(nil, enums.UserRoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, requestWithSubject(enums.UserRoleAdmin))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRequireRolesRejectsOtherRole(t *testing.T) {
	handler := RequireRoles(nil, enums.UserRoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, requestWithSubject(enums.UserRoleOwner))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRequireRolesRejectsMissingSubject(t *testing.T) {
	handler := RequireRoles(nil, enums.UserRoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRequireStaffAcceptsBothStaffRoles(t *testing.T) {
	handler := RequireStaff(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, role := range []enums.UserRole{enums.UserRoleAdmin, enums.UserRoleSubAdmin} {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, requestWithSubject(role))
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", role, resp.Code)
		}
	}

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, requestWithSubject(enums.UserRoleUser))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for plain user got %d", resp.Code)
	}
}
