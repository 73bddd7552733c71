package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bactolab/lims/internal/core/domain"
)

func queryContext(e *echo.Echo, target string) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec), rec
}

func TestAuthzHandler_Check(t *testing.T) {
	cases := []struct {
		role    domain.Role
		query   string
		allowed bool
	}{
		{domain.RoleLabAssistant, "resource=results&action=validate", false},
		{domain.RoleBioanalyst, "resource=results&action=validate", true},
		{domain.RoleAdmin, "resource=SETTINGS&action=Manage", true},
		{domain.RoleBioanalyst, "resource=settings&action=manage", false},
	}
	for _, tc := range cases {
		e := newEcho()
		c, rec := queryContext(e, "/v1/authz/check?"+tc.query)
		c = withIdentity(c, domain.Identity{UserID: "u-1", Role: tc.role})

		if err := NewAuthzHandler(nil).Check(c); err != nil {
			t.Fatalf("%s %s: handler error: %v", tc.role, tc.query, err)
		}
		var resp checkResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if resp.Allowed != tc.allowed || resp.Role != tc.role {
			t.Fatalf("%s %s: unexpected response %+v", tc.role, tc.query, resp)
		}
	}
}

func TestAuthzHandler_Check_RejectsUnknownValues(t *testing.T) {
	e := newEcho()
	c, _ := queryContext(e, "/v1/authz/check?resource=invoices&action=read")
	c = withIdentity(c, domain.Identity{UserID: "u-1", Role: domain.RoleAdmin})

	if code := statusOf(NewAuthzHandler(nil).Check(c)); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
}

func TestAuthzHandler_Check_Unauthenticated(t *testing.T) {
	e := newEcho()
	c, _ := queryContext(e, "/v1/authz/check?resource=samples&action=read")

	if err := NewAuthzHandler(nil).Check(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
