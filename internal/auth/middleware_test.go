package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(t *testing.T, handler http.Handler, method, path, token string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp.Code
}

func mustIssue(t *testing.T, role Role, wells ...string) string {
	t.Helper()
	token, err := IssueJWT(testSecret, "user-1", role, time.Hour, wells...)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestRoleGrants(t *testing.T) {
	cases := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RoleViewer, ActionReadResults, true},
		{RoleViewer, ActionRunFit, false},
		{RoleOperator, ActionRunFit, true},
		{RoleOperator, ActionTuneWell, true},
		{RoleOperator, ActionAdminister, false},
		{RoleAdmin, ActionAdminister, true},
		{Role("guest"), ActionReadResults, false},
	}
	for _, tc := range cases {
		if got := tc.role.Can(tc.action); got != tc.want {
			t.Fatalf("%s can %s: expected %v, got %v", tc.role, tc.action, tc.want, got)
		}
	}
	if role, ok := ParseRole(" Operator "); !ok || role != RoleOperator {
		t.Fatalf("expected operator, got %q %v", role, ok)
	}
}

func TestPolicyResolve(t *testing.T) {
	policy := NewDefaultPolicy("/metrics")
	cases := []struct {
		method string
		path   string
		want   Route
	}{
		{http.MethodPost, "/api/v1/decline/fits", Route{Action: ActionRunFit}},
		{http.MethodGet, "/api/v1/decline/rates", Route{Action: ActionReadResults}},
		{http.MethodGet, "/api/v1/decline/exports/summary.pdf", Route{Action: ActionReadResults}},
		{http.MethodGet, "/api/v1/decline/wells/W7/model", Route{Action: ActionReadResults, WellID: "W7"}},
		{http.MethodPut, "/api/v1/decline/wells/W7/model", Route{Action: ActionTuneWell, WellID: "W7"}},
		{http.MethodGet, "/api/v1/decline/config", Route{Action: ActionAdminister}},
		{http.MethodDelete, "/api/v1/decline/rates", Route{Action: ActionAdminister}},
	}
	for _, tc := range cases {
		got, ok := policy.Resolve(httptest.NewRequest(tc.method, tc.path, nil))
		if !ok || got != tc.want {
			t.Fatalf("%s %s: expected %+v, got %+v (ok=%v)", tc.method, tc.path, tc.want, got, ok)
		}
	}
	if _, ok := policy.Resolve(httptest.NewRequest(http.MethodGet, "/healthz", nil)); ok {
		t.Fatalf("expected paths outside the API to be unresolved")
	}
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	handler := NewMiddleware(testSecret, NewDefaultPolicy()).Wrap(okHandler())
	if code := serve(t, handler, http.MethodGet, "/api/v1/decline/rates", ""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestAuthMiddleware_ViewerCannotRunFit(t *testing.T) {
	handler := NewMiddleware(testSecret, NewDefaultPolicy()).Wrap(okHandler())
	if code := serve(t, handler, http.MethodPost, "/api/v1/decline/fits", mustIssue(t, RoleViewer)); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
	if code := serve(t, handler, http.MethodGet, "/api/v1/decline/errors", mustIssue(t, RoleViewer)); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestAuthMiddleware_OperatorTunesScopedWell(t *testing.T) {
	var got Identity
	handler := NewMiddleware(testSecret, NewDefaultPolicy()).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	token := mustIssue(t, RoleOperator, "W1", "W2")

	if code := serve(t, handler, http.MethodPut, "/api/v1/decline/wells/W1/model", token); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if got.Role != RoleOperator || got.Subject != "user-1" || len(got.Wells) != 2 {
		t.Fatalf("unexpected identity %+v", got)
	}
	if code := serve(t, handler, http.MethodPut, "/api/v1/decline/wells/W3/model", token); code != http.StatusForbidden {
		t.Fatalf("expected 403 outside well scope, got %d", code)
	}
	if code := serve(t, handler, http.MethodPut, "/api/v1/decline/wells/W3/model", mustIssue(t, RoleOperator)); code != http.StatusOK {
		t.Fatalf("expected unscoped token to cover W3, got %d", code)
	}
}

func TestAuthMiddleware_ConfigNeedsAdmin(t *testing.T) {
	handler := NewMiddleware(testSecret, NewDefaultPolicy()).Wrap(okHandler())
	if code := serve(t, handler, http.MethodGet, "/api/v1/decline/config", mustIssue(t, RoleOperator)); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
	if code := serve(t, handler, http.MethodGet, "/api/v1/decline/config", mustIssue(t, RoleAdmin)); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestAuthMiddleware_ExemptMetrics(t *testing.T) {
	handler := NewMiddleware(testSecret, NewDefaultPolicy("/metrics", "/healthz")).Wrap(okHandler())
	if code := serve(t, handler, http.MethodGet, "/metrics", ""); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	claims := Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	handler := NewMiddleware(testSecret, NewDefaultPolicy()).Wrap(okHandler())
	if code := serve(t, handler, http.MethodGet, "/api/v1/decline/errors", signed); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestNilMiddlewarePassesThrough(t *testing.T) {
	var mw *Middleware
	if code := serve(t, mw.Wrap(okHandler()), http.MethodPost, "/api/v1/decline/fits", ""); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}
