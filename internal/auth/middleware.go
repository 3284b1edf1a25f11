package auth

import (
	"net/http"
	"strings"
)

// Middleware authenticates decline API requests and checks each route's
// action and well scope against the token.
type Middleware struct {
	Secret []byte
	Policy Policy
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(secret []byte, policy Policy) *Middleware {
	return &Middleware{Secret: secret, Policy: policy}
}

// Wrap applies auth to the handler. A nil middleware passes requests through.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		route, ok := m.Policy.Resolve(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := ParseJWT(bearerToken(r), m.Secret)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		role, _ := ParseRole(claims.Role)
		if !role.Can(route.Action) {
			http.Error(w, "forbidden: "+string(route.Action), http.StatusForbidden)
			return
		}
		if route.WellID != "" && !claims.CoversWell(route.WellID) {
			http.Error(w, "forbidden: well "+route.WellID+" outside token scope", http.StatusForbidden)
			return
		}
		ctx := WithIdentity(r.Context(), Identity{Subject: claims.Subject, Role: role, Wells: claims.Wells})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
