package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Middleware authenticates claim API callers and enforces the role gate
// before a request reaches the claims handlers. The tenant and subject
// carried by the token travel in the request context so services can stamp
// them onto claims and audit entries.
type Middleware struct {
	Secret []byte
	Policy Policy
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(secret []byte, policy Policy) *Middleware {
	return &Middleware{Secret: secret, Policy: policy}
}

// Wrap applies authentication and RBAC to the handler.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		required, gated := m.Policy.RequiredRole(r)
		if !gated {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.authenticate(r)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !RoleAtLeast(identity.role, required) {
			writeAuthError(w, http.StatusForbidden, "forbidden")
			return
		}
		ctx := WithIdentity(r.Context(), identity.tenantID, identity.role, identity.subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type callerIdentity struct {
	tenantID string
	role     Role
	subject  string
}

func (m *Middleware) authenticate(r *http.Request) (callerIdentity, error) {
	parsed, err := ParseJWT(bearerToken(r), m.Secret)
	if err != nil {
		return callerIdentity{}, err
	}
	// An unrecognised role stays zero-valued and fails the RoleAtLeast
	// check, so the caller sees 403 rather than 401.
	role, _ := NormalizeRole(parsed.Role)
	return callerIdentity{
		tenantID: parsed.TenantID,
		role:     role,
		subject:  parsed.Subject,
	}, nil
}

// writeAuthError mirrors the JSON error shape of the claim handlers.
func writeAuthError(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": reason})
}

func bearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
