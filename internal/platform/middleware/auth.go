package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"steeple/pkg/requestcontext"
)

// JWTValidator defines the interface for validating admin bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*AdminClaims, error)
}

// AdminClaims represents the claims we expect from the token validator.
type AdminClaims struct {
	AdminID string
	Role    string
}

// Administrative roles recognized by the role gate. Tokens are minted by the
// external auth service; this layer only checks what the token asserts.
const (
	RoleClerk = "CLERK"
	RoleElder = "ELDER"
)

// RequireAuth rejects requests without a valid bearer token and injects the
// admin identity into the context for downstream handlers and audit events.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithAdminID(ctx, claims.AdminID)
			ctx = requestcontext.WithAdminRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route to the listed roles. Must run after RequireAuth.
func RequireRole(logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := requestcontext.AdminRole(ctx)
			if _, ok := allowed[role]; !ok {
				logger.WarnContext(ctx, "forbidden - insufficient role",
					"role", role,
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"Insufficient permissions"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
