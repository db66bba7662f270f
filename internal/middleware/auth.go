package middleware

import (
	"context"
	"net/http"
	"strings"

	"textile-backend/internal/auth"
	"textile-backend/internal/storage"
)

type contextKey string

const UserIDKey contextKey = "user_id"
const EmailKey contextKey = "email"
const RoleKey contextKey = "role"

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	users      storage.UserStore
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, users storage.UserStore) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		users:      users,
	}
}

// authenticate validates the bearer token and loads the current user record.
// The database is the authority on is_active, not the token, so a suspended
// account is cut off without waiting for the token to expire.
func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		http.Error(w, "Authorization header required", http.StatusUnauthorized)
		return nil, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
		return nil, false
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return nil, false
	}

	user, err := m.users.GetUser(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusUnauthorized)
		return nil, false
	}
	if !user.IsActive {
		http.Error(w, "Account suspended. Please contact administrator.", http.StatusForbidden)
		return nil, false
	}

	ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
	ctx = context.WithValue(ctx, EmailKey, user.Email)
	ctx = context.WithValue(ctx, RoleKey, user.Role)
	return r.WithContext(ctx), true
}

// Authenticate is a middleware that validates JWT tokens
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole ensures the authenticated user has one of the allowed roles
func (m *AuthMiddleware) RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, ok := m.authenticate(w, r)
			if !ok {
				return
			}

			role, _ := GetRoleFromContext(r.Context())
			for _, allowed := range allowedRoles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Forbidden: Insufficient permissions", http.StatusForbidden)
		})
	}
}

// RequireAdmin is a middleware that ensures the user has admin role
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole("admin")(next)
}

// GetUserIDFromContext extracts user ID from request context
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}

// GetEmailFromContext extracts email from request context
func GetEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}

// GetRoleFromContext extracts role from request context
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// GetActorFromContext builds the service-layer caller identity.
func GetActorFromContext(ctx context.Context) (auth.Actor, bool) {
	userID, ok1 := GetUserIDFromContext(ctx)
	role, ok2 := GetRoleFromContext(ctx)
	return auth.Actor{UserID: userID, Role: role}, ok1 && ok2
}
