package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/domain/entity"
	"github.com/schoolyard/schoolyard/infrastructure/http/response"
)

type contextKey string

const authUserKey contextKey = "auth_user"

type AuthMiddleware struct {
	tokenService outbound.TokenService
}

func NewAuthMiddleware(tokenService outbound.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		token := parts[1]
		if token == "" {
			response.Unauthorized(w, "Token cannot be empty")
			return
		}

		claims, err := m.tokenService.ValidateAccessToken(token)
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), authUserKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// RequireSuperAdmin ensures the caller is a platform admin.
func (m *AuthMiddleware) RequireSuperAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserClaims(r.Context())
		if claims == nil {
			response.Unauthorized(w, "User not authenticated")
			return
		}
		if claims.Role != string(entity.RoleSuperAdmin) {
			response.Forbidden(w, "Super admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin lets tenant admins and super admins through.
func (m *AuthMiddleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserClaims(r.Context())
		if claims == nil {
			response.Unauthorized(w, "User not authenticated")
			return
		}
		if claims.Role != string(entity.RoleAdmin) && claims.Role != string(entity.RoleSuperAdmin) {
			response.Forbidden(w, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireTenantAccess lets super admins through and restricts everyone else
// to their own tenant's data.
func (m *AuthMiddleware) RequireTenantAccess(tenantIDFromRequest func(*http.Request) string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserClaims(r.Context())
			if claims == nil {
				response.Unauthorized(w, "User not authenticated")
				return
			}
			if claims.Role == string(entity.RoleSuperAdmin) {
				next.ServeHTTP(w, r)
				return
			}
			if claims.TenantID == "" || claims.TenantID != tenantIDFromRequest(r) {
				response.Forbidden(w, "Access denied. You can only access your own tenant data.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetUserClaims(ctx context.Context) *outbound.TokenClaims {
	claims, _ := ctx.Value(authUserKey).(*outbound.TokenClaims)
	return claims
}
