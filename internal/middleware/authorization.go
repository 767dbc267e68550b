package middleware

import (
	"context"
	"net/http"

	"autoparts/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserLookup loads the stored account behind a token
type UserLookup interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// RequireAdmin lets only admins through. With a non-nil lookup the role is
// read from storage on every request, so a demotion takes effect before the
// token expires.
func RequireAdmin(users UserLookup, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRole(r.Context())
			if !ok {
				logger.Warn("Role not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			if users != nil {
				rawID, _ := GetUserID(r.Context())
				id, err := uuid.Parse(rawID)
				if err != nil {
					RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
					return
				}
				user, err := users.GetUserByID(r.Context(), id)
				if err != nil {
					logger.Warn("Admin check could not load user", zap.String("user_id", rawID), zap.Error(err))
					RespondWithError(w, http.StatusUnauthorized, "user not found")
					return
				}
				role = user.Role
			}

			if role != domain.RoleAdmin {
				logger.Warn("Non-admin user attempted to access admin endpoint",
					zap.String("role", role),
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole middleware ensures the user has one of the specified roles
func RequireRole(allowedRoles []string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRole(r.Context())
			if !ok {
				logger.Warn("Role not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			for _, allowedRole := range allowedRoles {
				if role == allowedRole {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("User role not authorized",
				zap.String("role", role),
				zap.Strings("allowed_roles", allowedRoles),
			)
			RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}
