package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/inkwell/api/internal/database"
	"github.com/inkwell/api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type roleContextKey string

const UserRoleKey roleContextKey = "userRole"

// LookupRole resolves the role stored on a user's profile
var LookupRole = func(ctx context.Context, userID primitive.ObjectID) (string, error) {
	var profile models.Profile
	err := database.Profiles().FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if err != nil {
		return "", err
	}
	if profile.Role == "" {
		return models.RoleAuthor, nil
	}
	return profile.Role, nil
}

// GetUserRole extracts the user role from request context
func GetUserRole(r *http.Request) string {
	role, _ := r.Context().Value(UserRoleKey).(string)
	return role
}

// IsAdmin reports whether the request was authorized with the admin role.
// Only set on routes behind RequireRole.
func IsAdmin(r *http.Request) bool {
	return GetUserRole(r) == models.RoleAdmin
}

// RequireRole returns a middleware that checks if the authenticated user
// has one of the allowed roles. Must be used after Auth middleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	required := strings.Join(roles, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r)
			if userID == primitive.NilObjectID {
				writeRoleError(w, http.StatusUnauthorized, map[string]string{
					"message": "Unauthorized: user not identified",
				})
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			role, err := LookupRole(ctx, userID)
			if err != nil {
				slog.Warn("role_check_failed",
					"reason", "profile_not_found",
					"user_id", userID.Hex(),
					"error", err.Error(),
				)
				writeRoleError(w, http.StatusForbidden, map[string]string{
					"message": "Profile not found for this user",
				})
				return
			}

			if !allowed[role] {
				slog.Warn("role_check_failed",
					"reason", "insufficient_role",
					"user_id", userID.Hex(),
					"current_role", role,
					"required_roles", required,
				)
				writeRoleError(w, http.StatusForbidden, map[string]string{
					"message":        "Forbidden: insufficient permissions",
					"current_role":   role,
					"required_roles": required,
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UserRoleKey, role)))
		})
	}
}

func writeRoleError(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
