package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/inkwell/api/internal/database"
	"github.com/inkwell/api/internal/middleware"
	"github.com/inkwell/api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListUsers godoc
// @Summary List users
// @Description Paginated list of every user with its profile. Admin only.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param search query string false "Search by name"
// @Param role query string false "Role filter (admin, author, user)"
// @Success 200 {object} models.UserListResponse
// @Failure 401 {string} string "Unauthorized"
// @Failure 403 {string} string "Forbidden"
// @Router /users [get]
func ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)

	filter := bson.M{}
	if role := r.URL.Query().Get("role"); role != "" {
		filter["role"] = role
	}
	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	total, err := database.Profiles().CountDocuments(ctx, filter)
	if err != nil {
		http.Error(w, "Error counting users", http.StatusInternalServerError)
		return
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip(page, limit)).
		SetLimit(int64(limit))
	cursor, err := database.Profiles().Find(ctx, filter, opts)
	if err != nil {
		http.Error(w, "Error fetching users", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var profiles []models.Profile
	if err := cursor.All(ctx, &profiles); err != nil {
		http.Error(w, "Error decoding users", http.StatusInternalServerError)
		return
	}

	emails := emailsByUser(ctx, uniqueIDs(profiles, func(p models.Profile) primitive.ObjectID { return p.UserID }))

	items := make([]models.UserListItem, len(profiles))
	for i, p := range profiles {
		items[i] = userListItem(p, emails[p.UserID])
	}

	json.NewEncoder(w).Encode(models.UserListResponse{
		Users: items,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func emailsByUser(ctx context.Context, ids []primitive.ObjectID) map[primitive.ObjectID]string {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out
	}
	cursor, err := database.Users().Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"email": 1}))
	if err != nil {
		slog.Warn("user_emails_failed", "error", err.Error())
		return out
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return out
	}
	for _, u := range users {
		out[u.ID] = u.Email
	}
	return out
}

func userListItem(p models.Profile, email string) models.UserListItem {
	return models.UserListItem{
		ID:        p.UserID,
		Email:     email,
		Name:      p.Name,
		Avatar:    p.Avatar,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
	}
}

// UpdateUserRole godoc
// @Summary Change a user's role
// @Description Admin only. An admin cannot demote themselves.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body models.UpdateUserRoleRequest true "New role"
// @Success 200 {object} models.UserListItem
// @Failure 400 {string} string "Invalid request"
// @Failure 401 {string} string "Unauthorized"
// @Failure 403 {string} string "Forbidden"
// @Failure 404 {string} string "User not found"
// @Router /users/{id}/role [put]
func UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r)
	if adminID == primitive.NilObjectID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	targetID, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var req models.UpdateUserRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !models.ValidRole(req.Role) {
		http.Error(w, "Role must be 'admin', 'author' or 'user'", http.StatusBadRequest)
		return
	}
	if targetID == adminID && req.Role != models.RoleAdmin {
		http.Error(w, "Admins cannot demote themselves", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var profile models.Profile
	err = database.Profiles().FindOneAndUpdate(ctx,
		bson.M{"user_id": targetID},
		bson.M{"$set": bson.M{"role": req.Role, "updated_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Error updating role", http.StatusInternalServerError)
		return
	}

	slog.Info("user_role_updated",
		"target_user_id", targetID.Hex(),
		"new_role", req.Role,
		"admin_id", adminID.Hex(),
	)

	json.NewEncoder(w).Encode(userListItem(profile, emailsByUser(ctx, []primitive.ObjectID{targetID})[targetID]))
}
