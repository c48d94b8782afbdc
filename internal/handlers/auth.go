package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/inkwell/api/internal/analytics"
	"github.com/inkwell/api/internal/config"
	"github.com/inkwell/api/internal/database"
	"github.com/inkwell/api/internal/middleware"
	"github.com/inkwell/api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const minPasswordLength = 6

// Register godoc
// @Summary Register
// @Description Creates an account and its author profile
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration"
// @Success 201 {object} models.AuthResponse
// @Failure 400 {string} string "Invalid request body"
// @Failure 409 {string} string "Email already exists"
// @Router /auth/register [post]
func Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if msg := validateRegistration(&req); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	n, err := database.Users().CountDocuments(ctx, bson.M{"email": req.Email})
	if err != nil {
		http.Error(w, "Error checking email", http.StatusInternalServerError)
		return
	}
	if n > 0 {
		http.Error(w, "Email already exists", http.StatusConflict)
		return
	}

	passwordHash, err := models.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Error processing password", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Email:        req.Email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}
	if _, err := database.Users().InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			http.Error(w, "Email already exists", http.StatusConflict)
			return
		}
		http.Error(w, "Error creating user", http.StatusInternalServerError)
		return
	}

	profile := newProfile(user.ID, req.Name, now)
	if _, err := database.Profiles().InsertOne(ctx, profile); err != nil {
		// roll back so the email can be registered again
		database.Users().DeleteOne(ctx, bson.M{"_id": user.ID})
		slog.Error("profile_create_failed", "user_id", user.ID.Hex(), "error", err.Error())
		http.Error(w, "Error creating profile", http.StatusInternalServerError)
		return
	}

	token, err := issueToken(user)
	if err != nil {
		http.Error(w, "Error generating token", http.StatusInternalServerError)
		return
	}

	middleware.IncUserRegistered()
	slog.Info("user_registered",
		"user_id", user.ID.Hex(),
		"email", user.Email,
	)

	writeJSON(w, http.StatusCreated, models.AuthResponse{
		User:    user.ToResponse(),
		Profile: profile,
		Token:   token,
	})
}

// validateRegistration normalizes req in place and returns a message for the
// first invalid field.
func validateRegistration(req *models.RegisterRequest) string {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if req.Email == "" || req.Password == "" || req.Name == "" {
		return "Email, password and name are required"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "Invalid email address"
	}
	if len(req.Password) < minPasswordLength {
		return "Password must be at least 6 characters"
	}
	return ""
}

func newProfile(userID primitive.ObjectID, name string, now time.Time) models.Profile {
	return models.Profile{
		ID:     primitive.NewObjectID(),
		UserID: userID,
		Name:   name,
		Role:   models.RoleAuthor,
		Settings: models.ProfileSettings{
			Theme:              "system",
			Language:           "en",
			EmailNotifications: true,
			DashboardRange:     string(analytics.DefaultRange),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Login godoc
// @Summary Login
// @Description Authenticates with email and password and returns a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {string} string "Invalid request body"
// @Failure 401 {string} string "Invalid credentials"
// @Router /auth/login [post]
func Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := database.Users().FindOne(ctx, bson.M{"email": req.Email}).Decode(&user); err != nil {
		middleware.IncLoginFailed()
		slog.Warn("login_failed", "reason", "user_not_found", "email", req.Email)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if !models.CheckPassword(req.Password, user.PasswordHash) {
		middleware.IncLoginFailed()
		slog.Warn("login_failed", "reason", "invalid_password", "user_id", user.ID.Hex())
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	profile, err := loadProfile(ctx, user.ID)
	if err != nil {
		http.Error(w, "Profile not found", http.StatusInternalServerError)
		return
	}

	token, err := issueToken(user)
	if err != nil {
		http.Error(w, "Error generating token", http.StatusInternalServerError)
		return
	}

	middleware.IncLoginSuccess()
	slog.Info("user_login", "user_id", user.ID.Hex())

	json.NewEncoder(w).Encode(models.AuthResponse{
		User:    user.ToResponse(),
		Profile: profile,
		Token:   token,
	})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.AuthResponse
// @Failure 401 {string} string "Unauthorized"
// @Router /auth/me [get]
func Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == primitive.NilObjectID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := database.Users().FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	profile, err := loadProfile(ctx, userID)
	if err != nil {
		http.Error(w, "Profile not found", http.StatusNotFound)
		return
	}

	// no token on /me
	json.NewEncoder(w).Encode(models.AuthResponse{User: user.ToResponse(), Profile: profile})
}

func loadProfile(ctx context.Context, userID primitive.ObjectID) (models.Profile, error) {
	var profile models.Profile
	err := database.Profiles().FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	return profile, err
}

func issueToken(user models.User) (string, error) {
	cfg := config.Get()
	return middleware.IssueToken(user.ID, user.Email, cfg.JWTSecret, cfg.JWTExpiry)
}
