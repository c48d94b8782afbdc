package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/inkwell/api/internal/analytics"
	"github.com/inkwell/api/internal/database"
	"github.com/inkwell/api/internal/imaging"
	"github.com/inkwell/api/internal/middleware"
	"github.com/inkwell/api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var validThemes = map[string]bool{"dark": true, "light": true, "system": true}

// GetProfile godoc
// @Summary Get my profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Profile
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "Profile not found"
// @Router /profile [get]
func GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == primitive.NilObjectID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var profile models.Profile
	if err := database.Profiles().FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile); err != nil {
		http.Error(w, "Profile not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(profile)
}

// UpdateProfile godoc
// @Summary Update my profile
// @Description Only the fields present in the body are changed
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UpdateProfileRequest true "Fields to update"
// @Success 200 {object} models.Profile
// @Failure 400 {string} string "Invalid request body"
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "Profile not found"
// @Router /profile [put]
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == primitive.NilObjectID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	set, err := profileFields(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	set["updated_at"] = time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	profile, err := updateProfile(ctx, userID, set)
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Error(w, "Profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("profile_update_failed", "user_id", userID.Hex(), "error", err.Error())
		http.Error(w, "Error updating profile", http.StatusInternalServerError)
		return
	}

	middleware.IncProfileUpdate()
	slog.Info("profile_updated",
		"user_id", userID.Hex(),
		"fields_updated", len(set)-1,
	)

	json.NewEncoder(w).Encode(profile)
}

// profileFields validates a profile update and returns its $set document
func profileFields(req models.UpdateProfileRequest) (bson.M, error) {
	set := bson.M{}
	put := func(key, value string) {
		if v := strings.TrimSpace(value); v != "" {
			set[key] = v
		}
	}

	put("name", req.Name)
	put("username", strings.ToLower(req.Username))
	put("avatar", req.Avatar)
	put("bio", req.Bio)
	put("website", req.Website)
	put("settings.language", req.Settings.Language)

	if t := req.Settings.Theme; t != "" {
		if !validThemes[t] {
			return nil, errors.New("Theme must be 'dark', 'light' or 'system'")
		}
		set["settings.theme"] = t
	}
	if rg := req.Settings.DashboardRange; rg != "" {
		if _, err := analytics.ParseRange(rg); err != nil {
			return nil, errors.New("Dashboard range must be one of 7d, 30d, 90d, 1y")
		}
		set["settings.dashboard_range"] = rg
	}
	if req.Settings.EmailNotifications != nil {
		set["settings.email_notifications"] = *req.Settings.EmailNotifications
	}
	return set, nil
}

func updateProfile(ctx context.Context, userID primitive.ObjectID, set bson.M) (models.Profile, error) {
	var profile models.Profile
	err := database.Profiles().FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&profile)
	return profile, err
}

// UploadAvatar godoc
// @Summary Upload my avatar
// @Description The picture is oriented from its EXIF data, cropped to a 256x256 square and stored as JPEG
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Avatar (JPEG, PNG or WebP, max 5MB)"
// @Success 200 {object} models.Profile
// @Failure 400 {string} string "Invalid image"
// @Failure 401 {string} string "Unauthorized"
// @Failure 413 {string} string "Image too large"
// @Router /profile/avatar [post]
func UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == primitive.NilObjectID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	img, herr := storeUpload(w, r, userID, "avatar", imaging.AvatarSpec)
	if herr != nil {
		herr.write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	profile, err := updateProfile(ctx, userID, bson.M{"avatar": imageURL(img.ID), "updated_at": time.Now()})
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Error(w, "Profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Error updating profile", http.StatusInternalServerError)
		return
	}

	middleware.IncAvatarUpload()
	slog.Info("avatar_uploaded",
		"user_id", userID.Hex(),
		"image_id", img.ID.Hex(),
		"size_bytes", img.Size,
	)

	json.NewEncoder(w).Encode(profile)
}
