package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/inkwell/api/internal/database"
	"github.com/inkwell/api/internal/middleware"
	"github.com/inkwell/api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// invalidateDashboard drops the cached snapshots of authorID. Failures are
// logged only, the cache entry expires on its own.
func invalidateDashboard(ctx context.Context, authorID primitive.ObjectID) {
	if err := dashboardCache.Invalidate(ctx, authorID.Hex()); err != nil {
		slog.Warn("dashboard_cache_invalidate_failed",
			"author_id", authorID.Hex(),
			"error", err.Error(),
		)
	}
}

// httpError is a failure already mapped to a response
type httpError struct {
	Status  int
	Message string
}

func (e *httpError) Error() string { return e.Message }

func (e *httpError) write(w http.ResponseWriter) {
	http.Error(w, e.Message, e.Status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// pagination reads page and limit from the query string
func pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return page, limit
}

func skip(page, limit int) int64 {
	return int64((page - 1) * limit)
}

// postFilter matches a post by ObjectID when ref parses as one, by slug otherwise
func postFilter(ref string) bson.M {
	if id, err := primitive.ObjectIDFromHex(ref); err == nil {
		return bson.M{"_id": id}
	}
	return bson.M{"slug": ref}
}

func findPost(ctx context.Context, ref string) (models.BlogPost, error) {
	var post models.BlogPost
	err := database.Posts().FindOne(ctx, postFilter(ref)).Decode(&post)
	return post, err
}

// canModify reports whether userID may edit or delete post: its author or an admin
func canModify(ctx context.Context, userID primitive.ObjectID, post models.BlogPost) bool {
	if post.AuthorID == userID {
		return true
	}
	role, err := middleware.LookupRole(ctx, userID)
	return err == nil && role == models.RoleAdmin
}

// profilesByUser loads the profiles of ids keyed by user id
func profilesByUser(ctx context.Context, ids []primitive.ObjectID) map[primitive.ObjectID]models.Profile {
	out := make(map[primitive.ObjectID]models.Profile, len(ids))
	if len(ids) == 0 {
		return out
	}

	cursor, err := database.Profiles().Find(ctx, bson.M{"user_id": bson.M{"$in": ids}})
	if err != nil {
		slog.Warn("profiles_lookup_failed", "error", err.Error())
		return out
	}
	defer cursor.Close(ctx)

	var profiles []models.Profile
	if err := cursor.All(ctx, &profiles); err != nil {
		slog.Warn("profiles_decode_failed", "error", err.Error())
		return out
	}
	for _, p := range profiles {
		out[p.UserID] = p
	}
	return out
}

func uniqueIDs[T any](items []T, key func(T) primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(items))
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, it := range items {
		id := key(it)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
