package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/inkwell/api/internal/database"
	"github.com/inkwell/api/internal/middleware"
	"github.com/inkwell/api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const maxCommentLength = 2000

// reaction is a per-user toggle on a post backed by its own collection and a
// counter field on the post.
type reaction struct {
	name    string
	coll    func() *mongo.Collection
	counter string
	count   func(models.BlogPost) int64
	onAdd   func()
	onDrop  func()
}

var (
	likeReaction = reaction{
		name:    "like",
		coll:    database.PostLikes,
		counter: "like_count",
		count:   func(p models.BlogPost) int64 { return p.LikeCount },
		onAdd:   middleware.IncPostLike,
		onDrop:  middleware.IncPostUnlike,
	}
	bookmarkReaction = reaction{
		name:    "bookmark",
		coll:    database.PostBookmarks,
		counter: "bookmark_count",
		count:   func(p models.BlogPost) int64 { return p.BookmarkCount },
		onAdd:   middleware.IncPostBookmark,
		onDrop:  middleware.IncPostUnbookmark,
	}
)

// toggle removes the caller's reaction when present and adds it otherwise.
// It returns the new state and the post counter after the change.
func (rc reaction) toggle(ctx context.Context, post models.BlogPost, userID primitive.ObjectID) (bool, int64, error) {
	key := bson.M{"post_id": post.ID, "user_id": userID}

	res, err := rc.coll().DeleteOne(ctx, key)
	if err != nil {
		return false, 0, err
	}

	active, delta := false, int64(-1)
	if res.DeletedCount == 0 {
		_, err := rc.coll().InsertOne(ctx, models.PostReaction{
			ID:        primitive.NewObjectID(),
			PostID:    post.ID,
			UserID:    userID,
			CreatedAt: time.Now(),
		})
		switch {
		case mongo.IsDuplicateKeyError(err):
			// a concurrent request won the insert and already counted it
			active, delta = true, 0
		case err != nil:
			return false, 0, err
		default:
			active, delta = true, 1
		}
	}

	var updated models.BlogPost
	err = database.Posts().FindOneAndUpdate(ctx,
		bson.M{"_id": post.ID},
		bson.M{"$inc": bson.M{rc.counter: delta}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return active, 0, err
	}

	if delta > 0 {
		rc.onAdd()
	} else if delta < 0 {
		rc.onDrop()
	}
	return active, rc.count(updated), nil
}

// has reports whether userID reacted to postID
func (rc reaction) has(ctx context.Context, postID, userID primitive.ObjectID) bool {
	if userID == primitive.NilObjectID {
		return false
	}
	n, err := rc.coll().CountDocuments(ctx, bson.M{"post_id": postID, "user_id": userID}, options.Count().SetLimit(1))
	return err == nil && n > 0
}

// resolvePostBySlug finds a published post by slug
func resolvePostBySlug(ctx context.Context, slug string) (models.BlogPost, error) {
	var post models.BlogPost
	err := database.Posts().FindOne(ctx, bson.M{"slug": slug, "status": models.StatusPublished}).Decode(&post)
	return post, err
}

// publishedPost resolves the {slug} path value and answers 404 itself when
// the post does not exist.
func publishedPost(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.BlogPost, bool) {
	slug := r.PathValue("slug")
	if slug == "" {
		http.Error(w, "Slug is required", http.StatusBadRequest)
		return models.BlogPost{}, false
	}
	post, err := resolvePostBySlug(ctx, slug)
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Error(w, "Post not found", http.StatusNotFound)
		return models.BlogPost{}, false
	}
	if err != nil {
		slog.Error("post_lookup_failed", "slug", slug, "error", err.Error())
		http.Error(w, "Error fetching post", http.StatusInternalServerError)
		return models.BlogPost{}, false
	}
	return post, true
}

// RecordView godoc
// @Summary Record a post view
// @Description Increments view_count. Authenticated readers also count once as a unique view.
// @Tags engagement
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} map[string]string
// @Failure 404 {string} string "Post not found"
// @Router /blog/posts/{slug}/view [post]
func RecordView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	post, ok := publishedPost(ctx, w, r)
	if !ok {
		return
	}

	inc := bson.M{"view_count": 1}

	if userID := middleware.GetUserID(r); userID != primitive.NilObjectID {
		res, err := database.PostViews().UpdateOne(ctx,
			bson.M{"post_id": post.ID, "user_id": userID},
			bson.M{"$setOnInsert": models.PostView{
				ID:       primitive.NewObjectID(),
				PostID:   post.ID,
				UserID:   userID,
				ViewedAt: time.Now(),
			}},
			options.Update().SetUpsert(true),
		)
		if err == nil && res.UpsertedCount > 0 {
			inc["unique_view_count"] = 1
		}
	}

	if _, err := database.Posts().UpdateOne(ctx, bson.M{"_id": post.ID}, bson.M{"$inc": inc}); err != nil {
		slog.Error("post_view_failed", "post_id", post.ID.Hex(), "error", err.Error())
		http.Error(w, "Error recording view", http.StatusInternalServerError)
		return
	}

	invalidateDashboard(ctx, post.AuthorID)
	middleware.IncPostView()
	slog.Debug("post_view_recorded",
		"post_id", post.ID.Hex(),
		"unique", len(inc) > 1,
	)

	json.NewEncoder(w).Encode(map[string]string{"message": "View recorded"})
}

// GetPostStats godoc
// @Summary Post engagement stats
// @Description Counters of a post plus whether the caller liked or bookmarked it
// @Tags engagement
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} models.PostStatsResponse
// @Failure 404 {string} string "Post not found"
// @Router /blog/posts/{slug}/stats [get]
func GetPostStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	post, ok := publishedPost(ctx, w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r)
	json.NewEncoder(w).Encode(models.PostStatsResponse{
		ViewCount:       post.ViewCount,
		UniqueViewCount: post.UniqueViewCount,
		LikeCount:       post.LikeCount,
		CommentCount:    post.CommentCount,
		BookmarkCount:   post.BookmarkCount,
		Liked:           likeReaction.has(ctx, post.ID, userID),
		Bookmarked:      bookmarkReaction.has(ctx, post.ID, userID),
	})
}

// ToggleLike godoc
// @Summary Like or unlike a post
// @Tags engagement
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Success 200 {object} models.LikeResponse
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "Post not found"
// @Router /blog/posts/{slug}/like [post]
func ToggleLike(w http.ResponseWriter, r *http.Request) {
	handleToggle(w, r, likeReaction, func(active bool, count int64) any {
		return models.LikeResponse{Liked: active, LikeCount: count}
	})
}

// ToggleBookmark godoc
// @Summary Bookmark or unbookmark a post
// @Tags engagement
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Success 200 {object} models.BookmarkResponse
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "Post not found"
// @Router /blog/posts/{slug}/bookmark [post]
func ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	handleToggle(w, r, bookmarkReaction, func(active bool, count int64) any {
		return models.BookmarkResponse{Bookmarked: active, BookmarkCount: count}
	})
}

func handleToggle(w http.ResponseWriter, r *http.Request, rc reaction, respond func(bool, int64) any) {
	userID := middleware.GetUserID(r)
	if userID == primitive.NilObjectID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	post, ok := publishedPost(ctx, w, r)
	if !ok {
		return
	}

	active, count, err := rc.toggle(ctx, post, userID)
	if err != nil {
		slog.Error("reaction_toggle_failed",
			"reaction", rc.name,
			"post_id", post.ID.Hex(),
			"user_id", userID.Hex(),
			"error", err.Error(),
		)
		http.Error(w, "Error toggling "+rc.name, http.StatusInternalServerError)
		return
	}

	invalidateDashboard(ctx, post.AuthorID)
	slog.Info("reaction_toggled",
		"reaction", rc.name,
		"active", active,
		"post_id", post.ID.Hex(),
		"user_id", userID.Hex(),
	)

	json.NewEncoder(w).Encode(respond(active, count))
}

// MyLikes godoc
// @Summary Posts I liked
// @Tags engagement
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} models.PostListResponse
// @Failure 401 {string} string "Unauthorized"
// @Router /blog/me/likes [get]
func MyLikes(w http.ResponseWriter, r *http.Request) {
	listReacted(w, r, likeReaction)
}

// MyBookmarks godoc
// @Summary Posts I bookmarked
// @Tags engagement
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} models.PostListResponse
// @Failure 401 {string} string "Unauthorized"
// @Router /blog/me/bookmarks [get]
func MyBookmarks(w http.ResponseWriter, r *http.Request) {
	listReacted(w, r, bookmarkReaction)
}

// listReacted pages through the caller's reactions, most recent first, and
// returns the published posts they point to in that order.
func listReacted(w http.ResponseWriter, r *http.Request, rc reaction) {
	userID := middleware.GetUserID(r)
	if userID == primitive.NilObjectID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	page, limit := pagination(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{"user_id": userID}
	total, err := rc.coll().CountDocuments(ctx, filter)
	if err != nil {
		http.Error(w, "Error counting posts", http.StatusInternalServerError)
		return
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip(page, limit)).
		SetLimit(int64(limit))
	cursor, err := rc.coll().Find(ctx, filter, opts)
	if err != nil {
		http.Error(w, "Error fetching posts", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var reactions []models.PostReaction
	if err := cursor.All(ctx, &reactions); err != nil {
		http.Error(w, "Error decoding posts", http.StatusInternalServerError)
		return
	}

	posts, err := postsInOrder(ctx, uniqueIDs(reactions, func(x models.PostReaction) primitive.ObjectID { return x.PostID }))
	if err != nil {
		slog.Error("reacted_posts_failed", "reaction", rc.name, "user_id", userID.Hex(), "error", err.Error())
		http.Error(w, "Error fetching posts", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(models.PostListResponse{
		Posts: enrichPostsWithAuthor(ctx, posts),
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// postsInOrder loads the published posts of ids preserving the order of ids
func postsInOrder(ctx context.Context, ids []primitive.ObjectID) ([]models.BlogPost, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := database.Posts().Find(ctx, bson.M{
		"_id":    bson.M{"$in": ids},
		"status": models.StatusPublished,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var found []models.BlogPost
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]models.BlogPost, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.BlogPost, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListComments godoc
// @Summary List the comments of a post
// @Tags engagement
// @Produce json
// @Param slug path string true "Post slug"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} models.CommentListResponse
// @Failure 404 {string} string "Post not found"
// @Router /blog/posts/{slug}/comments [get]
func ListComments(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	post, ok := publishedPost(ctx, w, r)
	if !ok {
		return
	}

	filter := bson.M{"post_id": post.ID}
	total, err := database.PostComments().CountDocuments(ctx, filter)
	if err != nil {
		http.Error(w, "Error counting comments", http.StatusInternalServerError)
		return
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip(page, limit)).
		SetLimit(int64(limit))
	cursor, err := database.PostComments().Find(ctx, filter, opts)
	if err != nil {
		http.Error(w, "Error fetching comments", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var comments []models.PostComment
	if err := cursor.All(ctx, &comments); err != nil {
		http.Error(w, "Error decoding comments", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(models.CommentListResponse{
		Comments: enrichCommentsWithAuthor(ctx, comments),
		Total:    total,
		Page:     page,
		Limit:    limit,
	})
}

// CreateComment godoc
// @Summary Comment on a post
// @Tags engagement
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Param request body models.CreateCommentRequest true "Comment"
// @Success 201 {object} models.CommentResponse
// @Failure 400 {string} string "Invalid request"
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "Post not found"
// @Router /blog/posts/{slug}/comments [post]
func CreateComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == primitive.NilObjectID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	content, ok := validComment(req.Content)
	if !ok {
		http.Error(w, "Content must be between 1 and 2000 characters", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	post, ok := publishedPost(ctx, w, r)
	if !ok {
		return
	}

	now := time.Now()
	comment := models.PostComment{
		ID:        primitive.NewObjectID(),
		PostID:    post.ID,
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := database.PostComments().InsertOne(ctx, comment); err != nil {
		slog.Error("comment_create_failed", "post_id", post.ID.Hex(), "error", err.Error())
		http.Error(w, "Error creating comment", http.StatusInternalServerError)
		return
	}

	if _, err := database.Posts().UpdateOne(ctx, bson.M{"_id": post.ID}, bson.M{"$inc": bson.M{"comment_count": 1}}); err != nil {
		slog.Warn("comment_count_failed", "post_id", post.ID.Hex(), "error", err.Error())
	}

	invalidateDashboard(ctx, post.AuthorID)
	middleware.IncCommentCreated()
	slog.Info("comment_created",
		"comment_id", comment.ID.Hex(),
		"post_id", post.ID.Hex(),
		"user_id", userID.Hex(),
	)

	writeJSON(w, http.StatusCreated, enrichCommentsWithAuthor(ctx, []models.PostComment{comment})[0])
}

// validComment trims content and checks its length in characters
func validComment(content string) (string, bool) {
	content = strings.TrimSpace(content)
	n := utf8.RuneCountInString(content)
	return content, n >= 1 && n <= maxCommentLength
}

// DeleteComment godoc
// @Summary Delete a comment
// @Description Allowed for the comment author, the post author and admins
// @Tags engagement
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Param id path string true "Comment ID"
// @Success 200 {object} map[string]string
// @Failure 401 {string} string "Unauthorized"
// @Failure 403 {string} string "Forbidden"
// @Failure 404 {string} string "Comment not found"
// @Router /blog/posts/{slug}/comments/{id} [delete]
func DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == primitive.NilObjectID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	commentID, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid comment ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	post, ok := publishedPost(ctx, w, r)
	if !ok {
		return
	}

	var comment models.PostComment
	err = database.PostComments().FindOne(ctx, bson.M{"_id": commentID, "post_id": post.ID}).Decode(&comment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Error(w, "Comment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Error fetching comment", http.StatusInternalServerError)
		return
	}

	if comment.UserID != userID && !canModify(ctx, userID, post) {
		http.Error(w, "Forbidden: you cannot delete this comment", http.StatusForbidden)
		return
	}

	if _, err := database.PostComments().DeleteOne(ctx, bson.M{"_id": commentID}); err != nil {
		http.Error(w, "Error deleting comment", http.StatusInternalServerError)
		return
	}
	if _, err := database.Posts().UpdateOne(ctx, bson.M{"_id": post.ID}, bson.M{"$inc": bson.M{"comment_count": -1}}); err != nil {
		slog.Warn("comment_count_failed", "post_id", post.ID.Hex(), "error", err.Error())
	}

	invalidateDashboard(ctx, post.AuthorID)
	middleware.IncCommentDeleted()
	slog.Info("comment_deleted",
		"comment_id", commentID.Hex(),
		"post_id", post.ID.Hex(),
		"user_id", userID.Hex(),
	)

	json.NewEncoder(w).Encode(map[string]string{"message": "Comment deleted"})
}

// enrichCommentsWithAuthor adds author name and avatar to comment responses
func enrichCommentsWithAuthor(ctx context.Context, comments []models.PostComment) []models.CommentResponse {
	profiles := profilesByUser(ctx, uniqueIDs(comments, func(c models.PostComment) primitive.ObjectID { return c.UserID }))

	out := make([]models.CommentResponse, len(comments))
	for i, c := range comments {
		out[i] = models.CommentResponse{PostComment: c}
		if profile, ok := profiles[c.UserID]; ok {
			out[i].AuthorName = profile.Name
			out[i].AuthorAvatar = profile.Avatar
		}
	}
	return out
}
