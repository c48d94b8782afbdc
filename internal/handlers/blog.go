package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/inkwell/api/internal/database"
	"github.com/inkwell/api/internal/imaging"
	"github.com/inkwell/api/internal/middleware"
	"github.com/inkwell/api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	wordsPerMinute   = 200
	excerptLength    = 160
	trendingTagLimit = 10
	maxUploadBytes   = 5 << 20
)

// ListPosts godoc
// @Summary List published posts
// @Description Paginated feed of published posts, newest first
// @Tags blog
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param category query string false "Category filter"
// @Param tag query string false "Tag filter"
// @Param q query string false "Case-insensitive search in title and content"
// @Success 200 {object} models.PostListResponse
// @Router /blog/posts [get]
func ListPosts(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	filter := feedFilter(r.URL.Query().Get("category"), r.URL.Query().Get("tag"), r.URL.Query().Get("q"))

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "published_at", Value: -1}})
	resp, err := listPosts(ctx, filter, opts, page, limit)
	if err != nil {
		slog.Error("posts_list_failed", "error", err.Error())
		http.Error(w, "Error fetching posts", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(resp)
}

// feedFilter builds the published feed query
func feedFilter(category, tag, q string) bson.M {
	filter := bson.M{"status": models.StatusPublished}
	if category != "" {
		filter["category"] = category
	}
	if tag != "" {
		filter["tags"] = tag
	}
	if q = strings.TrimSpace(q); q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"content": pattern},
		}
	}
	return filter
}

// listPosts runs a paginated query and enriches the page with author data
func listPosts(ctx context.Context, filter bson.M, opts *options.FindOptions, page, limit int) (models.PostListResponse, error) {
	total, err := database.Posts().CountDocuments(ctx, filter)
	if err != nil {
		return models.PostListResponse{}, err
	}

	cursor, err := database.Posts().Find(ctx, filter, opts.SetSkip(skip(page, limit)).SetLimit(int64(limit)))
	if err != nil {
		return models.PostListResponse{}, err
	}
	defer cursor.Close(ctx)

	var posts []models.BlogPost
	if err := cursor.All(ctx, &posts); err != nil {
		return models.PostListResponse{}, err
	}

	return models.PostListResponse{
		Posts: enrichPostsWithAuthor(ctx, posts),
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// GetPostBySlug godoc
// @Summary Get a post by slug
// @Description Published posts are public. Drafts are only visible to their author.
// @Tags blog
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} models.PostResponse
// @Failure 404 {string} string "Post not found"
// @Router /blog/posts/{slug} [get]
func GetPostBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		http.Error(w, "Slug is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var post models.BlogPost
	if err := database.Posts().FindOne(ctx, bson.M{"slug": slug}).Decode(&post); err != nil {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}

	if post.Status != models.StatusPublished && middleware.GetUserID(r) != post.AuthorID {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(enrichPostsWithAuthor(ctx, []models.BlogPost{post})[0])
}

// CreatePost godoc
// @Summary Create a post
// @Description Creates a draft or published post. Requires the admin or author role.
// @Tags blog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreatePostRequest true "Post"
// @Success 201 {object} models.PostResponse
// @Failure 400 {string} string "Invalid request body"
// @Failure 401 {string} string "Unauthorized"
// @Failure 403 {string} string "Forbidden"
// @Router /blog/posts [post]
func CreatePost(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == primitive.NilObjectID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.Content) == "" {
		http.Error(w, "Title and content are required", http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		req.Status = models.StatusDraft
	}
	if !validStatus(req.Status) {
		http.Error(w, "Status must be 'draft' or 'published'", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	slug, err := ensureUniqueSlug(ctx, generateSlug(req.Title), primitive.NilObjectID)
	if err != nil {
		http.Error(w, "Error generating slug", http.StatusInternalServerError)
		return
	}

	post := newPost(userID, slug, req, time.Now())
	if _, err := database.Posts().InsertOne(ctx, post); err != nil {
		slog.Error("post_create_failed", "author_id", userID.Hex(), "error", err.Error())
		http.Error(w, "Error creating post", http.StatusInternalServerError)
		return
	}

	invalidateDashboard(ctx, userID)
	middleware.IncPostCreated()
	slog.Info("post_created",
		"post_id", post.ID.Hex(),
		"author_id", userID.Hex(),
		"status", post.Status,
		"reading_time", post.ReadingTime,
	)

	writeJSON(w, http.StatusCreated, enrichPostsWithAuthor(ctx, []models.BlogPost{post})[0])
}

// newPost assembles a post from a create request; derived fields are filled in
func newPost(authorID primitive.ObjectID, slug string, req models.CreatePostRequest, now time.Time) models.BlogPost {
	post := models.BlogPost{
		ID:              primitive.NewObjectID(),
		AuthorID:        authorID,
		Title:           req.Title,
		Slug:            slug,
		Content:         req.Content,
		Excerpt:         strings.TrimSpace(req.Excerpt),
		CoverImage:      req.CoverImage,
		Category:        req.Category,
		Tags:            normalizeTags(req.Tags),
		Status:          req.Status,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		ReadingTime:     estimateReadingTime(req.Content),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if post.Excerpt == "" {
		post.Excerpt = deriveExcerpt(req.Content)
	}
	if post.Status == models.StatusPublished {
		post.PublishedAt = &now
	}
	return post
}

// UpdatePost godoc
// @Summary Update a post
// @Description Partial update. Authors edit their own posts, admins edit any post.
// @Tags blog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID or slug"
// @Param request body models.UpdatePostRequest true "Fields to update"
// @Success 200 {object} models.PostResponse
// @Failure 400 {string} string "Invalid request body"
// @Failure 401 {string} string "Unauthorized"
// @Failure 403 {string} string "Forbidden"
// @Failure 404 {string} string "Post not found"
// @Router /blog/posts/{id} [put]
func UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == primitive.NilObjectID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Status != nil && !validStatus(*req.Status) {
		http.Error(w, "Status must be 'draft' or 'published'", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	post, err := findPost(ctx, r.PathValue("id"))
	if err != nil {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}
	if !canModify(ctx, userID, post) {
		http.Error(w, "Forbidden: you can only edit your own posts", http.StatusForbidden)
		return
	}

	set := updateFields(post, req, time.Now())
	if req.Title != nil {
		if slug, err := ensureUniqueSlug(ctx, generateSlug(*req.Title), post.ID); err == nil {
			set["slug"] = slug
		}
	}

	var updated models.BlogPost
	err = database.Posts().FindOneAndUpdate(ctx,
		bson.M{"_id": post.ID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		slog.Error("post_update_failed", "post_id", post.ID.Hex(), "error", err.Error())
		http.Error(w, "Error updating post", http.StatusInternalServerError)
		return
	}

	invalidateDashboard(ctx, post.AuthorID)
	middleware.IncPostUpdated()
	slog.Info("post_updated",
		"post_id", post.ID.Hex(),
		"user_id", userID.Hex(),
		"fields_updated", len(set)-1,
	)

	json.NewEncoder(w).Encode(enrichPostsWithAuthor(ctx, []models.BlogPost{updated})[0])
}

// updateFields translates a partial update into a $set document. The slug is
// handled by the caller because it needs a uniqueness lookup.
func updateFields(post models.BlogPost, req models.UpdatePostRequest, now time.Time) bson.M {
	set := bson.M{"updated_at": now}

	if req.Title != nil {
		set["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		set["content"] = *req.Content
		set["reading_time"] = estimateReadingTime(*req.Content)
		if req.Excerpt == nil && post.Excerpt == deriveExcerpt(post.Content) {
			set["excerpt"] = deriveExcerpt(*req.Content)
		}
	}
	if req.Excerpt != nil {
		set["excerpt"] = strings.TrimSpace(*req.Excerpt)
	}
	if req.CoverImage != nil {
		set["cover_image"] = *req.CoverImage
	}
	if req.Category != nil {
		set["category"] = *req.Category
	}
	if req.Tags != nil {
		set["tags"] = normalizeTags(req.Tags)
	}
	if req.MetaTitle != nil {
		set["meta_title"] = *req.MetaTitle
	}
	if req.MetaDescription != nil {
		set["meta_description"] = *req.MetaDescription
	}
	if req.Status != nil {
		set["status"] = *req.Status
		// published_at is set once, on the first transition to published
		if *req.Status == models.StatusPublished && post.PublishedAt == nil {
			set["published_at"] = now
		}
	}
	return set
}

// DeletePost godoc
// @Summary Delete a post
// @Description Deletes a post and its engagement. Authors delete their own posts, admins any post.
// @Tags blog
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID or slug"
// @Success 200 {object} map[string]string
// @Failure 401 {string} string "Unauthorized"
// @Failure 403 {string} string "Forbidden"
// @Failure 404 {string} string "Post not found"
// @Router /blog/posts/{id} [delete]
func DeletePost(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == primitive.NilObjectID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	post, err := findPost(ctx, r.PathValue("id"))
	if err != nil {
		http.Error(w, "Post not found", http.StatusNotFound)
		return
	}
	if !canModify(ctx, userID, post) {
		http.Error(w, "Forbidden: you can only delete your own posts", http.StatusForbidden)
		return
	}

	if _, err := database.Posts().DeleteOne(ctx, bson.M{"_id": post.ID}); err != nil {
		slog.Error("post_delete_failed", "post_id", post.ID.Hex(), "error", err.Error())
		http.Error(w, "Error deleting post", http.StatusInternalServerError)
		return
	}

	byPost := bson.M{"post_id": post.ID}
	for _, coll := range []*mongo.Collection{
		database.PostViews(), database.PostLikes(), database.PostBookmarks(), database.PostComments(),
	} {
		if _, err := coll.DeleteMany(ctx, byPost); err != nil {
			slog.Warn("post_engagement_cleanup_failed",
				"post_id", post.ID.Hex(),
				"collection", coll.Name(),
				"error", err.Error(),
			)
		}
	}

	invalidateDashboard(ctx, post.AuthorID)
	middleware.IncPostDeleted()
	slog.Info("post_deleted",
		"post_id", post.ID.Hex(),
		"user_id", userID.Hex(),
	)

	json.NewEncoder(w).Encode(map[string]string{"message": "Post deleted"})
}

// MyPosts godoc
// @Summary List my posts
// @Description Every post of the authenticated author, drafts included, last updated first
// @Tags blog
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} models.PostListResponse
// @Failure 401 {string} string "Unauthorized"
// @Router /blog/posts/me [get]
func MyPosts(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == primitive.NilObjectID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	page, limit := pagination(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	resp, err := listPosts(ctx, bson.M{"author_id": userID}, opts, page, limit)
	if err != nil {
		slog.Error("my_posts_failed", "user_id", userID.Hex(), "error", err.Error())
		http.Error(w, "Error fetching posts", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(resp)
}

// TrendingTags godoc
// @Summary Trending tags
// @Description The most used tags across published posts
// @Tags blog
// @Produce json
// @Success 200 {array} models.TrendingTag
// @Router /blog/tags/trending [get]
func TrendingTags(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.StatusPublished}}},
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.M{"_id": "$tags", "post_count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "post_count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: trendingTagLimit}},
	}

	cursor, err := database.Posts().Aggregate(ctx, pipeline)
	if err != nil {
		slog.Error("trending_tags_failed", "error", err.Error())
		http.Error(w, "Error fetching tags", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	tags := []models.TrendingTag{}
	if err := cursor.All(ctx, &tags); err != nil {
		http.Error(w, "Error decoding tags", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(tags)
}

// UploadPostImage godoc
// @Summary Upload a cover image
// @Description Scales the image to at most 800px wide, re-encodes it as JPEG and returns its URL
// @Tags blog
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image (JPEG, PNG or WebP, max 5MB)"
// @Success 200 {object} map[string]string
// @Failure 400 {string} string "Invalid image"
// @Failure 401 {string} string "Unauthorized"
// @Failure 413 {string} string "Image too large"
// @Router /blog/upload [post]
func UploadPostImage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == primitive.NilObjectID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	img, herr := storeUpload(w, r, userID, "image", imaging.CoverSpec)
	if herr != nil {
		herr.write(w)
		return
	}

	middleware.IncCoverUpload()
	json.NewEncoder(w).Encode(map[string]string{"url": imageURL(img.ID)})
}

// storeUpload reads a multipart image field, normalizes it and saves it in
// the images collection.
func storeUpload(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID, field string, spec imaging.Spec) (models.BlogImage, *httpError) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return models.BlogImage{}, &httpError{http.StatusRequestEntityTooLarge, "Image too large (max 5MB)"}
	}

	file, _, err := r.FormFile(field)
	if err != nil {
		return models.BlogImage{}, &httpError{http.StatusBadRequest, "No image provided. Use field name '" + field + "'"}
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return models.BlogImage{}, &httpError{http.StatusBadRequest, "Failed to read image"}
	}

	res, err := imaging.Process(raw, spec)
	switch {
	case errors.Is(err, imaging.ErrUnsupportedType):
		return models.BlogImage{}, &httpError{http.StatusBadRequest, "Only JPEG, PNG and WebP images are allowed"}
	case errors.Is(err, imaging.ErrDecode):
		return models.BlogImage{}, &httpError{http.StatusBadRequest, "Invalid image format"}
	case err != nil:
		slog.Error("image_process_failed", "user_id", userID.Hex(), "error", err.Error())
		return models.BlogImage{}, &httpError{http.StatusInternalServerError, "Failed to process image"}
	}

	doc := models.BlogImage{
		ID:         primitive.NewObjectID(),
		UploaderID: userID,
		Kind:       spec.Kind,
		Width:      res.Width,
		Data:       base64.StdEncoding.EncodeToString(res.Data),
		Size:       len(res.Data),
		CreatedAt:  time.Now(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := database.Images().InsertOne(ctx, doc); err != nil {
		slog.Error("image_save_failed", "user_id", userID.Hex(), "error", err.Error())
		return models.BlogImage{}, &httpError{http.StatusInternalServerError, "Error saving image"}
	}

	slog.Info("image_uploaded",
		"image_id", doc.ID.Hex(),
		"kind", doc.Kind,
		"user_id", userID.Hex(),
		"original_size", len(raw),
		"compressed_size", doc.Size,
	)
	return doc, nil
}

func imageURL(id primitive.ObjectID) string {
	return "/api/v1/blog/images/" + id.Hex()
}

// ServeImage godoc
// @Summary Serve an uploaded image
// @Description Returns the JPEG bytes, cacheable for 7 days
// @Tags blog
// @Produce jpeg
// @Param id path string true "Image ID"
// @Success 200 {file} binary
// @Failure 404 {string} string "Image not found"
// @Router /blog/images/{id} [get]
func ServeImage(w http.ResponseWriter, r *http.Request) {
	imgID, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid image ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var doc models.BlogImage
	if err := database.Images().FindOne(ctx, bson.M{"_id": imgID}).Decode(&doc); err != nil {
		http.Error(w, "Image not found", http.StatusNotFound)
		return
	}

	data, err := base64.StdEncoding.DecodeString(doc.Data)
	if err != nil {
		http.Error(w, "Error decoding image", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=604800, immutable")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// enrichPostsWithAuthor adds author name and avatar to post responses
func enrichPostsWithAuthor(ctx context.Context, posts []models.BlogPost) []models.PostResponse {
	ids := uniqueIDs(posts, func(p models.BlogPost) primitive.ObjectID { return p.AuthorID })
	profiles := profilesByUser(ctx, ids)

	out := make([]models.PostResponse, len(posts))
	for i, post := range posts {
		out[i] = models.PostResponse{BlogPost: post}
		if profile, ok := profiles[post.AuthorID]; ok {
			out[i].AuthorName = profile.Name
			out[i].AuthorAvatar = profile.Avatar
		}
	}
	return out
}

func validStatus(s string) bool {
	return s == models.StatusDraft || s == models.StatusPublished
}

var (
	slugReplacer = strings.NewReplacer(
		"á", "a", "à", "a", "ã", "a", "â", "a", "ä", "a",
		"é", "e", "è", "e", "ê", "e", "ë", "e",
		"í", "i", "ì", "i", "î", "i", "ï", "i",
		"ó", "o", "ò", "o", "õ", "o", "ô", "o", "ö", "o",
		"ú", "u", "ù", "u", "û", "u", "ü", "u",
		"ç", "c", "ñ", "n", "ß", "ss",
	)
	markdownMarkers = strings.NewReplacer("#", "", "*", "", "`", "")
)

// generateSlug lowercases title, folds common accents and joins words with
// single hyphens.
func generateSlug(title string) string {
	folded := slugReplacer.Replace(strings.ToLower(title))

	var b strings.Builder
	hyphen := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			hyphen = false
			continue
		}
		if !hyphen && b.Len() > 0 {
			b.WriteByte('-')
			hyphen = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return "post"
	}
	return slug
}

// ensureUniqueSlug appends -2, -3, ... until the slug is free
func ensureUniqueSlug(ctx context.Context, slug string, excludeID primitive.ObjectID) (string, error) {
	candidate := slug
	for n := 2; ; n++ {
		filter := bson.M{"slug": candidate}
		if excludeID != primitive.NilObjectID {
			filter["_id"] = bson.M{"$ne": excludeID}
		}

		count, err := database.Posts().CountDocuments(ctx, filter)
		if err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = slug + "-" + strconv.Itoa(n)
	}
}

// estimateReadingTime is ceil(words / 200), at least one minute
func estimateReadingTime(content string) int {
	words := len(strings.Fields(content))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	return max(minutes, 1)
}

// deriveExcerpt is the first 160 characters of content with Markdown markers
// removed, followed by "..." when truncated.
func deriveExcerpt(content string) string {
	plain := strings.Join(strings.Fields(markdownMarkers.Replace(content)), " ")
	runes := []rune(plain)
	if len(runes) <= excerptLength {
		return plain
	}
	return strings.TrimSpace(string(runes[:excerptLength])) + "..."
}

// normalizeTags trims, lowercases and de-duplicates tags, keeping their order
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
