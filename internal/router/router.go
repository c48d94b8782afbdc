package router

import (
	"net/http"

	"github.com/inkwell/api/internal/handlers"
	"github.com/inkwell/api/internal/middleware"
	"github.com/inkwell/api/internal/models"
	httpSwagger "github.com/swaggo/http-swagger"
)

func New() http.Handler {
	mux := http.NewServeMux()

	auth := func(h http.HandlerFunc) http.Handler { return middleware.Auth(h) }
	optional := func(h http.HandlerFunc) http.Handler { return middleware.OptionalAuth(h) }
	writers := middleware.RequireRole(models.RoleAdmin, models.RoleAuthor)
	admins := middleware.RequireRole(models.RoleAdmin)

	// ==========================================
	// PUBLIC ROUTES (no auth required)
	// ==========================================

	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	mux.HandleFunc("GET /api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", middleware.PrometheusHandler())

	mux.HandleFunc("GET /robots.txt", handlers.RobotsTxt)
	mux.HandleFunc("GET /api/v1/sitemap.xml", handlers.Sitemap)

	mux.HandleFunc("POST /api/v1/auth/register", handlers.Register)
	mux.HandleFunc("POST /api/v1/auth/login", handlers.Login)

	// Blog (drafts, views and stats look at the caller when a token is sent)
	mux.HandleFunc("GET /api/v1/blog/posts", handlers.ListPosts)
	mux.Handle("GET /api/v1/blog/posts/{slug}", optional(handlers.GetPostBySlug))
	mux.HandleFunc("GET /api/v1/blog/tags/trending", handlers.TrendingTags)
	mux.HandleFunc("GET /api/v1/blog/images/{id}", handlers.ServeImage)
	mux.Handle("POST /api/v1/blog/posts/{slug}/view", optional(handlers.RecordView))
	mux.Handle("GET /api/v1/blog/posts/{slug}/stats", optional(handlers.GetPostStats))
	mux.HandleFunc("GET /api/v1/blog/posts/{slug}/comments", handlers.ListComments)

	// ==========================================
	// PROTECTED ROUTES (auth required)
	// ==========================================

	mux.Handle("GET /api/v1/auth/me", auth(handlers.Me))

	mux.Handle("GET /api/v1/profile", auth(handlers.GetProfile))
	mux.Handle("PUT /api/v1/profile", auth(handlers.UpdateProfile))
	mux.Handle("POST /api/v1/profile/avatar", auth(handlers.UploadAvatar))

	// Authoring (admin or author)
	mux.Handle("GET /api/v1/blog/posts/me", middleware.Auth(writers(http.HandlerFunc(handlers.MyPosts))))
	mux.Handle("POST /api/v1/blog/posts", middleware.Auth(writers(http.HandlerFunc(handlers.CreatePost))))
	mux.Handle("PUT /api/v1/blog/posts/{id}", middleware.Auth(writers(http.HandlerFunc(handlers.UpdatePost))))
	mux.Handle("DELETE /api/v1/blog/posts/{id}", middleware.Auth(writers(http.HandlerFunc(handlers.DeletePost))))
	mux.Handle("POST /api/v1/blog/upload", middleware.Auth(writers(http.HandlerFunc(handlers.UploadPostImage))))

	// Engagement
	mux.Handle("POST /api/v1/blog/posts/{slug}/like", auth(handlers.ToggleLike))
	mux.Handle("POST /api/v1/blog/posts/{slug}/bookmark", auth(handlers.ToggleBookmark))
	mux.Handle("POST /api/v1/blog/posts/{slug}/comments", auth(handlers.CreateComment))
	mux.Handle("DELETE /api/v1/blog/posts/{slug}/comments/{id}", auth(handlers.DeleteComment))
	mux.Handle("GET /api/v1/blog/me/likes", auth(handlers.MyLikes))
	mux.Handle("GET /api/v1/blog/me/bookmarks", auth(handlers.MyBookmarks))

	// Author dashboard
	mux.Handle("GET /api/v1/dashboard/analytics", middleware.Auth(writers(http.HandlerFunc(handlers.GetDashboardAnalytics))))
	mux.Handle("GET /api/v1/dashboard/export", middleware.Auth(writers(http.HandlerFunc(handlers.ExportContent))))

	// Admin
	mux.Handle("GET /api/v1/users", middleware.Auth(admins(http.HandlerFunc(handlers.ListUsers))))
	mux.Handle("PUT /api/v1/users/{id}/role", middleware.Auth(admins(http.HandlerFunc(handlers.UpdateUserRole))))

	// ==========================================
	// GLOBAL MIDDLEWARES
	// ==========================================

	var handler http.Handler = mux
	handler = middleware.JSON(handler)
	handler = middleware.CORS(handler)
	handler = middleware.MetricsMiddleware(handler)
	handler = middleware.Logger(handler)

	return handler
}
