package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/inkwell/api/internal/analytics"
	"github.com/inkwell/api/internal/cache"
	"github.com/inkwell/api/internal/database"
	"github.com/inkwell/api/internal/middleware"
	"github.com/inkwell/api/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"
)

var (
	dashboardAggregator                 = analytics.NewAggregator(analytics.Options{})
	dashboardCache      cache.Dashboard = cache.Noop{}
	dashboardFlight     singleflight.Group

	// listAuthorPosts loads every post of an author, drafts included
	listAuthorPosts = database.PostsByAuthor
)

// ConfigureDashboard installs the aggregator and the snapshot cache. A nil
// cache disables caching.
func ConfigureDashboard(agg *analytics.Aggregator, c cache.Dashboard) {
	if agg != nil {
		dashboardAggregator = agg
	}
	if c == nil {
		c = cache.Noop{}
	}
	dashboardCache = c
}

// GetDashboardAnalytics godoc
// @Summary Author dashboard analytics
// @Description Status counts, engagement totals, a per-day series, the publishing streak and the top post of the caller's posts
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param range query string false "Time range: 7d, 30d, 90d or 1y" default(30d)
// @Param refresh query bool false "Bypass the snapshot cache"
// @Success 200 {object} models.DashboardResponse
// @Failure 400 {string} string "Unknown range"
// @Failure 401 {string} string "Unauthorized"
// @Router /dashboard/analytics [get]
func GetDashboardAnalytics(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == primitive.NilObjectID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	rng, err := analytics.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		http.Error(w, "Unknown range. Use one of 7d, 30d, 90d, 1y", http.StatusBadRequest)
		return
	}
	refresh := r.URL.Query().Get("refresh") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	resp, err := dashboardSnapshot(ctx, userID, rng, refresh)
	if err != nil {
		slog.Error("dashboard_failed",
			"author_id", userID.Hex(),
			"range", rng,
			"error", err.Error(),
		)
		http.Error(w, "Error computing analytics", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// dashboardSnapshot serves a cached snapshot for today when one exists and
// computes it otherwise. Concurrent computations for the same author and
// range are collapsed into one.
func dashboardSnapshot(ctx context.Context, authorID primitive.ObjectID, rng analytics.Range, refresh bool) (*models.DashboardResponse, error) {
	author := authorID.Hex()
	now := dashboardAggregator.Options().Now()

	if !refresh {
		cached, err := dashboardCache.Get(ctx, author, rng, now)
		switch {
		case err == nil:
			cached.Cached = true
			middleware.IncDashboardSnapshot("cache")
			return cached, nil
		case !errors.Is(err, cache.ErrMiss):
			slog.Warn("dashboard_cache_read_failed", "author_id", author, "error", err.Error())
		}
	}

	v, err, shared := dashboardFlight.Do(author+":"+string(rng), func() (any, error) {
		// detached so one caller going away does not fail the others
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		return computeDashboard(fctx, authorID, rng, now)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("dashboard_shared_computation", "author_id", author, "range", rng)
	}

	resp := *v.(*models.DashboardResponse)
	return &resp, nil
}

func computeDashboard(ctx context.Context, authorID primitive.ObjectID, rng analytics.Range, now time.Time) (*models.DashboardResponse, error) {
	author := authorID.Hex()

	// read before loading so a change during the computation skips the cache
	version, verr := dashboardCache.Version(ctx, author)
	if verr != nil {
		slog.Warn("dashboard_cache_version_failed", "author_id", author, "error", verr.Error())
	}

	posts, err := listAuthorPosts(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}

	snap := dashboardAggregator.ComputeAt(models.AnalyticsPosts(posts), rng, now)
	reportAnomalies(author, snap.Anomalies)

	resp := &models.DashboardResponse{Snapshot: snap, GeneratedAt: now}
	if verr == nil {
		if err := dashboardCache.Set(ctx, author, version, rng, now, resp); err != nil {
			slog.Warn("dashboard_cache_write_failed", "author_id", author, "error", err.Error())
		}
	}

	middleware.IncDashboardSnapshot("computed")
	slog.Info("dashboard_computed",
		"author_id", author,
		"range", rng,
		"posts", snap.TotalPosts,
		"published", snap.PublishedCount,
		"anomalies", len(snap.Anomalies),
	)
	return resp, nil
}

func reportAnomalies(author string, anomalies []analytics.Anomaly) {
	if len(anomalies) == 0 {
		return
	}
	middleware.AddAnalyticsAnomalies(len(anomalies))
	for _, a := range anomalies {
		slog.Warn("analytics_anomaly",
			"author_id", author,
			"post_id", a.PostID,
			"status", a.Status,
			"reason", a.Reason,
		)
	}
}

// ExportContent godoc
// @Summary Export my content
// @Description Every post of the caller as a JSON backup. The file is also readable by the offline analytics tool.
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ExportResponse
// @Failure 401 {string} string "Unauthorized"
// @Router /dashboard/export [get]
func ExportContent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == primitive.NilObjectID {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	posts, err := listAuthorPosts(ctx, userID)
	if err != nil {
		slog.Error("export_failed", "author_id", userID.Hex(), "error", err.Error())
		http.Error(w, "Error exporting content", http.StatusInternalServerError)
		return
	}

	now := dashboardAggregator.Options().Now()
	export := models.ExportResponse{
		ExportedAt: now,
		AuthorID:   userID.Hex(),
		Posts:      make([]models.ExportPost, len(posts)),
	}
	for i, p := range posts {
		export.Posts[i] = models.ExportPostFrom(p)
	}

	slog.Info("content_exported", "author_id", userID.Hex(), "posts", len(posts))

	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="inkwell-export-%s.json"`, now.Format(time.DateOnly)))
	writeJSON(w, http.StatusOK, export)
}
