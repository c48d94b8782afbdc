package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exposed on /metrics
var Registry = prometheus.NewRegistry()

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	httpActiveRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_active_requests",
		Help: "Current number of active requests",
	})

	usersRegistered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "users_registered_total",
		Help: "Total number of user registrations",
	})

	usersLogin = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "users_login_total",
		Help: "Total number of login attempts",
	}, []string{"result"})

	authErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_errors_total",
		Help: "Total number of authentication errors",
	})

	profileUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "profile_updates_total",
		Help: "Total number of profile updates",
	})

	imageUploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "image_uploads_total",
		Help: "Total number of stored images",
	}, []string{"kind"})

	blogPosts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_posts_total",
		Help: "Blog post writes by action",
	}, []string{"action"})

	engagementEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_engagement_total",
		Help: "Engagement events by action",
	}, []string{"action"})

	dashboardSnapshots = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_snapshots_total",
		Help: "Dashboard snapshots served, by source",
	}, []string{"source"})

	analyticsAnomalies = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analytics_anomalies_total",
		Help: "Posts left out of date-based analytics because of a bad timestamp",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequestsTotal,
		httpRequestDuration,
		httpActiveRequests,
		usersRegistered,
		usersLogin,
		authErrors,
		profileUpdates,
		imageUploads,
		blogPosts,
		engagementEvents,
		dashboardSnapshots,
		analyticsAnomalies,
	)
}

// User metrics increment functions
func IncUserRegistered() { usersRegistered.Inc() }
func IncLoginSuccess()   { usersLogin.WithLabelValues("success").Inc() }
func IncLoginFailed()    { usersLogin.WithLabelValues("failed").Inc() }
func IncAuthError()      { authErrors.Inc() }
func IncProfileUpdate()  { profileUpdates.Inc() }
func IncAvatarUpload()   { imageUploads.WithLabelValues("avatar").Inc() }
func IncCoverUpload()    { imageUploads.WithLabelValues("cover").Inc() }

// Blog metrics
func IncPostCreated() { blogPosts.WithLabelValues("created").Inc() }
func IncPostUpdated() { blogPosts.WithLabelValues("updated").Inc() }
func IncPostDeleted() { blogPosts.WithLabelValues("deleted").Inc() }

// Engagement metrics
func IncPostView()       { engagementEvents.WithLabelValues("view").Inc() }
func IncPostLike()       { engagementEvents.WithLabelValues("like").Inc() }
func IncPostUnlike()     { engagementEvents.WithLabelValues("unlike").Inc() }
func IncPostBookmark()   { engagementEvents.WithLabelValues("bookmark").Inc() }
func IncPostUnbookmark() { engagementEvents.WithLabelValues("unbookmark").Inc() }
func IncCommentCreated() { engagementEvents.WithLabelValues("comment_created").Inc() }
func IncCommentDeleted() { engagementEvents.WithLabelValues("comment_deleted").Inc() }

// Dashboard metrics
func IncDashboardSnapshot(source string) { dashboardSnapshots.WithLabelValues(source).Inc() }
func AddAnalyticsAnomalies(n int)        { analyticsAnomalies.Add(float64(n)) }

// MetricsMiddleware collects HTTP metrics. Paths are labelled with the
// matched route pattern so slugs and ids do not explode cardinality.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip metrics endpoint itself
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		httpActiveRequests.Inc()
		defer httpActiveRequests.Dec()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		path := routeLabel(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// routeLabel returns the ServeMux pattern without its method prefix
func routeLabel(r *http.Request) string {
	pattern := r.Pattern
	if pattern == "" {
		return "unmatched"
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == ' ' {
			return pattern[i+1:]
		}
	}
	return pattern
}

// PrometheusHandler returns metrics in Prometheus format
func PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
