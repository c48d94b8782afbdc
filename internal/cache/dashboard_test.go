package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/inkwell/api/internal/analytics"
	"github.com/inkwell/api/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, maxTTL time.Duration) (*RedisDashboard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisDashboard(rdb, maxTTL, time.UTC), mr
}

func sampleResponse(now time.Time) *models.DashboardResponse {
	return &models.DashboardResponse{
		Snapshot: analytics.Snapshot{
			Range:          analytics.Range7Days,
			TotalPosts:     3,
			PublishedCount: 2,
			DraftCount:     1,
			TopPost:        &analytics.RankedPost{ID: "p1", Score: 113},
		},
		GeneratedAt: now,
	}
}

func TestRedisDashboardRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	_, err := c.Get(ctx, "author-1", analytics.Range7Days, now)
	require.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "author-1", 0, analytics.Range7Days, now, sampleResponse(now)))

	got, err := c.Get(ctx, "author-1", analytics.Range7Days, now)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Snapshot.TotalPosts)
	require.NotNil(t, got.Snapshot.TopPost)
	assert.Equal(t, "p1", got.Snapshot.TopPost.ID)
	assert.True(t, now.Equal(got.GeneratedAt))

	_, err = c.Get(ctx, "author-1", analytics.Range30Days, now)
	assert.ErrorIs(t, err, ErrMiss, "ranges are cached separately")

	_, err = c.Get(ctx, "author-1", analytics.Range7Days, now.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, ErrMiss, "a new day starts a new window")
}

func TestRedisDashboardInvalidate(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, c.Set(ctx, "author-1", 0, analytics.Range7Days, now, sampleResponse(now)))
	require.NoError(t, c.Set(ctx, "author-2", 0, analytics.Range7Days, now, sampleResponse(now)))

	require.NoError(t, c.Invalidate(ctx, "author-1"))

	_, err := c.Get(ctx, "author-1", analytics.Range7Days, now)
	assert.ErrorIs(t, err, ErrMiss)

	_, err = c.Get(ctx, "author-2", analytics.Range7Days, now)
	assert.NoError(t, err)
}

func TestRedisDashboardStaleVersionWrite(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	version, err := c.Version(ctx, "author-1")
	require.NoError(t, err)
	assert.Zero(t, version)

	// data changes while the response is being built
	require.NoError(t, c.Invalidate(ctx, "author-1"))
	require.NoError(t, c.Set(ctx, "author-1", version, analytics.Range7Days, now, sampleResponse(now)))

	_, err = c.Get(ctx, "author-1", analytics.Range7Days, now)
	assert.ErrorIs(t, err, ErrMiss)

	current, err := c.Version(ctx, "author-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, current)

	require.NoError(t, c.Set(ctx, "author-1", current, analytics.Range7Days, now, sampleResponse(now)))
	_, err = c.Get(ctx, "author-1", analytics.Range7Days, now)
	assert.NoError(t, err)
}

func TestRedisDashboardTTL(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	morning := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, c.Set(ctx, "a", 0, analytics.Range7Days, morning, sampleResponse(morning)))
	assert.Equal(t, time.Hour, mr.TTL(snapshotKey("a", 0, analytics.Range7Days, morning)))

	late := time.Date(2026, 5, 1, 23, 50, 0, 0, time.UTC)
	require.NoError(t, c.Set(ctx, "a", 0, analytics.Range7Days, late, sampleResponse(late)))
	assert.Equal(t, 10*time.Minute, mr.TTL(snapshotKey("a", 0, analytics.Range7Days, late)))
}

func TestNoop(t *testing.T) {
	var c Dashboard = Noop{}
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, c.Set(ctx, "a", 0, analytics.Range7Days, now, sampleResponse(now)))
	_, err := c.Get(ctx, "a", analytics.Range7Days, now)
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.Invalidate(ctx, "a"))
	v, err := c.Version(ctx, "a")
	assert.NoError(t, err)
	assert.Zero(t, v)
}
