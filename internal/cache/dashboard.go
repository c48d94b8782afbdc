// Package cache keeps computed dashboard snapshots in Redis. Entries are
// keyed by author, range and calendar day, and are dropped wholesale when an
// author's data changes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/inkwell/api/internal/analytics"
	"github.com/inkwell/api/internal/models"
	"github.com/redis/go-redis/v9"
)

var ErrMiss = errors.New("cache miss")

const keyPrefix = "inkwell:dashboard:"

// Dashboard stores dashboard responses per author.
//
// Writers read Version before loading the data a response is built from and
// pass it to Set. An Invalidate in between bumps the version, so the write
// lands under a key no reader looks up.
type Dashboard interface {
	Version(ctx context.Context, authorID string) (int64, error)
	Get(ctx context.Context, authorID string, r analytics.Range, day time.Time) (*models.DashboardResponse, error)
	Set(ctx context.Context, authorID string, version int64, r analytics.Range, day time.Time, resp *models.DashboardResponse) error
	// Invalidate drops every cached snapshot of authorID.
	Invalidate(ctx context.Context, authorID string) error
}

// RedisDashboard is a Dashboard backed by Redis.
type RedisDashboard struct {
	rdb    *redis.Client
	maxTTL time.Duration
	loc    *time.Location
}

// NewRedisDashboard caches entries for at most maxTTL and never past the
// next midnight in loc, when the series window moves.
func NewRedisDashboard(rdb *redis.Client, maxTTL time.Duration, loc *time.Location) *RedisDashboard {
	if loc == nil {
		loc = time.Local
	}
	return &RedisDashboard{rdb: rdb, maxTTL: maxTTL, loc: loc}
}

func versionKey(authorID string) string {
	return keyPrefix + "version:" + authorID
}

func snapshotKey(authorID string, version int64, r analytics.Range, day time.Time) string {
	return fmt.Sprintf("%s%s:v%d:%s:%s", keyPrefix, authorID, version, r, day.Format(time.DateOnly))
}

func (c *RedisDashboard) Version(ctx context.Context, authorID string) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(authorID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

func (c *RedisDashboard) Get(ctx context.Context, authorID string, r analytics.Range, day time.Time) (*models.DashboardResponse, error) {
	version, err := c.Version(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("read dashboard version: %w", err)
	}

	raw, err := c.rdb.Get(ctx, snapshotKey(authorID, version, r, day.In(c.loc))).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read dashboard snapshot: %w", err)
	}

	var resp models.DashboardResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode dashboard snapshot: %w", err)
	}
	return &resp, nil
}

func (c *RedisDashboard) Set(ctx context.Context, authorID string, version int64, r analytics.Range, day time.Time, resp *models.DashboardResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode dashboard snapshot: %w", err)
	}

	ttl := c.ttl(day)
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, snapshotKey(authorID, version, r, day.In(c.loc)), raw, ttl).Err()
}

func (c *RedisDashboard) Invalidate(ctx context.Context, authorID string) error {
	return c.rdb.Incr(ctx, versionKey(authorID)).Err()
}

// ttl is the time left until the next midnight after now, capped by maxTTL.
func (c *RedisDashboard) ttl(now time.Time) time.Duration {
	local := now.In(c.loc)
	y, m, d := local.Date()
	untilMidnight := time.Date(y, m, d+1, 0, 0, 0, 0, c.loc).Sub(local)
	if c.maxTTL > 0 && c.maxTTL < untilMidnight {
		return c.maxTTL
	}
	return untilMidnight
}

// Noop never stores anything. It is used when Redis is not configured.
type Noop struct{}

func (Noop) Version(context.Context, string) (int64, error) {
	return 0, nil
}

func (Noop) Get(context.Context, string, analytics.Range, time.Time) (*models.DashboardResponse, error) {
	return nil, ErrMiss
}

func (Noop) Set(context.Context, string, int64, analytics.Range, time.Time, *models.DashboardResponse) error {
	return nil
}

func (Noop) Invalidate(context.Context, string) error {
	return nil
}
