package handlers

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/inkwell/api/internal/config"
	"github.com/inkwell/api/internal/database"
	"github.com/inkwell/api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// buildSitemap lists the static pages of siteURL followed by every post
func buildSitemap(siteURL string, posts []models.BlogPost) urlset {
	urls := []sitemapURL{
		{Loc: siteURL, ChangeFreq: "weekly", Priority: "1.0"},
		{Loc: siteURL + "/blog", ChangeFreq: "daily", Priority: "0.9"},
	}
	for _, post := range posts {
		lastMod := post.UpdatedAt
		if lastMod.IsZero() && post.PublishedAt != nil {
			lastMod = *post.PublishedAt
		}
		u := sitemapURL{
			Loc:        fmt.Sprintf("%s/blog/%s", siteURL, post.Slug),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		}
		if !lastMod.IsZero() {
			u.LastMod = lastMod.Format(time.DateOnly)
		}
		urls = append(urls, u)
	}
	return urlset{XMLNS: sitemapNS, URLs: urls}
}

// Sitemap generates sitemap.xml from the published posts
func Sitemap(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "published_at", Value: -1}}).
		SetProjection(bson.M{"slug": 1, "updated_at": 1, "published_at": 1})

	var posts []models.BlogPost
	cursor, err := database.Posts().Find(ctx, bson.M{"status": models.StatusPublished}, opts)
	if err == nil {
		defer cursor.Close(ctx)
		err = cursor.All(ctx, &posts)
	}
	if err != nil {
		// still serve the static pages
		slog.Warn("sitemap_posts_failed", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write([]byte(xml.Header))
	xml.NewEncoder(w).Encode(buildSitemap(config.Get().SiteURL, posts))
}

// RobotsTxt serves a robots.txt pointing to the sitemap
func RobotsTxt(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	fmt.Fprintf(w, "User-agent: *\nAllow: /\nDisallow: /api/v1/dashboard/\n\nSitemap: %s/api/v1/sitemap.xml\n", config.Get().APIURL)
}
