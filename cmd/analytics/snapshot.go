package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/inkwell/api/internal/analytics"
	"github.com/spf13/cobra"
)

type snapshotOptions struct {
	file          string
	rangeName     string
	tz            string
	now           string
	output        string
	tolerance     int
	viewWeight    int64
	likeWeight    int64
	commentWeight int64
}

func newSnapshotCmd() *cobra.Command {
	opts := snapshotOptions{
		rangeName:     string(analytics.DefaultRange),
		tz:            "Local",
		output:        "json",
		tolerance:     analytics.DefaultStreakToleranceDays,
		viewWeight:    analytics.DefaultViewWeight,
		likeWeight:    analytics.DefaultLikeWeight,
		commentWeight: analytics.DefaultCommentWeight,
	}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Compute a dashboard snapshot from an export file",
		Long: `Reads posts, leniently parses their timestamps and prints the snapshot.
Posts whose dates cannot be read are reported as anomalies.

Examples:
  analytics snapshot --file export.json
  analytics snapshot --file export.json --range 90d --tz Europe/Lisbon --now 2026-01-31
  cat posts.json | analytics snapshot --file - --output text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeIn, err := openInput(opts.file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer closeIn()
			return runSnapshot(in, cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "Export file to read, - for stdin")
	f.StringVarP(&opts.rangeName, "range", "r", opts.rangeName, "Time range: 7d, 30d, 90d or 1y")
	f.StringVar(&opts.tz, "tz", opts.tz, "IANA time zone defining calendar days")
	f.StringVar(&opts.now, "now", "", "Reference time (RFC3339 or YYYY-MM-DD), defaults to the current time")
	f.StringVarP(&opts.output, "output", "o", opts.output, "Output format: json or text")
	f.IntVar(&opts.tolerance, "streak-tolerance", opts.tolerance, "Largest gap in days that keeps a streak")
	f.Int64Var(&opts.viewWeight, "view-weight", opts.viewWeight, "Top post score weight of a view")
	f.Int64Var(&opts.likeWeight, "like-weight", opts.likeWeight, "Top post score weight of a like")
	f.Int64Var(&opts.commentWeight, "comment-weight", opts.commentWeight, "Top post score weight of a comment")
	cmd.MarkFlagRequired("file")

	return cmd
}

func openInput(file string, stdin io.Reader) (io.Reader, func(), error) {
	if file == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("open export: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func runSnapshot(in io.Reader, out io.Writer, opts snapshotOptions) error {
	rng, err := analytics.ParseRange(opts.rangeName)
	if err != nil {
		return err
	}
	if opts.tolerance < 0 {
		return fmt.Errorf("invalid --streak-tolerance %d: must not be negative", opts.tolerance)
	}

	loc := time.Local
	if opts.tz != "" && !strings.EqualFold(opts.tz, "local") {
		if loc, err = time.LoadLocation(opts.tz); err != nil {
			return fmt.Errorf("load time zone: %w", err)
		}
	}

	now := time.Now()
	if opts.now != "" {
		t, ok := analytics.ParseTimestamp(opts.now, loc)
		if !ok {
			return fmt.Errorf("invalid --now %q", opts.now)
		}
		now = t
	}

	records, err := decodeRecords(in)
	if err != nil {
		return err
	}
	posts := make([]analytics.Post, len(records))
	for i, r := range records {
		posts[i] = r.Post(loc)
	}

	agg := analytics.NewAggregator(analytics.Options{
		Location:            loc,
		StreakToleranceDays: analytics.Tolerance(opts.tolerance),
		Weights: &analytics.Weights{
			Views:    opts.viewWeight,
			Likes:    opts.likeWeight,
			Comments: opts.commentWeight,
		},
		Now: func() time.Time { return now },
	})
	snap := agg.ComputeAt(posts, rng, now)

	switch opts.output {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case "text":
		return writeText(out, snap)
	default:
		return fmt.Errorf("unknown output format %q", opts.output)
	}
}

// decodeRecords accepts an export document ({"posts": [...]}) or a bare
// array of records.
func decodeRecords(in io.Reader) ([]analytics.Record, error) {
	raw, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("export is empty")
	}

	var records []analytics.Record
	if raw[0] == '[' {
		err = json.Unmarshal(raw, &records)
	} else {
		var doc struct {
			Posts []analytics.Record `json:"posts"`
		}
		err = json.Unmarshal(raw, &doc)
		records = doc.Posts
	}
	if err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	return records, nil
}

func writeText(out io.Writer, s analytics.Snapshot) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Range\t%s\n", s.Range)
	fmt.Fprintf(tw, "Posts\t%d (published %d, drafts %d, other %d)\n", s.TotalPosts, s.PublishedCount, s.DraftCount, s.OtherCount)
	fmt.Fprintf(tw, "Views\t%d\n", s.Views)
	fmt.Fprintf(tw, "Likes\t%d\n", s.Likes)
	fmt.Fprintf(tw, "Comments\t%d\n", s.Comments)
	fmt.Fprintf(tw, "Bookmarks\t%d\n", s.Bookmarks)
	fmt.Fprintf(tw, "Avg reading time\t%.1f min\n", s.AvgReadingTime)
	fmt.Fprintf(tw, "Engagement rate\t%.2f%%\n", s.EngagementRate)
	fmt.Fprintf(tw, "Publishing streak\t%d\n", s.PublishingStreak)
	if s.TopPost != nil {
		fmt.Fprintf(tw, "Top post\t%s (score %d)\n", s.TopPost.Title, s.TopPost.Score)
	} else {
		fmt.Fprintf(tw, "Top post\t-\n")
	}
	for _, a := range s.Anomalies {
		fmt.Fprintf(tw, "Anomaly\t%s: %s\n", a.PostID, a.Reason)
	}
	return tw.Flush()
}
