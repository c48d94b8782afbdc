package analytics

// Anomaly reports a post that was left out of the date-based stages.
type Anomaly struct {
	PostID string `json:"post_id"`
	Status Status `json:"status"`
	Reason string `json:"reason"`
}

const (
	ReasonMissingPublishedAt = "published_at missing or unparseable"
	ReasonMissingCreatedAt   = "created_at missing or unparseable"
)

// FindUndated returns an anomaly for every post without a usable effective date.
func FindUndated(posts []Post) []Anomaly {
	var out []Anomaly
	for _, p := range posts {
		if _, ok := p.EffectiveDate(); ok {
			continue
		}
		reason := ReasonMissingCreatedAt
		if p.PublishedAt != nil {
			reason = ReasonMissingPublishedAt
		}
		out = append(out, Anomaly{PostID: p.ID, Status: p.Status, Reason: reason})
	}
	return out
}
