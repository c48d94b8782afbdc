package analytics

// Classification splits posts by status. Other holds posts whose status is
// neither draft nor published; they are never counted as published.
type Classification struct {
	Published []Post
	Drafts    []Post
	Other     []Post
}

// Classify partitions posts preserving their input order.
func Classify(posts []Post) Classification {
	var c Classification
	for _, p := range posts {
		switch p.Status {
		case StatusPublished:
			c.Published = append(c.Published, p)
		case StatusDraft:
			c.Drafts = append(c.Drafts, p)
		default:
			c.Other = append(c.Other, p)
		}
	}
	return c
}
