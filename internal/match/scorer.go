package match

import (
	"context"
	"strings"

	"jobpilot/internal/resume"
)

// Posting carries the fields of a job posting the scorers look at.
type Posting struct {
	Title       string
	Company     string
	Description string
}

// Result is the ephemeral outcome of scoring one (profile, posting) pair.
type Result struct {
	Score           int
	Rationale       string
	MatchedKeywords []string
}

// Scorer computes a 0-100 compatibility score between a profile and a
// posting. Implementations must be pure functions of their inputs (plus an
// optional AI response) and must not keep state between calls.
type Scorer interface {
	Score(ctx context.Context, profile *resume.ProfileContent, posting Posting) (*Result, error)
}

// overlap returns the profile keywords found in the posting title and
// description. Matching is a case-insensitive substring test; keywords
// shorter than two characters are ignored.
func overlap(keywords []string, posting Posting) []string {
	haystack := strings.ToLower(posting.Title + " " + posting.Description)

	var matched []string
	for _, kw := range keywords {
		needle := strings.ToLower(strings.TrimSpace(kw))
		if len(needle) < 2 {
			continue
		}
		if strings.Contains(haystack, needle) {
			matched = append(matched, kw)
		}
	}
	return matched
}
