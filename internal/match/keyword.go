package match

import (
	"context"
	"fmt"
	"math"
	"strings"

	"jobpilot/internal/resume"
)

// KeywordPresenceScorer is the automation-path fallback: any keyword overlap
// at all is treated as a strong match.
type KeywordPresenceScorer struct{}

func (KeywordPresenceScorer) Score(_ context.Context, profile *resume.ProfileContent, posting Posting) (*Result, error) {
	matched := overlap(profile.Keywords, posting)

	score := 0
	if len(matched) >= 1 {
		score = 80
	}

	return &Result{
		Score:           score,
		Rationale:       keywordRationale(matched),
		MatchedKeywords: matched,
	}, nil
}

// KeywordDensityScorer is the listing-path fallback: the score grows
// proportionally with the overlap count, saturating at three keywords.
type KeywordDensityScorer struct{}

func (KeywordDensityScorer) Score(_ context.Context, profile *resume.ProfileContent, posting Posting) (*Result, error) {
	matched := overlap(profile.Keywords, posting)

	score := int(math.Round(float64(len(matched)) / 3 * 100))
	if score > 100 {
		score = 100
	}

	return &Result{
		Score:           score,
		Rationale:       keywordRationale(matched),
		MatchedKeywords: matched,
	}, nil
}

func keywordRationale(matched []string) string {
	if len(matched) == 0 {
		return "Keyword-based matching: no overlapping skills found"
	}
	return fmt.Sprintf("Keyword-based matching: matched %s", strings.Join(matched, ", "))
}
