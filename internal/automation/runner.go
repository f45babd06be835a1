package automation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobpilot/internal/feed"
	"jobpilot/internal/match"
	"jobpilot/internal/resume"
	"jobpilot/internal/store"
)

// ErrNoActiveProfile is returned when a cycle is requested for a user who has
// never uploaded a resume.
var ErrNoActiveProfile = errors.New("no active profile for user")

// applyThreshold is the minimum score (inclusive) that triggers an
// application.
const applyThreshold = 30

// listingThreshold is the minimum score (exclusive) for a posting to appear
// in the matches listing.
const listingThreshold = 10

// Outcomes of one posting inside a cycle.
const (
	OutcomeSuccess = "Success"
	OutcomeSkipped = "Skipped"
	OutcomeIgnored = "Ignored"
)

// Fetcher pulls posting candidates from the configured feeds.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]feed.Candidate, error)
}

// Detail describes what happened to a single posting during a cycle.
type Detail struct {
	Title      string
	Company    string
	Score      int
	Outcome    string
	TrackingID string
	Message    string
}

// Report summarizes one automation cycle.
type Report struct {
	Found   int
	Matched int
	Applied int
	Details []Detail
}

// Match pairs a stored posting with its score against the active profile.
type Match struct {
	Posting         store.Posting
	Score           int
	MatchedKeywords []string
}

// Runner drives the fetch, score and apply cycle.
type Runner struct {
	db      *store.DB
	fetcher Fetcher
	scorer  match.Scorer
	logger  *zap.Logger
}

func NewRunner(db *store.DB, fetcher Fetcher, scorer match.Scorer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{db: db, fetcher: fetcher, scorer: scorer, logger: logger}
}

// Run executes one full cycle for the user: fetch candidates, persist new
// postings, score each against the active profile and apply to everything at
// or above the threshold. Re-running is safe; postings already applied to are
// skipped, so a repeated cycle against the same feeds applies to nothing.
func (r *Runner) Run(ctx context.Context, userID int64) (*Report, error) {
	profile, err := r.db.ActiveProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoActiveProfile
	}
	if err != nil {
		return nil, err
	}

	candidates, err := r.fetcher.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feeds: %w", err)
	}

	report := &Report{Found: len(candidates)}
	r.logger.Info("cycle started",
		zap.Int64("user_id", userID),
		zap.Int("candidates", len(candidates)))

	for _, candidate := range candidates {
		detail, err := r.process(ctx, userID, &profile.Content, candidate)
		if err != nil {
			return nil, err
		}

		if detail.Score >= applyThreshold {
			report.Matched++
		}
		if detail.Outcome == OutcomeSuccess {
			report.Applied++
		}
		report.Details = append(report.Details, detail)
	}

	r.logger.Info("cycle finished",
		zap.Int64("user_id", userID),
		zap.Int("found", report.Found),
		zap.Int("matched", report.Matched),
		zap.Int("applied", report.Applied))

	return report, nil
}

func (r *Runner) process(ctx context.Context, userID int64, profile *resume.ProfileContent, candidate feed.Candidate) (Detail, error) {
	posting, _, err := r.db.UpsertPosting(ctx, store.Posting{
		Title:       candidate.Title,
		Company:     candidate.Company,
		Description: candidate.Description,
		Location:    candidate.Location,
		Source:      candidate.Source,
		ApplyURL:    candidate.ApplyURL,
		PostedAt:    candidate.ScrapedAt,
	})
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{Title: posting.Title, Company: posting.Company}

	// Every posting is scored, even one already applied to, so repeated
	// cycles over unchanged feeds keep reporting the same matched count.
	result, err := r.scorer.Score(ctx, profile, match.Posting{
		Title:       posting.Title,
		Company:     posting.Company,
		Description: posting.Description,
	})
	if err != nil {
		return Detail{}, fmt.Errorf("score %q: %w", posting.Title, err)
	}
	detail.Score = result.Score

	applied, err := r.db.HasApplication(ctx, userID, posting.ID)
	if err != nil {
		return Detail{}, err
	}
	if applied {
		detail.Outcome = OutcomeSkipped
		detail.Message = "already applied"
		return detail, nil
	}

	if result.Score < applyThreshold {
		detail.Outcome = OutcomeIgnored
		detail.Message = fmt.Sprintf("score %d below threshold", result.Score)
		return detail, nil
	}

	app := &store.Application{
		UserID:          userID,
		PostingID:       posting.ID,
		Status:          store.StatusApplied,
		MatchScore:      result.Score,
		Notes:           fmt.Sprintf("AI Match Score: %d%%. %s", result.Score, result.Rationale),
		TrackingID:      newTrackingID(),
		VerificationLog: verificationLog(),
		History:         []store.StatusChange{{Status: store.StatusApplied, Timestamp: time.Now().UTC()}},
	}

	err = r.db.CreateApplication(ctx, app)
	if errors.Is(err, store.ErrDuplicateApplication) {
		// lost the race with a concurrent cycle
		detail.Outcome = OutcomeSkipped
		detail.Message = "already applied"
		return detail, nil
	}
	if err != nil {
		return Detail{}, err
	}

	r.logger.Info("application submitted",
		zap.String("title", posting.Title),
		zap.String("company", posting.Company),
		zap.Int("score", result.Score),
		zap.String("tracking_id", app.TrackingID))

	detail.Outcome = OutcomeSuccess
	detail.TrackingID = app.TrackingID
	return detail, nil
}

// ListMatches scores every stored posting against the user's active profile
// with the density strategy and returns those above the listing threshold,
// best first. Without a profile every posting is returned at score zero,
// bypassing the threshold, so the listing still shows what was ingested.
func (r *Runner) ListMatches(ctx context.Context, userID int64) ([]Match, error) {
	postings, err := r.db.ListPostings(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := r.db.ActiveProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		unscored := make([]Match, 0, len(postings))
		for _, posting := range postings {
			unscored = append(unscored, Match{Posting: posting})
		}
		return unscored, nil
	}
	if err != nil {
		return nil, err
	}

	scorer := match.KeywordDensityScorer{}
	matches := make([]Match, 0, len(postings))
	for _, posting := range postings {
		result, err := scorer.Score(ctx, &profile.Content, match.Posting{
			Title:       posting.Title,
			Company:     posting.Company,
			Description: posting.Description,
		})
		if err != nil {
			return nil, err
		}
		if result.Score <= listingThreshold {
			continue
		}
		matches = append(matches, Match{
			Posting:         posting,
			Score:           result.Score,
			MatchedKeywords: result.MatchedKeywords,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches, nil
}

// DailyReport returns the user's applications created inside [from, to).
func (r *Runner) DailyReport(ctx context.Context, userID int64, from, to time.Time) ([]store.ApplicationWithPosting, error) {
	return r.db.ListApplicationsBetween(ctx, userID, from, to)
}

// newTrackingID builds an APP-XXXXXXXX reference from random UUID material.
func newTrackingID() string {
	compact := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "APP-" + strings.ToUpper(compact[:8])
}

// verificationLog records the synthetic submission audit trail. Every step
// succeeds because no real form is dispatched yet.
func verificationLog() []store.VerificationStep {
	now := time.Now().UTC()
	steps := []string{
		"Job URL Validation",
		"Resume Payload Prepared",
		"Application Form Dispatched",
		"Company Gateway Response: 200",
	}

	log := make([]store.VerificationStep, 0, len(steps))
	for _, step := range steps {
		log = append(log, store.VerificationStep{
			Step:      step,
			Status:    store.StepOK,
			Timestamp: now,
		})
	}
	return log
}
