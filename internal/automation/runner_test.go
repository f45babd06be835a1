package automation

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobpilot/internal/feed"
	"jobpilot/internal/match"
	"jobpilot/internal/resume"
	"jobpilot/internal/store"
)

type stubFetcher struct {
	candidates []feed.Candidate
}

func (s *stubFetcher) FetchAll(context.Context) ([]feed.Candidate, error) {
	return s.candidates, nil
}

// stubScorer returns a fixed score per posting title.
type stubScorer struct {
	scores map[string]int
}

func (s *stubScorer) Score(_ context.Context, _ *resume.ProfileContent, posting match.Posting) (*match.Result, error) {
	return &match.Result{
		Score:     s.scores[posting.Title],
		Rationale: "stubbed",
	}, nil
}

func newTestRunner(t *testing.T, candidates []feed.Candidate, scores map[string]int) (*Runner, *store.DB, int64) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "jobpilot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	user, err := db.CreateUser(context.Background(), "Test User", "")
	require.NoError(t, err)

	_, err = db.SaveProfile(context.Background(), user.ID, "resume.pdf", &resume.ProfileContent{
		Keywords: []string{"Go", "Kubernetes"},
	})
	require.NoError(t, err)

	runner := NewRunner(db, &stubFetcher{candidates: candidates}, &stubScorer{scores: scores}, zap.NewNop())
	return runner, db, user.ID
}

func candidate(title, url string) feed.Candidate {
	return feed.Candidate{
		Title:     title,
		Company:   "Acme",
		Location:  "Remote",
		ApplyURL:  url,
		Source:    "WeWorkRemotely",
		ScrapedAt: time.Now().UTC(),
	}
}

func TestRunAppliesAtOrAboveThreshold(t *testing.T) {
	candidates := []feed.Candidate{
		candidate("Go Engineer", "https://jobs.example/1"),
		candidate("Platform Engineer", "https://jobs.example/2"),
		candidate("Sales Rep", "https://jobs.example/3"),
	}
	scores := map[string]int{
		"Go Engineer":       90,
		"Platform Engineer": 30, // boundary is inclusive
		"Sales Rep":         29,
	}
	runner, _, userID := newTestRunner(t, candidates, scores)

	report, err := runner.Run(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Found)
	assert.Equal(t, 2, report.Matched)
	assert.Equal(t, 2, report.Applied)
	require.Len(t, report.Details, 3)

	assert.Equal(t, OutcomeSuccess, report.Details[0].Outcome)
	assert.Equal(t, OutcomeSuccess, report.Details[1].Outcome)
	assert.Equal(t, OutcomeIgnored, report.Details[2].Outcome)
	assert.Regexp(t, regexp.MustCompile(`^APP-[0-9A-F]{8}$`), report.Details[0].TrackingID)
	assert.Empty(t, report.Details[2].TrackingID)
}

func TestRunIsIdempotent(t *testing.T) {
	candidates := []feed.Candidate{candidate("Go Engineer", "https://jobs.example/1")}
	runner, _, userID := newTestRunner(t, candidates, map[string]int{"Go Engineer": 85})

	first, err := runner.Run(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Matched)
	assert.Equal(t, 1, first.Applied)

	// the rerun still scores and counts the match, it only skips applying
	second, err := runner.Run(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Matched)
	assert.Equal(t, 0, second.Applied)
	require.Len(t, second.Details, 1)
	assert.Equal(t, OutcomeSkipped, second.Details[0].Outcome)
	assert.Equal(t, 85, second.Details[0].Score)
	assert.Equal(t, "already applied", second.Details[0].Message)
}

func TestRunRequiresActiveProfile(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "jobpilot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	user, err := db.CreateUser(context.Background(), "No Resume", "")
	require.NoError(t, err)

	runner := NewRunner(db, &stubFetcher{}, &stubScorer{}, zap.NewNop())
	_, err = runner.Run(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrNoActiveProfile)
}

func TestRunRecordsApplicationDetails(t *testing.T) {
	candidates := []feed.Candidate{candidate("Go Engineer", "https://jobs.example/1")}
	runner, db, userID := newTestRunner(t, candidates, map[string]int{"Go Engineer": 85})

	_, err := runner.Run(context.Background(), userID)
	require.NoError(t, err)

	apps, err := db.ListApplicationsBetween(context.Background(), userID,
		time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, apps, 1)

	app := apps[0]
	assert.Equal(t, store.StatusApplied, app.Status)
	assert.Equal(t, 85, app.MatchScore)
	assert.Equal(t, "AI Match Score: 85%. stubbed", app.Notes)
	require.Len(t, app.VerificationLog, 4)
	assert.Equal(t, "Job URL Validation", app.VerificationLog[0].Step)
	assert.Equal(t, "Company Gateway Response: 200", app.VerificationLog[3].Step)
	for _, step := range app.VerificationLog {
		assert.Equal(t, store.StepOK, step.Status)
	}
	require.Len(t, app.History, 1)
	assert.Equal(t, store.StatusApplied, app.History[0].Status)
}

func TestListMatchesFiltersAndSorts(t *testing.T) {
	runner, db, userID := newTestRunner(t, nil, nil)
	ctx := context.Background()

	// two hits score 67, one hit 33, zero hits 0 and is filtered out
	seed := []store.Posting{
		{Title: "Go and Kubernetes role", Company: "A", ApplyURL: "https://jobs.example/a"},
		{Title: "Go role", Company: "B", ApplyURL: "https://jobs.example/b"},
		{Title: "Accountant", Company: "C", ApplyURL: "https://jobs.example/c"},
	}
	for _, p := range seed {
		_, _, err := db.UpsertPosting(ctx, p)
		require.NoError(t, err)
	}

	matches, err := runner.ListMatches(ctx, userID)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Go and Kubernetes role", matches[0].Posting.Title)
	assert.Equal(t, 67, matches[0].Score)
	assert.Equal(t, "Go role", matches[1].Posting.Title)
	assert.Equal(t, 33, matches[1].Score)
}

func TestListMatchesWithoutProfile(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "jobpilot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	user, err := db.CreateUser(context.Background(), "No Resume", "")
	require.NoError(t, err)

	_, _, err = db.UpsertPosting(context.Background(), store.Posting{
		Title: "Any Role", Company: "A", ApplyURL: "https://jobs.example/x",
	})
	require.NoError(t, err)

	runner := NewRunner(db, &stubFetcher{}, &stubScorer{}, zap.NewNop())
	matches, err := runner.ListMatches(context.Background(), user.ID)
	require.NoError(t, err)

	// every posting is listed at score zero, bypassing the threshold
	require.Len(t, matches, 1)
	assert.Equal(t, "Any Role", matches[0].Posting.Title)
	assert.Zero(t, matches[0].Score)
	assert.Empty(t, matches[0].MatchedKeywords)
}
