package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobpilot/internal/resume"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "jobpilot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestUpsertPostingDedupesByApplyURL(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first, created, err := db.UpsertPosting(ctx, Posting{
		Title:    "Backend Engineer",
		Company:  "Acme",
		ApplyURL: "https://acme.example/jobs/1",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Remote", first.Location)
	assert.Equal(t, "Manual", first.Source)

	second, created, err := db.UpsertPosting(ctx, Posting{
		Title:    "Backend Engineer (repost)",
		Company:  "Acme",
		ApplyURL: "https://acme.example/jobs/1",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	// first write wins, later fetches never rewrite the stored posting
	assert.Equal(t, "Backend Engineer", second.Title)

	postings, err := db.ListPostings(ctx)
	require.NoError(t, err)
	assert.Len(t, postings, 1)
}

func TestCreateApplicationRejectsDuplicate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	user, err := db.CreateUser(ctx, "Dana", "dana@example.com")
	require.NoError(t, err)

	posting, _, err := db.UpsertPosting(ctx, Posting{
		Title:    "Go Developer",
		Company:  "Initech",
		ApplyURL: "https://initech.example/jobs/7",
	})
	require.NoError(t, err)

	app := &Application{
		UserID:     user.ID,
		PostingID:  posting.ID,
		MatchScore: 72,
		TrackingID: "APP-1A2B3C4D",
		History:    []StatusChange{{Status: StatusApplied, Timestamp: time.Now().UTC()}},
	}
	require.NoError(t, db.CreateApplication(ctx, app))
	assert.NotZero(t, app.ID)
	assert.Equal(t, StatusApplied, app.Status)

	dup := &Application{UserID: user.ID, PostingID: posting.ID, TrackingID: "APP-FFFFFFFF"}
	err = db.CreateApplication(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateApplication)

	has, err := db.HasApplication(ctx, user.ID, posting.ID)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = db.HasApplication(ctx, user.ID, posting.ID+1)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestUpdateApplicationStatusAppendsHistory(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	user, err := db.CreateUser(ctx, "Lee", "")
	require.NoError(t, err)
	posting, _, err := db.UpsertPosting(ctx, Posting{
		Title: "SRE", Company: "Globex", ApplyURL: "https://globex.example/jobs/2",
	})
	require.NoError(t, err)

	app := &Application{
		UserID:     user.ID,
		PostingID:  posting.ID,
		TrackingID: "APP-00000001",
		History:    []StatusChange{{Status: StatusApplied, Timestamp: time.Now().UTC()}},
	}
	require.NoError(t, db.CreateApplication(ctx, app))

	require.NoError(t, db.UpdateApplicationStatus(ctx, app.ID, StatusInterview))

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	apps, err := db.ListApplicationsBetween(ctx, user.ID, from, to)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, StatusInterview, apps[0].Status)
	require.Len(t, apps[0].History, 2)
	assert.Equal(t, StatusApplied, apps[0].History[0].Status)
	assert.Equal(t, StatusInterview, apps[0].History[1].Status)
	assert.Equal(t, "SRE", apps[0].PostingTitle)
	assert.Equal(t, "Globex", apps[0].PostingCompany)

	err = db.UpdateApplicationStatus(ctx, app.ID+99, StatusRejected)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListApplicationsBetweenHonorsRange(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	user, err := db.CreateUser(ctx, "Kim", "")
	require.NoError(t, err)

	old, _, err := db.UpsertPosting(ctx, Posting{
		Title: "Old", Company: "A", ApplyURL: "https://a.example/old",
	})
	require.NoError(t, err)
	recent, _, err := db.UpsertPosting(ctx, Posting{
		Title: "Recent", Company: "B", ApplyURL: "https://b.example/recent",
	})
	require.NoError(t, err)

	require.NoError(t, db.CreateApplication(ctx, &Application{
		UserID: user.ID, PostingID: old.ID, TrackingID: "APP-OLD00001",
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}))
	require.NoError(t, db.CreateApplication(ctx, &Application{
		UserID: user.ID, PostingID: recent.ID, TrackingID: "APP-NEW00001",
	}))

	apps, err := db.ListApplicationsBetween(ctx, user.ID,
		time.Now().Add(-24*time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Recent", apps[0].PostingTitle)

	purged, err := db.PurgeApplications(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, purged)
}

func TestSaveProfileSupersedesPrevious(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	user, err := db.CreateUser(ctx, "Noa", "")
	require.NoError(t, err)

	_, err = db.ActiveProfile(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := db.SaveProfile(ctx, user.ID, "v1.pdf", &resume.ProfileContent{
		Keywords: []string{"go"},
	})
	require.NoError(t, err)
	assert.True(t, first.Active)

	second, err := db.SaveProfile(ctx, user.ID, "v2.pdf", &resume.ProfileContent{
		Keywords: []string{"go", "kubernetes"},
	})
	require.NoError(t, err)

	active, err := db.ActiveProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, "v2.pdf", active.FileName)
	assert.Equal(t, []string{"go", "kubernetes"}, active.Content.Keywords)
}
