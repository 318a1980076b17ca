package review_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanhsing/beidou-edu-server/internal/lock"
	"github.com/sanhsing/beidou-edu-server/internal/review"
	"github.com/sanhsing/beidou-edu-server/internal/testutil"
)

func openSQLiteRepository(t *testing.T) (*sqlx.DB, *review.DBRepository) {
	t.Helper()
	db, _ := testutil.OpenMigratedSQLite(t)
	return db, review.NewDBRepository(db)
}

func TestService_RecordAnswerOutcome_Concurrent(t *testing.T) {
	const writers = 20

	tests := []struct {
		name   string
		locker review.Locker
	}{
		{name: "optimistic versioning only", locker: nil},
		{name: "with a local key lock", locker: lock.NewLocalLocker()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, repo := openSQLiteRepository(t)
			svc := review.NewService(repo, tt.locker, review.ServiceOptions{
				// Each writer can lose at most writers-1 races
				MaxAttempts:   50,
				RetryDelay:    time.Millisecond,
				MaxRetryDelay: 5 * time.Millisecond,
				Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
			})

			var wg sync.WaitGroup
			errs := make(chan error, writers)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := svc.RecordAnswerOutcome(context.Background(), key, review.Correct(true))
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			got, err := repo.Find(context.Background(), key)
			require.NoError(t, err)
			assert.Equal(t, writers, got.TotalReviews)
			assert.Equal(t, writers, got.TotalCorrect)
			assert.Equal(t, review.LadderState{CorrectStreak: writers}, got.Schedule)
			assert.Equal(t, int64(writers), got.Version)

			var history int
			require.NoError(t, db.Get(&history, "SELECT COUNT(*) FROM review_history"))
			assert.Equal(t, writers, history)
		})
	}
}

func TestService_DueItems_ReadOnly(t *testing.T) {
	_, repo := openSQLiteRepository(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := review.NewService(repo, nil, review.ServiceOptions{
		Clock:  func() time.Time { return now },
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ctx := context.Background()

	enrolled, err := svc.Enroll(ctx, review.EnrollRequest{
		LearnerID: "learner-1",
		ScopeID:   "ipas-ai",
		NodeIDs:   []string{"n1", "n2", "n3"},
	})
	require.NoError(t, err)
	assert.Equal(t, review.EnrollResult{Created: 3}, enrolled)

	_, err = svc.RecordAnswerOutcome(ctx, review.Key{LearnerID: "learner-1", ScopeID: "ipas-ai", NodeID: "n2"}, review.Graded(5))
	require.NoError(t, err)

	first, err := svc.DueItems(ctx, "learner-1", "ipas-ai", 0)
	require.NoError(t, err)
	second, err := svc.DueItems(ctx, "learner-1", "ipas-ai", 0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, "n1", first[0].NodeID)
	assert.Equal(t, "n3", first[1].NodeID)
	for _, item := range first {
		assert.Equal(t, review.StatusNew, item.Status)
		assert.Zero(t, item.TotalReviews)
	}

	// Re-enrolling never resets an answered item
	enrolled, err = svc.Enroll(ctx, review.EnrollRequest{
		LearnerID: "learner-1",
		ScopeID:   "ipas-ai",
		NodeIDs:   []string{"n2", "n4"},
	})
	require.NoError(t, err)
	assert.Equal(t, review.EnrollResult{Created: 1, Skipped: 1}, enrolled)

	answered, err := repo.Find(ctx, review.Key{LearnerID: "learner-1", ScopeID: "ipas-ai", NodeID: "n2"})
	require.NoError(t, err)
	assert.Equal(t, 1, answered.TotalReviews)
	assert.Equal(t, now.AddDate(0, 0, 1), answered.DueAt)
}

func TestService_DueItems_OrderAndBoundary(t *testing.T) {
	_, repo := openSQLiteRepository(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := review.NewService(repo, nil, review.ServiceOptions{
		Clock:  func() time.Time { return now },
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ctx := context.Background()

	dueAt := []struct {
		learnerID string
		nodeID    string
		dueAt     time.Time
	}{
		{learnerID: "learner-1", nodeID: "due-now", dueAt: now},
		{learnerID: "learner-1", nodeID: "next-century", dueAt: now.AddDate(0, 0, review.DefaultMaxIntervalDays)},
		{learnerID: "learner-1", nodeID: "three-days-late", dueAt: now.Add(-72 * time.Hour)},
		{learnerID: "learner-1", nodeID: "one-second-early", dueAt: now.Add(time.Second)},
		{learnerID: "learner-1", nodeID: "one-hour-late", dueAt: now.Add(-time.Hour)},
		{learnerID: "learner-2", nodeID: "other-learner", dueAt: now.AddDate(0, 0, -30)},
	}
	var items []review.Item
	for _, d := range dueAt {
		item, err := review.NewScheduler().NewItem(review.Key{LearnerID: d.learnerID, ScopeID: "ipas-ai", NodeID: d.nodeID}, review.ModeSM2, now)
		require.NoError(t, err)
		item.DueAt = d.dueAt
		items = append(items, item)
	}
	require.NoError(t, repo.BatchCreate(ctx, items))

	got, err := svc.DueItems(ctx, "learner-1", "", 0)
	require.NoError(t, err)

	var nodeIDs []string
	for _, item := range got {
		nodeIDs = append(nodeIDs, item.NodeID)
		assert.False(t, item.DueAt.After(now), "%s is not due yet", item.NodeID)
	}
	assert.Equal(t, []string{"three-days-late", "one-hour-late", "due-now"}, nodeIDs)

	got, err = svc.DueItems(ctx, "learner-1", "ipas-ai", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "three-days-late", got[0].NodeID)
	assert.Equal(t, "one-hour-late", got[1].NodeID)
}

func TestService_RecordAnswerOutcome_IntervalCap(t *testing.T) {
	_, repo := openSQLiteRepository(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := review.NewService(repo, nil, review.ServiceOptions{
		Clock:  func() time.Time { return now },
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ctx := context.Background()
	perfect := review.Key{LearnerID: "learner-1", ScopeID: "ipas-ai", NodeID: "perfect"}

	for i := 0; i < 40; i++ {
		item, err := svc.RecordAnswerOutcome(ctx, perfect, review.Graded(5))
		require.NoError(t, err, "answer %d", i+1)
		assert.LessOrEqual(t, item.IntervalDays, review.DefaultMaxIntervalDays, "answer %d", i+1)
		assert.True(t, item.DueAt.After(now), "answer %d is due at %s", i+1, item.DueAt)

		due, err := svc.DueItems(ctx, "learner-1", "ipas-ai", 0)
		require.NoError(t, err)
		assert.Empty(t, due, "answer %d", i+1)
	}

	got, err := repo.Find(ctx, perfect)
	require.NoError(t, err)
	assert.Equal(t, review.DefaultMaxIntervalDays, got.IntervalDays)
	assert.Equal(t, now.AddDate(0, 0, review.DefaultMaxIntervalDays), got.DueAt)
	assert.Equal(t, review.StatusMastered, got.Status)
	assert.Equal(t, 40, got.TotalReviews)
}
