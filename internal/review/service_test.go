package review_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_review "github.com/sanhsing/beidou-edu-server/internal/mocks/review"
	"github.com/sanhsing/beidou-edu-server/internal/review"
)

var (
	key      = review.Key{LearnerID: "learner-1", ScopeID: "ipas-ai", NodeID: "node-42"}
	fixedNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
)

func newService(repo review.Repository, locker review.Locker) *review.Service {
	return review.NewService(repo, locker, review.ServiceOptions{
		MaxAttempts:   3,
		RetryDelay:    time.Millisecond,
		MaxRetryDelay: 2 * time.Millisecond,
		Clock:         func() time.Time { return fixedNow },
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func storedItem(schedule review.Schedule, interval int, version int64) review.Item {
	last := fixedNow.AddDate(0, 0, -interval)
	return review.Item{
		Key:            key,
		Schedule:       schedule,
		IntervalDays:   interval,
		Status:         review.StatusReview,
		DueAt:          fixedNow,
		LastReviewedAt: &last,
		TotalReviews:   2,
		TotalCorrect:   2,
		Version:        version,
		CreatedAt:      last,
		UpdatedAt:      last,
	}
}

func TestService_RecordAnswerOutcome(t *testing.T) {
	tests := []struct {
		name      string
		outcome   review.Outcome
		setupMock func(repo *mock_review.MockRepository)
		check     func(t *testing.T, got review.Item)
		wantErr   []error
	}{
		{
			name:    "first answer creates and schedules the item",
			outcome: review.Graded(5),
			setupMock: func(repo *mock_review.MockRepository) {
				repo.EXPECT().Find(gomock.Any(), key).Return(review.Item{}, review.ErrNotFound)
				repo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, item review.Item, entry review.HistoryEntry) (review.Item, error) {
						assert.Equal(t, review.StatusNew, entry.StatusBefore)
						assert.Equal(t, review.StatusReview, entry.StatusAfter)
						item.Version = 1
						return item, nil
					})
			},
			check: func(t *testing.T, got review.Item) {
				assert.Equal(t, review.ModeSM2, got.Mode())
				sm2, _ := got.SM2()
				assert.Equal(t, 1, sm2.Repetitions)
				assert.InDelta(t, 2.6, sm2.Easiness, 1e-9)
				assert.Equal(t, 1, got.IntervalDays)
				assert.Equal(t, fixedNow.AddDate(0, 0, 1), got.DueAt)
				assert.Equal(t, 1, got.TotalReviews)
				assert.Equal(t, 1, got.TotalCorrect)
				assert.Equal(t, int64(1), got.Version)
			},
		},
		{
			name:    "binary first answer creates a ladder item",
			outcome: review.Correct(false),
			setupMock: func(repo *mock_review.MockRepository) {
				repo.EXPECT().Find(gomock.Any(), key).Return(review.Item{}, review.ErrNotFound)
				repo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, item review.Item, _ review.HistoryEntry) (review.Item, error) {
						item.Version = 1
						return item, nil
					})
			},
			check: func(t *testing.T, got review.Item) {
				assert.Equal(t, review.LadderState{}, got.Schedule)
				assert.Equal(t, review.StatusLearning, got.Status)
				assert.Equal(t, 1, got.TotalReviews)
				assert.Equal(t, 0, got.TotalCorrect)
			},
		},
		{
			name:    "existing item is updated with its version",
			outcome: review.Correct(true),
			setupMock: func(repo *mock_review.MockRepository) {
				repo.EXPECT().Find(gomock.Any(), key).Return(storedItem(review.LadderState{CorrectStreak: 4}, 7, 9), nil)
				repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, item review.Item, _ review.HistoryEntry) (review.Item, error) {
						assert.Equal(t, int64(9), item.Version)
						item.Version++
						return item, nil
					})
			},
			check: func(t *testing.T, got review.Item) {
				assert.Equal(t, review.LadderState{CorrectStreak: 5}, got.Schedule)
				assert.Equal(t, 15, got.IntervalDays)
				assert.Equal(t, 3, got.TotalReviews)
				assert.Equal(t, int64(10), got.Version)
			},
		},
		{
			name:    "version conflict re-reads and re-applies",
			outcome: review.Graded(4),
			setupMock: func(repo *mock_review.MockRepository) {
				gomock.InOrder(
					repo.EXPECT().Find(gomock.Any(), key).Return(storedItem(review.SM2State{Repetitions: 2, Easiness: 2.5}, 6, 3), nil),
					repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
						Return(review.Item{}, fmt.Errorf("update: %w", review.ErrConcurrencyConflict)),
					// The concurrent writer already moved the item forward
					repo.EXPECT().Find(gomock.Any(), key).Return(storedItem(review.SM2State{Repetitions: 3, Easiness: 2.5}, 15, 4), nil),
					repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
						DoAndReturn(func(_ context.Context, item review.Item, _ review.HistoryEntry) (review.Item, error) {
							assert.Equal(t, int64(4), item.Version)
							item.Version++
							return item, nil
						}),
				)
			},
			check: func(t *testing.T, got review.Item) {
				sm2, _ := got.SM2()
				assert.Equal(t, 4, sm2.Repetitions)
				assert.Equal(t, 38, got.IntervalDays) // round(15 * 2.5)
				assert.Equal(t, int64(5), got.Version)
			},
		},
		{
			name:    "concurrent first answers conflict on insert",
			outcome: review.Graded(3),
			setupMock: func(repo *mock_review.MockRepository) {
				gomock.InOrder(
					repo.EXPECT().Find(gomock.Any(), key).Return(review.Item{}, review.ErrNotFound),
					repo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
						Return(review.Item{}, fmt.Errorf("insert: %w", review.ErrConcurrencyConflict)),
					repo.EXPECT().Find(gomock.Any(), key).Return(storedItem(review.SM2State{Repetitions: 1, Easiness: 2.6}, 1, 1), nil),
					repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
						DoAndReturn(func(_ context.Context, item review.Item, _ review.HistoryEntry) (review.Item, error) {
							item.Version++
							return item, nil
						}),
				)
			},
			check: func(t *testing.T, got review.Item) {
				sm2, _ := got.SM2()
				assert.Equal(t, 2, sm2.Repetitions)
				assert.Equal(t, 6, got.IntervalDays)
			},
		},
		{
			name:    "conflicts exhaust the retries",
			outcome: review.Graded(4),
			setupMock: func(repo *mock_review.MockRepository) {
				repo.EXPECT().Find(gomock.Any(), key).Return(storedItem(review.SM2State{Repetitions: 2, Easiness: 2.5}, 6, 3), nil).Times(3)
				repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(review.Item{}, review.ErrConcurrencyConflict).Times(3)
			},
			wantErr: []error{review.ErrRetryExhausted, review.ErrConcurrencyConflict},
		},
		{
			name:    "storage errors are not retried",
			outcome: review.Graded(4),
			setupMock: func(repo *mock_review.MockRepository) {
				repo.EXPECT().Find(gomock.Any(), key).Return(review.Item{}, fmt.Errorf("find: %w", review.ErrStorageUnavailable))
			},
			wantErr: []error{review.ErrStorageUnavailable},
		},
		{
			name:    "mixed modes are rejected without writing",
			outcome: review.Graded(5),
			setupMock: func(repo *mock_review.MockRepository) {
				repo.EXPECT().Find(gomock.Any(), key).Return(storedItem(review.LadderState{CorrectStreak: 2}, 2, 2), nil)
			},
			wantErr: []error{review.ErrModeMismatch, review.ErrInvalidInput},
		},
		{
			name:      "missing outcome is rejected before reading",
			outcome:   review.Outcome{},
			setupMock: func(repo *mock_review.MockRepository) {},
			wantErr:   []error{review.ErrInvalidInput},
		},
		{
			name:      "quality out of range is rejected before reading",
			outcome:   review.Graded(9),
			setupMock: func(repo *mock_review.MockRepository) {},
			wantErr:   []error{review.ErrInvalidInput},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mock_review.NewMockRepository(ctrl)
			tt.setupMock(repo)

			got, err := newService(repo, nil).RecordAnswerOutcome(context.Background(), key, tt.outcome)
			if len(tt.wantErr) > 0 {
				require.Error(t, err)
				for _, want := range tt.wantErr {
					assert.ErrorIs(t, err, want)
				}
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestService_RecordAnswerOutcome_RetryLogging(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock_review.NewMockRepository(ctrl)
	repo.EXPECT().Find(gomock.Any(), key).Return(storedItem(review.SM2State{Repetitions: 2, Easiness: 2.5}, 6, 3), nil).Times(3)
	repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(review.Item{}, review.ErrConcurrencyConflict).Times(3)

	var logs bytes.Buffer
	svc := review.NewService(repo, nil, review.ServiceOptions{
		MaxAttempts:   3,
		RetryDelay:    time.Millisecond,
		MaxRetryDelay: 2 * time.Millisecond,
		Clock:         func() time.Time { return fixedNow },
		Logger:        slog.New(slog.NewTextHandler(&logs, nil)),
	})

	_, err := svc.RecordAnswerOutcome(context.Background(), key, review.Graded(4))
	require.ErrorIs(t, err, review.ErrRetryExhausted)

	output := logs.String()
	assert.Equal(t, 2, strings.Count(output, "review write conflict, retrying"))
	assert.Equal(t, 1, strings.Count(output, "review item write conflicts exhausted retries"))
	assert.NotContains(t, output, "attempt=3")
}

func TestService_RecordAnswerOutcome_Locking(t *testing.T) {
	t.Run("holds the key lock around the write", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_review.NewMockRepository(ctrl)
		locker := mock_review.NewMockLocker(ctrl)

		released := false
		locker.EXPECT().Lock(gomock.Any(), "learner-1/ipas-ai/node-42").Return(func() { released = true }, nil)
		repo.EXPECT().Find(gomock.Any(), key).Return(review.Item{}, review.ErrNotFound)
		repo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, item review.Item, _ review.HistoryEntry) (review.Item, error) {
				assert.False(t, released)
				return item, nil
			})

		_, err := newService(repo, locker).RecordAnswerOutcome(context.Background(), key, review.Correct(true))
		require.NoError(t, err)
		assert.True(t, released)
	})

	t.Run("lock failure writes nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_review.NewMockRepository(ctrl)
		locker := mock_review.NewMockLocker(ctrl)
		locker.EXPECT().Lock(gomock.Any(), gomock.Any()).Return(nil, context.DeadlineExceeded)

		_, err := newService(repo, locker).RecordAnswerOutcome(context.Background(), key, review.Correct(true))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestService_DueItems(t *testing.T) {
	tests := []struct {
		name      string
		scopeID   string
		limit     int
		wantLimit int
	}{
		{name: "default limit", limit: 0, wantLimit: 20},
		{name: "negative limit", limit: -5, wantLimit: 20},
		{name: "explicit limit", scopeID: "ipas-ai", limit: 50, wantLimit: 50},
		{name: "limit is clamped", limit: 1000, wantLimit: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mock_review.NewMockRepository(ctrl)
			repo.EXPECT().FindDue(gomock.Any(), review.DueQuery{
				LearnerID: "learner-1",
				ScopeID:   tt.scopeID,
				Now:       fixedNow,
				Limit:     tt.wantLimit,
			}).Return(nil, nil)

			got, err := newService(repo, nil).DueItems(context.Background(), "learner-1", tt.scopeID, tt.limit)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}

	t.Run("learner is required", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		_, err := newService(mock_review.NewMockRepository(ctrl), nil).DueItems(context.Background(), "", "", 10)
		assert.ErrorIs(t, err, review.ErrInvalidInput)
	})
}

func TestService_Forecast(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	ctrl := gomock.NewController(t)
	repo := mock_review.NewMockRepository(ctrl)
	repo.EXPECT().FindDueDates(gomock.Any(), "learner-1", "", today.AddDate(0, 0, 3)).Return([]time.Time{
		today.AddDate(0, 0, -4),                   // overdue
		today.Add(23 * time.Hour),                 // today
		today.AddDate(0, 0, 1).Add(time.Second),   // tomorrow
		today.AddDate(0, 0, 2).Add(12 * time.Hour), // day after
		today.AddDate(0, 0, 2).Add(13 * time.Hour),
	}, nil)

	got, err := newService(repo, nil).Forecast(context.Background(), "learner-1", "", 3)
	require.NoError(t, err)
	assert.Equal(t, []review.ForecastDay{
		{Date: today, Count: 2},
		{Date: today.AddDate(0, 0, 1), Count: 1},
		{Date: today.AddDate(0, 0, 2), Count: 2},
	}, got)

	t.Run("defaults to a week", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_review.NewMockRepository(ctrl)
		repo.EXPECT().FindDueDates(gomock.Any(), "learner-1", "ipas-ai", today.AddDate(0, 0, 7)).Return(nil, nil)

		got, err := newService(repo, nil).Forecast(context.Background(), "learner-1", "ipas-ai", 0)
		require.NoError(t, err)
		assert.Len(t, got, 7)
	})

	t.Run("rejects more than 90 days", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		_, err := newService(mock_review.NewMockRepository(ctrl), nil).Forecast(context.Background(), "learner-1", "", 91)
		assert.ErrorIs(t, err, review.ErrInvalidInput)
	})
}

func TestService_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock_review.NewMockRepository(ctrl)
	repo.EXPECT().Aggregate(gomock.Any(), "learner-1", "").Return(review.Aggregate{
		TotalItems:    8,
		TotalReviews:  30,
		TotalCorrect:  22,
		AvgEasiness:   2.41666,
		AvgInterval:   12.345,
		NewItems:      2,
		LearningItems: 1,
		ReviewItems:   3,
		MasteredItems: 2,
	}, nil)

	got, err := newService(repo, nil).Stats(context.Background(), "learner-1", "")
	require.NoError(t, err)
	assert.Equal(t, review.Stats{
		TotalItems:      8,
		TotalReviews:    30,
		TotalCorrect:    22,
		RetentionRate:   73.3,
		AvgEasiness:     2.42,
		AvgIntervalDays: 12.3,
		ByStatus: map[review.Status]int{
			review.StatusNew:      2,
			review.StatusLearning: 1,
			review.StatusReview:   3,
			review.StatusMastered: 2,
		},
		MasteryRate: 25,
	}, got)

	t.Run("no reviews yet", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_review.NewMockRepository(ctrl)
		repo.EXPECT().Aggregate(gomock.Any(), "learner-2", "").Return(review.Aggregate{}, nil)

		got, err := newService(repo, nil).Stats(context.Background(), "learner-2", "")
		require.NoError(t, err)
		assert.Zero(t, got.RetentionRate)
		assert.Zero(t, got.MasteryRate)
	})
}

func TestService_Enroll(t *testing.T) {
	t.Run("creates only unknown nodes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_review.NewMockRepository(ctrl)
		repo.EXPECT().FindByNodes(gomock.Any(), "learner-1", "ipas-ai", []string{"n1", "n2", "n3"}).
			Return([]review.Item{{Key: review.Key{LearnerID: "learner-1", ScopeID: "ipas-ai", NodeID: "n2"}}}, nil)
		repo.EXPECT().BatchCreate(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, items []review.Item) error {
				require.Len(t, items, 2)
				assert.Equal(t, "n1", items[0].NodeID)
				assert.Equal(t, "n3", items[1].NodeID)
				for _, item := range items {
					assert.Equal(t, review.ModeLadder, item.Mode())
					assert.Equal(t, review.StatusNew, item.Status)
					assert.Equal(t, fixedNow, item.DueAt)
					assert.Nil(t, item.LastReviewedAt)
					assert.Zero(t, item.TotalReviews)
				}
				return nil
			})

		got, err := newService(repo, nil).Enroll(context.Background(), review.EnrollRequest{
			LearnerID: "learner-1",
			ScopeID:   "ipas-ai",
			NodeIDs:   []string{"n1", "n2", "n1", "n3"},
			Mode:      review.ModeLadder,
		})
		require.NoError(t, err)
		assert.Equal(t, review.EnrollResult{Created: 2, Skipped: 2}, got)
	})

	t.Run("retries when another writer created a node first", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_review.NewMockRepository(ctrl)
		gomock.InOrder(
			repo.EXPECT().FindByNodes(gomock.Any(), "learner-1", "ipas-ai", []string{"n1"}).Return(nil, nil),
			repo.EXPECT().BatchCreate(gomock.Any(), gomock.Len(1)).Return(review.ErrConcurrencyConflict),
			repo.EXPECT().FindByNodes(gomock.Any(), "learner-1", "ipas-ai", []string{"n1"}).
				Return([]review.Item{{Key: review.Key{LearnerID: "learner-1", ScopeID: "ipas-ai", NodeID: "n1"}}}, nil),
			repo.EXPECT().BatchCreate(gomock.Any(), gomock.Len(0)).Return(nil),
		)

		got, err := newService(repo, nil).Enroll(context.Background(), review.EnrollRequest{
			LearnerID: "learner-1",
			ScopeID:   "ipas-ai",
			NodeIDs:   []string{"n1"},
		})
		require.NoError(t, err)
		assert.Equal(t, review.EnrollResult{Created: 0, Skipped: 1}, got)
	})

	t.Run("normalizes the requested mode", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_review.NewMockRepository(ctrl)
		repo.EXPECT().FindByNodes(gomock.Any(), "learner-1", "ipas-ai", []string{"n1"}).Return(nil, nil)
		repo.EXPECT().BatchCreate(gomock.Any(), gomock.Len(1)).
			DoAndReturn(func(_ context.Context, items []review.Item) error {
				assert.Equal(t, review.ModeSM2, items[0].Mode())
				return nil
			})

		got, err := newService(repo, nil).Enroll(context.Background(), review.EnrollRequest{
			LearnerID: "learner-1",
			ScopeID:   "ipas-ai",
			NodeIDs:   []string{"n1"},
			Mode:      " SM2",
		})
		require.NoError(t, err)
		assert.Equal(t, review.EnrollResult{Created: 1}, got)
	})

	t.Run("rejects invalid requests", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := newService(mock_review.NewMockRepository(ctrl), nil)

		_, err := svc.Enroll(context.Background(), review.EnrollRequest{LearnerID: "learner-1", ScopeID: "ipas-ai"})
		assert.ErrorIs(t, err, review.ErrInvalidInput)

		_, err = svc.Enroll(context.Background(), review.EnrollRequest{LearnerID: "learner-1", NodeIDs: []string{"n1"}})
		assert.ErrorIs(t, err, review.ErrInvalidInput)

		_, err = svc.Enroll(context.Background(), review.EnrollRequest{LearnerID: "learner-1", ScopeID: "s", NodeIDs: []string{"n1"}, Mode: "fsrs"})
		assert.ErrorIs(t, err, review.ErrInvalidInput)
	})
}

func TestService_History(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock_review.NewMockRepository(ctrl)
	repo.EXPECT().History(gomock.Any(), key, 50).Return([]review.HistoryEntry{{ID: 1, Key: key}}, nil)
	repo.EXPECT().History(gomock.Any(), key, 5).Return(nil, errors.New("boom"))

	svc := newService(repo, nil)
	got, err := svc.History(context.Background(), key, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.History(context.Background(), key, 5)
	assert.Error(t, err)
}
