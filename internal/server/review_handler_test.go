package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/genproto/googleapis/rpc/errdetails"

	"github.com/sanhsing/beidou-edu-server/internal/api/reviewv1"
	mock_server "github.com/sanhsing/beidou-edu-server/internal/mocks/server"
	"github.com/sanhsing/beidou-edu-server/internal/review"
)

var (
	testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	testKey = review.Key{LearnerID: "learner-1", ScopeID: "ipas-ai", NodeID: "node-42"}
)

func ptr[T any](v T) *T {
	return &v
}

func sm2Item() review.Item {
	reviewedAt := testNow
	return review.Item{
		Key:            testKey,
		Schedule:       review.SM2State{Repetitions: 2, Easiness: 2.5},
		IntervalDays:   6,
		Status:         review.StatusReview,
		DueAt:          reviewedAt.AddDate(0, 0, 6),
		LastReviewedAt: &reviewedAt,
		TotalReviews:   2,
		TotalCorrect:   2,
		Version:        2,
	}
}

func requireConnectCode(t *testing.T, err error, want connect.Code) *connect.Error {
	t.Helper()
	require.Error(t, err)
	var connectErr *connect.Error
	require.True(t, errors.As(err, &connectErr))
	assert.Equal(t, want, connectErr.Code())
	return connectErr
}

func TestReviewHandler_RecordAnswerOutcome(t *testing.T) {
	tests := []struct {
		name      string
		req       *reviewv1.RecordAnswerOutcomeRequest
		setupMock func(m *mock_server.MockReviewService)
		want      *reviewv1.RecordAnswerOutcomeResponse
		wantCode  connect.Code
		wantField string
	}{
		{
			name: "graded answer",
			req:  &reviewv1.RecordAnswerOutcomeRequest{LearnerID: "learner-1", ScopeID: "ipas-ai", NodeID: "node-42", Quality: ptr(4)},
			setupMock: func(m *mock_server.MockReviewService) {
				m.EXPECT().RecordAnswerOutcome(gomock.Any(), testKey, review.Graded(4)).Return(sm2Item(), nil)
				m.EXPECT().Now().Return(testNow)
			},
			want: &reviewv1.RecordAnswerOutcomeResponse{
				Item: reviewv1.ReviewItem{
					LearnerID:          "learner-1",
					ScopeID:            "ipas-ai",
					NodeID:             "node-42",
					Mode:               "sm2",
					Repetitions:        2,
					Easiness:           2.5,
					IntervalDays:       6,
					Status:             "review",
					DueAt:              testNow.AddDate(0, 0, 6),
					LastReviewedAt:     &testNow,
					TotalReviews:       2,
					TotalCorrect:       2,
					Version:            2,
					PredictedRetention: 100,
				},
			},
		},
		{
			name:      "missing outcome",
			req:       &reviewv1.RecordAnswerOutcomeRequest{LearnerID: "learner-1", ScopeID: "ipas-ai", NodeID: "node-42"},
			setupMock: func(m *mock_server.MockReviewService) {},
			wantCode:  connect.CodeInvalidArgument,
			wantField: "correct",
		},
		{
			name:      "both outcomes",
			req:       &reviewv1.RecordAnswerOutcomeRequest{LearnerID: "learner-1", ScopeID: "ipas-ai", NodeID: "node-42", Correct: ptr(true), Quality: ptr(5)},
			setupMock: func(m *mock_server.MockReviewService) {},
			wantCode:  connect.CodeInvalidArgument,
			wantField: "correct",
		},
		{
			name:      "quality out of range",
			req:       &reviewv1.RecordAnswerOutcomeRequest{LearnerID: "learner-1", ScopeID: "ipas-ai", NodeID: "node-42", Quality: ptr(6)},
			setupMock: func(m *mock_server.MockReviewService) {},
			wantCode:  connect.CodeInvalidArgument,
			wantField: "quality",
		},
		{
			name:      "missing learner",
			req:       &reviewv1.RecordAnswerOutcomeRequest{ScopeID: "ipas-ai", NodeID: "node-42", Correct: ptr(true)},
			setupMock: func(m *mock_server.MockReviewService) {},
			wantCode:  connect.CodeInvalidArgument,
			wantField: "learnerId",
		},
		{
			name: "mode mismatch",
			req:  &reviewv1.RecordAnswerOutcomeRequest{LearnerID: "learner-1", ScopeID: "ipas-ai", NodeID: "node-42", Correct: ptr(true)},
			setupMock: func(m *mock_server.MockReviewService) {
				m.EXPECT().RecordAnswerOutcome(gomock.Any(), testKey, review.Correct(true)).
					Return(review.Item{}, fmt.Errorf("%w: item is scheduled by sm2", review.ErrModeMismatch))
			},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name: "retries exhausted",
			req:  &reviewv1.RecordAnswerOutcomeRequest{LearnerID: "learner-1", ScopeID: "ipas-ai", NodeID: "node-42", Correct: ptr(false)},
			setupMock: func(m *mock_server.MockReviewService) {
				m.EXPECT().RecordAnswerOutcome(gomock.Any(), testKey, review.Correct(false)).
					Return(review.Item{}, fmt.Errorf("record: %w: %w", review.ErrRetryExhausted, review.ErrConcurrencyConflict))
			},
			wantCode: connect.CodeAborted,
		},
		{
			name: "storage unavailable",
			req:  &reviewv1.RecordAnswerOutcomeRequest{LearnerID: "learner-1", ScopeID: "ipas-ai", NodeID: "node-42", Correct: ptr(false)},
			setupMock: func(m *mock_server.MockReviewService) {
				m.EXPECT().RecordAnswerOutcome(gomock.Any(), testKey, review.Correct(false)).
					Return(review.Item{}, fmt.Errorf("find: %w", review.ErrStorageUnavailable))
			},
			wantCode: connect.CodeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mock_server.NewMockReviewService(ctrl)
			tt.setupMock(svc)

			resp, err := NewReviewHandler(svc).RecordAnswerOutcome(context.Background(), connect.NewRequest(tt.req))
			if tt.want == nil {
				connectErr := requireConnectCode(t, err, tt.wantCode)
				assert.Nil(t, resp)
				if tt.wantField != "" {
					require.Len(t, connectErr.Details(), 1)
					value, err := connectErr.Details()[0].Value()
					require.NoError(t, err)
					badRequest, ok := value.(*errdetails.BadRequest)
					require.True(t, ok)
					require.NotEmpty(t, badRequest.GetFieldViolations())
					assert.Equal(t, tt.wantField, badRequest.GetFieldViolations()[0].GetField())
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Msg)
		})
	}
}

func TestReviewHandler_GetDueItems(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mock_server.NewMockReviewService(ctrl)
	svc.EXPECT().DueItems(gomock.Any(), "learner-1", "", 0).Return([]review.Item{
		{Key: testKey, Schedule: review.LadderState{CorrectStreak: 3}, IntervalDays: 4, Status: review.StatusReview, DueAt: testNow},
	}, nil)
	svc.EXPECT().Now().Return(testNow)

	resp, err := NewReviewHandler(svc).GetDueItems(context.Background(), connect.NewRequest(&reviewv1.GetDueItemsRequest{LearnerID: "learner-1"}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Items, 1)
	assert.Equal(t, "ladder", resp.Msg.Items[0].Mode)
	assert.Equal(t, 3, resp.Msg.Items[0].CorrectStreak)
	assert.Zero(t, resp.Msg.Items[0].Easiness)
	assert.Zero(t, resp.Msg.Items[0].PredictedRetention)

	t.Run("negative limit is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		_, err := NewReviewHandler(mock_server.NewMockReviewService(ctrl)).GetDueItems(context.Background(),
			connect.NewRequest(&reviewv1.GetDueItemsRequest{LearnerID: "learner-1", Limit: -1}))
		requireConnectCode(t, err, connect.CodeInvalidArgument)
	})
}

func TestReviewHandler_GetForecast(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mock_server.NewMockReviewService(ctrl)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	svc.EXPECT().Forecast(gomock.Any(), "learner-1", "ipas-ai", 2).Return([]review.ForecastDay{
		{Date: today, Count: 4},
		{Date: today.AddDate(0, 0, 1), Count: 0},
	}, nil)

	resp, err := NewReviewHandler(svc).GetForecast(context.Background(), connect.NewRequest(&reviewv1.GetForecastRequest{
		LearnerID: "learner-1",
		ScopeID:   "ipas-ai",
		Days:      2,
	}))
	require.NoError(t, err)
	assert.Equal(t, []reviewv1.ForecastDay{
		{Date: "2026-03-10", Count: 4},
		{Date: "2026-03-11", Count: 0},
	}, resp.Msg.Days)

	_, err = NewReviewHandler(svc).GetForecast(context.Background(), connect.NewRequest(&reviewv1.GetForecastRequest{LearnerID: "learner-1", Days: 91}))
	requireConnectCode(t, err, connect.CodeInvalidArgument)
}

func TestReviewHandler_GetStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mock_server.NewMockReviewService(ctrl)
	svc.EXPECT().Stats(gomock.Any(), "learner-1", "").Return(review.Stats{
		TotalItems:    4,
		TotalReviews:  10,
		TotalCorrect:  8,
		RetentionRate: 80,
		ByStatus:      map[review.Status]int{review.StatusNew: 1, review.StatusMastered: 3},
		MasteryRate:   75,
	}, nil)

	resp, err := NewReviewHandler(svc).GetStats(context.Background(), connect.NewRequest(&reviewv1.GetStatsRequest{LearnerID: "learner-1"}))
	require.NoError(t, err)
	assert.Equal(t, reviewv1.Stats{
		TotalItems:    4,
		TotalReviews:  10,
		TotalCorrect:  8,
		RetentionRate: 80,
		ByStatus:      map[string]int{"new": 1, "mastered": 3},
		MasteryRate:   75,
	}, resp.Msg.Stats)
}

func TestReviewHandler_EnrollItems(t *testing.T) {
	tests := []struct {
		name      string
		req       *reviewv1.EnrollItemsRequest
		setupMock func(m *mock_server.MockReviewService)
		want      *reviewv1.EnrollItemsResponse
		wantCode  connect.Code
	}{
		{
			name: "enrolls nodes",
			req:  &reviewv1.EnrollItemsRequest{LearnerID: "learner-1", ScopeID: "ipas-ai", NodeIDs: []string{"n1", "n2"}, Mode: "ladder"},
			setupMock: func(m *mock_server.MockReviewService) {
				m.EXPECT().Enroll(gomock.Any(), review.EnrollRequest{
					LearnerID: "learner-1",
					ScopeID:   "ipas-ai",
					NodeIDs:   []string{"n1", "n2"},
					Mode:      review.ModeLadder,
				}).Return(review.EnrollResult{Created: 1, Skipped: 1}, nil)
			},
			want: &reviewv1.EnrollItemsResponse{Created: 1, Skipped: 1},
		},
		{
			name:      "no nodes",
			req:       &reviewv1.EnrollItemsRequest{LearnerID: "learner-1", ScopeID: "ipas-ai"},
			setupMock: func(m *mock_server.MockReviewService) {},
			wantCode:  connect.CodeInvalidArgument,
		},
		{
			name:      "empty node ID",
			req:       &reviewv1.EnrollItemsRequest{LearnerID: "learner-1", ScopeID: "ipas-ai", NodeIDs: []string{"n1", ""}},
			setupMock: func(m *mock_server.MockReviewService) {},
			wantCode:  connect.CodeInvalidArgument,
		},
		{
			name:      "unknown mode",
			req:       &reviewv1.EnrollItemsRequest{LearnerID: "learner-1", ScopeID: "ipas-ai", NodeIDs: []string{"n1"}, Mode: "fsrs"},
			setupMock: func(m *mock_server.MockReviewService) {},
			wantCode:  connect.CodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mock_server.NewMockReviewService(ctrl)
			tt.setupMock(svc)

			resp, err := NewReviewHandler(svc).EnrollItems(context.Background(), connect.NewRequest(tt.req))
			if tt.want == nil {
				requireConnectCode(t, err, tt.wantCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Msg)
		})
	}
}

func TestReviewHandler_GetHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mock_server.NewMockReviewService(ctrl)
	svc.EXPECT().History(gomock.Any(), testKey, 10).Return([]review.HistoryEntry{
		{
			ID:             7,
			Key:            testKey,
			Mode:           review.ModeSM2,
			Quality:        ptr(4),
			Correct:        true,
			IntervalBefore: 1,
			IntervalAfter:  6,
			EasinessBefore: ptr(2.5),
			EasinessAfter:  ptr(2.5),
			StatusBefore:   review.StatusReview,
			StatusAfter:    review.StatusReview,
			ReviewedAt:     testNow,
		},
	}, nil)

	resp, err := NewReviewHandler(svc).GetHistory(context.Background(), connect.NewRequest(&reviewv1.GetHistoryRequest{
		LearnerID: "learner-1",
		ScopeID:   "ipas-ai",
		NodeID:    "node-42",
		Limit:     10,
	}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Entries, 1)
	assert.Equal(t, int64(7), resp.Msg.Entries[0].ID)
	assert.Equal(t, 6, resp.Msg.Entries[0].IntervalAfter)
	assert.Equal(t, "sm2", resp.Msg.Entries[0].Mode)
}

func TestNewHTTPHandler_RoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mock_server.NewMockReviewService(ctrl)
	svc.EXPECT().Stats(gomock.Any(), "learner-1", "ipas-ai").Return(review.Stats{TotalItems: 3}, nil)
	svc.EXPECT().Stats(gomock.Any(), "learner-2", "").Return(review.Stats{}, fmt.Errorf("aggregate: %w", review.ErrStorageUnavailable))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewHTTPHandler(svc, []string{"http://localhost:3000"}, logger))
	defer srv.Close()

	client := connect.NewClient[reviewv1.GetStatsRequest, reviewv1.GetStatsResponse](
		srv.Client(),
		srv.URL+reviewv1.ReviewServiceGetStatsProcedure,
		reviewv1.WithJSON(),
	)

	req := connect.NewRequest(&reviewv1.GetStatsRequest{LearnerID: "learner-1", ScopeID: "ipas-ai"})
	req.Header().Set(RequestIDHeader, "req-123")
	resp, err := client.CallUnary(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Msg.Stats.TotalItems)
	assert.Equal(t, "req-123", resp.Header().Get(RequestIDHeader))

	_, err = client.CallUnary(context.Background(), connect.NewRequest(&reviewv1.GetStatsRequest{LearnerID: "learner-2"}))
	connectErr := requireConnectCode(t, err, connect.CodeUnavailable)
	assert.NotEmpty(t, connectErr.Meta().Get(RequestIDHeader))

	_, err = client.CallUnary(context.Background(), connect.NewRequest(&reviewv1.GetStatsRequest{}))
	requireConnectCode(t, err, connect.CodeInvalidArgument)
}

func TestCORSMiddleware(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), []string{"http://localhost:3000"})

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{name: "preflight from an allowed origin", method: http.MethodOptions, origin: "http://localhost:3000", wantStatus: http.StatusNoContent, wantOrigin: "http://localhost:3000"},
		{name: "request from an unknown origin", method: http.MethodPost, origin: "http://evil.example", wantStatus: http.StatusOK, wantOrigin: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/beidou.review.v1.ReviewService/GetStats", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
