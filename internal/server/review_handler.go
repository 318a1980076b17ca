// Package server provides Connect RPC handlers for the review service.
package server

import (
	"context"
	"time"

	"connectrpc.com/connect"

	"github.com/sanhsing/beidou-edu-server/internal/api/reviewv1"
	"github.com/sanhsing/beidou-edu-server/internal/review"
)

//go:generate mockgen -source=review_handler.go -destination=../mocks/server/mock_review_service.go -package=mock_server

// ReviewService is the part of review.Service the handlers use.
type ReviewService interface {
	RecordAnswerOutcome(ctx context.Context, key review.Key, outcome review.Outcome) (review.Item, error)
	DueItems(ctx context.Context, learnerID, scopeID string, limit int) ([]review.Item, error)
	Forecast(ctx context.Context, learnerID, scopeID string, days int) ([]review.ForecastDay, error)
	Stats(ctx context.Context, learnerID, scopeID string) (review.Stats, error)
	Enroll(ctx context.Context, req review.EnrollRequest) (review.EnrollResult, error)
	History(ctx context.Context, key review.Key, limit int) ([]review.HistoryEntry, error)
	Now() time.Time
}

// ReviewHandler implements the ReviewService RPCs.
type ReviewHandler struct {
	svc ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(svc ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

// RecordAnswerOutcome applies one answer to an item and returns its new schedule.
func (h *ReviewHandler) RecordAnswerOutcome(
	ctx context.Context,
	req *connect.Request[reviewv1.RecordAnswerOutcomeRequest],
) (*connect.Response[reviewv1.RecordAnswerOutcomeResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	key := review.Key{LearnerID: req.Msg.LearnerID, ScopeID: req.Msg.ScopeID, NodeID: req.Msg.NodeID}
	outcome := review.Outcome{Correct: req.Msg.Correct, Quality: req.Msg.Quality}

	item, err := h.svc.RecordAnswerOutcome(ctx, key, outcome)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&reviewv1.RecordAnswerOutcomeResponse{
		Item: toReviewItem(item, h.svc.Now()),
	}), nil
}

// GetDueItems returns the due queue of a learner.
func (h *ReviewHandler) GetDueItems(
	ctx context.Context,
	req *connect.Request[reviewv1.GetDueItemsRequest],
) (*connect.Response[reviewv1.GetDueItemsResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	items, err := h.svc.DueItems(ctx, req.Msg.LearnerID, req.Msg.ScopeID, req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(err)
	}

	now := h.svc.Now()
	messages := make([]reviewv1.ReviewItem, 0, len(items))
	for _, item := range items {
		messages = append(messages, toReviewItem(item, now))
	}
	return connect.NewResponse(&reviewv1.GetDueItemsResponse{Items: messages}), nil
}

// GetForecast returns the number of items falling due on each of the next days.
func (h *ReviewHandler) GetForecast(
	ctx context.Context,
	req *connect.Request[reviewv1.GetForecastRequest],
) (*connect.Response[reviewv1.GetForecastResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	forecast, err := h.svc.Forecast(ctx, req.Msg.LearnerID, req.Msg.ScopeID, req.Msg.Days)
	if err != nil {
		return nil, toConnectError(err)
	}

	days := make([]reviewv1.ForecastDay, 0, len(forecast))
	for _, day := range forecast {
		days = append(days, reviewv1.ForecastDay{
			Date:  day.Date.Format(time.DateOnly),
			Count: day.Count,
		})
	}
	return connect.NewResponse(&reviewv1.GetForecastResponse{Days: days}), nil
}

// GetStats returns retention statistics of a learner.
func (h *ReviewHandler) GetStats(
	ctx context.Context,
	req *connect.Request[reviewv1.GetStatsRequest],
) (*connect.Response[reviewv1.GetStatsResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	stats, err := h.svc.Stats(ctx, req.Msg.LearnerID, req.Msg.ScopeID)
	if err != nil {
		return nil, toConnectError(err)
	}

	byStatus := make(map[string]int, len(stats.ByStatus))
	for status, count := range stats.ByStatus {
		byStatus[status.String()] = count
	}
	return connect.NewResponse(&reviewv1.GetStatsResponse{
		Stats: reviewv1.Stats{
			TotalItems:      stats.TotalItems,
			TotalReviews:    stats.TotalReviews,
			TotalCorrect:    stats.TotalCorrect,
			RetentionRate:   stats.RetentionRate,
			AvgEasiness:     stats.AvgEasiness,
			AvgIntervalDays: stats.AvgIntervalDays,
			ByStatus:        byStatus,
			MasteryRate:     stats.MasteryRate,
		},
	}), nil
}

// EnrollItems adds knowledge nodes to a learner's deck.
func (h *ReviewHandler) EnrollItems(
	ctx context.Context,
	req *connect.Request[reviewv1.EnrollItemsRequest],
) (*connect.Response[reviewv1.EnrollItemsResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	result, err := h.svc.Enroll(ctx, review.EnrollRequest{
		LearnerID: req.Msg.LearnerID,
		ScopeID:   req.Msg.ScopeID,
		NodeIDs:   req.Msg.NodeIDs,
		Mode:      review.Mode(req.Msg.Mode),
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&reviewv1.EnrollItemsResponse{
		Created: result.Created,
		Skipped: result.Skipped,
	}), nil
}

// GetHistory returns the latest answers of one item, newest first.
func (h *ReviewHandler) GetHistory(
	ctx context.Context,
	req *connect.Request[reviewv1.GetHistoryRequest],
) (*connect.Response[reviewv1.GetHistoryResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	key := review.Key{LearnerID: req.Msg.LearnerID, ScopeID: req.Msg.ScopeID, NodeID: req.Msg.NodeID}
	entries, err := h.svc.History(ctx, key, req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(err)
	}

	messages := make([]reviewv1.HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		messages = append(messages, reviewv1.HistoryEntry{
			ID:             entry.ID,
			Mode:           entry.Mode.String(),
			Quality:        entry.Quality,
			Correct:        entry.Correct,
			IntervalBefore: entry.IntervalBefore,
			IntervalAfter:  entry.IntervalAfter,
			EasinessBefore: entry.EasinessBefore,
			EasinessAfter:  entry.EasinessAfter,
			StatusBefore:   entry.StatusBefore.String(),
			StatusAfter:    entry.StatusAfter.String(),
			ReviewedAt:     entry.ReviewedAt,
		})
	}
	return connect.NewResponse(&reviewv1.GetHistoryResponse{Entries: messages}), nil
}

func toReviewItem(item review.Item, now time.Time) reviewv1.ReviewItem {
	msg := reviewv1.ReviewItem{
		LearnerID:          item.LearnerID,
		ScopeID:            item.ScopeID,
		NodeID:             item.NodeID,
		Mode:               item.Mode().String(),
		IntervalDays:       item.IntervalDays,
		Status:             item.Status.String(),
		DueAt:              item.DueAt,
		LastReviewedAt:     item.LastReviewedAt,
		TotalReviews:       item.TotalReviews,
		TotalCorrect:       item.TotalCorrect,
		Version:            item.Version,
		PredictedRetention: review.PredictRetention(item, now),
	}
	switch state := item.Schedule.(type) {
	case review.SM2State:
		msg.Repetitions = state.Repetitions
		msg.Easiness = state.Easiness
	case review.LadderState:
		msg.CorrectStreak = state.CorrectStreak
	}
	return msg
}
