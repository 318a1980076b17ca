package main

import (
	"context"
	"fmt"

	"connectrpc.com/connect"

	"github.com/sanhsing/beidou-edu-server/internal/api/reviewv1"
	"github.com/sanhsing/beidou-edu-server/internal/client"
	"github.com/sanhsing/beidou-edu-server/internal/review"
	"github.com/sanhsing/beidou-edu-server/internal/server"
)

// reviewBackend is the review API, served either by a remote server or by the local database.
type reviewBackend interface {
	RecordAnswerOutcome(ctx context.Context, req *reviewv1.RecordAnswerOutcomeRequest) (*reviewv1.RecordAnswerOutcomeResponse, error)
	GetDueItems(ctx context.Context, req *reviewv1.GetDueItemsRequest) (*reviewv1.GetDueItemsResponse, error)
	GetForecast(ctx context.Context, req *reviewv1.GetForecastRequest) (*reviewv1.GetForecastResponse, error)
	GetStats(ctx context.Context, req *reviewv1.GetStatsRequest) (*reviewv1.GetStatsResponse, error)
	EnrollItems(ctx context.Context, req *reviewv1.EnrollItemsRequest) (*reviewv1.EnrollItemsResponse, error)
	GetHistory(ctx context.Context, req *reviewv1.GetHistoryRequest) (*reviewv1.GetHistoryResponse, error)
	Close() error
}

var (
	_ reviewBackend = (*client.Client)(nil)
	_ reviewBackend = (*localBackend)(nil)
)

func openBackend(ctx context.Context) (reviewBackend, error) {
	if serverURL != "" {
		return client.NewClient(serverURL, retryAttempts), nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	svc, closeFn, err := localService(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newLocalBackend(svc, closeFn), nil
}

// localBackend runs requests through the same handler the server uses, so validation
// and error codes match the remote mode.
type localBackend struct {
	handler *server.ReviewHandler
	closeFn func() error
}

func newLocalBackend(svc server.ReviewService, closeFn func() error) *localBackend {
	return &localBackend{handler: server.NewReviewHandler(svc), closeFn: closeFn}
}

func (b *localBackend) Close() error {
	if b.closeFn == nil {
		return nil
	}
	return b.closeFn()
}

func (b *localBackend) RecordAnswerOutcome(ctx context.Context, req *reviewv1.RecordAnswerOutcomeRequest) (*reviewv1.RecordAnswerOutcomeResponse, error) {
	res, err := b.handler.RecordAnswerOutcome(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (b *localBackend) GetDueItems(ctx context.Context, req *reviewv1.GetDueItemsRequest) (*reviewv1.GetDueItemsResponse, error) {
	res, err := b.handler.GetDueItems(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (b *localBackend) GetForecast(ctx context.Context, req *reviewv1.GetForecastRequest) (*reviewv1.GetForecastResponse, error) {
	res, err := b.handler.GetForecast(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (b *localBackend) GetStats(ctx context.Context, req *reviewv1.GetStatsRequest) (*reviewv1.GetStatsResponse, error) {
	res, err := b.handler.GetStats(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (b *localBackend) EnrollItems(ctx context.Context, req *reviewv1.EnrollItemsRequest) (*reviewv1.EnrollItemsResponse, error) {
	res, err := b.handler.EnrollItems(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (b *localBackend) GetHistory(ctx context.Context, req *reviewv1.GetHistoryRequest) (*reviewv1.GetHistoryResponse, error) {
	res, err := b.handler.GetHistory(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// backendEnroller lets deck imports enroll through either backend.
type backendEnroller struct {
	backend reviewBackend
}

func (e backendEnroller) Enroll(ctx context.Context, req review.EnrollRequest) (review.EnrollResult, error) {
	res, err := e.backend.EnrollItems(ctx, &reviewv1.EnrollItemsRequest{
		LearnerID: req.LearnerID,
		ScopeID:   req.ScopeID,
		NodeIDs:   req.NodeIDs,
		Mode:      req.Mode.String(),
	})
	if err != nil {
		return review.EnrollResult{}, fmt.Errorf("EnrollItems() > %w", err)
	}
	return review.EnrollResult{Created: res.Created, Skipped: res.Skipped}, nil
}
