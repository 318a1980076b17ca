// Package client calls the review API of a running beidou-server.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/sanhsing/beidou-edu-server/internal/api/reviewv1"
)

const (
	DefaultTimeout       = 30 * time.Second
	DefaultRetryAttempts = 3
)

// Error is a Connect error returned by the server.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the Connect code of err, or an empty string when err did not come from the server.
func CodeOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

type Client struct {
	httpClient       *resty.Client
	maxRetryAttempts uint
}

// NewClient creates a client for the server at baseURL, e.g. "http://localhost:8080".
func NewClient(baseURL string, retryAttempts uint) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(DefaultTimeout)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Connect-Protocol-Version", "1")

	return &Client{
		httpClient:       client,
		maxRetryAttempts: retryAttempts,
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

// RecordAnswerOutcome is never retried because an answer must be applied at most once.
func (client *Client) RecordAnswerOutcome(ctx context.Context, req *reviewv1.RecordAnswerOutcomeRequest) (*reviewv1.RecordAnswerOutcomeResponse, error) {
	var res reviewv1.RecordAnswerOutcomeResponse
	if err := client.call(ctx, reviewv1.ReviewServiceRecordAnswerOutcomeProcedure, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (client *Client) GetDueItems(ctx context.Context, req *reviewv1.GetDueItemsRequest) (*reviewv1.GetDueItemsResponse, error) {
	var res reviewv1.GetDueItemsResponse
	if err := client.callWithRetry(ctx, reviewv1.ReviewServiceGetDueItemsProcedure, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (client *Client) GetForecast(ctx context.Context, req *reviewv1.GetForecastRequest) (*reviewv1.GetForecastResponse, error) {
	var res reviewv1.GetForecastResponse
	if err := client.callWithRetry(ctx, reviewv1.ReviewServiceGetForecastProcedure, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (client *Client) GetStats(ctx context.Context, req *reviewv1.GetStatsRequest) (*reviewv1.GetStatsResponse, error) {
	var res reviewv1.GetStatsResponse
	if err := client.callWithRetry(ctx, reviewv1.ReviewServiceGetStatsProcedure, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// EnrollItems is safe to retry: enrolling an existing node is a no-op.
func (client *Client) EnrollItems(ctx context.Context, req *reviewv1.EnrollItemsRequest) (*reviewv1.EnrollItemsResponse, error) {
	var res reviewv1.EnrollItemsResponse
	if err := client.callWithRetry(ctx, reviewv1.ReviewServiceEnrollItemsProcedure, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (client *Client) GetHistory(ctx context.Context, req *reviewv1.GetHistoryRequest) (*reviewv1.GetHistoryResponse, error) {
	var res reviewv1.GetHistoryResponse
	if err := client.callWithRetry(ctx, reviewv1.ReviewServiceGetHistoryProcedure, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// isRetryableError reports whether a call may succeed when repeated.
func isRetryableError(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == "unavailable"
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (client *Client) callWithRetry(ctx context.Context, procedure string, req, res any) error {
	return retry.Do(
		func() error {
			err := client.call(ctx, procedure, req, res)
			if err != nil && !isRetryableError(err) {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

func (client *Client) call(ctx context.Context, procedure string, req, res any) error {
	var apiErr Error
	resp, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(res).
		SetError(&apiErr).
		Post(procedure)
	if err != nil {
		return fmt.Errorf("call %s: %w", procedure, err)
	}
	if resp.IsError() {
		apiErr.StatusCode = resp.StatusCode()
		if apiErr.Code == "" {
			apiErr.Code = "unknown"
			apiErr.Message = http.StatusText(resp.StatusCode())
		}
		return fmt.Errorf("call %s: %w", procedure, &apiErr)
	}
	return nil
}
