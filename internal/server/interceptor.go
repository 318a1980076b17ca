package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-Id"

// NewLoggingInterceptor logs every unary call with its request ID, duration and error code.
// A request ID sent by the caller is kept, otherwise a new one is generated.
func NewLoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			requestID := req.Header().Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			start := time.Now()
			res, err := next(ctx, req)
			attrs := []any{
				slog.String("procedure", req.Spec().Procedure),
				slog.String("request_id", requestID),
				slog.Duration("duration", time.Since(start)),
			}

			if err != nil {
				code := connect.CodeOf(err)
				attrs = append(attrs, slog.String("code", code.String()), slog.Any("error", err))
				switch code {
				case connect.CodeInternal, connect.CodeUnavailable, connect.CodeUnknown:
					logger.ErrorContext(ctx, "rpc failed", attrs...)
				default:
					logger.WarnContext(ctx, "rpc failed", attrs...)
				}

				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					connectErr.Meta().Set(RequestIDHeader, requestID)
				}
				return nil, err
			}

			res.Header().Set(RequestIDHeader, requestID)
			logger.InfoContext(ctx, "rpc handled", attrs...)
			return res, nil
		}
	}
}
