package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/sanhsing/beidou-edu-server/internal/api/reviewv1"
	"github.com/sanhsing/beidou-edu-server/internal/config"
)

// NewReviewServiceHandler builds an HTTP handler from the ReviewService implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewReviewServiceHandler(h *ReviewHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{reviewv1.WithJSON()}, opts...)

	recordAnswerOutcome := connect.NewUnaryHandler(reviewv1.ReviewServiceRecordAnswerOutcomeProcedure, h.RecordAnswerOutcome, opts...)
	getDueItems := connect.NewUnaryHandler(reviewv1.ReviewServiceGetDueItemsProcedure, h.GetDueItems, opts...)
	getForecast := connect.NewUnaryHandler(reviewv1.ReviewServiceGetForecastProcedure, h.GetForecast, opts...)
	getStats := connect.NewUnaryHandler(reviewv1.ReviewServiceGetStatsProcedure, h.GetStats, opts...)
	enrollItems := connect.NewUnaryHandler(reviewv1.ReviewServiceEnrollItemsProcedure, h.EnrollItems, opts...)
	getHistory := connect.NewUnaryHandler(reviewv1.ReviewServiceGetHistoryProcedure, h.GetHistory, opts...)

	return "/" + reviewv1.ReviewServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case reviewv1.ReviewServiceRecordAnswerOutcomeProcedure:
			recordAnswerOutcome.ServeHTTP(w, r)
		case reviewv1.ReviewServiceGetDueItemsProcedure:
			getDueItems.ServeHTTP(w, r)
		case reviewv1.ReviewServiceGetForecastProcedure:
			getForecast.ServeHTTP(w, r)
		case reviewv1.ReviewServiceGetStatsProcedure:
			getStats.ServeHTTP(w, r)
		case reviewv1.ReviewServiceEnrollItemsProcedure:
			enrollItems.ServeHTTP(w, r)
		case reviewv1.ReviewServiceGetHistoryProcedure:
			getHistory.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// NewHTTPHandler mounts the ReviewService with logging, CORS and h2c support.
func NewHTTPHandler(svc ReviewService, allowedOrigins []string, logger *slog.Logger) http.Handler {
	path, h := NewReviewServiceHandler(
		NewReviewHandler(svc),
		connect.WithInterceptors(NewLoggingInterceptor(logger)),
	)

	mux := http.NewServeMux()
	mux.Handle(path, h)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return corsMiddleware(h2c.NewHandler(mux, &http2.Server{}), allowedOrigins)
}

// NewHTTPServer creates the HTTP server listening on cfg.Port.
func NewHTTPServer(cfg config.ServerConfig, svc ReviewService, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           NewHTTPHandler(svc, cfg.CORS.AllowedOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func corsMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Connect-Protocol-Version, "+RequestIDHeader)
		w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
