// Package notify publishes due-review digests on a schedule.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanhsing/beidou-edu-server/internal/review"
)

//go:generate mockgen -source=digest.go -destination=../mocks/notify/mock_digest.go -package=mock_notify

// Digest tells one learner how many items are waiting for review.
type Digest struct {
	LearnerID string    `json:"learnerId"`
	DueCount  int       `json:"dueCount"`
	At        time.Time `json:"at"`
}

// Publisher delivers digests.
type Publisher interface {
	Publish(ctx context.Context, digest Digest) error
}

// DueCounter counts the due items of every learner.
type DueCounter interface {
	CountDueByLearner(ctx context.Context) ([]review.DueCount, error)
	Now() time.Time
}

// LogPublisher writes digests to a logger.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, digest Digest) error {
	p.logger.InfoContext(ctx, "review digest",
		slog.String("learner_id", digest.LearnerID),
		slog.Int("due_count", digest.DueCount),
		slog.Time("at", digest.At))
	return nil
}

// RedisPublisher publishes digests as JSON on a Redis pub/sub channel.
type RedisPublisher struct {
	rdb     redis.UniversalClient
	channel string
}

func NewRedisPublisher(rdb redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, digest Digest) error {
	raw, err := json.Marshal(digest)
	if err != nil {
		return fmt.Errorf("marshal digest: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish digest for %s: %w", digest.LearnerID, err)
	}
	return nil
}

// DigestJob publishes one digest per learner with due items.
type DigestJob struct {
	counter   DueCounter
	publisher Publisher
	logger    *slog.Logger
}

func NewDigestJob(counter DueCounter, publisher Publisher, logger *slog.Logger) *DigestJob {
	return &DigestJob{
		counter:   counter,
		publisher: publisher,
		logger:    logger,
	}
}

// Run publishes the current digests and returns how many were delivered.
// A failing learner does not stop the others; all failures are returned together.
func (j *DigestJob) Run(ctx context.Context) (int, error) {
	counts, err := j.counter.CountDueByLearner(ctx)
	if err != nil {
		return 0, fmt.Errorf("count due items: %w", err)
	}

	at := j.counter.Now()
	published := 0
	var errs []error
	for _, count := range counts {
		if count.DueCount <= 0 {
			continue
		}
		digest := Digest{LearnerID: count.LearnerID, DueCount: count.DueCount, At: at}
		if err := j.publisher.Publish(ctx, digest); err != nil {
			errs = append(errs, err)
			continue
		}
		published++
	}

	j.logger.InfoContext(ctx, "review digest job finished",
		slog.Int("learners", len(counts)),
		slog.Int("published", published),
		slog.Int("failed", len(errs)))
	return published, errors.Join(errs...)
}
