package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/avast/retry-go"
)

const (
	DefaultMaxAttempts     = 5
	DefaultRetryDelay      = 20 * time.Millisecond
	DefaultMaxRetryDelay   = time.Second
	DefaultDueLimit        = 20
	DefaultMaxDueLimit     = 200
	DefaultForecastDays    = 7
	MaxForecastDays        = 90
	DefaultHistoryLimit    = 50
	maxEnrollNodesPerBatch = 500
)

//go:generate mockgen -source=service.go -destination=../mocks/review/mock_locker.go -package=mock_review

// Locker serializes writers of the same item key.
// The returned function releases the lock and must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type nopLocker struct{}

func (nopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// ServiceOptions tunes the Service. Zero values fall back to the package defaults.
type ServiceOptions struct {
	Scheduler       Scheduler
	EnrollMode      Mode
	MaxAttempts     uint
	RetryDelay      time.Duration
	MaxRetryDelay   time.Duration
	DefaultDueLimit int
	MaxDueLimit     int
	Clock           func() time.Time
	Logger          *slog.Logger
}

// Service is the only writer of review items. It applies the Scheduler to answer
// outcomes and answers the read queries built on the Repository.
type Service struct {
	repo   Repository
	locker Locker
	opts   ServiceOptions
}

// NewService creates a new Service. A nil locker relies on optimistic versioning alone.
func NewService(repo Repository, locker Locker, opts ServiceOptions) *Service {
	if locker == nil {
		locker = nopLocker{}
	}
	if opts.Scheduler == (Scheduler{}) {
		opts.Scheduler = NewScheduler()
	}
	if opts.EnrollMode == "" {
		opts.EnrollMode = ModeSM2
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.MaxRetryDelay <= 0 {
		opts.MaxRetryDelay = DefaultMaxRetryDelay
	}
	if opts.DefaultDueLimit <= 0 {
		opts.DefaultDueLimit = DefaultDueLimit
	}
	if opts.MaxDueLimit <= 0 {
		opts.MaxDueLimit = DefaultMaxDueLimit
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		locker: locker,
		opts:   opts,
	}
}

func (s *Service) now() time.Time {
	return Normalize(s.opts.Clock())
}

// RecordAnswerOutcome applies an answer to the item of key and persists the result.
// The first answer for a key creates the item and schedules it right away.
// Same-key calls never lose each other's updates: a version conflict re-reads and
// re-applies the outcome up to MaxAttempts times before failing with ErrRetryExhausted.
func (s *Service) RecordAnswerOutcome(ctx context.Context, key Key, outcome Outcome) (Item, error) {
	if err := key.Validate(); err != nil {
		return Item{}, err
	}
	if err := outcome.Validate(); err != nil {
		return Item{}, err
	}

	unlock, err := s.locker.Lock(ctx, key.String())
	if err != nil {
		return Item{}, fmt.Errorf("lock review item %s: %w", key, err)
	}
	defer unlock()

	var result Item
	err = retry.Do(
		func() error {
			item, err := s.recordOnce(ctx, key, outcome)
			if err != nil {
				return err
			}
			result = item
			return nil
		},
		s.retryOptions(ctx, key.String())...,
	)
	if err != nil {
		if errors.Is(err, ErrConcurrencyConflict) {
			s.opts.Logger.Warn("review item write conflicts exhausted retries",
				"key", key.String(),
				"attempts", s.opts.MaxAttempts)
			return Item{}, fmt.Errorf("record answer for %s after %d attempts: %w: %w", key, s.opts.MaxAttempts, ErrRetryExhausted, err)
		}
		return Item{}, err
	}
	return result, nil
}

// retryOptions retries only version conflicts, with jittered exponential backoff.
func (s *Service) retryOptions(ctx context.Context, target string) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(s.opts.MaxAttempts),
		retry.Delay(s.opts.RetryDelay),
		retry.MaxDelay(s.opts.MaxRetryDelay),
		retry.MaxJitter(s.opts.RetryDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrConcurrencyConflict)
		}),
		retry.OnRetry(func(n uint, err error) {
			// retry-go also reports the final attempt, which is not followed by a retry
			if n+1 >= s.opts.MaxAttempts {
				return
			}
			s.opts.Logger.Info("review write conflict, retrying",
				"target", target,
				"attempt", n+1,
				"error", err)
		}),
	}
}

func (s *Service) recordOnce(ctx context.Context, key Key, outcome Outcome) (Item, error) {
	now := s.now()

	current, err := s.repo.Find(ctx, key)
	created := false
	switch {
	case errors.Is(err, ErrNotFound):
		current, err = s.opts.Scheduler.NewItem(key, outcome.Mode(), now)
		if err != nil {
			return Item{}, err
		}
		created = true
	case err != nil:
		return Item{}, err
	}

	next, err := s.opts.Scheduler.Apply(current, outcome, now)
	if err != nil {
		return Item{}, err
	}
	entry := NewHistoryEntry(current, next, outcome)

	if created {
		return s.repo.Create(ctx, next, entry)
	}
	return s.repo.Update(ctx, next, entry)
}

// DueItems returns the items of a learner that are due now, most overdue first.
// Reading the queue never changes any item.
func (s *Service) DueItems(ctx context.Context, learnerID, scopeID string, limit int) ([]Item, error) {
	if learnerID == "" {
		return nil, fmt.Errorf("%w: learner ID is required", ErrInvalidInput)
	}

	items, err := s.repo.FindDue(ctx, DueQuery{
		LearnerID: learnerID,
		ScopeID:   scopeID,
		Now:       s.now(),
		Limit:     s.dueLimit(limit),
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

func (s *Service) dueLimit(limit int) int {
	if limit <= 0 {
		return s.opts.DefaultDueLimit
	}
	if limit > s.opts.MaxDueLimit {
		return s.opts.MaxDueLimit
	}
	return limit
}

// ForecastDay is the number of items falling due on one UTC calendar day.
type ForecastDay struct {
	Date  time.Time
	Count int
}

// Forecast returns, for each of the next days calendar days starting today (UTC), how many
// items fall due that day. Overdue items are counted on today.
func (s *Service) Forecast(ctx context.Context, learnerID, scopeID string, days int) ([]ForecastDay, error) {
	if learnerID == "" {
		return nil, fmt.Errorf("%w: learner ID is required", ErrInvalidInput)
	}
	if days <= 0 {
		days = DefaultForecastDays
	}
	if days > MaxForecastDays {
		return nil, fmt.Errorf("%w: forecast is limited to %d days, got %d", ErrInvalidInput, MaxForecastDays, days)
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	until := today.AddDate(0, 0, days)

	dates, err := s.repo.FindDueDates(ctx, learnerID, scopeID, until)
	if err != nil {
		return nil, err
	}

	forecast := make([]ForecastDay, days)
	for i := range forecast {
		forecast[i].Date = today.AddDate(0, 0, i)
	}
	for _, due := range dates {
		due = due.UTC()
		index := 0
		if !due.Before(today) {
			index = int(due.Sub(today).Hours() / 24)
		}
		if index >= days {
			continue
		}
		forecast[index].Count++
	}
	return forecast, nil
}

// Stats summarizes a learner's retention.
type Stats struct {
	TotalItems      int
	TotalReviews    int
	TotalCorrect    int
	RetentionRate   float64
	AvgEasiness     float64
	AvgIntervalDays float64
	ByStatus        map[Status]int
	MasteryRate     float64
}

// Stats returns retention statistics over a learner's items, optionally within one scope.
func (s *Service) Stats(ctx context.Context, learnerID, scopeID string) (Stats, error) {
	if learnerID == "" {
		return Stats{}, fmt.Errorf("%w: learner ID is required", ErrInvalidInput)
	}

	agg, err := s.repo.Aggregate(ctx, learnerID, scopeID)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalItems:      agg.TotalItems,
		TotalReviews:    agg.TotalReviews,
		TotalCorrect:    agg.TotalCorrect,
		AvgEasiness:     round(agg.AvgEasiness, 2),
		AvgIntervalDays: round(agg.AvgInterval, 1),
		ByStatus: map[Status]int{
			StatusNew:      agg.NewItems,
			StatusLearning: agg.LearningItems,
			StatusReview:   agg.ReviewItems,
			StatusMastered: agg.MasteredItems,
		},
	}
	if agg.TotalReviews > 0 {
		stats.RetentionRate = round(float64(agg.TotalCorrect)/float64(agg.TotalReviews)*100, 1)
	}
	if agg.TotalItems > 0 {
		stats.MasteryRate = round(float64(agg.MasteredItems)/float64(agg.TotalItems)*100, 1)
	}
	return stats, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// EnrollRequest adds knowledge nodes to a learner's review deck.
type EnrollRequest struct {
	LearnerID string
	ScopeID   string
	NodeIDs   []string
	// Mode overrides the configured enrollment mode when set.
	Mode Mode
}

// EnrollResult reports how many nodes were added and how many already had an item.
type EnrollResult struct {
	Created int
	Skipped int
}

// Enroll creates new, immediately due items for nodes the learner is not reviewing yet.
// Existing items are left untouched; enrollment is not a review.
func (s *Service) Enroll(ctx context.Context, req EnrollRequest) (EnrollResult, error) {
	mode := req.Mode
	if mode == "" {
		mode = s.opts.EnrollMode
	}
	mode, err := ParseMode(string(mode))
	if err != nil {
		return EnrollResult{}, err
	}
	if len(req.NodeIDs) == 0 {
		return EnrollResult{}, fmt.Errorf("%w: at least one node ID is required", ErrInvalidInput)
	}
	if len(req.NodeIDs) > maxEnrollNodesPerBatch {
		return EnrollResult{}, fmt.Errorf("%w: at most %d node IDs can be enrolled at once", ErrInvalidInput, maxEnrollNodesPerBatch)
	}

	seen := make(map[string]struct{}, len(req.NodeIDs))
	var nodeIDs []string
	for _, nodeID := range req.NodeIDs {
		key := Key{LearnerID: req.LearnerID, ScopeID: req.ScopeID, NodeID: nodeID}
		if err := key.Validate(); err != nil {
			return EnrollResult{}, err
		}
		if _, ok := seen[nodeID]; ok {
			continue
		}
		seen[nodeID] = struct{}{}
		nodeIDs = append(nodeIDs, nodeID)
	}

	var result EnrollResult
	err = retry.Do(
		func() error {
			r, err := s.enrollOnce(ctx, req.LearnerID, req.ScopeID, nodeIDs, mode)
			if err != nil {
				return err
			}
			result = r
			return nil
		},
		s.retryOptions(ctx, req.LearnerID+"/"+req.ScopeID)...,
	)
	if err != nil {
		if errors.Is(err, ErrConcurrencyConflict) {
			return EnrollResult{}, fmt.Errorf("enroll %d nodes for %s: %w: %w", len(nodeIDs), req.LearnerID, ErrRetryExhausted, err)
		}
		return EnrollResult{}, err
	}
	result.Skipped += len(req.NodeIDs) - len(nodeIDs)
	return result, nil
}

func (s *Service) enrollOnce(ctx context.Context, learnerID, scopeID string, nodeIDs []string, mode Mode) (EnrollResult, error) {
	existing, err := s.repo.FindByNodes(ctx, learnerID, scopeID, nodeIDs)
	if err != nil {
		return EnrollResult{}, err
	}
	known := make(map[string]struct{}, len(existing))
	for _, item := range existing {
		known[item.NodeID] = struct{}{}
	}

	now := s.now()
	var items []Item
	for _, nodeID := range nodeIDs {
		if _, ok := known[nodeID]; ok {
			continue
		}
		item, err := s.opts.Scheduler.NewItem(Key{LearnerID: learnerID, ScopeID: scopeID, NodeID: nodeID}, mode, now)
		if err != nil {
			return EnrollResult{}, err
		}
		items = append(items, item)
	}

	if err := s.repo.BatchCreate(ctx, items); err != nil {
		return EnrollResult{}, err
	}
	return EnrollResult{Created: len(items), Skipped: len(known)}, nil
}

// History returns the latest answer events of one item, newest first.
func (s *Service) History(ctx context.Context, key Key, limit int) ([]HistoryEntry, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	return s.repo.History(ctx, key, limit)
}

// Items returns every item of a learner.
func (s *Service) Items(ctx context.Context, learnerID string) ([]Item, error) {
	if learnerID == "" {
		return nil, fmt.Errorf("%w: learner ID is required", ErrInvalidInput)
	}
	return s.repo.FindAll(ctx, learnerID)
}

// LearnerHistory returns every answer event of a learner.
func (s *Service) LearnerHistory(ctx context.Context, learnerID string) ([]HistoryEntry, error) {
	if learnerID == "" {
		return nil, fmt.Errorf("%w: learner ID is required", ErrInvalidInput)
	}
	return s.repo.HistoryByLearner(ctx, learnerID)
}

// CountDueByLearner counts due items per learner at the current time.
func (s *Service) CountDueByLearner(ctx context.Context) ([]DueCount, error) {
	return s.repo.CountDueByLearner(ctx, s.now())
}

// Now returns the service clock on the scheduling timeline.
func (s *Service) Now() time.Time {
	return s.now()
}
