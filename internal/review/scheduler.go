package review

import (
	"fmt"
	"math"
	"time"
)

// Scheduler turns answer outcomes into the next review state. It performs no I/O.
type Scheduler struct {
	// DefaultEasiness is the easiness of newly created SM-2 items.
	DefaultEasiness float64
	// MasteryIntervalDays is the interval from which a successful review marks an SM-2 item
	// mastered. Ladder items always use LadderMasteryIntervalDays.
	MasteryIntervalDays int
	// MaxIntervalDays caps SM-2 intervals.
	MaxIntervalDays int
}

// NewScheduler returns a Scheduler with the conventional SM-2 defaults.
func NewScheduler() Scheduler {
	return Scheduler{
		DefaultEasiness:     DefaultEasinessFactor,
		MasteryIntervalDays: DefaultMasteryIntervalDays,
		MaxIntervalDays:     DefaultMaxIntervalDays,
	}
}

func (s Scheduler) defaultEasiness() float64 {
	if s.DefaultEasiness < MinEasinessFactor {
		return DefaultEasinessFactor
	}
	return s.DefaultEasiness
}

func (s Scheduler) masteryIntervalDays() int {
	if s.MasteryIntervalDays <= 0 {
		return DefaultMasteryIntervalDays
	}
	return s.MasteryIntervalDays
}

func (s Scheduler) maxIntervalDays() int {
	if s.MaxIntervalDays <= 0 {
		return DefaultMaxIntervalDays
	}
	return s.MaxIntervalDays
}

// NewItem returns a never-reviewed item for key that is due at now.
func (s Scheduler) NewItem(key Key, mode Mode, now time.Time) (Item, error) {
	var schedule Schedule
	switch mode {
	case ModeSM2:
		schedule = SM2State{Easiness: s.defaultEasiness()}
	case ModeLadder:
		schedule = LadderState{}
	default:
		return Item{}, fmt.Errorf("%w: unknown scheduling mode %q", ErrInvalidInput, mode)
	}

	now = Normalize(now)
	return Item{
		Key:          key,
		Schedule:     schedule,
		IntervalDays: 1,
		Status:       StatusNew,
		DueAt:        now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Apply returns the state of item after outcome was answered at now.
// The outcome must belong to the item's mode; mixing modes on one item is rejected
// with ErrModeMismatch.
func (s Scheduler) Apply(item Item, outcome Outcome, now time.Time) (Item, error) {
	if err := outcome.Validate(); err != nil {
		return Item{}, err
	}
	if item.Schedule == nil {
		return Item{}, fmt.Errorf("%w: item %s has no schedule", ErrInvalidInput, item.Key)
	}
	if item.Mode() != outcome.Mode() {
		return Item{}, fmt.Errorf("%w: item %s is scheduled by %s, got %s", ErrModeMismatch, item.Key, item.Mode(), outcome)
	}

	next := item
	switch state := item.Schedule.(type) {
	case SM2State:
		sm2, interval, err := NextSM2(state, item.IntervalDays, *outcome.Quality, s.maxIntervalDays())
		if err != nil {
			return Item{}, err
		}
		next.Schedule = sm2
		next.IntervalDays = interval
		if *outcome.Quality < passingQuality {
			next.Status = StatusLearning
		} else {
			next.Status = statusForInterval(interval, s.masteryIntervalDays())
		}
	case LadderState:
		ladder, interval, status := NextLadder(state, *outcome.Correct)
		next.Schedule = ladder
		next.IntervalDays = interval
		next.Status = status
	}

	reviewedAt := Normalize(now)
	next.LastReviewedAt = &reviewedAt
	next.DueAt = DueDate(reviewedAt, next.IntervalDays)
	next.UpdatedAt = reviewedAt
	next.TotalReviews++
	if outcome.IsSuccess() {
		next.TotalCorrect++
	}
	return next, nil
}

// PredictRetention estimates the probability, in percent, that the learner still recalls
// the item at now, using the forgetting curve R = exp(-t/S). Never-reviewed items return 0.
func PredictRetention(item Item, now time.Time) float64 {
	if item.LastReviewedAt == nil || item.IntervalDays <= 0 {
		return 0
	}

	stability := float64(item.IntervalDays)
	if sm2, ok := item.SM2(); ok {
		stability *= sm2.Easiness / DefaultEasinessFactor
	}
	stability = math.Max(stability, 1)

	elapsed := Normalize(now).Sub(*item.LastReviewedAt).Hours() / 24
	if elapsed < 0 {
		elapsed = 0
	}
	retention := math.Exp(-elapsed/stability) * 100
	return math.Round(retention*10) / 10
}
