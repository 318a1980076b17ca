// Package review provides spaced-repetition scheduling and review item storage.
package review

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultEasinessFactor is the easiness a new SM-2 item starts with.
	DefaultEasinessFactor = 2.5
	// MinEasinessFactor is the floor applied after every SM-2 update.
	MinEasinessFactor = 1.3
	// DefaultMasteryIntervalDays is the interval at which an SM-2 item counts as mastered.
	DefaultMasteryIntervalDays = 60
	// LadderMasteryIntervalDays is the ladder rung from which an item counts as mastered.
	LadderMasteryIntervalDays = 60
	// DefaultMaxIntervalDays caps SM-2 intervals, keeping due dates within
	// the DATETIME and INT ranges of every supported store.
	DefaultMaxIntervalDays = 36500

	maxIDLength     = 64
	maxNodeIDLength = 128
)

// Key identifies a review item: one learner studying one knowledge node within a scope
// (a certification or subject).
type Key struct {
	LearnerID string `db:"learner_id"`
	ScopeID   string `db:"scope_id"`
	NodeID    string `db:"node_id"`
}

func (k Key) String() string {
	return k.LearnerID + "/" + k.ScopeID + "/" + k.NodeID
}

// Validate reports an ErrInvalidInput when any part of the key is missing or too long.
func (k Key) Validate() error {
	var problems []string
	if k.LearnerID == "" {
		problems = append(problems, "learner ID is required")
	} else if len(k.LearnerID) > maxIDLength {
		problems = append(problems, fmt.Sprintf("learner ID exceeds %d characters", maxIDLength))
	}
	if k.ScopeID == "" {
		problems = append(problems, "scope ID is required")
	} else if len(k.ScopeID) > maxIDLength {
		problems = append(problems, fmt.Sprintf("scope ID exceeds %d characters", maxIDLength))
	}
	if k.NodeID == "" {
		problems = append(problems, "node ID is required")
	} else if len(k.NodeID) > maxNodeIDLength {
		problems = append(problems, fmt.Sprintf("node ID exceeds %d characters", maxNodeIDLength))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, ", "))
	}
	return nil
}

// Mode selects the scheduling algorithm that owns an item.
type Mode string

const (
	// ModeSM2 schedules from a 0-5 recall quality grade.
	ModeSM2 Mode = "sm2"
	// ModeLadder schedules from a binary correct/incorrect signal over a fixed interval ladder.
	ModeLadder Mode = "ladder"
)

// AllModes lists the supported scheduling modes.
var AllModes = []Mode{ModeSM2, ModeLadder}

// ParseMode converts a configuration or request value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSM2:
		return ModeSM2, nil
	case ModeLadder:
		return ModeLadder, nil
	}
	return "", fmt.Errorf("%w: unknown scheduling mode %q", ErrInvalidInput, s)
}

func (m Mode) String() string {
	return string(m)
}

// Status is the lifecycle stage of an item: new -> learning -> review -> mastered.
type Status string

const (
	StatusNew      Status = "new"
	StatusLearning Status = "learning"
	StatusReview   Status = "review"
	StatusMastered Status = "mastered"
)

// AllStatuses lists statuses in lifecycle order.
var AllStatuses = []Status{StatusNew, StatusLearning, StatusReview, StatusMastered}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusLearning, StatusReview, StatusMastered:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Schedule is the mode-specific scheduling state of an item.
// It is implemented only by SM2State and LadderState.
type Schedule interface {
	Mode() Mode
	isSchedule()
}

// SM2State is the state owned by the SM-2 algorithm.
type SM2State struct {
	// Repetitions counts consecutive successful reviews since the last lapse.
	Repetitions int
	Easiness    float64
}

// Mode implements Schedule.
func (SM2State) Mode() Mode { return ModeSM2 }
func (SM2State) isSchedule() {}

// LadderState is the state owned by the interval ladder.
type LadderState struct {
	CorrectStreak int
}

// Mode implements Schedule.
func (LadderState) Mode() Mode { return ModeLadder }
func (LadderState) isSchedule() {}

// Item is the persisted scheduling record of a learner and a knowledge node.
// Only the scheduler changes the scheduling fields; DueAt is always derived from
// LastReviewedAt and IntervalDays.
type Item struct {
	Key

	Schedule       Schedule
	IntervalDays   int
	Status         Status
	DueAt          time.Time
	LastReviewedAt *time.Time
	TotalReviews   int
	TotalCorrect   int

	// Version increases on every write and guards against lost updates.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Mode returns the scheduling mode of the item.
func (i Item) Mode() Mode {
	if i.Schedule == nil {
		return ""
	}
	return i.Schedule.Mode()
}

// SM2 returns the SM-2 state when the item is scheduled by SM-2.
func (i Item) SM2() (SM2State, bool) {
	s, ok := i.Schedule.(SM2State)
	return s, ok
}

// Ladder returns the ladder state when the item is scheduled by the ladder.
func (i Item) Ladder() (LadderState, bool) {
	s, ok := i.Schedule.(LadderState)
	return s, ok
}

// IsDue reports whether the item should be reviewed at now.
func (i Item) IsDue(now time.Time) bool {
	return !i.DueAt.After(now)
}

// Outcome is a single answer event. Exactly one of Correct or Quality is set.
type Outcome struct {
	Correct *bool
	Quality *int
}

// Correct returns a binary outcome, scheduled by the ladder.
func Correct(ok bool) Outcome {
	return Outcome{Correct: &ok}
}

// Graded returns a 0-5 quality outcome, scheduled by SM-2.
func Graded(quality int) Outcome {
	return Outcome{Quality: &quality}
}

// Validate reports an ErrInvalidInput for missing, ambiguous or out-of-range outcomes.
func (o Outcome) Validate() error {
	switch {
	case o.Correct == nil && o.Quality == nil:
		return fmt.Errorf("%w: either correct or quality must be supplied", ErrInvalidInput)
	case o.Correct != nil && o.Quality != nil:
		return fmt.Errorf("%w: correct and quality are mutually exclusive", ErrInvalidInput)
	case o.Quality != nil:
		return validateQuality(*o.Quality)
	}
	return nil
}

// Mode returns the scheduling mode the outcome belongs to.
func (o Outcome) Mode() Mode {
	if o.Quality != nil {
		return ModeSM2
	}
	return ModeLadder
}

// IsSuccess reports whether the outcome counts as a correct answer.
func (o Outcome) IsSuccess() bool {
	if o.Quality != nil {
		return *o.Quality >= passingQuality
	}
	return o.Correct != nil && *o.Correct
}

func (o Outcome) String() string {
	switch {
	case o.Quality != nil:
		return fmt.Sprintf("quality=%d", *o.Quality)
	case o.Correct != nil:
		return fmt.Sprintf("correct=%t", *o.Correct)
	}
	return "none"
}

// Normalize converts t to the scheduling clock: UTC with second precision.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// DueDate returns the calendar day arithmetic reviewedAt + intervalDays in UTC.
func DueDate(reviewedAt time.Time, intervalDays int) time.Time {
	return Normalize(reviewedAt).AddDate(0, 0, intervalDays)
}
