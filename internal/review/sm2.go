package review

import (
	"fmt"
	"math"
)

const (
	minQuality     = 0
	maxQuality     = 5
	passingQuality = 3
)

func validateQuality(quality int) error {
	if quality < minQuality || quality > maxQuality {
		return fmt.Errorf("%w: quality must be between %d and %d, got %d", ErrInvalidInput, minQuality, maxQuality, quality)
	}
	return nil
}

// UpdateEasinessFactor applies the SM-2 easiness update for a quality grade
// and clamps the result to MinEasinessFactor.
// A zero ef is treated as DefaultEasinessFactor.
func UpdateEasinessFactor(ef float64, quality int) float64 {
	if ef == 0 {
		ef = DefaultEasinessFactor
	}

	q := float64(quality)
	delta := 0.1 - (5-q)*(0.08+(5-q)*0.02)

	return math.Max(ef+delta, MinEasinessFactor)
}

// NextSM2 computes the SM-2 state and interval that follow a review graded with quality.
// A failed recall (quality < 3) resets repetitions and schedules the item for the next day.
// The first two successes always yield 1 and 6 days; later ones multiply the previous
// interval by the updated easiness, rounded half away from zero, and never exceed
// maxIntervalDays. A non-positive maxIntervalDays means DefaultMaxIntervalDays.
func NextSM2(state SM2State, intervalDays int, quality int, maxIntervalDays int) (SM2State, int, error) {
	if err := validateQuality(quality); err != nil {
		return SM2State{}, 0, err
	}

	next := SM2State{
		Easiness: UpdateEasinessFactor(state.Easiness, quality),
	}

	if quality < passingQuality {
		return next, 1, nil
	}

	next.Repetitions = state.Repetitions + 1
	switch next.Repetitions {
	case 1:
		return next, 1, nil
	case 2:
		return next, 6, nil
	}

	if maxIntervalDays <= 0 {
		maxIntervalDays = DefaultMaxIntervalDays
	}
	if intervalDays < 1 {
		intervalDays = 1
	}
	interval := math.Round(float64(intervalDays) * next.Easiness)
	if interval > float64(maxIntervalDays) {
		return next, maxIntervalDays, nil
	}
	return next, max(int(interval), 1), nil
}
