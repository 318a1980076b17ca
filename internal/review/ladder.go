package review

// LadderIntervals are the Ebbinghaus review intervals in days, indexed by correct streak - 1.
var LadderIntervals = []int{1, 2, 4, 7, 15, 30, 60, 120}

// LadderInterval returns the interval for a correct streak. Streaks past the end of the
// ladder stay on the last rung.
func LadderInterval(correctStreak int) int {
	index := correctStreak - 1
	if index < 0 {
		index = 0
	}
	if index > len(LadderIntervals)-1 {
		index = len(LadderIntervals) - 1
	}
	return LadderIntervals[index]
}

// NextLadder computes the ladder state, interval and status that follow a binary answer.
// Any incorrect answer is a lapse: the streak resets and the item goes back to learning.
// An item is mastered once its interval reaches LadderMasteryIntervalDays.
func NextLadder(state LadderState, correct bool) (LadderState, int, Status) {
	if !correct {
		return LadderState{}, 1, StatusLearning
	}

	next := LadderState{CorrectStreak: state.CorrectStreak + 1}
	interval := LadderInterval(next.CorrectStreak)
	return next, interval, statusForInterval(interval, LadderMasteryIntervalDays)
}

func statusForInterval(intervalDays, masteryIntervalDays int) Status {
	if intervalDays >= masteryIntervalDays {
		return StatusMastered
	}
	return StatusReview
}
