package reviewv1

import "time"

// ReviewItem is the scheduling state of one learner on one knowledge node.
// Easiness and Repetitions are set for sm2 items, CorrectStreak for ladder items.
type ReviewItem struct {
	LearnerID          string     `json:"learnerId"`
	ScopeID            string     `json:"scopeId"`
	NodeID             string     `json:"nodeId"`
	Mode               string     `json:"mode"`
	Repetitions        int        `json:"repetitions,omitempty"`
	Easiness           float64    `json:"easiness,omitempty"`
	CorrectStreak      int        `json:"correctStreak,omitempty"`
	IntervalDays       int        `json:"intervalDays"`
	Status             string     `json:"status"`
	DueAt              time.Time  `json:"dueAt"`
	LastReviewedAt     *time.Time `json:"lastReviewedAt,omitempty"`
	TotalReviews       int        `json:"totalReviews"`
	TotalCorrect       int        `json:"totalCorrect"`
	Version            int64      `json:"version"`
	PredictedRetention float64    `json:"predictedRetention"`
}

// RecordAnswerOutcomeRequest carries exactly one of Correct (ladder) or Quality (sm2).
type RecordAnswerOutcomeRequest struct {
	LearnerID string `json:"learnerId" validate:"required,max=64"`
	ScopeID   string `json:"scopeId" validate:"required,max=64"`
	NodeID    string `json:"nodeId" validate:"required,max=128"`
	Correct   *bool  `json:"correct,omitempty" validate:"required_without=Quality,excluded_with=Quality"`
	Quality   *int   `json:"quality,omitempty" validate:"omitempty,min=0,max=5"`
}

type RecordAnswerOutcomeResponse struct {
	Item ReviewItem `json:"item"`
}

type GetDueItemsRequest struct {
	LearnerID string `json:"learnerId" validate:"required,max=64"`
	ScopeID   string `json:"scopeId,omitempty" validate:"max=64"`
	Limit     int    `json:"limit,omitempty" validate:"min=0"`
}

type GetDueItemsResponse struct {
	Items []ReviewItem `json:"items"`
}

type GetForecastRequest struct {
	LearnerID string `json:"learnerId" validate:"required,max=64"`
	ScopeID   string `json:"scopeId,omitempty" validate:"max=64"`
	Days      int    `json:"days,omitempty" validate:"min=0,max=90"`
}

type ForecastDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type GetForecastResponse struct {
	Days []ForecastDay `json:"days"`
}

type GetStatsRequest struct {
	LearnerID string `json:"learnerId" validate:"required,max=64"`
	ScopeID   string `json:"scopeId,omitempty" validate:"max=64"`
}

type Stats struct {
	TotalItems      int            `json:"totalItems"`
	TotalReviews    int            `json:"totalReviews"`
	TotalCorrect    int            `json:"totalCorrect"`
	RetentionRate   float64        `json:"retentionRate"`
	AvgEasiness     float64        `json:"avgEasiness"`
	AvgIntervalDays float64        `json:"avgIntervalDays"`
	ByStatus        map[string]int `json:"byStatus"`
	MasteryRate     float64        `json:"masteryRate"`
}

type GetStatsResponse struct {
	Stats Stats `json:"stats"`
}

type EnrollItemsRequest struct {
	LearnerID string   `json:"learnerId" validate:"required,max=64"`
	ScopeID   string   `json:"scopeId" validate:"required,max=64"`
	NodeIDs   []string `json:"nodeIds" validate:"required,min=1,max=500,dive,required,max=128"`
	Mode      string   `json:"mode,omitempty" validate:"omitempty,oneof=sm2 ladder"`
}

type EnrollItemsResponse struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

type GetHistoryRequest struct {
	LearnerID string `json:"learnerId" validate:"required,max=64"`
	ScopeID   string `json:"scopeId" validate:"required,max=64"`
	NodeID    string `json:"nodeId" validate:"required,max=128"`
	Limit     int    `json:"limit,omitempty" validate:"min=0"`
}

type HistoryEntry struct {
	ID             int64     `json:"id"`
	Mode           string    `json:"mode"`
	Quality        *int      `json:"quality,omitempty"`
	Correct        bool      `json:"correct"`
	IntervalBefore int       `json:"intervalBefore"`
	IntervalAfter  int       `json:"intervalAfter"`
	EasinessBefore *float64  `json:"easinessBefore,omitempty"`
	EasinessAfter  *float64  `json:"easinessAfter,omitempty"`
	StatusBefore   string    `json:"statusBefore"`
	StatusAfter    string    `json:"statusAfter"`
	ReviewedAt     time.Time `json:"reviewedAt"`
}

type GetHistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}
