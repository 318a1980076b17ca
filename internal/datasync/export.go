// Package datasync moves review data between the database and YAML files.
package datasync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sanhsing/beidou-edu-server/internal/review"
)

// ItemRecord is the YAML form of a review item.
type ItemRecord struct {
	ScopeID        string     `yaml:"scope_id"`
	NodeID         string     `yaml:"node_id"`
	Mode           string     `yaml:"mode"`
	Repetitions    int        `yaml:"repetitions,omitempty"`
	Easiness       float64    `yaml:"easiness,omitempty"`
	CorrectStreak  int        `yaml:"correct_streak,omitempty"`
	IntervalDays   int        `yaml:"interval_days"`
	Status         string     `yaml:"status"`
	DueAt          time.Time  `yaml:"due_at"`
	LastReviewedAt *time.Time `yaml:"last_reviewed_at,omitempty"`
	TotalReviews   int        `yaml:"total_reviews"`
	TotalCorrect   int        `yaml:"total_correct"`
}

// HistoryRecord is the YAML form of one answer event.
type HistoryRecord struct {
	ScopeID        string    `yaml:"scope_id"`
	NodeID         string    `yaml:"node_id"`
	Mode           string    `yaml:"mode"`
	Quality        *int      `yaml:"quality,omitempty"`
	Correct        bool      `yaml:"correct"`
	IntervalBefore int       `yaml:"interval_before"`
	IntervalAfter  int       `yaml:"interval_after"`
	StatusBefore   string    `yaml:"status_before"`
	StatusAfter    string    `yaml:"status_after"`
	ReviewedAt     time.Time `yaml:"reviewed_at"`
}

// NewItemRecord flattens an item's schedule into YAML fields.
func NewItemRecord(item review.Item) ItemRecord {
	record := ItemRecord{
		ScopeID:        item.ScopeID,
		NodeID:         item.NodeID,
		Mode:           item.Mode().String(),
		IntervalDays:   item.IntervalDays,
		Status:         item.Status.String(),
		DueAt:          item.DueAt.UTC(),
		LastReviewedAt: item.LastReviewedAt,
		TotalReviews:   item.TotalReviews,
		TotalCorrect:   item.TotalCorrect,
	}
	switch s := item.Schedule.(type) {
	case review.SM2State:
		record.Repetitions = s.Repetitions
		record.Easiness = s.Easiness
	case review.LadderState:
		record.CorrectStreak = s.CorrectStreak
	}
	return record
}

// NewHistoryRecord converts a history entry.
func NewHistoryRecord(entry review.HistoryEntry) HistoryRecord {
	return HistoryRecord{
		ScopeID:        entry.ScopeID,
		NodeID:         entry.NodeID,
		Mode:           entry.Mode.String(),
		Quality:        entry.Quality,
		Correct:        entry.Correct,
		IntervalBefore: entry.IntervalBefore,
		IntervalAfter:  entry.IntervalAfter,
		StatusBefore:   entry.StatusBefore.String(),
		StatusAfter:    entry.StatusAfter.String(),
		ReviewedAt:     entry.ReviewedAt.UTC(),
	}
}

// ExportSource reads everything recorded for a learner.
type ExportSource interface {
	Items(ctx context.Context, learnerID string) ([]review.Item, error)
	LearnerHistory(ctx context.Context, learnerID string) ([]review.HistoryEntry, error)
}

// ExportResult reports what was written.
type ExportResult struct {
	Directory string
	Items     int
	History   int
}

// Exporter writes a learner's items and history as YAML.
type Exporter struct {
	source ExportSource
	sink   *YAMLSink
}

// NewExporter creates a new Exporter.
func NewExporter(source ExportSource, sink *YAMLSink) *Exporter {
	return &Exporter{source: source, sink: sink}
}

// Export writes items.yml and history.yml for learnerID.
func (e *Exporter) Export(ctx context.Context, learnerID string) (ExportResult, error) {
	items, err := e.source.Items(ctx, learnerID)
	if err != nil {
		return ExportResult{}, fmt.Errorf("source.Items() > %w", err)
	}
	history, err := e.source.LearnerHistory(ctx, learnerID)
	if err != nil {
		return ExportResult{}, fmt.Errorf("source.LearnerHistory() > %w", err)
	}

	itemRecords := make([]ItemRecord, 0, len(items))
	for _, item := range items {
		itemRecords = append(itemRecords, NewItemRecord(item))
	}
	historyRecords := make([]HistoryRecord, 0, len(history))
	for _, entry := range history {
		historyRecords = append(historyRecords, NewHistoryRecord(entry))
	}

	dir, err := e.sink.WriteAll(learnerID, itemRecords, historyRecords)
	if err != nil {
		return ExportResult{}, err
	}
	return ExportResult{Directory: dir, Items: len(itemRecords), History: len(historyRecords)}, nil
}

// YAMLSink writes exported records under one directory per learner.
type YAMLSink struct {
	outputDir string
}

// NewYAMLSink creates a new YAMLSink.
func NewYAMLSink(outputDir string) *YAMLSink {
	return &YAMLSink{outputDir: outputDir}
}

// WriteAll writes items and history into separate files and returns the learner directory.
func (s *YAMLSink) WriteAll(learnerID string, items []ItemRecord, history []HistoryRecord) (string, error) {
	dir := filepath.Join(s.outputDir, filepath.Base(filepath.Clean("/"+learnerID)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	if err := writeYAML(filepath.Join(dir, "items.yml"), items); err != nil {
		return "", fmt.Errorf("write items.yml: %w", err)
	}
	if err := writeYAML(filepath.Join(dir, "history.yml"), history); err != nil {
		return "", fmt.Errorf("write history.yml: %w", err)
	}
	return dir, nil
}

func writeYAML(path string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	enc := yaml.NewEncoder(f)
	defer func() { _ = enc.Close() }()
	return enc.Encode(data)
}
