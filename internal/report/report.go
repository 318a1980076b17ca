// Package report renders learner progress reports as Markdown and PDF.
package report

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/sanhsing/beidou-edu-server/internal/review"
)

//go:embed templates/progress-report.md.go.tmpl
var fallbackProgressReportTemplate string

const (
	fallbackTemplateName = "progress-report.md.go.tmpl"
	// DefaultOverdueLimit is the number of overdue items listed in a report.
	DefaultOverdueLimit = 10
	// DefaultForecastDays is the number of days shown in the forecast table.
	DefaultForecastDays = 7
)

// Source provides the review data a report is built from.
type Source interface {
	Stats(ctx context.Context, learnerID, scopeID string) (review.Stats, error)
	Forecast(ctx context.Context, learnerID, scopeID string, days int) ([]review.ForecastDay, error)
	DueItems(ctx context.Context, learnerID, scopeID string, limit int) ([]review.Item, error)
	Now() time.Time
}

// Data is the template input of a progress report.
type Data struct {
	LearnerID   string
	ScopeID     string
	GeneratedAt time.Time
	Stats       review.Stats
	Statuses    []StatusCount
	Forecast    []review.ForecastDay
	Overdue     []OverdueItem
}

type StatusCount struct {
	Status review.Status
	Count  int
}

// OverdueItem is a due item with how late it is and how much of it is likely still remembered.
type OverdueItem struct {
	review.Key
	Mode        review.Mode
	DueAt       time.Time
	DaysOverdue int
	Retention   float64
}

// Build collects the data of a report for learnerID, optionally limited to scopeID.
func Build(ctx context.Context, source Source, learnerID, scopeID string) (Data, error) {
	stats, err := source.Stats(ctx, learnerID, scopeID)
	if err != nil {
		return Data{}, fmt.Errorf("load stats: %w", err)
	}
	forecast, err := source.Forecast(ctx, learnerID, scopeID, DefaultForecastDays)
	if err != nil {
		return Data{}, fmt.Errorf("load forecast: %w", err)
	}
	due, err := source.DueItems(ctx, learnerID, scopeID, DefaultOverdueLimit)
	if err != nil {
		return Data{}, fmt.Errorf("load due items: %w", err)
	}

	now := source.Now()
	data := Data{
		LearnerID:   learnerID,
		ScopeID:     scopeID,
		GeneratedAt: now,
		Stats:       stats,
		Forecast:    forecast,
	}
	for _, status := range []review.Status{review.StatusNew, review.StatusLearning, review.StatusReview, review.StatusMastered} {
		data.Statuses = append(data.Statuses, StatusCount{Status: status, Count: stats.ByStatus[status]})
	}
	for _, item := range due {
		data.Overdue = append(data.Overdue, OverdueItem{
			Key:         item.Key,
			Mode:        item.Mode(),
			DueAt:       item.DueAt,
			DaysOverdue: int(now.Sub(item.DueAt).Hours() / 24),
			Retention:   review.PredictRetention(item, now),
		})
	}
	return data, nil
}

// ParseTemplate parses the template at templatePath, falling back to the embedded
// template when the path is empty, missing or invalid.
func ParseTemplate(templatePath string, logger *slog.Logger) (*template.Template, error) {
	funcMap := template.FuncMap{
		"join": strings.Join,
		"date": func(t time.Time) string {
			return t.UTC().Format(time.DateOnly)
		},
		"datetime": func(t time.Time) string {
			return t.UTC().Format(time.DateTime)
		},
		"percent": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v)
		},
	}

	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			tmpl, err := template.New(filepath.Base(templatePath)).
				Funcs(funcMap).
				ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			logger.Warn("failed to parse a report template, using the embedded one",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	tmpl, err := template.New(fallbackTemplateName).
		Funcs(funcMap).
		Parse(fallbackProgressReportTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}

// Render writes the Markdown report of data to w.
func Render(w io.Writer, tmpl *template.Template, data Data) error {
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return nil
}

// WriteMarkdown renders data into a file in dir and returns its path.
func WriteMarkdown(dir string, tmpl *template.Template, data Data) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("os.MkdirAll(%s) > %w", dir, err)
	}

	name := data.LearnerID
	if data.ScopeID != "" {
		name += "-" + data.ScopeID
	}
	name += "-" + data.GeneratedAt.UTC().Format("20060102") + ".md"
	path := filepath.Join(dir, sanitizeFileName(name))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("os.Create(%s) > %w", path, err)
	}
	defer f.Close()

	if err := Render(f, tmpl, data); err != nil {
		return "", err
	}
	return path, nil
}

func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}
