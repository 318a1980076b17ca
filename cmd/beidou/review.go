package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sanhsing/beidou-edu-server/internal/api/reviewv1"
	"github.com/sanhsing/beidou-edu-server/internal/review"
)

// ModeFlag selects a scheduling mode on the command line. Empty means the configured default.
type ModeFlag string

// Set implements pflag.Value.
func (m *ModeFlag) Set(v string) error {
	mode, err := review.ParseMode(v)
	if err != nil {
		return fmt.Errorf("invalid value %q, valid values are %q or %q", v, review.ModeSM2, review.ModeLadder)
	}
	*m = ModeFlag(mode)
	return nil
}

// String implements pflag.Value.
func (m *ModeFlag) String() string {
	if m == nil {
		return ""
	}
	return string(*m)
}

// Type implements pflag.Value.
func (m *ModeFlag) Type() string {
	return "ModeFlag"
}

var (
	_ pflag.Value = (*ModeFlag)(nil)
)

// itemFlags are the flags naming one review item.
type itemFlags struct {
	learnerID string
	scopeID   string
	nodeID    string
}

func (f *itemFlags) register(cmd *cobra.Command, withNode bool) {
	flags := cmd.Flags()
	flags.StringVar(&f.learnerID, "learner", "", "Learner ID")
	flags.StringVar(&f.scopeID, "scope", "", "Scope ID, e.g. a subject or exam")
	_ = cmd.MarkFlagRequired("learner")
	if withNode {
		flags.StringVar(&f.nodeID, "node", "", "Knowledge node ID")
		_ = cmd.MarkFlagRequired("scope")
		_ = cmd.MarkFlagRequired("node")
	}
}

func newRecordCommand() *cobra.Command {
	var item itemFlags
	var correct bool
	var quality int

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record the outcome of one answer",
		Long: `Record the outcome of one answer.
Pass --correct=true|false for ladder items or --quality 0-5 for SM-2 items.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			req := &reviewv1.RecordAnswerOutcomeRequest{
				LearnerID: item.learnerID,
				ScopeID:   item.scopeID,
				NodeID:    item.nodeID,
			}
			if cmd.Flags().Changed("correct") {
				req.Correct = &correct
			}
			if cmd.Flags().Changed("quality") {
				req.Quality = &quality
			}

			backend, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = backend.Close()
			}()

			res, err := backend.RecordAnswerOutcome(ctx, req)
			if err != nil {
				return fmt.Errorf("RecordAnswerOutcome() > %w", err)
			}
			printItem(cmd.OutOrStdout(), res.Item)
			return nil
		},
	}
	item.register(cmd, true)
	cmd.Flags().BoolVar(&correct, "correct", false, "Whether the answer was correct (ladder)")
	cmd.Flags().IntVar(&quality, "quality", 0, "Recall quality from 0 (blackout) to 5 (perfect) (SM-2)")
	cmd.MarkFlagsMutuallyExclusive("correct", "quality")
	cmd.MarkFlagsOneRequired("correct", "quality")
	return cmd
}

func newDueCommand() *cobra.Command {
	var item itemFlags
	var limit int

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List the items due for review, most overdue first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = backend.Close()
			}()

			res, err := backend.GetDueItems(ctx, &reviewv1.GetDueItemsRequest{
				LearnerID: item.learnerID,
				ScopeID:   item.scopeID,
				Limit:     limit,
			})
			if err != nil {
				return fmt.Errorf("GetDueItems() > %w", err)
			}

			w := cmd.OutOrStdout()
			if len(res.Items) == 0 {
				color.New(color.FgGreen).Fprintln(w, "Nothing is due.")
				return nil
			}
			for _, it := range res.Items {
				printItem(w, it)
			}
			return nil
		},
	}
	item.register(cmd, false)
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of items. The server default applies when 0")
	return cmd
}

func newForecastCommand() *cobra.Command {
	var item itemFlags
	var days int

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Show how many reviews fall due on each of the next days",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = backend.Close()
			}()

			res, err := backend.GetForecast(ctx, &reviewv1.GetForecastRequest{
				LearnerID: item.learnerID,
				ScopeID:   item.scopeID,
				Days:      days,
			})
			if err != nil {
				return fmt.Errorf("GetForecast() > %w", err)
			}
			printForecast(cmd.OutOrStdout(), res.Days)
			return nil
		},
	}
	item.register(cmd, false)
	cmd.Flags().IntVar(&days, "days", review.DefaultForecastDays, "Number of days, up to 90")
	return cmd
}

func newStatsCommand() *cobra.Command {
	var item itemFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show retention statistics of a learner",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = backend.Close()
			}()

			res, err := backend.GetStats(ctx, &reviewv1.GetStatsRequest{
				LearnerID: item.learnerID,
				ScopeID:   item.scopeID,
			})
			if err != nil {
				return fmt.Errorf("GetStats() > %w", err)
			}
			printStats(cmd.OutOrStdout(), res.Stats)
			return nil
		},
	}
	item.register(cmd, false)
	return cmd
}

func newEnrollCommand() *cobra.Command {
	var item itemFlags
	var mode ModeFlag

	cmd := &cobra.Command{
		Use:   "enroll <node id>...",
		Short: "Add knowledge nodes to a learner's deck",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = backend.Close()
			}()

			res, err := backend.EnrollItems(ctx, &reviewv1.EnrollItemsRequest{
				LearnerID: item.learnerID,
				ScopeID:   item.scopeID,
				NodeIDs:   args,
				Mode:      mode.String(),
			})
			if err != nil {
				return fmt.Errorf("EnrollItems() > %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Enrolled %d nodes, %d already in the deck\n", res.Created, res.Skipped)
			return nil
		},
	}
	item.register(cmd, false)
	_ = cmd.MarkFlagRequired("scope")
	cmd.Flags().Var(&mode, "mode", "Scheduling mode. Options: sm2, ladder")
	return cmd
}

func newHistoryCommand() *cobra.Command {
	var item itemFlags
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the latest answers of one item",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = backend.Close()
			}()

			res, err := backend.GetHistory(ctx, &reviewv1.GetHistoryRequest{
				LearnerID: item.learnerID,
				ScopeID:   item.scopeID,
				NodeID:    item.nodeID,
				Limit:     limit,
			})
			if err != nil {
				return fmt.Errorf("GetHistory() > %w", err)
			}
			printHistory(cmd.OutOrStdout(), res.Entries)
			return nil
		},
	}
	item.register(cmd, true)
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of answers")
	return cmd
}

func statusColor(status string) *color.Color {
	switch review.Status(status) {
	case review.StatusMastered:
		return color.New(color.FgGreen, color.Bold)
	case review.StatusReview:
		return color.New(color.FgCyan)
	case review.StatusLearning:
		return color.New(color.FgRed)
	}
	return color.New(color.FgYellow)
}

func printItem(w io.Writer, item reviewv1.ReviewItem) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "%s/%s", item.ScopeID, item.NodeID)
	fmt.Fprintf(w, " [%s] ", item.Mode)
	statusColor(item.Status).Fprintln(w, item.Status)

	fmt.Fprintf(w, "  interval: %d days, due %s\n", item.IntervalDays, item.DueAt.UTC().Format(time.DateTime))
	switch review.Mode(item.Mode) {
	case review.ModeSM2:
		fmt.Fprintf(w, "  easiness: %.2f, repetitions: %d\n", item.Easiness, item.Repetitions)
	case review.ModeLadder:
		fmt.Fprintf(w, "  correct streak: %d\n", item.CorrectStreak)
	}
	fmt.Fprintf(w, "  reviews: %d (%d correct), predicted retention: %.1f%%\n",
		item.TotalReviews, item.TotalCorrect, item.PredictedRetention)
}

func printForecast(w io.Writer, days []reviewv1.ForecastDay) {
	maxCount := 0
	for _, day := range days {
		maxCount = max(maxCount, day.Count)
	}
	bar := color.New(color.FgCyan)
	for _, day := range days {
		fmt.Fprintf(w, "%s %4d ", day.Date, day.Count)
		width := 0
		if maxCount > 0 {
			width = day.Count * 40 / maxCount
		}
		bar.Fprintln(w, strings.Repeat("#", width))
	}
}

func printStats(w io.Writer, stats reviewv1.Stats) {
	fmt.Fprintf(w, "Items:            %d\n", stats.TotalItems)
	fmt.Fprintf(w, "Reviews:          %d (%d correct)\n", stats.TotalReviews, stats.TotalCorrect)
	fmt.Fprintf(w, "Retention rate:   %.1f%%\n", stats.RetentionRate)
	fmt.Fprintf(w, "Mastery rate:     %.1f%%\n", stats.MasteryRate)
	fmt.Fprintf(w, "Average easiness: %.2f\n", stats.AvgEasiness)
	fmt.Fprintf(w, "Average interval: %.1f days\n", stats.AvgIntervalDays)
	for _, status := range review.AllStatuses {
		fmt.Fprint(w, "  ")
		statusColor(status.String()).Fprintf(w, "%-9s", status)
		fmt.Fprintf(w, " %d\n", stats.ByStatus[status.String()])
	}
}

func printHistory(w io.Writer, entries []reviewv1.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No answers yet.")
		return
	}
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	for _, entry := range entries {
		fmt.Fprintf(w, "%s ", entry.ReviewedAt.UTC().Format(time.DateTime))
		outcome := "wrong"
		if entry.Quality != nil {
			outcome = fmt.Sprintf("quality %d", *entry.Quality)
		} else if entry.Correct {
			outcome = "correct"
		}
		if entry.Correct {
			green.Fprint(w, outcome)
		} else {
			red.Fprint(w, outcome)
		}
		fmt.Fprintf(w, "  %s -> %s, %d -> %d days\n", entry.StatusBefore, entry.StatusAfter, entry.IntervalBefore, entry.IntervalAfter)
	}
}
