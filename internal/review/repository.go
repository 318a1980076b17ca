package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanhsing/beidou-edu-server/internal/database"
)

//go:generate mockgen -source=repository.go -destination=../mocks/review/mock_repository.go -package=mock_review

// Repository stores review items and their answer history.
// Writes are guarded by Item.Version: Update fails with ErrConcurrencyConflict when the
// stored version no longer matches, and Create fails the same way when the key exists.
type Repository interface {
	Find(ctx context.Context, key Key) (Item, error)
	FindByNodes(ctx context.Context, learnerID, scopeID string, nodeIDs []string) ([]Item, error)
	FindAll(ctx context.Context, learnerID string) ([]Item, error)
	FindDue(ctx context.Context, query DueQuery) ([]Item, error)
	FindDueDates(ctx context.Context, learnerID, scopeID string, until time.Time) ([]time.Time, error)
	CountDueByLearner(ctx context.Context, now time.Time) ([]DueCount, error)
	Aggregate(ctx context.Context, learnerID, scopeID string) (Aggregate, error)
	History(ctx context.Context, key Key, limit int) ([]HistoryEntry, error)
	HistoryByLearner(ctx context.Context, learnerID string) ([]HistoryEntry, error)
	Create(ctx context.Context, item Item, entry HistoryEntry) (Item, error)
	Update(ctx context.Context, item Item, entry HistoryEntry) (Item, error)
	BatchCreate(ctx context.Context, items []Item) error
}

// DueQuery selects the items of one learner that are due at Now.
// An empty ScopeID matches every scope.
type DueQuery struct {
	LearnerID string
	ScopeID   string
	Now       time.Time
	Limit     int
}

// DueCount is the number of due items of one learner.
type DueCount struct {
	LearnerID string `db:"learner_id"`
	DueCount  int    `db:"due_count"`
}

// Aggregate holds the raw totals over a learner's items.
type Aggregate struct {
	TotalItems    int     `db:"total_items"`
	TotalReviews  int     `db:"total_reviews"`
	TotalCorrect  int     `db:"total_correct"`
	AvgEasiness   float64 `db:"avg_easiness"`
	AvgInterval   float64 `db:"avg_interval"`
	NewItems      int     `db:"new_items"`
	LearningItems int     `db:"learning_items"`
	ReviewItems   int     `db:"review_items"`
	MasteredItems int     `db:"mastered_items"`
}

// HistoryEntry records one answer event and the scheduling change it caused.
// Easiness values are only set for SM-2 items and Quality only for graded outcomes.
type HistoryEntry struct {
	ID int64 `db:"id"`
	Key
	Mode           Mode      `db:"mode"`
	Quality        *int      `db:"quality"`
	Correct        bool      `db:"correct"`
	IntervalBefore int       `db:"interval_before"`
	IntervalAfter  int       `db:"interval_after"`
	EasinessBefore *float64  `db:"easiness_before"`
	EasinessAfter  *float64  `db:"easiness_after"`
	StatusBefore   Status    `db:"status_before"`
	StatusAfter    Status    `db:"status_after"`
	ReviewedAt     time.Time `db:"reviewed_at"`
}

// NewHistoryEntry describes the transition from before to after caused by outcome.
func NewHistoryEntry(before, after Item, outcome Outcome) HistoryEntry {
	entry := HistoryEntry{
		Key:            after.Key,
		Mode:           after.Mode(),
		Quality:        outcome.Quality,
		Correct:        outcome.IsSuccess(),
		IntervalBefore: before.IntervalDays,
		IntervalAfter:  after.IntervalDays,
		StatusBefore:   before.Status,
		StatusAfter:    after.Status,
		ReviewedAt:     after.UpdatedAt,
	}
	if sm2, ok := before.SM2(); ok {
		ef := sm2.Easiness
		entry.EasinessBefore = &ef
	}
	if sm2, ok := after.SM2(); ok {
		ef := sm2.Easiness
		entry.EasinessAfter = &ef
	}
	return entry
}

const itemColumns = "learner_id, scope_id, node_id, mode, repetitions, easiness, correct_streak, interval_days, status, due_at, last_reviewed_at, total_reviews, total_correct, version, created_at, updated_at"

const historyColumns = "id, learner_id, scope_id, node_id, mode, quality, correct, interval_before, interval_after, easiness_before, easiness_after, status_before, status_after, reviewed_at"

var historyInsertColumns = []string{
	"learner_id", "scope_id", "node_id", "mode", "quality", "correct",
	"interval_before", "interval_after", "easiness_before", "easiness_after",
	"status_before", "status_after", "reviewed_at",
}

var itemInsertColumns = strings.Split(itemColumns, ", ")

type itemRow struct {
	LearnerID      string     `db:"learner_id"`
	ScopeID        string     `db:"scope_id"`
	NodeID         string     `db:"node_id"`
	Mode           string     `db:"mode"`
	Repetitions    int        `db:"repetitions"`
	Easiness       float64    `db:"easiness"`
	CorrectStreak  int        `db:"correct_streak"`
	IntervalDays   int        `db:"interval_days"`
	Status         string     `db:"status"`
	DueAt          time.Time  `db:"due_at"`
	LastReviewedAt *time.Time `db:"last_reviewed_at"`
	TotalReviews   int        `db:"total_reviews"`
	TotalCorrect   int        `db:"total_correct"`
	Version        int64      `db:"version"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func newItemRow(item Item) itemRow {
	row := itemRow{
		LearnerID:      item.LearnerID,
		ScopeID:        item.ScopeID,
		NodeID:         item.NodeID,
		Mode:           string(item.Mode()),
		Easiness:       DefaultEasinessFactor,
		IntervalDays:   item.IntervalDays,
		Status:         string(item.Status),
		DueAt:          item.DueAt,
		LastReviewedAt: item.LastReviewedAt,
		TotalReviews:   item.TotalReviews,
		TotalCorrect:   item.TotalCorrect,
		Version:        item.Version,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
	switch s := item.Schedule.(type) {
	case SM2State:
		row.Repetitions = s.Repetitions
		row.Easiness = s.Easiness
	case LadderState:
		row.CorrectStreak = s.CorrectStreak
	}
	return row
}

func (row itemRow) toItem() (Item, error) {
	item := Item{
		Key:          Key{LearnerID: row.LearnerID, ScopeID: row.ScopeID, NodeID: row.NodeID},
		IntervalDays: row.IntervalDays,
		Status:       Status(row.Status),
		DueAt:        row.DueAt.UTC(),
		TotalReviews: row.TotalReviews,
		TotalCorrect: row.TotalCorrect,
		Version:      row.Version,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.LastReviewedAt != nil {
		t := row.LastReviewedAt.UTC()
		item.LastReviewedAt = &t
	}

	switch Mode(row.Mode) {
	case ModeSM2:
		item.Schedule = SM2State{Repetitions: row.Repetitions, Easiness: row.Easiness}
	case ModeLadder:
		item.Schedule = LadderState{CorrectStreak: row.CorrectStreak}
	default:
		return Item{}, fmt.Errorf("review item %s has unknown mode %q", item.Key, row.Mode)
	}
	if !item.Status.Valid() {
		return Item{}, fmt.Errorf("review item %s has unknown status %q", item.Key, row.Status)
	}
	return item, nil
}

func toItems(rows []itemRow) ([]Item, error) {
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		item, err := row.toItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// DBRepository implements Repository on a SQL database (MySQL, SQLite or PostgreSQL).
type DBRepository struct {
	db *sqlx.DB
}

// NewDBRepository creates a new DBRepository.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{db: db}
}

func storageError(op string, err error) error {
	if database.IsDuplicateKey(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrConcurrencyConflict, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

// txError classifies transaction errors that were not raised by the statements themselves,
// such as a failed BEGIN or COMMIT.
func txError(op string, err error) error {
	if err == nil || errors.Is(err, ErrConcurrencyConflict) || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return storageError(op, err)
}

// Find returns the item stored for key, or ErrNotFound.
func (r *DBRepository) Find(ctx context.Context, key Key) (Item, error) {
	query := r.db.Rebind("SELECT " + itemColumns + " FROM review_items WHERE learner_id = ? AND scope_id = ? AND node_id = ?")

	var row itemRow
	if err := r.db.GetContext(ctx, &row, query, key.LearnerID, key.ScopeID, key.NodeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, fmt.Errorf("find review item %s: %w", key, ErrNotFound)
		}
		return Item{}, storageError(fmt.Sprintf("find review item %s", key), err)
	}
	return row.toItem()
}

// FindByNodes returns the existing items of a learner in a scope for the given nodes.
func (r *DBRepository) FindByNodes(ctx context.Context, learnerID, scopeID string, nodeIDs []string) ([]Item, error) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(
		"SELECT "+itemColumns+" FROM review_items WHERE learner_id = ? AND scope_id = ? AND node_id IN (?) ORDER BY node_id",
		learnerID, scopeID, nodeIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("build find by nodes query: %w", err)
	}

	var rows []itemRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, storageError("find review items by nodes", err)
	}
	return toItems(rows)
}

// FindAll returns every item of a learner ordered by scope and node.
func (r *DBRepository) FindAll(ctx context.Context, learnerID string) ([]Item, error) {
	query := r.db.Rebind("SELECT " + itemColumns + " FROM review_items WHERE learner_id = ? ORDER BY scope_id, node_id")

	var rows []itemRow
	if err := r.db.SelectContext(ctx, &rows, query, learnerID); err != nil {
		return nil, storageError("find all review items", err)
	}
	return toItems(rows)
}

// FindDue returns the items due at query.Now, most overdue first.
func (r *DBRepository) FindDue(ctx context.Context, q DueQuery) ([]Item, error) {
	var b strings.Builder
	b.WriteString("SELECT " + itemColumns + " FROM review_items WHERE learner_id = ? AND due_at <= ?")
	args := []interface{}{q.LearnerID, q.Now}
	if q.ScopeID != "" {
		b.WriteString(" AND scope_id = ?")
		args = append(args, q.ScopeID)
	}
	b.WriteString(" ORDER BY due_at, scope_id, node_id LIMIT ?")
	args = append(args, q.Limit)

	var rows []itemRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(b.String()), args...); err != nil {
		return nil, storageError("find due review items", err)
	}
	return toItems(rows)
}

// FindDueDates returns the due dates of a learner's items that fall before until.
func (r *DBRepository) FindDueDates(ctx context.Context, learnerID, scopeID string, until time.Time) ([]time.Time, error) {
	var b strings.Builder
	b.WriteString("SELECT due_at FROM review_items WHERE learner_id = ? AND due_at < ?")
	args := []interface{}{learnerID, until}
	if scopeID != "" {
		b.WriteString(" AND scope_id = ?")
		args = append(args, scopeID)
	}
	b.WriteString(" ORDER BY due_at")

	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, r.db.Rebind(b.String()), args...); err != nil {
		return nil, storageError("find review due dates", err)
	}
	return dates, nil
}

// CountDueByLearner counts the due items of every learner that has any.
func (r *DBRepository) CountDueByLearner(ctx context.Context, now time.Time) ([]DueCount, error) {
	query := r.db.Rebind("SELECT learner_id, COUNT(*) AS due_count FROM review_items WHERE due_at <= ? GROUP BY learner_id ORDER BY learner_id")

	var counts []DueCount
	if err := r.db.SelectContext(ctx, &counts, query, now); err != nil {
		return nil, storageError("count due review items", err)
	}
	return counts, nil
}

// Aggregate returns totals over a learner's items, optionally limited to one scope.
func (r *DBRepository) Aggregate(ctx context.Context, learnerID, scopeID string) (Aggregate, error) {
	var b strings.Builder
	b.WriteString(`SELECT COUNT(*) AS total_items,
	COALESCE(SUM(total_reviews), 0) AS total_reviews,
	COALESCE(SUM(total_correct), 0) AS total_correct,
	COALESCE(AVG(CASE WHEN mode = 'sm2' THEN easiness END), 0) AS avg_easiness,
	COALESCE(AVG(interval_days), 0) AS avg_interval,
	COALESCE(SUM(CASE WHEN status = 'new' THEN 1 ELSE 0 END), 0) AS new_items,
	COALESCE(SUM(CASE WHEN status = 'learning' THEN 1 ELSE 0 END), 0) AS learning_items,
	COALESCE(SUM(CASE WHEN status = 'review' THEN 1 ELSE 0 END), 0) AS review_items,
	COALESCE(SUM(CASE WHEN status = 'mastered' THEN 1 ELSE 0 END), 0) AS mastered_items
FROM review_items WHERE learner_id = ?`)
	args := []interface{}{learnerID}
	if scopeID != "" {
		b.WriteString(" AND scope_id = ?")
		args = append(args, scopeID)
	}

	var agg Aggregate
	if err := r.db.GetContext(ctx, &agg, r.db.Rebind(b.String()), args...); err != nil {
		return Aggregate{}, storageError("aggregate review items", err)
	}
	return agg, nil
}

// History returns the latest answer events of one item, newest first.
func (r *DBRepository) History(ctx context.Context, key Key, limit int) ([]HistoryEntry, error) {
	query := r.db.Rebind("SELECT " + historyColumns + " FROM review_history WHERE learner_id = ? AND scope_id = ? AND node_id = ? ORDER BY reviewed_at DESC, id DESC LIMIT ?")

	var entries []HistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, key.LearnerID, key.ScopeID, key.NodeID, limit); err != nil {
		return nil, storageError(fmt.Sprintf("find review history %s", key), err)
	}
	return entries, nil
}

// HistoryByLearner returns every answer event of a learner in insertion order.
func (r *DBRepository) HistoryByLearner(ctx context.Context, learnerID string) ([]HistoryEntry, error) {
	query := r.db.Rebind("SELECT " + historyColumns + " FROM review_history WHERE learner_id = ? ORDER BY id")

	var entries []HistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, learnerID); err != nil {
		return nil, storageError("find learner review history", err)
	}
	return entries, nil
}

// Create inserts a new item with version 1 together with its first history entry.
func (r *DBRepository) Create(ctx context.Context, item Item, entry HistoryEntry) (Item, error) {
	item.Version = 1
	row := newItemRow(item)

	err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		query := tx.Rebind(database.BuildMultiRowInsert("review_items", itemInsertColumns, 1))
		if _, err := tx.ExecContext(ctx, query, row.args()...); err != nil {
			return storageError(fmt.Sprintf("insert review item %s", item.Key), err)
		}
		return insertHistory(ctx, tx, entry)
	})
	if err := txError(fmt.Sprintf("create review item %s", item.Key), err); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Update stores item if the stored version still equals item.Version, and appends entry.
// The returned item carries the incremented version.
func (r *DBRepository) Update(ctx context.Context, item Item, entry HistoryEntry) (Item, error) {
	expected := item.Version
	item.Version = expected + 1
	row := newItemRow(item)

	err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		query := tx.Rebind(`UPDATE review_items SET
	mode = ?, repetitions = ?, easiness = ?, correct_streak = ?, interval_days = ?, status = ?,
	due_at = ?, last_reviewed_at = ?, total_reviews = ?, total_correct = ?, version = ?, updated_at = ?
WHERE learner_id = ? AND scope_id = ? AND node_id = ? AND version = ?`)
		result, err := tx.ExecContext(ctx, query,
			row.Mode, row.Repetitions, row.Easiness, row.CorrectStreak, row.IntervalDays, row.Status,
			row.DueAt, row.LastReviewedAt, row.TotalReviews, row.TotalCorrect, row.Version, row.UpdatedAt,
			row.LearnerID, row.ScopeID, row.NodeID, expected,
		)
		if err != nil {
			return storageError(fmt.Sprintf("update review item %s", item.Key), err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return storageError(fmt.Sprintf("update review item %s", item.Key), err)
		}
		if affected == 0 {
			return fmt.Errorf("update review item %s at version %d: %w", item.Key, expected, ErrConcurrencyConflict)
		}
		return insertHistory(ctx, tx, entry)
	})
	if err := txError(fmt.Sprintf("update review item %s", item.Key), err); err != nil {
		return Item{}, err
	}
	return item, nil
}

// BatchCreate inserts new items in a single multi-row INSERT.
func (r *DBRepository) BatchCreate(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		query := tx.Rebind(database.BuildMultiRowInsert("review_items", itemInsertColumns, len(items)))

		args := make([]interface{}, 0, len(items)*len(itemInsertColumns))
		for _, item := range items {
			item.Version = 1
			args = append(args, newItemRow(item).args()...)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return storageError("insert review items", err)
		}
		return nil
	})
	return txError("create review items", err)
}

func (row itemRow) args() []interface{} {
	return []interface{}{
		row.LearnerID, row.ScopeID, row.NodeID, row.Mode, row.Repetitions, row.Easiness, row.CorrectStreak,
		row.IntervalDays, row.Status, row.DueAt, row.LastReviewedAt, row.TotalReviews, row.TotalCorrect,
		row.Version, row.CreatedAt, row.UpdatedAt,
	}
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, entry HistoryEntry) error {
	query := tx.Rebind(database.BuildMultiRowInsert("review_history", historyInsertColumns, 1))
	_, err := tx.ExecContext(ctx, query,
		entry.LearnerID, entry.ScopeID, entry.NodeID, string(entry.Mode), entry.Quality, entry.Correct,
		entry.IntervalBefore, entry.IntervalAfter, entry.EasinessBefore, entry.EasinessAfter,
		string(entry.StatusBefore), string(entry.StatusAfter), entry.ReviewedAt,
	)
	if err != nil {
		return storageError(fmt.Sprintf("insert review history %s", entry.Key), err)
	}
	return nil
}
