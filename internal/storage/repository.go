// Package storage implements the store contracts on SQLite with embedded
// migrations. It is the durable backend; the memory package covers tests and
// zero-setup runs.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"outlay/internal/calendar"
	"outlay/internal/core"
	"outlay/internal/store"
)

const timeLayout = time.RFC3339Nano

// Repository owns the SQLite handle. The three store contracts are exposed
// through the Expenses/Categories/Settings views.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Expenses() *ExpenseStore   { return &ExpenseStore{r.db} }
func (r *Repository) Categories() *CategoryStore { return &CategoryStore{r.db} }
func (r *Repository) Settings() *SettingsStore  { return &SettingsStore{r.db} }

type (
	ExpenseStore  struct{ db *sql.DB }
	CategoryStore struct{ db *sql.DB }
	SettingsStore struct{ db *sql.DB }
)

var (
	_ store.ExpenseStore  = (*ExpenseStore)(nil)
	_ store.WeekReindexer = (*ExpenseStore)(nil)
	_ store.CategoryStore = (*CategoryStore)(nil)
	_ store.SettingsStore = (*SettingsStore)(nil)
)

func (s *ExpenseStore) Create(ctx context.Context, scopeID string, rec core.ExpenseRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", store.Validation(err)
	}

	rec.ID = uuid.NewString()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO expenses (id, scope_id, amount_cents, description, occurred_at, created_at, day_key, week_key, month_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, scopeID, rec.Amount.Cents, rec.Description,
		calendar.DayKey(rec.OccurredAt), rec.CreatedAt.Format(timeLayout),
		rec.DayKey, rec.WeekKey, rec.MonthKey)
	if err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}
	if err := insertLabels(ctx, tx, rec.ID, rec.CategoryIDs); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "expense saved",
		"id", rec.ID, "scope_id", scopeID,
		"amount_cents", rec.Amount.Cents, "day_key", rec.DayKey)
	return rec.ID, nil
}

func (s *ExpenseStore) Update(ctx context.Context, scopeID string, rec core.ExpenseRecord) error {
	if err := rec.Validate(); err != nil {
		return store.Validation(err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE expenses
		SET amount_cents = ?, description = ?, occurred_at = ?, day_key = ?, week_key = ?, month_key = ?
		WHERE id = ? AND scope_id = ?`,
		rec.Amount.Cents, rec.Description, calendar.DayKey(rec.OccurredAt),
		rec.DayKey, rec.WeekKey, rec.MonthKey, rec.ID, scopeID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_categories WHERE expense_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clear expense labels: %w", err)
	}
	if err := insertLabels(ctx, tx, rec.ID, rec.CategoryIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *ExpenseStore) Delete(ctx context.Context, scopeID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND scope_id = ?`, id, scopeID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *ExpenseStore) Get(ctx context.Context, scopeID, id string) (core.ExpenseRecord, error) {
	recs, err := s.query(ctx, `WHERE e.id = ? AND e.scope_id = ?`, id, scopeID)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	if len(recs) == 0 {
		return core.ExpenseRecord{}, store.ErrNotFound
	}
	return recs[0], nil
}

func (s *ExpenseStore) FetchByDayKey(ctx context.Context, scopeID, dayKey string) ([]core.ExpenseRecord, error) {
	return s.query(ctx, `WHERE e.scope_id = ? AND e.day_key = ?`, scopeID, dayKey)
}

func (s *ExpenseStore) FetchByWeekKey(ctx context.Context, scopeID, weekKey string) ([]core.ExpenseRecord, error) {
	return s.query(ctx, `WHERE e.scope_id = ? AND e.week_key = ?`, scopeID, weekKey)
}

func (s *ExpenseStore) FetchByMonthKey(ctx context.Context, scopeID, monthKey string) ([]core.ExpenseRecord, error) {
	return s.query(ctx, `WHERE e.scope_id = ? AND e.month_key = ?`, scopeID, monthKey)
}

func (s *ExpenseStore) FetchByDateRange(ctx context.Context, scopeID string, dr store.DateRange) ([]core.ExpenseRecord, error) {
	return s.query(ctx, `WHERE e.scope_id = ? AND e.day_key BETWEEN ? AND ?`,
		scopeID, calendar.DayKey(dr.Start), calendar.DayKey(dr.End))
}

func (s *ExpenseStore) query(ctx context.Context, where string, args ...any) ([]core.ExpenseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.amount_cents, e.description, e.occurred_at, e.created_at, e.day_key, e.week_key, e.month_key
		FROM expenses e `+where+`
		ORDER BY e.day_key ASC, e.created_at DESC, e.id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseRecord
	var ids []any
	for rows.Next() {
		var rec core.ExpenseRecord
		var occurred, created string
		if err := rows.Scan(&rec.ID, &rec.Amount.Cents, &rec.Description, &occurred,
			&created, &rec.DayKey, &rec.WeekKey, &rec.MonthKey); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if rec.OccurredAt, err = parseDay(occurred); err != nil {
			return nil, err
		}
		if rec.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		out = append(out, rec)
		ids = append(ids, rec.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	if len(out) == 0 {
		return []core.ExpenseRecord{}, nil
	}
	if err := s.attachLabels(ctx, out, ids); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ExpenseStore) attachLabels(ctx context.Context, recs []core.ExpenseRecord, ids []any) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := s.db.QueryContext(ctx, `
		SELECT expense_id, category_id
		FROM expense_categories
		WHERE expense_id IN (`+placeholders+`)
		ORDER BY expense_id, position`, ids...)
	if err != nil {
		return fmt.Errorf("query expense labels: %w", err)
	}
	defer rows.Close()

	labels := make(map[string][]string)
	for rows.Next() {
		var expenseID, categoryID string
		if err := rows.Scan(&expenseID, &categoryID); err != nil {
			return fmt.Errorf("scan expense label: %w", err)
		}
		labels[expenseID] = append(labels[expenseID], categoryID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate expense labels: %w", err)
	}
	for i := range recs {
		recs[i].CategoryIDs = labels[recs[i].ID]
	}
	return nil
}

// ReindexWeekKeys recomputes every stored week key of a scope for a new
// week-start day. Runs in one transaction so readers never see a half
// reindexed scope.
func (s *ExpenseStore) ReindexWeekKeys(ctx context.Context, scopeID string, weekStart time.Weekday) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, occurred_at, week_key FROM expenses WHERE scope_id = ?`, scopeID)
	if err != nil {
		return 0, fmt.Errorf("query week keys: %w", err)
	}

	type change struct{ id, key string }
	var changes []change
	for rows.Next() {
		var id, occurred, current string
		if err := rows.Scan(&id, &occurred, &current); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan week key row: %w", err)
		}
		day, err := parseDay(occurred)
		if err != nil {
			rows.Close()
			return 0, err
		}
		if key := calendar.WeekKey(day, weekStart); key != current {
			changes = append(changes, change{id: id, key: key})
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate week key rows: %w", err)
	}
	rows.Close()

	for _, c := range changes {
		if _, err := tx.ExecContext(ctx, `UPDATE expenses SET week_key = ? WHERE id = ?`, c.key, c.id); err != nil {
			return 0, fmt.Errorf("update week key: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	if len(changes) > 0 {
		slog.InfoContext(ctx, "week keys reindexed",
			"scope_id", scopeID, "week_start", int(weekStart), "changed", len(changes))
	}
	return len(changes), nil
}

func insertLabels(ctx context.Context, tx *sql.Tx, expenseID string, categoryIDs []string) error {
	for pos, cid := range categoryIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO expense_categories (expense_id, category_id, position) VALUES (?, ?, ?)`,
			expenseID, cid, pos); err != nil {
			return fmt.Errorf("insert expense label: %w", err)
		}
	}
	return nil
}

func (s *CategoryStore) List(ctx context.Context, scopeID string) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, color, last_used_at
		FROM categories WHERE scope_id = ? ORDER BY name ASC`, scopeID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := make([]core.Category, 0)
	for rows.Next() {
		var c core.Category
		var color string
		var lastUsed sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &color, &lastUsed); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Color = core.ColorToken(color).Normalize()
		if lastUsed.Valid {
			if c.LastUsedAt, err = time.Parse(timeLayout, lastUsed.String); err != nil {
				return nil, fmt.Errorf("parse last_used_at: %w", err)
			}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (s *CategoryStore) Create(ctx context.Context, scopeID string, c core.Category) (string, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return "", store.Validation(err)
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE scope_id = ? AND name = ? COLLATE NOCASE`,
		scopeID, c.Name).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("check category name: %w", err)
	}
	if exists > 0 {
		return "", store.ErrDuplicateName
	}

	if !c.Color.IsValid() {
		// Rotate through the palette based on how many labels the scope has
		// ever been assigned.
		var seq int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM categories WHERE scope_id = ?`, scopeID).Scan(&seq); err != nil {
			return "", fmt.Errorf("count categories: %w", err)
		}
		c.Color = core.PaletteColor(seq)
	}

	c.ID = uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO categories (id, scope_id, name, color) VALUES (?, ?, ?, ?)`,
		c.ID, scopeID, c.Name, string(c.Color))
	if err != nil {
		return "", fmt.Errorf("insert category: %w", err)
	}
	return c.ID, nil
}

func (s *CategoryStore) Update(ctx context.Context, scopeID string, c core.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return store.Validation(err)
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE scope_id = ? AND id != ? AND name = ? COLLATE NOCASE`,
		scopeID, c.ID, c.Name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check category name: %w", err)
	}
	if exists > 0 {
		return store.ErrDuplicateName
	}

	var lastUsed any
	if !c.LastUsedAt.IsZero() {
		lastUsed = c.LastUsedAt.UTC().Format(timeLayout)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, color = ?, last_used_at = ?
		WHERE id = ? AND scope_id = ?`,
		c.Name, string(c.Color.Normalize()), lastUsed, c.ID, scopeID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *CategoryStore) Delete(ctx context.Context, scopeID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND scope_id = ?`, id, scopeID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	// Records keep dangling label ids; breakdowns skip unknown labels.
	return nil
}

func (s *SettingsStore) Get(ctx context.Context, scopeID string) (core.Settings, error) {
	var set core.Settings
	var weekStart int
	err := s.db.QueryRowContext(ctx,
		`SELECT weekly_budget_cents, week_start_day FROM settings WHERE scope_id = ?`,
		scopeID).Scan(&set.WeeklyBudgetCents, &weekStart)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DefaultSettings(), nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("query settings: %w", err)
	}
	set.WeekStartDay = time.Weekday(weekStart)
	return set, nil
}

func (s *SettingsStore) Set(ctx context.Context, scopeID string, set core.Settings) error {
	if err := set.Validate(); err != nil {
		return store.Validation(err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (scope_id, weekly_budget_cents, week_start_day, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (scope_id) DO UPDATE SET
			weekly_budget_cents = excluded.weekly_budget_cents,
			week_start_day = excluded.week_start_day,
			updated_at = excluded.updated_at`,
		scopeID, set.WeeklyBudgetCents, int(set.WeekStartDay), time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

func parseDay(s string) (core.Date, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse occurred_at %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}
