package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"outlay/internal/core"
)

// ExportLog tracks which records have reached the external spreadsheet, so
// the worker can catch up on anything missed while the broker was down.
type ExportLog struct {
	db *sql.DB
}

func (r *Repository) ExportLog() *ExportLog { return &ExportLog{r.db} }

// PendingExport is a record that has not been exported yet.
type PendingExport struct {
	ScopeID string
	Record  core.ExpenseRecord
}

func (l *ExportLog) MarkExported(ctx context.Context, scopeID, recordID string) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO export_log (record_id, scope_id, exported_at)
		VALUES (?, ?, ?)
		ON CONFLICT (record_id) DO UPDATE SET exported_at = excluded.exported_at`,
		recordID, scopeID, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("mark exported %s: %w", recordID, err)
	}
	return nil
}

// ListUnexported returns up to limit records with no export log entry,
// oldest first. Deleted records drop out of the log via the cascade.
func (l *ExportLog) ListUnexported(ctx context.Context, limit int) ([]PendingExport, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT e.scope_id, e.id, e.amount_cents, e.description, e.occurred_at, e.created_at,
		       e.day_key, e.week_key, e.month_key
		FROM expenses e
		LEFT JOIN export_log x ON x.record_id = e.id
		WHERE x.record_id IS NULL
		ORDER BY e.created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unexported: %w", err)
	}
	defer rows.Close()

	var out []PendingExport
	for rows.Next() {
		var p PendingExport
		var occurred, created string
		if err := rows.Scan(&p.ScopeID, &p.Record.ID, &p.Record.Amount.Cents, &p.Record.Description,
			&occurred, &created, &p.Record.DayKey, &p.Record.WeekKey, &p.Record.MonthKey); err != nil {
			return nil, fmt.Errorf("scan unexported: %w", err)
		}
		if p.Record.OccurredAt, err = parseDay(occurred); err != nil {
			return nil, err
		}
		if p.Record.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unexported: %w", err)
	}

	if len(out) == 0 {
		return out, nil
	}

	recs := make([]core.ExpenseRecord, len(out))
	ids := make([]any, len(out))
	for i := range out {
		recs[i] = out[i].Record
		ids[i] = out[i].Record.ID
	}
	expenses := &ExpenseStore{l.db}
	if err := expenses.attachLabels(ctx, recs, ids); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Record = recs[i]
	}
	return out, nil
}
