// Package export ships expense changes to an external spreadsheet. The sheet
// is an append-only change log: every create, update and delete becomes one
// row, so the spreadsheet doubles as an audit trail.
package export

import (
	"context"

	"outlay/internal/core"
)

// Row is one exported change.
type Row struct {
	ScopeID    string
	Op         string
	RecordID   string
	OccurredAt string // day key
	Amount     string // decimal units
	Desc       string
	Categories []string
}

type Exporter interface {
	AppendChange(ctx context.Context, row Row) (rowRef string, err error)
}

// BuildRow flattens a record and its resolved category names into a Row.
func BuildRow(scopeID, op string, rec core.ExpenseRecord, categoryNames []string) Row {
	return Row{
		ScopeID:    scopeID,
		Op:         op,
		RecordID:   rec.ID,
		OccurredAt: rec.DayKey,
		Amount:     core.FormatCents(rec.Amount.Cents),
		Desc:       rec.Description,
		Categories: categoryNames,
	}
}
