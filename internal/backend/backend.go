// Package backend selects and wires the persistence layer from
// configuration.
package backend

import (
	"fmt"
	"log/slog"

	"outlay/internal/config"
	"outlay/internal/store"
	"outlay/internal/store/memory"
	"outlay/internal/storage"
)

// Stores bundles the store contracts regardless of which backend serves
// them. ExportLog is nil on backends without one; the worker then skips its
// catch-up pass.
type Stores struct {
	Expenses   store.ExpenseStore
	Categories store.CategoryStore
	Settings   store.SettingsStore
	Reindexer  store.WeekReindexer
	ExportLog  *storage.ExportLog
}

// Open builds the configured backend. The returned close function releases
// its resources; for the memory backend it is a no-op.
func Open(cfg *config.Config) (*Stores, func() error, error) {
	switch cfg.DataBackend {
	case "memory":
		slog.Info("using in-memory backend")
		mem := memory.New()
		return &Stores{
			Expenses:   mem.Expenses(),
			Categories: mem.Categories(),
			Settings:   mem.Settings(),
			Reindexer:  mem.Expenses(),
		}, func() error { return nil }, nil

	case "sqlite":
		slog.Info("using sqlite backend", "path", cfg.SQLiteDBPath)
		repo, err := storage.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		return &Stores{
			Expenses:   repo.Expenses(),
			Categories: repo.Categories(),
			Settings:   repo.Settings(),
			Reindexer:  repo.Expenses(),
			ExportLog:  repo.ExportLog(),
		}, repo.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}
