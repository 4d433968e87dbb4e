// Package memory provides in-process implementations of the store contracts,
// used as the default backend and in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"outlay/internal/calendar"
	"outlay/internal/core"
	"outlay/internal/store"
)

// Store keeps all scopes' expenses, categories and settings in memory. The
// three contracts are exposed through Expenses/Categories/Settings views over
// the same mutex-guarded state. All reads return copies so callers can never
// observe concurrent mutation.
type Store struct {
	mu         sync.Mutex
	expenses   map[string]map[string]core.ExpenseRecord // scope -> id -> record
	categories map[string]map[string]core.Category
	settings   map[string]core.Settings
	colorSeq   map[string]int
	now        func() time.Time
}

func New() *Store {
	return &Store{
		expenses:   make(map[string]map[string]core.ExpenseRecord),
		categories: make(map[string]map[string]core.Category),
		settings:   make(map[string]core.Settings),
		colorSeq:   make(map[string]int),
		now:        time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Expenses() *ExpenseStore   { return &ExpenseStore{s} }
func (s *Store) Categories() *CategoryStore { return &CategoryStore{s} }
func (s *Store) Settings() *SettingsStore  { return &SettingsStore{s} }

type (
	ExpenseStore  struct{ root *Store }
	CategoryStore struct{ root *Store }
	SettingsStore struct{ root *Store }
)

var (
	_ store.ExpenseStore  = (*ExpenseStore)(nil)
	_ store.WeekReindexer = (*ExpenseStore)(nil)
	_ store.CategoryStore = (*CategoryStore)(nil)
	_ store.SettingsStore = (*SettingsStore)(nil)
)

func (s *ExpenseStore) Create(_ context.Context, scopeID string, rec core.ExpenseRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", store.Validation(err)
	}
	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	rec.ID = uuid.NewString()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.root.now()
	}
	if s.root.expenses[scopeID] == nil {
		s.root.expenses[scopeID] = make(map[string]core.ExpenseRecord)
	}
	s.root.expenses[scopeID][rec.ID] = cloneRecord(rec)
	return rec.ID, nil
}

func (s *ExpenseStore) Update(_ context.Context, scopeID string, rec core.ExpenseRecord) error {
	if err := rec.Validate(); err != nil {
		return store.Validation(err)
	}
	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	existing, ok := s.root.expenses[scopeID][rec.ID]
	if !ok {
		return store.ErrNotFound
	}
	// Insertion time is immutable; it orders records within a day.
	rec.CreatedAt = existing.CreatedAt
	s.root.expenses[scopeID][rec.ID] = cloneRecord(rec)
	return nil
}

func (s *ExpenseStore) Delete(_ context.Context, scopeID, id string) error {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	if _, ok := s.root.expenses[scopeID][id]; !ok {
		return store.ErrNotFound
	}
	delete(s.root.expenses[scopeID], id)
	return nil
}

func (s *ExpenseStore) Get(_ context.Context, scopeID, id string) (core.ExpenseRecord, error) {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	rec, ok := s.root.expenses[scopeID][id]
	if !ok {
		return core.ExpenseRecord{}, store.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *ExpenseStore) FetchByDayKey(_ context.Context, scopeID, dayKey string) ([]core.ExpenseRecord, error) {
	return s.fetch(scopeID, func(r core.ExpenseRecord) bool { return r.DayKey == dayKey }), nil
}

func (s *ExpenseStore) FetchByWeekKey(_ context.Context, scopeID, weekKey string) ([]core.ExpenseRecord, error) {
	return s.fetch(scopeID, func(r core.ExpenseRecord) bool { return r.WeekKey == weekKey }), nil
}

func (s *ExpenseStore) FetchByMonthKey(_ context.Context, scopeID, monthKey string) ([]core.ExpenseRecord, error) {
	return s.fetch(scopeID, func(r core.ExpenseRecord) bool { return r.MonthKey == monthKey }), nil
}

func (s *ExpenseStore) FetchByDateRange(_ context.Context, scopeID string, dr store.DateRange) ([]core.ExpenseRecord, error) {
	start, end := calendar.DayKey(dr.Start), calendar.DayKey(dr.End)
	return s.fetch(scopeID, func(r core.ExpenseRecord) bool {
		return r.DayKey >= start && r.DayKey <= end
	}), nil
}

func (s *ExpenseStore) fetch(scopeID string, match func(core.ExpenseRecord) bool) []core.ExpenseRecord {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	out := make([]core.ExpenseRecord, 0)
	for _, rec := range s.root.expenses[scopeID] {
		if match(rec) {
			out = append(out, cloneRecord(rec))
		}
	}
	// Day key ascending, newest created first within a day.
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayKey != out[j].DayKey {
			return out[i].DayKey < out[j].DayKey
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *ExpenseStore) ReindexWeekKeys(_ context.Context, scopeID string, weekStart time.Weekday) (int, error) {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	changed := 0
	for id, rec := range s.root.expenses[scopeID] {
		key := calendar.WeekKey(rec.OccurredAt, weekStart)
		if key != rec.WeekKey {
			rec.WeekKey = key
			s.root.expenses[scopeID][id] = rec
			changed++
		}
	}
	return changed, nil
}

func (s *CategoryStore) List(_ context.Context, scopeID string) ([]core.Category, error) {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	out := make([]core.Category, 0, len(s.root.categories[scopeID]))
	for _, c := range s.root.categories[scopeID] {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *CategoryStore) Create(_ context.Context, scopeID string, c core.Category) (string, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return "", store.Validation(err)
	}
	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	for _, existing := range s.root.categories[scopeID] {
		if strings.EqualFold(existing.Name, c.Name) {
			return "", store.ErrDuplicateName
		}
	}
	c.ID = uuid.NewString()
	if !c.Color.IsValid() {
		c.Color = core.PaletteColor(s.root.colorSeq[scopeID])
		s.root.colorSeq[scopeID]++
	}
	if s.root.categories[scopeID] == nil {
		s.root.categories[scopeID] = make(map[string]core.Category)
	}
	s.root.categories[scopeID][c.ID] = c
	return c.ID, nil
}

func (s *CategoryStore) Update(_ context.Context, scopeID string, c core.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return store.Validation(err)
	}
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	if _, ok := s.root.categories[scopeID][c.ID]; !ok {
		return store.ErrNotFound
	}
	for id, existing := range s.root.categories[scopeID] {
		if id != c.ID && strings.EqualFold(existing.Name, c.Name) {
			return store.ErrDuplicateName
		}
	}
	c.Color = c.Color.Normalize()
	s.root.categories[scopeID][c.ID] = c
	return nil
}

func (s *CategoryStore) Delete(_ context.Context, scopeID, id string) error {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	if _, ok := s.root.categories[scopeID][id]; !ok {
		return store.ErrNotFound
	}
	delete(s.root.categories[scopeID], id)
	return nil
}

func (s *SettingsStore) Get(_ context.Context, scopeID string) (core.Settings, error) {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	if set, ok := s.root.settings[scopeID]; ok {
		return set, nil
	}
	return core.DefaultSettings(), nil
}

func (s *SettingsStore) Set(_ context.Context, scopeID string, set core.Settings) error {
	if err := set.Validate(); err != nil {
		return store.Validation(err)
	}
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	s.root.settings[scopeID] = set
	return nil
}

func cloneRecord(r core.ExpenseRecord) core.ExpenseRecord {
	r.CategoryIDs = append([]string(nil), r.CategoryIDs...)
	return r
}
