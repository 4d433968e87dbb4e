package services

import (
	"context"
	"fmt"
	"time"

	"outlay/internal/core"
	"outlay/internal/feed"
	"outlay/internal/store"
)

// CategoryService manages the per-scope label set. Name uniqueness and
// palette rotation live in the store; this layer adds feed notifications so
// cached views that render names and colors get dropped.
type CategoryService struct {
	categories store.CategoryStore
	hub        *feed.Hub
}

func NewCategoryService(categories store.CategoryStore, hub *feed.Hub) *CategoryService {
	return &CategoryService{categories: categories, hub: hub}
}

func (s *CategoryService) List(ctx context.Context, scopeID string) ([]core.Category, error) {
	return s.categories.List(ctx, scopeID)
}

func (s *CategoryService) Create(ctx context.Context, scopeID, name string) (core.Category, error) {
	id, err := s.categories.Create(ctx, scopeID, core.Category{Name: name})
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	created, err := s.find(ctx, scopeID, id)
	if err != nil {
		return core.Category{}, err
	}
	s.notify(scopeID, id)
	return created, nil
}

// Rename changes a category's name, keeping its color and id stable so
// existing expense labels stay attached.
func (s *CategoryService) Rename(ctx context.Context, scopeID, id, name string) (core.Category, error) {
	current, err := s.find(ctx, scopeID, id)
	if err != nil {
		return core.Category{}, err
	}

	current.Name = name
	if err := s.categories.Update(ctx, scopeID, current); err != nil {
		return core.Category{}, fmt.Errorf("rename category %s: %w", id, err)
	}

	updated, err := s.find(ctx, scopeID, id)
	if err != nil {
		return core.Category{}, err
	}
	s.notify(scopeID, id)
	return updated, nil
}

// Touch records that a category was just used, so pickers can sort by
// recency.
func (s *CategoryService) Touch(ctx context.Context, scopeID, id string, at time.Time) error {
	current, err := s.find(ctx, scopeID, id)
	if err != nil {
		return err
	}
	current.LastUsedAt = at
	if err := s.categories.Update(ctx, scopeID, current); err != nil {
		return fmt.Errorf("touch category %s: %w", id, err)
	}
	return nil
}

func (s *CategoryService) Delete(ctx context.Context, scopeID, id string) error {
	if err := s.categories.Delete(ctx, scopeID, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	s.notify(scopeID, id)
	return nil
}

func (s *CategoryService) find(ctx context.Context, scopeID, id string) (core.Category, error) {
	list, err := s.categories.List(ctx, scopeID)
	if err != nil {
		return core.Category{}, fmt.Errorf("list categories: %w", err)
	}
	for _, c := range list {
		if c.ID == id {
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("category %s: %w", id, store.ErrNotFound)
}

func (s *CategoryService) notify(scopeID, id string) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(feed.Event{
		ScopeID:  scopeID,
		Op:       feed.OpCategoryChanged,
		RecordID: id,
		At:       time.Now(),
	})
}
