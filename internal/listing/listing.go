// Package listing implements the in-memory category filter and windowed
// pagination every collection view applies to its fully fetched list.
package listing

import (
	"slices"
	"sort"
	"sync"
	"time"

	"memories-backend/internal/models"
)

// ValidFilter reports whether category is "all" or one of the allowed categories
func ValidFilter(category string, allowed []string) bool {
	return category == "" || category == models.CategoryAll || slices.Contains(allowed, category)
}

// Filter keeps the items whose category equals category; "all" keeps everything
func Filter[T any](items []T, category string, categoryOf func(T) string) []T {
	if category == "" || category == models.CategoryAll {
		return items
	}
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if categoryOf(item) == category {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// SortDesc orders items newest first, keeping the fetch order for equal timestamps
func SortDesc[T any](items []T, timeOf func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return timeOf(items[i]).After(timeOf(items[j]))
	})
}

// Window is the revealed prefix of a list
type Window[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	HasMore  bool `json:"has_more"`
}

// Paginate reveals the first page*size items
func Paginate[T any](items []T, page, size int) Window[T] {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	end := len(items)
	if page <= (len(items)-1)/size {
		end = page * size
	}
	displayed := items[:end]
	if displayed == nil {
		displayed = []T{}
	}
	return Window[T]{
		Items:    displayed,
		Page:     page,
		PageSize: size,
		Total:    len(items),
		HasMore:  len(items) > len(displayed),
	}
}

// State is the cursor of one view: the selected category, the revealed page
// and whether a fetch is in flight
type State struct {
	mu       sync.Mutex
	category string
	page     int
	fetching bool
}

// NewState returns a cursor on the first page of every category
func NewState() *State {
	return &State{category: models.CategoryAll, page: 1}
}

// SetCategory selects a category and resets the cursor to the first page
func (s *State) SetCategory(category string) {
	if category == "" {
		category = models.CategoryAll
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.category = category
	s.page = 1
}

// LoadMore reveals one more page; it is refused while a fetch is in flight
func (s *State) LoadMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetching {
		return false
	}
	s.page++
	return true
}

// BeginFetch marks a fetch in flight; it fails if one already is
func (s *State) BeginFetch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetching {
		return false
	}
	s.fetching = true
	return true
}

// EndFetch clears the in-flight mark
func (s *State) EndFetch() {
	s.mu.Lock()
	s.fetching = false
	s.mu.Unlock()
}

// Snapshot returns the current category and page
func (s *State) Snapshot() (category string, page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category, s.page
}

// Fetching reports whether a fetch is in flight
func (s *State) Fetching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetching
}
