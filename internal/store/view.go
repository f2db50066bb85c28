package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/riptide-dl/riptide/internal/model"
)

// Filter is a fixed semantic category over download status.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
	FilterFailed    Filter = "failed"
	FilterQueued    Filter = "queued"
	FilterPaused    Filter = "paused"
)

// SortField selects the key for ordering the derived view.
type SortField string

const (
	SortByName     SortField = "name"
	SortBySize     SortField = "size"
	SortByProgress SortField = "progress"
	SortByCreated  SortField = "created"
	SortByStatus   SortField = "status"
)

// SortOrder is the direction of the sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Store holds the canonical download map, the selection set and the
// current view parameters. Construct with New.
type Store struct {
	mu        sync.Mutex
	downloads map[string]*model.Download
	order     []string
	selected  map[string]struct{}
	anchor    string

	filter    Filter
	query     string
	sortField SortField
	sortOrder SortOrder
}

// New returns an empty store showing all downloads in creation order.
func New() *Store {
	return &Store{
		downloads: make(map[string]*model.Download),
		selected:  make(map[string]struct{}),
		filter:    FilterAll,
		sortField: SortByCreated,
		sortOrder: SortAsc,
	}
}

func (f Filter) matches(d *model.Download) bool {
	switch f {
	case FilterActive:
		return d.Status == model.StatusDownloading
	case FilterCompleted:
		return d.Status == model.StatusCompleted
	case FilterFailed:
		return d.Status == model.StatusFailed
	case FilterQueued:
		return d.Status == model.StatusQueued || d.Status == model.StatusPending
	case FilterPaused:
		return d.Status == model.StatusPaused
	default:
		return true
	}
}

func matchesQuery(d *model.Download, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(d.Filename), q) ||
		strings.Contains(strings.ToLower(d.URL), q)
}

// SetFilter changes the active filter category and clears the
// selection, since the previous selection may no longer be visible.
func (s *Store) SetFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter == f {
		return
	}
	s.filter = f
	s.clearSelectionLocked()
}

// SetQuery changes the text query and clears the selection.
func (s *Store) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.query == q {
		return
	}
	s.query = q
	s.clearSelectionLocked()
}

// SetSort changes the view ordering. Reordering does not change which
// rows exist, so the selection survives.
func (s *Store) SetSort(field SortField, order SortOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortField = field
	s.sortOrder = order
}

// View returns the derived view under the store's current filter,
// query and sort parameters.
func (s *Store) View() []model.Download {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectLocked(s.filter, s.query, s.sortField, s.sortOrder)
}

// FilteredSorted is the pure projection over the canonical map: filter
// by category, match the query case-insensitively against filename or
// source URL, then sort. The sort is stable with insertion order as
// the tie-break.
func (s *Store) FilteredSorted(filter Filter, query string, field SortField, order SortOrder) []model.Download {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectLocked(filter, query, field, order)
}

func (s *Store) projectLocked(filter Filter, query string, field SortField, order SortOrder) []model.Download {
	out := make([]model.Download, 0, len(s.order))
	for _, id := range s.order {
		d := s.downloads[id]
		if filter.matches(d) && matchesQuery(d, query) {
			out = append(out, d.Clone())
		}
	}

	less := lessFunc(field)
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool {
			if order == SortDesc {
				return less(&out[j], &out[i])
			}
			return less(&out[i], &out[j])
		})
	}
	return out
}

func lessFunc(field SortField) func(a, b *model.Download) bool {
	switch field {
	case SortByName:
		return func(a, b *model.Download) bool { return a.Filename < b.Filename }
	case SortBySize:
		return func(a, b *model.Download) bool { return a.Size < b.Size }
	case SortByProgress:
		return func(a, b *model.Download) bool { return a.Progress() < b.Progress() }
	case SortByStatus:
		return func(a, b *model.Download) bool { return a.Status < b.Status }
	case SortByCreated:
		return func(a, b *model.Download) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		return nil
	}
}
