package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riptide-dl/riptide/internal/model"
)

func seedViewStore() *Store {
	s := New()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	add := func(id, name string, size, downloaded int64, status model.Status, offset time.Duration) {
		s.AddOrReplace(model.Download{
			ID:         id,
			URL:        "https://mirror.example.org/pub/" + name,
			Filename:   name,
			Size:       size,
			Downloaded: downloaded,
			Status:     status,
			CreatedAt:  base.Add(offset),
		})
	}

	add("d1", "zebra.iso", 1000, 500, model.StatusDownloading, 0)
	add("d2", "alpha.zip", 2000, 2000, model.StatusCompleted, time.Minute)
	add("d3", "mango.tar", 500, 0, model.StatusQueued, 2*time.Minute)
	add("d4", "delta.bin", 0, 100, model.StatusDownloading, 3*time.Minute)
	add("d5", "omega.pdf", 300, 30, model.StatusFailed, 4*time.Minute)
	add("d6", "beta.iso", 800, 200, model.StatusPaused, 5*time.Minute)
	return s
}

func ids(view []model.Download) []string {
	out := make([]string, len(view))
	for i := range view {
		out[i] = view[i].ID
	}
	return out
}

func TestFilterCategories(t *testing.T) {
	s := seedViewStore()

	tests := []struct {
		filter Filter
		want   []string
	}{
		{FilterAll, []string{"d1", "d2", "d3", "d4", "d5", "d6"}},
		{FilterActive, []string{"d1", "d4"}},
		{FilterCompleted, []string{"d2"}},
		{FilterFailed, []string{"d5"}},
		{FilterQueued, []string{"d3"}},
		{FilterPaused, []string{"d6"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			view := s.FilteredSorted(tt.filter, "", SortByCreated, SortAsc)
			assert.Equal(t, tt.want, ids(view))
		})
	}
}

func TestQueuedFilterIncludesPending(t *testing.T) {
	s := seedViewStore()
	s.AddOrReplace(model.Download{ID: "d7", Filename: "new.bin", Status: model.StatusPending, CreatedAt: time.Now()})

	view := s.FilteredSorted(FilterQueued, "", SortByCreated, SortAsc)
	assert.Equal(t, []string{"d3", "d7"}, ids(view))
}

func TestQueryMatchesFilenameAndURLCaseInsensitive(t *testing.T) {
	s := seedViewStore()

	view := s.FilteredSorted(FilterAll, "ZEBRA", SortByCreated, SortAsc)
	assert.Equal(t, []string{"d1"}, ids(view))

	// "pub" only appears in the source URLs.
	view = s.FilteredSorted(FilterAll, "pub/", SortByCreated, SortAsc)
	assert.Len(t, view, 6)

	view = s.FilteredSorted(FilterAll, "no-such-file", SortByCreated, SortAsc)
	assert.Empty(t, view)
}

func TestSortFields(t *testing.T) {
	s := seedViewStore()

	byName := s.FilteredSorted(FilterAll, "", SortByName, SortAsc)
	assert.Equal(t, []string{"d2", "d6", "d4", "d3", "d5", "d1"}, ids(byName))

	byNameDesc := s.FilteredSorted(FilterAll, "", SortByName, SortDesc)
	assert.Equal(t, []string{"d1", "d5", "d3", "d4", "d6", "d2"}, ids(byNameDesc))

	bySize := s.FilteredSorted(FilterAll, "", SortBySize, SortAsc)
	assert.Equal(t, "d4", bySize[0].ID, "unknown size sorts first ascending")

	// Progress: d4 has unknown size, so its fraction counts as zero.
	byProgress := s.FilteredSorted(FilterAll, "", SortByProgress, SortAsc)
	assert.Equal(t, []string{"d3", "d4", "d5", "d6", "d1", "d2"}, ids(byProgress))
}

func TestSortStableTieBreakIsInsertionOrder(t *testing.T) {
	s := New()
	now := time.Now()
	for _, id := range []string{"b1", "b2", "b3"} {
		s.AddOrReplace(model.Download{ID: id, Filename: "same.bin", Size: 100, Status: model.StatusQueued, CreatedAt: now})
	}

	view := s.FilteredSorted(FilterAll, "", SortByName, SortAsc)
	assert.Equal(t, []string{"b1", "b2", "b3"}, ids(view))

	view = s.FilteredSorted(FilterAll, "", SortBySize, SortDesc)
	assert.Equal(t, []string{"b1", "b2", "b3"}, ids(view), "descending must not reverse equal elements")
}

func TestRangeSelectionFollowsViewOrder(t *testing.T) {
	s := seedViewStore()
	// Name order: d2 alpha, d6 beta, d4 delta, d3 mango, d5 omega, d1 zebra.
	s.SetSort(SortByName, SortAsc)

	s.Toggle("d6", false) // anchor at beta
	s.Toggle("d5", true)  // extend to omega

	// Exactly the contiguous run beta..omega in view order, not map or
	// insertion order.
	assert.ElementsMatch(t, []string{"d6", "d4", "d3", "d5"}, s.Selected())
	assert.False(t, s.IsSelected("d2"))
	assert.False(t, s.IsSelected("d1"))
}

func TestRangeSelectionWithActiveFilter(t *testing.T) {
	s := seedViewStore()
	s.SetFilter(FilterActive) // view: d1, d4 (created order)
	s.SetSort(SortByName, SortAsc)
	// Name order within the filter reorders relative to insertion: d4
	// (delta) before d1 (zebra).

	s.Toggle("d4", false)
	s.Toggle("d1", true)

	assert.ElementsMatch(t, []string{"d4", "d1"}, s.Selected())
}

func TestRangeSelectionBackwards(t *testing.T) {
	s := seedViewStore()
	s.SetSort(SortByName, SortAsc)

	s.Toggle("d3", false) // anchor at mango
	s.Toggle("d6", true)  // extend backwards to beta

	assert.ElementsMatch(t, []string{"d6", "d4", "d3"}, s.Selected())
}

func TestToggleWithoutExtend(t *testing.T) {
	s := seedViewStore()

	s.Toggle("d1", false)
	assert.True(t, s.IsSelected("d1"))

	s.Toggle("d1", false)
	assert.False(t, s.IsSelected("d1"))

	s.Toggle("missing", false)
	assert.Empty(t, s.Selected())
}

func TestSelectAll(t *testing.T) {
	s := seedViewStore()

	s.SelectAll(nil)
	assert.Len(t, s.Selected(), 6)

	s.SetFilter(FilterActive)
	s.SelectAll(nil)
	assert.ElementsMatch(t, []string{"d1", "d4"}, s.Selected())

	s.SelectAll([]string{"d1", "d5", "nope"})
	assert.ElementsMatch(t, []string{"d1", "d5"}, s.Selected())
}

func TestFilterAndQueryChangesClearSelection(t *testing.T) {
	s := seedViewStore()

	s.SetSelected([]string{"d1", "d2"})
	s.SetFilter(FilterCompleted)
	assert.Empty(t, s.Selected(), "filter switch clears an ambiguous selection")

	s.SetSelected([]string{"d2"})
	s.SetQuery("alpha")
	assert.Empty(t, s.Selected())

	// Re-applying the same filter is not a context switch.
	s.SetSelected([]string{"d2"})
	s.SetFilter(FilterCompleted)
	assert.Equal(t, []string{"d2"}, s.Selected())
}

func TestSortChangeKeepsSelection(t *testing.T) {
	s := seedViewStore()
	s.SetSelected([]string{"d1", "d3"})

	s.SetSort(SortByName, SortDesc)

	require.Len(t, s.Selected(), 2)
	assert.True(t, s.IsSelected("d1"))
	assert.True(t, s.IsSelected("d3"))
}

func TestViewUsesStoreState(t *testing.T) {
	s := seedViewStore()
	s.SetFilter(FilterActive)
	s.SetQuery("delta")
	s.SetSort(SortByName, SortAsc)

	view := s.View()
	require.Len(t, view, 1)
	assert.Equal(t, "d4", view[0].ID)
}

func TestViewReturnsCopies(t *testing.T) {
	s := New()
	d := testDownload("d1", withSize(1000))
	d.Segments = []model.Segment{{Start: 0, End: 1000}}
	s.AddOrReplace(d)

	view := s.View()
	view[0].Downloaded = 999999
	view[0].Segments[0].Downloaded = 42

	got, _ := s.Get("d1")
	assert.Zero(t, got.Downloaded)
	assert.Zero(t, got.Segments[0].Downloaded)
}
