package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riptide-dl/riptide/internal/model"
)

func testDownload(id string, opts ...func(*model.Download)) model.Download {
	d := model.Download{
		ID:        id,
		URL:       "https://example.com/" + id,
		Filename:  id + ".bin",
		Status:    model.StatusDownloading,
		CreatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func withSize(size int64) func(*model.Download) {
	return func(d *model.Download) { d.Size = size }
}

func withStatus(st model.Status) func(*model.Download) {
	return func(d *model.Download) { d.Status = st }
}

func withQueue(q string) func(*model.Download) {
	return func(d *model.Download) { d.QueueID = q }
}

func TestApplyProgressLastWriteWins(t *testing.T) {
	s := New()
	s.AddOrReplace(testDownload("d1", withSize(1000)))

	s.ApplyProgress("d1", 500, 0, 1024, 10)
	s.ApplyProgress("d1", 700, 0, 2048, 5)
	// A stale frame after a newer one overwrites it; the daemon carries
	// no sequence numbers.
	s.ApplyProgress("d1", 600, 0, 512, 8)

	d, ok := s.Get("d1")
	require.True(t, ok)
	assert.Equal(t, int64(600), d.Downloaded)
	assert.Equal(t, float64(512), d.Speed)
	assert.Equal(t, int64(8), d.ETA)
}

func TestApplyProgressAdoptsTotalWhenSizeUnknown(t *testing.T) {
	s := New()
	s.AddOrReplace(testDownload("d1"))

	s.ApplyProgress("d1", 100, 5000, 0, 0)
	d, _ := s.Get("d1")
	assert.Equal(t, int64(5000), d.Size)

	// Known size is never overwritten by later totals.
	s.ApplyProgress("d1", 200, 9999, 0, 0)
	d, _ = s.Get("d1")
	assert.Equal(t, int64(5000), d.Size)
}

func TestApplyProgressAbsentIDIsNoOp(t *testing.T) {
	s := New()
	s.ApplyProgress("missing", 100, 1000, 0, 0)
	assert.Equal(t, 0, s.Len())
}

func TestApplyStatusCompletedSnapsDownloaded(t *testing.T) {
	s := New()
	s.AddOrReplace(testDownload("d1", withSize(1000)))
	s.ApplyProgress("d1", 500, 0, 1024, 3)

	s.ApplyStatus("d1", model.StatusCompleted, "")

	d, ok := s.Get("d1")
	require.True(t, ok)
	assert.Equal(t, model.StatusCompleted, d.Status)
	assert.Equal(t, int64(1000), d.Downloaded, "completed must close the rounding gap")
	assert.False(t, d.CompletedAt.IsZero())
	assert.Zero(t, d.Speed)
}

func TestApplyStatusCompletedUnknownSizeLeavesDownloaded(t *testing.T) {
	s := New()
	s.AddOrReplace(testDownload("d1"))
	s.ApplyProgress("d1", 500, 0, 0, 0)

	s.ApplyStatus("d1", model.StatusCompleted, "")

	d, _ := s.Get("d1")
	assert.Equal(t, int64(500), d.Downloaded)
	assert.False(t, d.CompletedAt.IsZero())
}

func TestApplyStatusCompletedTimestampStampedOnce(t *testing.T) {
	s := New()
	s.AddOrReplace(testDownload("d1", withSize(100)))

	s.ApplyStatus("d1", model.StatusCompleted, "")
	d1, _ := s.Get("d1")

	time.Sleep(5 * time.Millisecond)
	s.ApplyStatus("d1", model.StatusCompleted, "")
	d2, _ := s.Get("d1")

	assert.Equal(t, d1.CompletedAt, d2.CompletedAt, "replayed completed event must not move the timestamp")
}

func TestApplyStatusAttachesError(t *testing.T) {
	s := New()
	s.AddOrReplace(testDownload("d1"))

	s.ApplyStatus("d1", model.StatusFailed, "connection reset")

	d, _ := s.Get("d1")
	assert.Equal(t, model.StatusFailed, d.Status)
	assert.Equal(t, "connection reset", d.Error)
}

func TestRemoveThenApplyIsNoOp(t *testing.T) {
	s := New()
	s.AddOrReplace(testDownload("d1", withSize(1000)))
	s.Remove("d1")

	s.ApplyProgress("d1", 500, 0, 0, 0)
	s.ApplyStatus("d1", model.StatusCompleted, "")
	s.ApplySegmentProgress("d1", 0, 100)

	assert.Equal(t, 0, s.Len(), "apply after remove must not reintroduce the entry")
	_, ok := s.Get("d1")
	assert.False(t, ok)
}

func TestRemovePrunesSelection(t *testing.T) {
	s := New()
	s.AddOrReplace(testDownload("d1"))
	s.AddOrReplace(testDownload("d2"))
	s.SetSelected([]string{"d1", "d2"})

	s.Remove("d1")

	assert.False(t, s.IsSelected("d1"))
	assert.True(t, s.IsSelected("d2"))
	assert.Equal(t, []string{"d2"}, s.Selected())
}

func TestApplySegmentProgress(t *testing.T) {
	d := testDownload("d1", withSize(1000))
	d.Segments = []model.Segment{
		{Start: 0, End: 500},
		{Start: 500, End: 1000},
	}
	s := New()
	s.AddOrReplace(d)

	s.ApplySegmentProgress("d1", 1, 200)
	got, _ := s.Get("d1")
	assert.Equal(t, int64(200), got.Segments[1].Downloaded)
	assert.False(t, got.Segments[1].Completed)

	s.ApplySegmentProgress("d1", 1, 500)
	got, _ = s.Get("d1")
	assert.True(t, got.Segments[1].Completed)

	// Out-of-range indexes are dropped, not errors.
	s.ApplySegmentProgress("d1", 7, 100)
	s.ApplySegmentProgress("d1", -1, 100)
	got, _ = s.Get("d1")
	assert.Equal(t, int64(0), got.Segments[0].Downloaded)
}

func TestMoveToQueueSkipsMissing(t *testing.T) {
	s := New()
	s.AddOrReplace(testDownload("d1", withQueue("q1")))
	s.AddOrReplace(testDownload("d2", withQueue("q2")))

	s.MoveToQueue([]string{"d1", "d2", "d3"}, "q2")

	d1, _ := s.Get("d1")
	d2, _ := s.Get("d2")
	assert.Equal(t, "q2", d1.QueueID)
	assert.Equal(t, "q2", d2.QueueID)
	assert.Equal(t, 2, s.Len())
}

func TestAddOrReplaceOverwrites(t *testing.T) {
	s := New()
	s.AddOrReplace(testDownload("d1", withSize(100)))
	s.AddOrReplace(testDownload("d1", withSize(999), withStatus(model.StatusPaused)))

	d, _ := s.Get("d1")
	assert.Equal(t, int64(999), d.Size)
	assert.Equal(t, model.StatusPaused, d.Status)
	assert.Equal(t, 1, s.Len())
}

func TestReconcileSwapsOptimisticEntry(t *testing.T) {
	s := New()
	s.AddOrReplace(testDownload("d0"))
	temp := s.NewOptimistic("https://example.com/f.bin", "f.bin", "/tmp", "q1")
	s.AddOrReplace(testDownload("d9"))

	s.SetSelected([]string{temp.ID})

	authoritative := testDownload("real-1", withSize(4096), withStatus(model.StatusQueued))
	s.Reconcile(temp.ID, authoritative)

	_, ok := s.Get(temp.ID)
	assert.False(t, ok, "temporary entry must be gone")

	got, ok := s.Get("real-1")
	require.True(t, ok)
	assert.Equal(t, int64(4096), got.Size)

	// Selection and insertion position carry over to the new id.
	assert.True(t, s.IsSelected("real-1"))
	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "real-1", all[1].ID)
}

func TestReconcileAfterAddedEventArrived(t *testing.T) {
	s := New()
	temp := s.NewOptimistic("https://example.com/f.bin", "f.bin", "", "")
	s.SetSelected([]string{temp.ID})

	// The daemon's added event may land before the command response.
	authoritative := testDownload("real-1", withSize(4096), withStatus(model.StatusQueued))
	s.AddOrReplace(authoritative)
	s.ApplyProgress("real-1", 100, 0, 512, 4)

	s.Reconcile(temp.ID, authoritative)

	_, ok := s.Get(temp.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
	all := s.All()
	require.Len(t, all, 1, "id must not appear in the order twice")
	assert.Equal(t, "real-1", all[0].ID)
	assert.Equal(t, int64(100), all[0].Downloaded, "progress delivered before reconcile survives")
	assert.True(t, s.IsSelected("real-1"))

	// A remove after the swap must leave no stale slot behind.
	s.Remove("real-1")
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.View())
	assert.Empty(t, s.All())
}

func TestReconcileMissingTempInsertsAuthoritative(t *testing.T) {
	s := New()
	s.Reconcile("never-existed", testDownload("real-1"))

	_, ok := s.Get("real-1")
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestNewOptimisticDefaults(t *testing.T) {
	s := New()
	d := s.NewOptimistic("https://example.com/a.iso", "a.iso", "", "")

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, model.StatusPending, d.Status)
	assert.False(t, d.CreatedAt.IsZero())

	stored, ok := s.Get(d.ID)
	require.True(t, ok)
	assert.Equal(t, d.ID, stored.ID)
}
