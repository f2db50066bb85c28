// Package store owns the canonical client-side model of all downloads.
//
// It is the single writer for download state: the event dispatcher and
// UI-facing code mutate it only through the methods here. Every method
// is atomic with respect to the others; a single mutex serializes all
// access, so no caller ever observes a partial mutation.
package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/riptide-dl/riptide/internal/model"
)

// AddOrReplace inserts a download or fully overwrites an existing entry
// with the same id. Used for optimistic inserts and for authoritative
// added/updated events alike.
func (s *Store) AddOrReplace(d model.Download) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(d)
}

func (s *Store) insertLocked(d model.Download) {
	if _, ok := s.downloads[d.ID]; !ok {
		s.order = append(s.order, d.ID)
	}
	c := d.Clone()
	s.downloads[d.ID] = &c
}

// Remove deletes the entry and prunes it from the selection. No-op if
// the id is absent; deletion racing an in-flight event is expected.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

func (s *Store) removeLocked(id string) {
	if _, ok := s.downloads[id]; !ok {
		return
	}
	delete(s.downloads, id)
	delete(s.selected, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.anchor == id {
		s.anchor = ""
	}
}

// NewOptimistic inserts a locally-created entry with a client-generated
// id ahead of daemon confirmation and returns a copy of it. The entry
// is later swapped for the authoritative one via Reconcile.
func (s *Store) NewOptimistic(url, filename, destination, queueID string) model.Download {
	d := model.Download{
		ID:          uuid.New().String(),
		URL:         url,
		Filename:    filename,
		Destination: destination,
		QueueID:     queueID,
		Status:      model.StatusPending,
		CreatedAt:   time.Now(),
	}
	s.AddOrReplace(d)
	return d
}

// Reconcile replaces the optimistic entry identified by tempID with the
// authoritative download the daemon returned. The authoritative entry
// takes over the optimistic entry's position, selection membership and
// range anchor, so the user's view does not jump. If tempID is absent
// the authoritative entry is simply inserted. If the authoritative
// entry is already present, because its added event beat the command
// response, the temporary entry is simply dropped.
func (s *Store) Reconcile(tempID string, authoritative model.Download) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.downloads[tempID]; !ok {
		s.insertLocked(authoritative)
		return
	}

	delete(s.downloads, tempID)
	if _, exists := s.downloads[authoritative.ID]; exists {
		// The added event for the authoritative entity landed before the
		// command response. Its order slot and entity (possibly already
		// advanced by progress events) stay; only the temp slot goes, so
		// the id never appears in the order twice.
		for i, oid := range s.order {
			if oid == tempID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	} else {
		for i, oid := range s.order {
			if oid == tempID {
				s.order[i] = authoritative.ID
				break
			}
		}
		c := authoritative.Clone()
		s.downloads[authoritative.ID] = &c
	}
	if _, sel := s.selected[tempID]; sel {
		delete(s.selected, tempID)
		s.selected[authoritative.ID] = struct{}{}
	}
	if s.anchor == tempID {
		s.anchor = authoritative.ID
	}
}

// ApplyProgress updates a download's byte counters and display rates.
// Last write wins: the daemon attaches no sequence numbers, so a stale
// frame after a newer one simply overwrites it. If total is known and
// the download's size is not yet, the size is adopted. No-op when the
// id is absent.
func (s *Store) ApplyProgress(id string, downloaded, total int64, speed float64, eta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.downloads[id]
	if !ok {
		return
	}
	d.Downloaded = downloaded
	if total > 0 && d.Size <= 0 {
		d.Size = total
	}
	d.Speed = speed
	d.ETA = eta
}

// ApplySegmentProgress updates one segment's byte counter in place.
// No-op when the download or the segment index is absent.
func (s *Store) ApplySegmentProgress(id string, segmentIndex int, downloaded int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.downloads[id]
	if !ok {
		return
	}
	if segmentIndex < 0 || segmentIndex >= len(d.Segments) {
		return
	}
	seg := &d.Segments[segmentIndex]
	seg.Downloaded = downloaded
	seg.Completed = seg.Downloaded >= seg.End-seg.Start
}

// ApplyStatus transitions a download's status. The daemon is the source
// of truth for transition legality, so any reported status is accepted.
// Reaching completed snaps downloaded to the known size, closing the
// rounding gap left by the last progress tick, and stamps the
// completion time once. No-op when the id is absent.
func (s *Store) ApplyStatus(id string, status model.Status, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.downloads[id]
	if !ok {
		return
	}
	prev := d.Status
	d.Status = status
	if errMsg != "" {
		d.Error = errMsg
	}
	if status == model.StatusCompleted && prev != model.StatusCompleted {
		if d.Size > 0 {
			d.Downloaded = d.Size
		}
		d.CompletedAt = time.Now()
	}
	if status.Terminal() {
		d.Speed = 0
		d.ETA = 0
	}
}

// MoveToQueue reassigns the queue reference for every id that is
// present; absent ids are skipped without error.
func (s *Store) MoveToQueue(ids []string, queueID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if d, ok := s.downloads[id]; ok {
			d.QueueID = queueID
		}
	}
}

// Get returns a copy of the download with the given id.
func (s *Store) Get(id string) (model.Download, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.downloads[id]
	if !ok {
		return model.Download{}, false
	}
	return d.Clone(), true
}

// Len returns the number of downloads in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.downloads)
}

// All returns copies of every download in insertion order.
func (s *Store) All() []model.Download {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Download, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.downloads[id].Clone())
	}
	return out
}
