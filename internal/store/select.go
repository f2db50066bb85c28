package store

// Selection operations. The selection set only ever references
// downloads present in the store; Remove prunes it and view context
// switches (filter, query) clear it.

// SetSelected replaces the selection with the given ids, dropping any
// that are not present in the store. The last present id becomes the
// range anchor.
func (s *Store) SetSelected(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = make(map[string]struct{}, len(ids))
	s.anchor = ""
	for _, id := range ids {
		if _, ok := s.downloads[id]; ok {
			s.selected[id] = struct{}{}
			s.anchor = id
		}
	}
}

// Toggle flips the selection state of id. With extend set it instead
// performs range selection: the selection becomes exactly the
// contiguous run of entries between the anchor and id in the current
// filtered and sorted view. The anchor is left in place so a
// follow-up extend re-ranges from the same origin.
func (s *Store) Toggle(id string, extend bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.downloads[id]; !ok {
		return
	}

	if !extend || s.anchor == "" {
		if _, sel := s.selected[id]; sel && !extend {
			delete(s.selected, id)
		} else {
			s.selected[id] = struct{}{}
		}
		s.anchor = id
		return
	}

	view := s.projectLocked(s.filter, s.query, s.sortField, s.sortOrder)
	anchorIdx, idIdx := -1, -1
	for i := range view {
		if view[i].ID == s.anchor {
			anchorIdx = i
		}
		if view[i].ID == id {
			idIdx = i
		}
	}
	if anchorIdx == -1 || idIdx == -1 {
		// Anchor or target fell out of the view; degrade to a plain
		// select of the target.
		s.selected[id] = struct{}{}
		s.anchor = id
		return
	}

	lo, hi := anchorIdx, idIdx
	if lo > hi {
		lo, hi = hi, lo
	}
	s.selected = make(map[string]struct{}, hi-lo+1)
	for i := lo; i <= hi; i++ {
		s.selected[view[i].ID] = struct{}{}
	}
}

// SelectAll selects the given ids, or every entry in the current view
// when ids is nil.
func (s *Store) SelectAll(ids []string) {
	if ids != nil {
		s.SetSelected(ids)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.projectLocked(s.filter, s.query, s.sortField, s.sortOrder)
	s.selected = make(map[string]struct{}, len(view))
	for i := range view {
		s.selected[view[i].ID] = struct{}{}
	}
}

// ClearSelection empties the selection set and drops the anchor.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearSelectionLocked()
}

func (s *Store) clearSelectionLocked() {
	s.selected = make(map[string]struct{})
	s.anchor = ""
}

// IsSelected reports whether id is in the selection set.
func (s *Store) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[id]
	return ok
}

// Selected returns the selected ids in current view order.
func (s *Store) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.projectLocked(s.filter, s.query, s.sortField, s.sortOrder)
	out := make([]string, 0, len(s.selected))
	for i := range view {
		if _, ok := s.selected[view[i].ID]; ok {
			out = append(out, view[i].ID)
		}
	}
	// Selected entries hidden by the current view still count.
	if len(out) < len(s.selected) {
		seen := make(map[string]struct{}, len(out))
		for _, id := range out {
			seen[id] = struct{}{}
		}
		for _, id := range s.order {
			if _, sel := s.selected[id]; sel {
				if _, dup := seen[id]; !dup {
					out = append(out, id)
				}
			}
		}
	}
	return out
}
