// Package dispatch routes decoded event envelopes onto store
// mutations. It holds no state of its own: events are applied in the
// order they arrive, and a payload missing the fields its kind needs
// is dropped with a log line instead of failing, because one bad frame
// must never take the session down.
package dispatch

import (
	"github.com/rs/zerolog"

	"github.com/riptide-dl/riptide/internal/events"
	"github.com/riptide-dl/riptide/internal/store"
)

// Dispatcher maps events onto a store.
type Dispatcher struct {
	store *store.Store
	log   zerolog.Logger
}

// New returns a dispatcher targeting s.
func New(s *store.Store, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store: s,
		log:   log.With().Str("component", "dispatch").Logger(),
	}
}

// Handle applies one event to the store. Never panics on a decodable
// payload; absent-id mutations are benign no-ops inside the store.
func (d *Dispatcher) Handle(ev events.Event) {
	switch e := ev.(type) {
	case events.Progress:
		if e.ID == "" {
			d.drop(ev, "missing id")
			return
		}
		d.store.ApplyProgress(e.ID, e.Downloaded, e.Total, e.Speed, e.ETA)
	case events.SegmentProgress:
		if e.DownloadID == "" {
			d.drop(ev, "missing download_id")
			return
		}
		d.store.ApplySegmentProgress(e.DownloadID, e.SegmentIndex, e.Downloaded)
	case events.StatusChanged:
		if e.ID == "" || e.Status == "" {
			d.drop(ev, "missing id or status")
			return
		}
		d.store.ApplyStatus(e.ID, e.Status, e.Error)
	case events.Added:
		if e.Download == nil || e.Download.ID == "" {
			d.drop(ev, "missing download")
			return
		}
		d.store.AddOrReplace(*e.Download)
	case events.Updated:
		if e.Download == nil || e.Download.ID == "" {
			d.drop(ev, "missing download")
			return
		}
		d.store.AddOrReplace(*e.Download)
	case events.Removed:
		if e.ID == "" {
			d.drop(ev, "missing id")
			return
		}
		d.store.Remove(e.ID)
	case events.BackendError:
		// Normally routed to the client's error callback before reaching
		// here; log so a misrouted frame is still visible.
		d.log.Warn().Str("message", e.Message).Msg("daemon error event")
	case events.Unknown:
		// Forward-compat: newer daemons may emit kinds this client does
		// not model yet. Keep them visible in diagnostics.
		d.log.Debug().Str("kind", e.Type).RawJSON("payload", e.Raw).Msg("unrecognized event kind")
	}
}

func (d *Dispatcher) drop(ev events.Event, reason string) {
	d.log.Debug().Str("kind", ev.Kind()).Str("reason", reason).Msg("dropping malformed event")
}
