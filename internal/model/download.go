// Package model defines the client-side entities shared by the store,
// the transport client and the event dispatcher. Shapes mirror the
// daemon's wire contract.
package model

import "time"

// Status is the lifecycle state of a download as reported by the daemon.
type Status string

const (
	StatusPending     Status = "pending"
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusPaused      Status = "paused"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
	StatusDeleted     Status = "deleted"
)

// Terminal reports whether the status ends the download's lifecycle.
// Failed downloads can still be retried through an explicit resubmit,
// so failed is not terminal here.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusDeleted
}

// Segment is one contiguous byte range of a download, tracked for
// progress display. Start/End form a half-open range [Start, End).
type Segment struct {
	Start      int64 `json:"start"`
	End        int64 `json:"end"`
	Downloaded int64 `json:"downloaded"`
	Completed  bool  `json:"completed"`
}

// Download is the canonical client-side representation of one download
// job. Size is 0 until the daemon has probed the content length.
type Download struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	FinalURL    string    `json:"final_url,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size,omitempty"`
	Downloaded  int64     `json:"downloaded"`
	Status      Status    `json:"status"`
	Segments    []Segment `json:"segments,omitempty"`
	QueueID     string    `json:"queue_id,omitempty"`
	CategoryID  string    `json:"category_id,omitempty"`
	SpeedLimit  int64     `json:"speed_limit,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
	Retries     int       `json:"retries,omitempty"`

	// Runtime display values carried by progress events, not persisted
	// by the daemon.
	Speed float64 `json:"speed,omitempty"`
	ETA   int64   `json:"eta,omitempty"`
}

// Progress returns the fractional completion in [0, 1]. Unknown size
// counts as zero progress.
func (d *Download) Progress() float64 {
	if d.Size <= 0 {
		return 0
	}
	return float64(d.Downloaded) / float64(d.Size)
}

// Clone returns a deep copy, including segments.
func (d Download) Clone() Download {
	out := d
	if d.Segments != nil {
		out.Segments = make([]Segment, len(d.Segments))
		copy(out.Segments, d.Segments)
	}
	return out
}

// Queue is a named download queue on the daemon.
type Queue struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MaxConcurrent int    `json:"max_concurrent,omitempty"`
}

// BackendStatus is the daemon's self-report from GET /api/status.
type BackendStatus struct {
	Version         string `json:"version"`
	ActiveDownloads int    `json:"active_downloads"`
	QueueCount      int    `json:"queue_count"`
}
