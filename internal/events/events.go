// Package events defines the typed envelopes carried on the daemon's
// event channel and the codec between them and raw frames.
//
// Every frame except the bare keepalive reply is a JSON object with a
// "type" discriminant. Kinds this client does not model decode into
// Unknown so newer daemons stay observable instead of being silently
// dropped.
package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/riptide-dl/riptide/internal/model"
)

// Frame kind discriminants.
const (
	KindProgress        = "progress"
	KindSegmentProgress = "segment_progress"
	KindStatusChanged   = "status_changed"
	KindAdded           = "added"
	KindUpdated         = "updated"
	KindRemoved         = "removed"
	KindError           = "error"
)

// keepaliveReply is the reserved sentinel the daemon sends in response
// to a client keepalive ping. It is not an envelope.
var keepaliveReply = []byte("pong")

// Event is implemented by every decoded envelope.
type Event interface {
	Kind() string
}

// Progress updates a download's byte counters and display rates.
type Progress struct {
	ID         string  `json:"id"`
	Downloaded int64   `json:"downloaded"`
	Total      int64   `json:"total,omitempty"`
	Speed      float64 `json:"speed,omitempty"`
	ETA        int64   `json:"eta,omitempty"`
}

func (Progress) Kind() string { return KindProgress }

// SegmentProgress updates one segment's byte counter.
type SegmentProgress struct {
	DownloadID   string `json:"download_id"`
	SegmentIndex int    `json:"segment_index"`
	Downloaded   int64  `json:"downloaded"`
}

func (SegmentProgress) Kind() string { return KindSegmentProgress }

// StatusChanged reports a daemon-side lifecycle transition.
type StatusChanged struct {
	ID     string       `json:"id"`
	Status model.Status `json:"status"`
	Error  string       `json:"error,omitempty"`
}

func (StatusChanged) Kind() string { return KindStatusChanged }

// Added carries the full entity for a download the daemon accepted.
type Added struct {
	Download *model.Download `json:"download"`
}

func (Added) Kind() string { return KindAdded }

// Updated carries the full entity after a daemon-side change that is
// not covered by a narrower event kind.
type Updated struct {
	Download *model.Download `json:"download"`
}

func (Updated) Kind() string { return KindUpdated }

// Removed signals that the daemon dropped its record of a download.
type Removed struct {
	ID string `json:"id"`
}

func (Removed) Kind() string { return KindRemoved }

// BackendError is a daemon-reported error not tied to a command.
type BackendError struct {
	Message string `json:"message"`
}

func (BackendError) Kind() string { return KindError }

// Unknown preserves frames whose discriminant this client does not
// recognize, so diagnostics still see them.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

func (u Unknown) Kind() string { return u.Type }

// IsKeepalive reports whether a frame is the bare keepalive reply.
func IsKeepalive(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), keepaliveReply)
}

// Decode parses one event frame. Callers are expected to filter
// keepalive replies with IsKeepalive first.
func Decode(data []byte) (Event, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}
	if env.Type == "" {
		return nil, errors.New("event envelope missing type")
	}

	switch env.Type {
	case KindProgress:
		var ev Progress
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", env.Type, err)
		}
		return ev, nil
	case KindSegmentProgress:
		var ev SegmentProgress
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", env.Type, err)
		}
		return ev, nil
	case KindStatusChanged:
		var ev StatusChanged
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", env.Type, err)
		}
		return ev, nil
	case KindAdded:
		var ev Added
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", env.Type, err)
		}
		return ev, nil
	case KindUpdated:
		var ev Updated
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", env.Type, err)
		}
		return ev, nil
	case KindRemoved:
		var ev Removed
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", env.Type, err)
		}
		return ev, nil
	case KindError:
		var ev BackendError
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", env.Type, err)
		}
		return ev, nil
	default:
		return Unknown{Type: env.Type, Raw: append(json.RawMessage(nil), data...)}, nil
	}
}

// Encode renders an event as a wire frame with its discriminant
// injected. Used by the fake daemon in tests; kept here so the codec
// stays in one place.
func Encode(ev Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	typ, err := json.Marshal(ev.Kind())
	if err != nil {
		return nil, err
	}
	fields["type"] = typ
	return json.Marshal(fields)
}
