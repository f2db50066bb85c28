// Package testutil provides an in-process fake riptide daemon for
// exercising the transport client and session against both channels
// without a real backend.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/riptide-dl/riptide/internal/events"
	"github.com/riptide-dl/riptide/internal/model"
)

// FakeDaemon serves the daemon's command API and event channel from an
// httptest server. Test controls let callers seed state, push event
// frames and force failures.
type FakeDaemon struct {
	t        *testing.T
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu          sync.Mutex
	downloads   map[string]model.Download
	queues      []model.Queue
	conns       map[*websocket.Conn]*sync.Mutex
	addError    string
	actionError string
}

// NewFakeDaemon starts a fake daemon and registers its shutdown with t.
func NewFakeDaemon(t *testing.T) *FakeDaemon {
	d := &FakeDaemon{
		t:         t,
		downloads: make(map[string]model.Download),
		conns:     make(map[*websocket.Conn]*sync.Mutex),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", d.handlePing)
	mux.HandleFunc("/api/status", d.handleStatus)
	mux.HandleFunc("/api/queues", d.handleQueues)
	mux.HandleFunc("/api/downloads", d.handleDownloads)
	mux.HandleFunc("/api/downloads/", d.handleAction)
	mux.HandleFunc("/api/events", d.handleEvents)

	d.srv = httptest.NewServer(mux)
	t.Cleanup(d.Close)
	return d
}

// URL returns the daemon's base URL.
func (d *FakeDaemon) URL() string { return d.srv.URL }

// Close drops all event connections and stops the server.
func (d *FakeDaemon) Close() {
	d.DropConnections()
	d.srv.Close()
}

// SeedDownload installs a download in the daemon's state.
func (d *FakeDaemon) SeedDownload(dl model.Download) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.downloads[dl.ID] = dl
}

// SeedQueue installs a queue in the daemon's state.
func (d *FakeDaemon) SeedQueue(q model.Queue) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queues = append(d.queues, q)
}

// SetAddError makes POST /api/downloads answer {success:false, error}.
func (d *FakeDaemon) SetAddError(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addError = msg
}

// SetActionError makes pause/resume/cancel answer {success:false, error}.
func (d *FakeDaemon) SetActionError(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actionError = msg
}

// ConnCount returns the number of open event channel connections.
func (d *FakeDaemon) ConnCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

// Push broadcasts an event frame to every connected client.
func (d *FakeDaemon) Push(ev events.Event) {
	data, err := events.Encode(ev)
	if err != nil {
		d.t.Fatalf("encode event: %v", err)
	}
	d.PushRaw(data)
}

// PushRaw broadcasts a raw frame to every connected client.
func (d *FakeDaemon) PushRaw(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for conn, wmu := range d.conns {
		wmu.Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = conn.WriteMessage(websocket.TextMessage, data)
		wmu.Unlock()
	}
}

// DropConnections kills every event channel connection without a close
// handshake, simulating a daemon crash or network failure.
func (d *FakeDaemon) DropConnections() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for conn := range d.conns {
		_ = conn.UnderlyingConn().Close()
	}
	d.conns = make(map[*websocket.Conn]*sync.Mutex)
}

func (d *FakeDaemon) handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (d *FakeDaemon) handleStatus(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	active := 0
	for _, dl := range d.downloads {
		if dl.Status == model.StatusDownloading {
			active++
		}
	}
	st := model.BackendStatus{
		Version:         "fake",
		ActiveDownloads: active,
		QueueCount:      len(d.queues),
	}
	d.mu.Unlock()
	writeJSON(w, st)
}

func (d *FakeDaemon) handleQueues(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	queues := append([]model.Queue(nil), d.queues...)
	d.mu.Unlock()
	if queues == nil {
		queues = []model.Queue{}
	}
	writeJSON(w, queues)
}

func (d *FakeDaemon) handleDownloads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		d.mu.Lock()
		list := make([]model.Download, 0, len(d.downloads))
		for _, dl := range d.downloads {
			list = append(list, dl)
		}
		d.mu.Unlock()
		writeJSON(w, list)
	case http.MethodPost:
		var req struct {
			URL         string `json:"url"`
			Filename    string `json:"filename"`
			Destination string `json:"destination"`
			QueueID     string `json:"queue_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.URL == "" {
			http.Error(w, "url is required", http.StatusBadRequest)
			return
		}

		d.mu.Lock()
		if d.addError != "" {
			msg := d.addError
			d.mu.Unlock()
			writeJSON(w, map[string]any{"success": false, "error": msg})
			return
		}
		dl := model.Download{
			ID:        uuid.New().String(),
			URL:       req.URL,
			Filename:  req.Filename,
			Status:    model.StatusQueued,
			QueueID:   req.QueueID,
			CreatedAt: time.Now(),
		}
		d.downloads[dl.ID] = dl
		d.mu.Unlock()
		writeJSON(w, map[string]any{"success": true, "download": dl})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (d *FakeDaemon) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/downloads/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	id, verb := parts[0], parts[1]

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.actionError != "" {
		writeJSON(w, map[string]any{"success": false, "error": d.actionError})
		return
	}
	dl, ok := d.downloads[id]
	if !ok {
		writeJSON(w, map[string]any{"success": false, "error": "download not found"})
		return
	}
	switch verb {
	case "pause":
		dl.Status = model.StatusPaused
	case "resume":
		dl.Status = model.StatusDownloading
	case "cancel":
		dl.Status = model.StatusCancelled
	default:
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	d.downloads[id] = dl
	writeJSON(w, map[string]any{"success": true})
}

func (d *FakeDaemon) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	wmu := &sync.Mutex{}
	d.mu.Lock()
	d.conns[conn] = wmu
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.conns, conn)
		d.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if string(data) == "ping" {
			wmu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
			_ = conn.WriteMessage(websocket.TextMessage, []byte("pong"))
			wmu.Unlock()
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
