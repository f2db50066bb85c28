// Package client is the dual-channel transport to the riptide daemon:
// a request/response command channel over HTTP and a persistent
// websocket event channel with keepalive and disconnect detection.
//
// A Client is constructed explicitly and handed to whatever owns it;
// there is no process-wide instance. Commands never depend on event
// channel health.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/riptide-dl/riptide/internal/events"
	"github.com/riptide-dl/riptide/internal/model"
)

// Default protocol timings. Connect is bounded so callers can fall back
// to polling quickly; the keepalive interval sits comfortably under the
// usual 30s idle-connection cutoffs.
const (
	DefaultCommandTimeout    = 10 * time.Second
	DefaultConnectTimeout    = 3 * time.Second
	DefaultPingTimeout       = 2 * time.Second
	DefaultKeepaliveInterval = 25 * time.Second
)

// Config carries the daemon address and protocol timings. Zero
// durations fall back to the defaults above.
type Config struct {
	BaseURL string
	Token   string

	CommandTimeout    time.Duration
	ConnectTimeout    time.Duration
	PingTimeout       time.Duration
	KeepaliveInterval time.Duration
}

type channelState int

const (
	stateIdle channelState = iota
	stateConnecting
	stateOpen
)

// Client issues commands and consumes the event stream. Safe for
// concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger

	onEvent      func(events.Event)
	onError      func(string)
	onDisconnect func(error)

	mu            sync.Mutex
	state         channelState
	conn          *websocket.Conn
	intentional   bool
	connectDone   chan struct{}
	connectResult bool
	keepaliveStop chan struct{}
}

// New returns a client for the daemon at cfg.BaseURL.
func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = DefaultPingTimeout
	}
	if cfg.KeepaliveInterval <= 0 {
		cfg.KeepaliveInterval = DefaultKeepaliveInterval
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
		log:  log.With().Str("component", "client").Logger(),
	}
}

// OnEvent registers the callback for decoded event frames. Set before
// Connect.
func (c *Client) OnEvent(fn func(events.Event)) { c.onEvent = fn }

// OnError registers the callback for daemon-reported error events.
func (c *Client) OnError(fn func(string)) { c.onError = fn }

// OnDisconnect registers the callback fired when the event channel
// closes without Disconnect having been called.
func (c *Client) OnDisconnect(fn func(error)) { c.onDisconnect = fn }

// SendCommand performs one request on the command channel and returns
// the raw response body. Non-success statuses become an *APIError
// carrying the response body as detail. The request is bounded by the
// command timeout.
func (c *Client) SendCommand(ctx context.Context, method, path string, body any) ([]byte, error) {
	return c.send(ctx, method, path, body, c.cfg.CommandTimeout)
}

func (c *Client) send(ctx context.Context, method, path string, body any, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Cap the body read so a misbehaving endpoint cannot balloon memory.
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: string(data)}
	}
	return data, nil
}

// Ping is a cheap liveness probe: true on any 2xx within the ping
// timeout, false on anything else. It never returns an error so callers
// can poll it without error handling.
func (c *Client) Ping(ctx context.Context) bool {
	_, err := c.send(ctx, http.MethodGet, "/ping", nil, c.cfg.PingTimeout)
	return err == nil
}

// Status fetches the daemon's self-report. Nil on failure; a missing
// status is a renderable degraded state for a read.
func (c *Client) Status(ctx context.Context) *model.BackendStatus {
	data, err := c.SendCommand(ctx, http.MethodGet, "/api/status", nil)
	if err != nil {
		c.log.Debug().Err(err).Msg("status fetch failed")
		return nil
	}
	var st model.BackendStatus
	if err := json.Unmarshal(data, &st); err != nil {
		c.log.Debug().Err(err).Msg("status decode failed")
		return nil
	}
	return &st
}

// ListDownloads fetches the full download snapshot. Failures degrade to
// an empty list.
func (c *Client) ListDownloads(ctx context.Context) []model.Download {
	data, err := c.SendCommand(ctx, http.MethodGet, "/api/downloads", nil)
	if err != nil {
		c.log.Debug().Err(err).Msg("download list failed")
		return nil
	}
	var downloads []model.Download
	if err := json.Unmarshal(data, &downloads); err != nil {
		c.log.Debug().Err(err).Msg("download list decode failed")
		return nil
	}
	return downloads
}

// ListQueues fetches the queue snapshot. Failures degrade to an empty
// list.
func (c *Client) ListQueues(ctx context.Context) []model.Queue {
	data, err := c.SendCommand(ctx, http.MethodGet, "/api/queues", nil)
	if err != nil {
		c.log.Debug().Err(err).Msg("queue list failed")
		return nil
	}
	var queues []model.Queue
	if err := json.Unmarshal(data, &queues); err != nil {
		c.log.Debug().Err(err).Msg("queue list decode failed")
		return nil
	}
	return queues
}

// AddRequest is the body of POST /api/downloads.
type AddRequest struct {
	URL         string            `json:"url"`
	Filename    string            `json:"filename,omitempty"`
	Destination string            `json:"destination,omitempty"`
	QueueID     string            `json:"queue_id,omitempty"`
	Referrer    string            `json:"referrer,omitempty"`
	Cookies     string            `json:"cookies,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

type commandResponse struct {
	Success  bool            `json:"success"`
	Download *model.Download `json:"download,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// AddDownload submits a new download and returns the authoritative
// entity the daemon created. State-changing intents propagate failure
// so callers can react.
func (c *Client) AddDownload(ctx context.Context, req AddRequest) (*model.Download, error) {
	data, err := c.SendCommand(ctx, http.MethodPost, "/api/downloads", req)
	if err != nil {
		return nil, err
	}
	var resp commandResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode add response: %w", err)
	}
	if !resp.Success {
		return nil, &DomainError{Message: resp.Error}
	}
	if resp.Download == nil {
		return nil, fmt.Errorf("add response missing download")
	}
	return resp.Download, nil
}

// Pause pauses a download on the daemon.
func (c *Client) Pause(ctx context.Context, id string) error {
	return c.action(ctx, id, "pause")
}

// Resume resumes a paused download on the daemon.
func (c *Client) Resume(ctx context.Context, id string) error {
	return c.action(ctx, id, "resume")
}

// Cancel cancels a download on the daemon.
func (c *Client) Cancel(ctx context.Context, id string) error {
	return c.action(ctx, id, "cancel")
}

func (c *Client) action(ctx context.Context, id, verb string) error {
	data, err := c.SendCommand(ctx, http.MethodPost, "/api/downloads/"+id+"/"+verb, nil)
	if err != nil {
		return err
	}
	var resp commandResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode %s response: %w", verb, err)
	}
	if !resp.Success {
		return &DomainError{Message: resp.Error}
	}
	return nil
}
