package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/riptide-dl/riptide/internal/events"
)

// keepalivePing is the lightweight frame sent on the event channel to
// keep idle connections open and detect dead sockets. The daemon
// answers with the bare "pong" sentinel.
var keepalivePing = []byte("ping")

// Connect opens the event channel. It is a no-op returning the current
// connectedness when the channel is already open, and joins the
// in-flight attempt when one is connecting, so concurrent callers share
// a single socket. An attempt that does not reach open within the
// connect timeout resolves false.
func (c *Client) Connect(ctx context.Context) bool {
	c.mu.Lock()
	switch c.state {
	case stateOpen:
		c.mu.Unlock()
		return true
	case stateConnecting:
		done := c.connectDone
		c.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return false
		}
		c.mu.Lock()
		ok := c.connectResult
		c.mu.Unlock()
		return ok
	}
	c.state = stateConnecting
	c.intentional = false
	done := make(chan struct{})
	c.connectDone = done
	c.mu.Unlock()

	conn := c.dial(ctx)

	c.mu.Lock()
	if conn == nil || c.intentional {
		c.state = stateIdle
		c.connectResult = false
		close(done)
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return false
	}
	c.conn = conn
	c.state = stateOpen
	c.connectResult = true
	stop := make(chan struct{})
	c.keepaliveStop = stop
	close(done)
	c.mu.Unlock()

	go c.readLoop(conn)
	go c.keepaliveLoop(conn, stop)
	return true
}

func (c *Client) dial(ctx context.Context) *websocket.Conn {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.ConnectTimeout}
	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	conn, resp, err := dialer.DialContext(ctx, eventURL(c.cfg.BaseURL), header)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		c.log.Debug().Err(err).Msg("event channel connect failed")
		return nil
	}
	return conn
}

// eventURL maps the command channel base URL onto the websocket
// endpoint.
func eventURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/api/events"
}

// Connected reports whether the event channel is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateOpen
}

// Disconnect closes the event channel deliberately. The intentional
// flag suppresses the disconnect callback in the close handling, so
// purposeful shutdown is distinguishable from failure. All keepalive
// work is cancelled.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.intentional = true
	conn := c.conn
	c.conn = nil
	if c.state == stateOpen {
		c.state = stateIdle
	}
	if c.keepaliveStop != nil {
		close(c.keepaliveStop)
		c.keepaliveStop = nil
	}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
}

// readLoop consumes frames in receipt order on a single goroutine, so
// downstream dispatch sees events exactly as the daemon sent them.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(conn, err)
			return
		}
		if events.IsKeepalive(data) {
			continue
		}
		ev, err := events.Decode(data)
		if err != nil {
			// One bad frame must not destabilize the session.
			c.log.Debug().Err(err).Msg("dropping undecodable event frame")
			continue
		}
		if be, ok := ev.(events.BackendError); ok {
			if c.onError != nil {
				c.onError(be.Message)
			}
			continue
		}
		if c.onEvent != nil {
			c.onEvent(ev)
		}
	}
}

// keepaliveLoop pings the daemon at the keepalive interval. A failed
// send means the socket is dead; it is closed proactively rather than
// left as a zombie, which unblocks readLoop into the normal close
// handling.
func (c *Client) keepaliveLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.KeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.PingTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, keepalivePing); err != nil {
				c.log.Debug().Err(err).Msg("keepalive send failed, closing event channel")
				_ = conn.Close()
				return
			}
		}
	}
}

// handleClose tears down channel state after the socket died. The
// conn identity check makes teardown idempotent: an intentional
// Disconnect already cleared c.conn, so the callback cannot fire twice
// or fire for a purposeful shutdown.
func (c *Client) handleClose(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = stateIdle
	if c.keepaliveStop != nil {
		close(c.keepaliveStop)
		c.keepaliveStop = nil
	}
	intentional := c.intentional
	c.mu.Unlock()

	_ = conn.Close()

	if !intentional {
		c.log.Debug().Err(err).Msg("event channel disconnected")
		if c.onDisconnect != nil {
			c.onDisconnect(err)
		}
	}
}
