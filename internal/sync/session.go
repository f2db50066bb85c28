// Package sync composes the transport client, the event dispatcher and
// the download store into one synchronized session against a riptide
// daemon. It is the composition root the rest of the program (CLI,
// embedding UIs) holds on to.
package sync

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/riptide-dl/riptide/internal/client"
	"github.com/riptide-dl/riptide/internal/dispatch"
	"github.com/riptide-dl/riptide/internal/model"
	"github.com/riptide-dl/riptide/internal/store"
)

const (
	reconnectInitialBackoff = time.Second
	reconnectMaxBackoff     = 30 * time.Second
)

// Session keeps a store consistent with a daemon over the client's two
// channels, reconnecting the event channel with backoff when it drops.
type Session struct {
	Store  *store.Store
	Client *client.Client

	log        zerolog.Logger
	dispatcher *dispatch.Dispatcher

	closed chan struct{}
}

// New wires the client's callbacks into the dispatcher and store. The
// caller still owns the client's lifecycle through Connect/Close.
func New(c *client.Client, s *store.Store, log zerolog.Logger) *Session {
	sess := &Session{
		Store:      s,
		Client:     c,
		log:        log.With().Str("component", "session").Logger(),
		dispatcher: dispatch.New(s, log),
		closed:     make(chan struct{}),
	}

	c.OnEvent(sess.dispatcher.Handle)
	c.OnError(func(msg string) {
		sess.log.Warn().Str("message", msg).Msg("daemon reported an error")
	})
	c.OnDisconnect(func(err error) {
		sess.log.Warn().Err(err).Msg("event channel lost, reconnecting")
		go sess.reconnect()
	})
	return sess
}

// Connect opens the event channel and seeds the store from the
// daemon's full snapshot so events have an entry to land on.
func (s *Session) Connect(ctx context.Context) bool {
	if !s.Client.Connect(ctx) {
		return false
	}
	for _, d := range s.Client.ListDownloads(ctx) {
		s.Store.AddOrReplace(d)
	}
	return true
}

// Add performs the optimistic add flow: insert a local entry
// immediately, submit the command, then reconcile the temporary entry
// with the daemon's authoritative one. On failure the optimistic entry
// is kept visible with the error attached rather than rolled back.
func (s *Session) Add(ctx context.Context, req client.AddRequest) (model.Download, error) {
	temp := s.Store.NewOptimistic(req.URL, req.Filename, req.Destination, req.QueueID)

	authoritative, err := s.Client.AddDownload(ctx, req)
	if err != nil {
		s.Store.ApplyStatus(temp.ID, model.StatusFailed, err.Error())
		d, _ := s.Store.Get(temp.ID)
		return d, err
	}

	s.Store.Reconcile(temp.ID, *authoritative)
	return authoritative.Clone(), nil
}

// Close shuts the session down; the deliberate disconnect does not
// trigger reconnection.
func (s *Session) Close() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	s.Client.Disconnect()
}

func (s *Session) reconnect() {
	backoff := reconnectInitialBackoff
	for {
		select {
		case <-s.closed:
			return
		case <-time.After(backoff):
		}

		if s.Connect(context.Background()) {
			s.log.Info().Msg("event channel reconnected")
			return
		}
		if backoff < reconnectMaxBackoff {
			backoff *= 2
		}
	}
}
