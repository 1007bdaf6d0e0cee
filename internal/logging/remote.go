package logging

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// remoteQueueSize bounds entries waiting for the connection
	remoteQueueSize = 256

	// Time allowed to write an entry to the collector
	remoteWriteWait = 5 * time.Second
)

// RemoteSink ships entries to a collector over a websocket. Write never
// blocks: entries are queued and dropped when the queue is full.
// Disconnects are retried with exponential backoff.
type RemoteSink struct {
	url        string
	dialer     *websocket.Dialer
	queue      chan Entry
	cancel     context.CancelFunc
	done       chan struct{}
	dropped    atomic.Int64
	sent       atomic.Int64
	newBackOff func() backoff.BackOff
	log        *zap.Logger
}

// RemoteOption configures a RemoteSink
type RemoteOption func(*RemoteSink)

// WithBackOff replaces the reconnect policy
func WithBackOff(fn func() backoff.BackOff) RemoteOption {
	return func(s *RemoteSink) { s.newBackOff = fn }
}

// WithRemoteLogger logs connection problems. Do not pass a logger that
// feeds the same Recorder.
func WithRemoteLogger(l *zap.Logger) RemoteOption {
	return func(s *RemoteSink) { s.log = l }
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// NewRemoteSink starts a sink connected to url (ws:// or wss://)
func NewRemoteSink(url string, opts ...RemoteOption) *RemoteSink {
	ctx, cancel := context.WithCancel(context.Background())
	s := &RemoteSink{
		url:        url,
		dialer:     &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		queue:      make(chan Entry, remoteQueueSize),
		cancel:     cancel,
		done:       make(chan struct{}),
		newBackOff: defaultBackOff,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run(ctx)
	return s
}

// Write queues e for delivery
func (s *RemoteSink) Write(e Entry) error {
	select {
	case s.queue <- e:
	default:
		s.dropped.Add(1)
	}
	return nil
}

// Dropped returns how many entries were discarded because the queue was full
func (s *RemoteSink) Dropped() int64 { return s.dropped.Load() }

// Sent returns how many entries reached the collector
func (s *RemoteSink) Sent() int64 { return s.sent.Load() }

// Close stops the sink. Queued entries not yet sent are discarded.
func (s *RemoteSink) Close() error {
	s.cancel()
	<-s.done
	return nil
}

func (s *RemoteSink) run(ctx context.Context) {
	defer close(s.done)

	var conn *websocket.Conn
	defer func() {
		if conn != nil {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-s.queue:
			for {
				if conn == nil {
					conn = s.connect(ctx)
					if conn == nil {
						return
					}
				}
				_ = conn.SetWriteDeadline(time.Now().Add(remoteWriteWait))
				if err := conn.WriteJSON(e); err != nil {
					s.log.Debug("remote log write failed, reconnecting", zap.Error(err))
					_ = conn.Close()
					conn = nil
					continue
				}
				s.sent.Add(1)
				break
			}
		}
	}
}

// connect dials until it succeeds or ctx ends
func (s *RemoteSink) connect(ctx context.Context) *websocket.Conn {
	var conn *websocket.Conn
	op := func() error {
		c, _, err := s.dialer.DialContext(ctx, s.url, nil)
		if err != nil {
			s.log.Debug("remote log dial failed", zap.String("url", s.url), zap.Error(err))
			return err
		}
		conn = c
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(s.newBackOff(), ctx)); err != nil {
		return nil
	}
	return conn
}
