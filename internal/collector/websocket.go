package collector

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/medentry/internal/logging"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a control message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next entry or pong from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum entry size allowed from peer
	maxMessageSize = 64 * 1024
)

// handleLogs upgrades the request and captures entries until the peer leaves
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Invalid WebSocket upgrade request",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	remoteAddr := conn.RemoteAddr().String()

	s.wg.Add(1)
	s.mu.Lock()
	s.activeConns[remoteAddr] = conn
	s.mu.Unlock()

	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.activeConns, remoteAddr)
		s.mu.Unlock()
		s.wg.Done()
		logging.LogConnection(remoteAddr, "websocket_closed")
	}()

	logging.LogConnection(remoteAddr, "websocket_upgraded")

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stop := make(chan struct{})
	defer close(stop)
	go s.ping(conn, stop)

	messageNum := 0
	for {
		var e logging.Entry
		if err := conn.ReadJSON(&e); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Info("Connection closed or error reading entry",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		messageNum++

		if err := s.capture(e); err != nil {
			s.log.Error("Failed to write capture file",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
		}

		s.log.Debug("Entry received",
			zap.String("remote_addr", remoteAddr),
			zap.Int("message_num", messageNum),
			zap.String("level", e.Level.String()),
		)
	}
}

// ping keeps idle connections alive until stop closes
func (s *Server) ping(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// capture appends e to the day's file, keyed by the entry's own timestamp
func (s *Server) capture(e logging.Entry) error {
	day := e.Timestamp
	if day.IsZero() {
		day = time.Now()
	}
	path := s.CapturePath(day)

	if s.console != nil {
		_ = s.console.Write(e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sink, ok := s.files[path]
	if !ok {
		var err error
		if sink, err = logging.OpenFileSink(path); err != nil {
			return err
		}
		s.files[path] = sink
	}
	if err := sink.Write(e); err != nil {
		return err
	}
	s.received++
	return nil
}
