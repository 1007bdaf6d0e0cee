package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/medentry/internal/logging"
	"go.uber.org/zap"
)

// LogsPath is the websocket endpoint remote sinks connect to
const LogsPath = "/logs"

// Config holds the collector configuration
type Config struct {
	Addr     string // Listen address, e.g. ":9300"
	Dir      string // Directory for captured JSON lines files
	CertPath string // Optional TLS certificate; serves wss:// when set with KeyPath
	KeyPath  string
	Echo     bool // Also print received entries through the process logger
}

// Server accepts diagnostic entries from running forms and appends them
// to a JSON lines file per day.
type Server struct {
	config   *Config
	upgrader websocket.Upgrader
	http     *http.Server
	listener net.Listener
	log      *zap.Logger
	console  *logging.ConsoleSink

	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]*websocket.Conn
	files       map[string]*logging.FileSink
	received    int64
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("capture directory is required")
	}
	if err := os.MkdirAll(config.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}
	if (config.CertPath == "") != (config.KeyPath == "") {
		return nil, fmt.Errorf("both certificate and key are required for TLS")
	}

	log := logging.GetLogger().Named("collector")
	s := &Server{
		config:      config,
		upgrader:    websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 1024},
		log:         log,
		activeConns: make(map[string]*websocket.Conn),
		files:       make(map[string]*logging.FileSink),
	}
	if config.Echo {
		s.console = logging.NewConsoleSink(log.Named("remote"))
	}

	mux := http.NewServeMux()
	mux.HandleFunc(LogsPath, s.handleLogs)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	s.http = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	return s, nil
}

// Handler exposes the collector's routes for embedding in tests
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start listens on the configured address and serves until ctx is done
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is done
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.listener = listener
	tlsEnabled := s.config.CertPath != ""

	s.log.Info("Starting log collector",
		zap.String("addr", listener.Addr().String()),
		zap.String("dir", s.config.Dir),
		zap.Bool("tls", tlsEnabled),
	)

	errChan := make(chan error, 1)
	go func() {
		var err error
		if tlsEnabled {
			err = s.http.ServeTLS(listener, s.config.CertPath, s.config.KeyPath)
		} else {
			err = s.http.Serve(listener)
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errChan <- err
	}()

	select {
	case <-ctx.Done():
		s.log.Info("Shutdown requested, stopping collector...",
			zap.Int("connections", s.GetActiveConnections()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the collector
func (s *Server) Shutdown(ctx context.Context) error {
	// Hijacked websocket connections are not tracked by http.Server
	err := s.http.Shutdown(ctx)

	s.mu.Lock()
	for addr, conn := range s.activeConns {
		s.log.Debug("Closing active connection", zap.String("remote_addr", addr))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "collector shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("All connections closed gracefully")
	case <-ctx.Done():
		s.log.Warn("Shutdown timeout, forcing close")
	}

	s.mu.Lock()
	for day, f := range s.files {
		_ = f.Close()
		delete(s.files, day)
	}
	s.mu.Unlock()

	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// GetActiveConnections returns the number of connected forms
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

// Received returns how many entries have been captured
func (s *Server) Received() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.received
}

// CapturePath returns the file entries received on day are written to
func (s *Server) CapturePath(day time.Time) string {
	return filepath.Join(s.config.Dir, fmt.Sprintf("capture-%s.jsonl", day.Format("20060102")))
}
