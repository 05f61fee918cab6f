package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"digital.vasic.snippetcheck/pkg/logging"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 5 * time.Second
	clientBuffer = 64
)

// Message is the envelope sent to WebSocket clients. Kind is
// "dashboard" for the initial snapshot and "event" afterwards.
type Message struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// Server streams run events to WebSocket clients and serves
// dashboard and statistics snapshots over HTTP.
type Server struct {
	mu        sync.RWMutex
	collector *EventCollector
	dashboard *DashboardData
	clients   map[*client]struct{}
	addr      string
	mux       *http.ServeMux
	server    *http.Server
	logger    logging.Logger
	upgrader  websocket.Upgrader

	// stopped is set by Stop; no client registers afterwards.
	stopped bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the server's logger.
func WithServerLogger(l logging.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHandler mounts an extra handler, such as a metrics endpoint.
func WithHandler(pattern string, h http.Handler) ServerOption {
	return func(s *Server) {
		s.mux.Handle(pattern, h)
	}
}

// NewServer creates a monitor server on addr fed by collector.
func NewServer(
	addr string,
	collector *EventCollector,
	opts ...ServerOption,
) *Server {
	s := &Server{
		addr:      addr,
		collector: collector,
		dashboard: BuildDashboardData(collector),
		clients:   make(map[*client]struct{}),
		mux:       http.NewServeMux(),
		logger:    logging.NullLogger{},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("/dashboard", s.handleDashboard)
	s.mux.HandleFunc("/stats", s.handleStats)
	s.mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	for _, opt := range opts {
		opt(s)
	}

	collector.OnEvent(func(event RunEvent) {
		s.dashboard.UpdateFromEvent(event)
		data, err := json.Marshal(Message{Kind: "event", Data: event})
		if err != nil {
			return
		}
		s.broadcast(data)
	})
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx ends or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	s.logger.Info("monitor listening", logging.StringField("addr", s.addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("monitor server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server and disconnects clients.
// A stopped server refuses new WebSocket clients.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	srv := s.server
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) isStopped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopped
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.isStopped() {
		http.Error(w, "monitor stopped", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", logging.ErrorField(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	// The snapshot is queued before registration so it always
	// precedes the first event.
	snap, err := json.Marshal(Message{
		Kind: "dashboard",
		Data: s.dashboard.Snapshot(),
	})
	if err == nil {
		c.send <- snap
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "monitor stopped"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.writeLoop(c)

	// Reads only detect disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.drop(c)
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.drop(c)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.dashboard.Snapshot())
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.collector.Stats())
}

func (s *Server) broadcast(data []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			// Slow client, skip.
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
