// Package web exposes the presenter's snapshot, metrics, and command
// submission over HTTP and WebSocket, following the same upgrader and
// best-effort broadcast pattern the project's other pub/sub surfaces use.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jherland/hifictl/pkg/logger"
	"github.com/jherland/hifictl/pkg/metrics"
	"github.com/jherland/hifictl/pkg/presenter"
)

// Server is the HTTP server exposing the presenter's state over a
// small JSON/WebSocket API.
type Server struct {
	addr      string
	log       *logger.Logger
	presenter *presenter.Presenter
	metrics   *metrics.Collector
	upgrader  websocket.Upgrader
	httpSrv   *http.Server
}

// commandRequest is the body of POST /api/command.
type commandRequest struct {
	Command string `json:"command"`
}

// New creates a Server bound to addr (host:port), backed by p and m.
func New(addr string, p *presenter.Presenter, m *metrics.Collector, log *logger.Logger) *Server {
	s := &Server{
		addr:      addr,
		log:       log.WithComponent("web"),
		presenter: p,
		metrics:   m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/metrics", s.handleMetrics)
	mux.HandleFunc("/api/command", s.handleCommand)
	mux.HandleFunc("/ws", s.handleWebSocket)

	s.httpSrv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Run starts the HTTP server and blocks until ctx is canceled, then
// shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.log.Info("web server listening", logger.String("addr", s.addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
			return
		}
		errChan <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.presenter.Snapshot())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.metrics.Snapshot())
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.presenter.SubmitCommand(req.Command); err != nil {
		s.log.Warn("command submission failed", logger.String("command", req.Command), logger.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "websocket upgrade failed", http.StatusBadRequest)
		return
	}

	events, unsubscribe := s.presenter.Subscribe()
	defer unsubscribe()

	go func() {
		defer conn.Close()
		conn.SetReadLimit(1024)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			s.log.Error("failed to marshal presenter event", logger.Error(err))
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
