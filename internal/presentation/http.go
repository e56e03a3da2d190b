package presentation

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/benmeehan/location-tracker/internal/geojson"
	"github.com/benmeehan/location-tracker/internal/models"
	"github.com/rs/zerolog"
)

// HistoryReader is a one-shot read of the location log.
type HistoryReader interface {
	All(ctx context.Context) ([]models.LocationSample, error)
}

// StatusSource reports the controller's own view of tracking.
type StatusSource interface {
	Status() models.TrackingStatus
}

// StartRequest is the body of POST /api/tracking/start.
type StartRequest struct {
	Choice     string `json:"choice,omitempty"`
	IntervalMS int64  `json:"interval_ms,omitempty"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	View     StatusView             `json:"view"`
	Tracking *models.TrackingStatus `json:"tracking,omitempty"`
	Points   int                    `json:"point_count"`
	Clients  int                    `json:"map_clients"`
}

// Server exposes the map UI, the websocket feed and the HTTP API.
type Server struct {
	addr      string
	staticDir string
	presenter *Presenter
	history   HistoryReader
	source    StatusSource
	hub       *WebSocketHub
	logger    zerolog.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

// NewServer wires the HTTP surface. source may be nil when the controller
// runs in another process.
func NewServer(addr, staticDir string, presenter *Presenter, history HistoryReader, source StatusSource,
	hub *WebSocketHub, logger zerolog.Logger) *Server {
	return &Server{
		addr:      addr,
		staticDir: staticDir,
		presenter: presenter,
		history:   history,
		source:    source,
		hub:       hub,
		logger:    logger,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("DELETE /api/history", s.handleClear)
	mux.HandleFunc("POST /api/tracking/start", s.handleStart)
	mux.HandleFunc("POST /api/tracking/stop", s.handleStop)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.Handle("GET /ws", s.hub)
	if s.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	}
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return errors.New("http server is already running")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.done = make(chan struct{})

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("HTTP server failed")
		}
	}(s.server, s.done)

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
	return nil
}

// Addr returns the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting up to five seconds for requests.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv, done := s.server, s.done
	s.server, s.listener = nil, nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(ctx)
	<-done
	s.logger.Info().Msg("HTTP server stopped")
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	samples, err := s.history.All(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(geojson.History(samples))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.presenter.ClearHistory(r.Context()); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}

	var err error
	switch {
	case req.Choice != "":
		err = s.presenter.StartChoice(req.Choice)
	case req.IntervalMS > 0:
		err = s.presenter.StartTracking(time.Duration(req.IntervalMS) * time.Millisecond)
	default:
		s.fail(w, http.StatusBadRequest, errors.New("choice or positive interval_ms required"))
		return
	}

	if errors.Is(err, ErrUnknownChoice) {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		s.fail(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "start requested"})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.presenter.StopTracking(); err != nil {
		s.fail(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "stop requested"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state := s.presenter.State()
	resp := StatusResponse{
		View:    state.Status,
		Points:  state.PointCount,
		Clients: s.hub.Clients(),
	}
	if s.source != nil {
		status := s.source.Status()
		resp.Tracking = &status
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) fail(w http.ResponseWriter, code int, err error) {
	if code >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Int("code", code).Msg("Request failed")
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
