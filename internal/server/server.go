package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/audiolibrelab/jamroll/internal/alarm"
	"github.com/audiolibrelab/jamroll/internal/catalog"
	"github.com/audiolibrelab/jamroll/internal/config"
	"github.com/audiolibrelab/jamroll/internal/field"
	"github.com/audiolibrelab/jamroll/internal/randomizer"
	"github.com/audiolibrelab/jamroll/internal/session"
	"github.com/audiolibrelab/jamroll/internal/timer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

//go:embed web/index.html
var indexHTML []byte

// MaxSessions bounds the number of concurrently open sessions
const MaxSessions = 256

// Server exposes isolated randomizer sessions over HTTP. Each client creates
// its own session; nothing is shared between sessions.
type Server struct {
	cfg     *config.Config
	factory *session.Factory
	port    string
	router  *chi.Mux

	sessionsMu sync.RWMutex
	sessions   map[string]*session.Session

	httpServer *http.Server
}

// SessionResponse represents the JSON response for session endpoints
type SessionResponse struct {
	Success bool             `json:"success"`
	Applied bool             `json:"applied"`
	Session session.Snapshot `json:"session"`
}

// CatalogResponse represents the JSON response for the catalog endpoint
type CatalogResponse struct {
	Fields     []FieldInfo       `json:"fields"`
	Options    *catalog.Catalog  `json:"options"`
	Settings   []string          `json:"settings"`
	Selections []timer.Selection `json:"duration_selections"`
}

// FieldInfo describes one grid field for the UI
type FieldInfo struct {
	Key     string           `json:"key"`
	Title   string           `json:"title"`
	Options []catalog.Option `json:"options"`
}

// New creates a new web server instance
func New(cfg *config.Config, cat *catalog.Catalog) *Server {
	if cfg == nil {
		cfg = config.Defaults()
	}

	s := &Server{
		cfg:      cfg,
		factory:  session.NewFactory(cfg, cat),
		port:     cfg.Server.Port,
		router:   chi.NewRouter(),
		sessions: make(map[string]*session.Session),
	}
	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/", s.handleIndex)
	r.Get("/api/catalog", s.handleCatalog)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/randomize", s.handleRandomize)
			r.Post("/initialize", s.handleInitialize)
			r.Post("/fields/{key}", s.handleSetField)
			r.Post("/fields/{key}/lock", s.handleToggleLock)
			r.Post("/fields/{key}/reroll", s.handleReroll)
			r.Post("/settings/{name}", s.handleSetSetting)
			r.Post("/timer/duration", s.handleSelectDuration)
			r.Post("/timer/{action}", s.handleTimerAction)
		})
	})
}

// Handler returns the HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server and blocks until it stops
func (s *Server) Start() error {
	localIP := getLocalIP()

	slog.Info("Starting JamRoll Web Server",
		"port", s.port,
		"profile", s.cfg.Profile,
		"local_url", fmt.Sprintf("http://%s:%s", localIP, s.port),
		"localhost_url", fmt.Sprintf("http://localhost:%s", s.port))

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and closes every session
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.closeAll()
	return err
}

// handleIndex serves the main web UI
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(indexHTML)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.factory.Catalog()
	resp := CatalogResponse{
		Options:    cat,
		Settings:   randomizer.SettingNames(),
		Selections: timer.Selections(),
	}
	for _, k := range field.Keys() {
		resp.Fields = append(resp.Fields, FieldInfo{Key: k.String(), Title: k.Title(), Options: cat.Options(k)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	s.sessionsMu.Lock()
	if len(s.sessions) >= MaxSessions {
		s.sessionsMu.Unlock()
		s.sendErrorResponse(w, http.StatusServiceUnavailable, "Too many open sessions", "operation", "create_session")
		return
	}
	id := uuid.NewString()
	sess := s.factory.New(id, &alarm.Flag{}, nil)
	s.sessions[id] = sess
	s.sessionsMu.Unlock()

	slog.Info("Session created", "session", id)
	writeJSON(w, http.StatusCreated, SessionResponse{Success: true, Applied: true, Session: sess.Snapshot()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.respond(w, sess, true)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.sessionsMu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.sessionsMu.Unlock()

	if !ok {
		s.sendErrorResponse(w, http.StatusNotFound, "Session not found", "session", id)
		return
	}
	sess.Close()

	slog.Info("Session closed", "session", id)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Session closed",
	})
}

func (s *Server) handleRandomize(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Success: true, Applied: true, Session: sess.Randomize()})
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Success: true, Applied: true, Session: sess.Initialize()})
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Failed to parse form", "operation", "set_field")
		return
	}
	applied := sess.SetSelected(chi.URLParam(r, "key"), r.FormValue("value"))
	s.respond(w, sess, applied)
}

func (s *Server) handleToggleLock(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.respond(w, sess, sess.ToggleLock(chi.URLParam(r, "key")))
}

func (s *Server) handleReroll(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.respond(w, sess, sess.Reroll(chi.URLParam(r, "key")))
}

func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Failed to parse form", "operation", "set_setting")
		return
	}
	enabled, err := strconv.ParseBool(r.FormValue("enabled"))
	if err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "'enabled' must be true or false", "operation", "set_setting")
		return
	}
	s.respond(w, sess, sess.SetSetting(chi.URLParam(r, "name"), enabled))
}

func (s *Server) handleSelectDuration(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Failed to parse form", "operation", "select_duration")
		return
	}
	sess.SelectDuration(timer.Selection(r.FormValue("value")))
	s.respond(w, sess, true)
}

func (s *Server) handleTimerAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var applied bool
	switch action := chi.URLParam(r, "action"); action {
	case "start":
		applied = sess.StartTimer()
	case "pause":
		applied = sess.PauseTimer()
	case "resume":
		applied = sess.ResumeTimer()
	case "reset":
		sess.ResetTimer()
		applied = true
	default:
		s.sendErrorResponse(w, http.StatusNotFound, fmt.Sprintf("Unknown timer action '%s'", action), "operation", "timer_action")
		return
	}
	s.respond(w, sess, applied)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")

	s.sessionsMu.RLock()
	sess, ok := s.sessions[id]
	s.sessionsMu.RUnlock()

	if !ok {
		s.sendErrorResponse(w, http.StatusNotFound, "Session not found", "session", id)
	}
	return sess, ok
}

func (s *Server) respond(w http.ResponseWriter, sess *session.Session, applied bool) {
	writeJSON(w, http.StatusOK, SessionResponse{Success: true, Applied: applied, Session: sess.Snapshot()})
}

func (s *Server) closeAll() {
	s.sessionsMu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session.Session)
	s.sessionsMu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

// SessionCount returns the number of open sessions
func (s *Server) SessionCount() int {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	return len(s.sessions)
}

// sendErrorResponse logs the error and sends a JSON error response to the client
func (s *Server) sendErrorResponse(w http.ResponseWriter, statusCode int, errorMsg string, logContext ...interface{}) {
	logFields := []interface{}{"error_message", errorMsg, "status_code", statusCode}
	if len(logContext) > 0 {
		logFields = append(logFields, logContext...)
	}
	slog.Error("Sending error response to client", logFields...)

	writeJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   errorMsg,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func getLocalIP() string {
	// Try to connect to a remote address to determine local IP
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "localhost"
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String()
}
