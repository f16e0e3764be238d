package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aniflix/internal/app"
	"aniflix/internal/ratelimit"
	"aniflix/internal/util"
	"aniflix/pkg/domain"
)

const maxBodyBytes = 1 << 20

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                     *app.App
	RedisAddr               string
	RedisPassword           string
	TrustedProxies          []string
	WriteRateLimitPerMinute int
	SeedRateLimitPerMinute  int
}

// Server exposes the catalog HTTP endpoints.
type Server struct {
	app          *app.App
	mux          *http.ServeMux
	proxies      *util.TrustedProxies
	writeLimiter *ratelimit.FixedWindowLimiter
	seedLimiter  *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	writeLimit := cfg.WriteRateLimitPerMinute
	if writeLimit <= 0 {
		writeLimit = 120
	}
	seedLimit := cfg.SeedRateLimitPerMinute
	if seedLimit <= 0 {
		seedLimit = 10
	}
	proxies, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("parse trusted proxies: %w", err)
	}
	s := &Server{
		app:     cfg.App,
		mux:     http.NewServeMux(),
		proxies: proxies,
	}
	newLimiter := func(name string, limit int) (*ratelimit.FixedWindowLimiter, error) {
		prefix := "aniflix:catalog:ratelimit:" + name
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, prefix, limit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init %s limiter: %w", name, err)
		}
		return limiter, nil
	}
	if s.writeLimiter, err = newLimiter("write", writeLimit); err != nil {
		return nil, err
	}
	if s.seedLimiter, err = newLimiter("seed", seedLimit); err != nil {
		return nil, err
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("catalog", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/test", s.handleTest)
	s.mux.HandleFunc("/seed", s.handleSeed)
	s.mux.HandleFunc("/schema", s.handleSchema)

	s.mux.HandleFunc("/shows", s.handleShows)
	s.mux.HandleFunc("/shows/", s.handleShowByID)
	s.mux.HandleFunc("/watchlist", s.handleWatchlist)
	s.mux.HandleFunc("/progress", s.handleProgress)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	// "/" is the mux catch-all, so everything unrouted lands here.
	if r.URL.Path != "/" {
		notFound(w, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "AniFlix backend is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Diagnose(r.Context()))
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.seedLimiter.Allow(util.ClientIP(r, s.proxies)) {
		tooManyRequests(w)
		return
	}
	seeded, count, err := s.app.Seed(r.Context())
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"seeded": seeded,
		"count":  count,
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": s.app.Collections()})
}

func (s *Server) handleShows(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleSearchShows(w, r)
	case http.MethodPost:
		s.handleCreateShow(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSearchShows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := app.SearchParams{
		Query: q.Get("q"),
		Genre: q.Get("genre"),
		Type:  q.Get("type"),
		Tag:   q.Get("tag"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		params.Limit = limit
	}
	shows, err := s.app.SearchShows(r.Context(), params)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shows)
}

func (s *Server) handleCreateShow(w http.ResponseWriter, r *http.Request) {
	if !s.allowWrite(r) {
		tooManyRequests(w)
		return
	}
	var show domain.Show
	if !decodeBody(w, r, &show) {
		return
	}
	id, err := s.app.CreateShow(r.Context(), show)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"_id": id})
}

// /shows/{id}
func (s *Server) handleShowByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/shows/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}
	show, err := s.app.GetShow(r.Context(), id)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleAddWatchlistItem(w, r)
	case http.MethodGet:
		s.handleWatchlistShows(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleAddWatchlistItem(w http.ResponseWriter, r *http.Request) {
	if !s.allowWrite(r) {
		tooManyRequests(w)
		return
	}
	var item domain.WatchlistItem
	if !decodeBody(w, r, &item) {
		return
	}
	id, err := s.app.AddWatchlistItem(r.Context(), item)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"_id": id})
}

func (s *Server) handleWatchlistShows(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	shows, err := s.app.WatchlistShows(r.Context(), userID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shows)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSaveProgress(w, r)
	case http.MethodGet:
		s.handleGetProgress(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSaveProgress(w http.ResponseWriter, r *http.Request) {
	if !s.allowWrite(r) {
		tooManyRequests(w)
		return
	}
	var progress domain.UserProgress
	if !decodeBody(w, r, &progress) {
		return
	}
	if err := s.app.SaveProgress(r.Context(), progress); err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("user_id")
	showID := q.Get("show_id")
	if userID == "" || showID == "" {
		writeError(w, http.StatusBadRequest, "user_id and show_id are required")
		return
	}
	progress, ok, err := s.app.GetProgress(r.Context(), userID, showID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if !ok {
		// Absence is not an error: an empty object, matching the
		// external contract.
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) allowWrite(r *http.Request) bool {
	return s.writeLimiter.Allow(util.ClientIP(r, s.proxies))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeAppError maps core errors onto the HTTP taxonomy: validation and
// malformed-id failures are client errors, absence is 404, and any store
// failure surfaces as service unavailable with no retry.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		writeValidationError(w, validation)
	case errors.Is(err, app.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "invalid id")
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, app.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func tooManyRequests(w http.ResponseWriter) {
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string              `json:"error"`
	Code      string              `json:"code"`
	RequestID string              `json:"requestId,omitempty"`
	Fields    []domain.FieldError `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCodeForCatalog(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func writeValidationError(w http.ResponseWriter, validation *domain.ValidationError) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:     "validation failed",
		Code:      "CATALOG_VALIDATION_FAILED",
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
		Fields:    validation.Fields,
	})
}

func errorCodeForCatalog(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "invalid id":
		return "CATALOG_INVALID_ID"
	case message == "invalid limit":
		return "CATALOG_INVALID_LIMIT"
	case message == "invalid json body":
		return "CATALOG_INVALID_REQUEST"
	case message == "rate limit exceeded":
		return "CATALOG_RATE_LIMITED"
	case message == "store unavailable":
		return "CATALOG_STORE_UNAVAILABLE"
	case message == "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case strings.Contains(message, "required"):
		return "CATALOG_MISSING_PARAMETER"
	case strings.Contains(message, "invalid argument"):
		return "CATALOG_INVALID_PARAMETER"
	}

	switch status {
	case http.StatusBadRequest:
		return "CATALOG_INVALID_REQUEST"
	case http.StatusNotFound:
		return "CATALOG_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "CATALOG_RATE_LIMITED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
