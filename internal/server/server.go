package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/yourorg/oas2postman/internal/config"
	"github.com/yourorg/oas2postman/internal/generator"
	"github.com/yourorg/oas2postman/internal/logging"
	"github.com/yourorg/oas2postman/internal/openapi"
	"github.com/yourorg/oas2postman/internal/postman"
	"github.com/yourorg/oas2postman/internal/store"
	"github.com/yourorg/oas2postman/pkg/types"
)

// Server exposes conversion and run history over HTTP.
type Server struct {
	cfg    *config.Config
	store  store.Store
	logger *slog.Logger
	mux    *http.ServeMux
}

// New constructs a new Server with routes registered. st may be nil, in
// which case conversions are not recorded and history routes answer 404.
func New(cfg *config.Config, st store.Store, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = logging.Nop()
	}

	srv := &Server{
		cfg:    cfg,
		store:  st,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	srv.registerRoutes()
	return srv, nil
}

// Handler returns the http handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the server on addr.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/convert", s.handleConvert)
	s.mux.HandleFunc("/api/runs", s.handleRuns)
	s.mux.HandleFunc("/api/runs/", s.handleRunRoutes)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConvert takes an OpenAPI document as the request body and answers
// with the collection. Query parameters: base_url, format, strict, name.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	setCORS(w, s.cfg.Server.CORSOrigin)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	format, err := postman.ParseFormat(q.Get("format"))
	if q.Get("format") == "" {
		format, err = postman.ParseFormat(s.cfg.Convert.OutputFormat)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	strict, _ := strconv.ParseBool(q.Get("strict"))
	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		name = "request body"
	}

	body := r.Body
	if limit := s.cfg.Server.MaxBodyBytes; limit > 0 {
		body = http.MaxBytesReader(w, r.Body, limit)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	out, err := generator.Generate(r.Context(), generator.Request{
		Source:  types.SourceHTTP,
		Input:   name,
		Data:    data,
		BaseURL: q.Get("base_url"),
		Format:  format,
		Strict:  strict,
	}, s.cfg, generator.Options{Store: s.store, Logger: s.logger})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	if out.Run.ID != "" {
		w.Header().Set("X-Run-Id", out.Run.ID)
	}
	for _, warning := range out.Result.Warnings {
		w.Header().Add("X-Conversion-Warning", warning)
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Data)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	setCORS(w, s.cfg.Server.CORSOrigin)
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		writeJSON(w, http.StatusOK, []types.Run{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.store.ListRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRunRoutes(w http.ResponseWriter, r *http.Request) {
	setCORS(w, s.cfg.Server.CORSOrigin)
	id, tail, ok := splitPath(r.URL.Path, "/api/runs/")
	if !ok || id == "" || s.store == nil {
		http.NotFound(w, r)
		return
	}
	switch tail {
	case "":
		s.handleRunDetail(w, r, id)
	case "collection":
		s.handleRunCollection(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleRunDetail(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		run, err := s.store.GetRun(id)
		if err != nil {
			writeError(w, storeStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, run)
	case http.MethodDelete:
		if err := s.store.DeleteRun(id); err != nil {
			writeError(w, storeStatus(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRunCollection(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	run, err := s.store.GetRun(id)
	if err != nil {
		writeError(w, storeStatus(err), err)
		return
	}
	data, err := s.store.GetCollection(id)
	if err != nil {
		writeError(w, storeStatus(err), err)
		return
	}
	if len(data) == 0 {
		http.Error(w, "run has no collection", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType(run.Format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// statusFor maps conversion errors to HTTP status codes. Problems with the
// submitted document are the client's.
func statusFor(err error) int {
	switch {
	case errors.Is(err, openapi.ErrMalformedInput),
		errors.Is(err, openapi.ErrMissingField),
		errors.Is(err, openapi.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func storeStatus(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func contentType(format string) string {
	if format == postman.FormatYAML {
		return "application/yaml; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}

func splitPath(fullPath, prefix string) (string, string, bool) {
	if !strings.HasPrefix(fullPath, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(fullPath, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	tail := ""
	if len(parts) > 1 {
		tail = strings.Join(parts[1:], "/")
	}
	return id, tail, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func setCORS(w http.ResponseWriter, origin string) {
	if origin == "" {
		origin = "*"
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}
