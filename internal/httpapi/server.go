package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Aashish019/Client-Link-Monitor/internal/httpapi/middleware"
	"github.com/Aashish019/Client-Link-Monitor/internal/hub"
	"github.com/Aashish019/Client-Link-Monitor/internal/repo"
)

// RegistryService is the registry surface the API exposes.
type RegistryService interface {
	Add(ctx context.Context, name, url string) error
	Remove(ctx context.Context, name string) error
	Import(ctx context.Context, clients map[string]string) (int, error)
	List(ctx context.Context) (map[string]string, error)
}

// MonitorService covers the manual triggers: a synchronous probe round
// and an on-demand alert.
type MonitorService interface {
	RunProbeRound(ctx context.Context) error
	TriggerAlert(ctx context.Context, name, reason string) error
}

type Server struct {
	Logger   *zap.Logger
	Registry RegistryService
	Monitor  MonitorService
	Targets  repo.TargetStore
	History  repo.HistoryStore
	State    hub.Source
	Hub      *hub.Hub

	// RateRPM 0 disables rate limiting.
	RateRPM   int
	RateBurst int
}

func NewServer(l *zap.Logger, reg RegistryService, mon MonitorService, ts repo.TargetStore, hs repo.HistoryStore, st hub.Source, h *hub.Hub) *Server {
	return &Server{Logger: l, Registry: reg, Monitor: mon, Targets: ts, History: hs, State: st, Hub: h}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	if s.RateRPM > 0 {
		r.Use(middleware.RateLimit(s.RateRPM, s.RateBurst))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "client-link-monitor",
		})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/status", s.handleStatus)
	r.Get("/api/clients", s.handleListClients)
	r.Post("/api/clients", s.handleAddClient)
	r.Post("/api/clients/import", s.handleImportClients)
	r.Delete("/api/clients/{name}", s.handleRemoveClient)
	r.Get("/api/clients/{name}/history", s.handleClientHistory)
	r.Post("/api/refresh", s.handleRefresh)
	r.Post("/api/restart/{name}", s.handleRestart)
	r.Get("/ws", s.handleWS)

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.State.Snapshot())
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.Registry.List(r.Context())
	if err != nil {
		s.Logger.Error("list_clients_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list clients")
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

type addClientPayload struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (s *Server) handleAddClient(w http.ResponseWriter, r *http.Request) {
	var p addClientPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Name == "" || p.URL == "" {
		writeError(w, http.StatusBadRequest, "payload must be {\"name\": ..., \"url\": ...}")
		return
	}
	if !isValidHTTPURL(p.URL) {
		writeError(w, http.StatusBadRequest, "url must be absolute http or https")
		return
	}
	p.URL = normalizeHTTPURL(p.URL)

	if err := s.Registry.Add(r.Context(), p.Name, p.URL); err != nil {
		s.Logger.Error("add_client_error", zap.String("name", p.Name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not add client")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "added",
		"client": p,
	})
}

func (s *Server) handleImportClients(w http.ResponseWriter, r *http.Request) {
	var clients map[string]string
	if err := json.NewDecoder(r.Body).Decode(&clients); err != nil || len(clients) == 0 {
		writeError(w, http.StatusBadRequest, "payload must be a {\"name\": \"url\"} object")
		return
	}

	count, err := s.Registry.Import(r.Context(), clients)
	if err != nil {
		s.Logger.Warn("import_clients_partial", zap.Int("count", count), zap.Error(err))
	}
	if count == 0 && err != nil {
		writeError(w, http.StatusBadRequest, "no valid clients in payload")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "imported",
		"count":  count,
	})
}

func (s *Server) handleRemoveClient(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.Registry.Remove(r.Context(), name); err != nil {
		s.Logger.Error("remove_client_error", zap.String("name", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not remove client")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"name":   name,
	})
}

func (s *Server) handleClientHistory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.Targets.Get(r.Context(), name); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown client")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not load client")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	recs, err := s.History.RecentByTarget(r.Context(), name, limit)
	if err != nil {
		s.Logger.Error("client_history_error", zap.String("name", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load history")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleRefresh runs a full probe round before answering, so the
// caller can re-query status immediately after.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.Monitor.RunProbeRound(r.Context()); err != nil {
		s.Logger.Error("refresh_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "probe round failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshing"})
}

type restartPayload struct {
	Reason string `json:"reason"`
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var p restartPayload
	_ = json.NewDecoder(r.Body).Decode(&p) // body is optional
	if p.Reason == "" {
		p.Reason = "manual restart requested"
	}

	if err := s.Monitor.TriggerAlert(r.Context(), name, p.Reason); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown client")
			return
		}
		s.Logger.Error("restart_trigger_error", zap.String("name", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not trigger restart")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "restart_triggered",
		"name":   name,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// isValidHTTPURL accepts only absolute http(s) URLs with a host.
func isValidHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// normalizeHTTPURL lowercases the host, strips default ports, and
// drops a bare trailing slash so "https://Example.com/" and
// "https://example.com" key the same client.
func normalizeHTTPURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	if u.Scheme == "http" {
		host = strings.TrimSuffix(host, ":80")
	}
	if u.Scheme == "https" {
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host
	if u.Path == "/" && u.RawQuery == "" && u.Fragment == "" {
		u.Path = ""
	}
	return u.String()
}
