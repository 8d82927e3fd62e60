package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"creator-discovery/internal/domain"
	"creator-discovery/internal/domain/model"
	"creator-discovery/internal/usecase"
)

// Server exposes the operator API: job intake, status polling, cancellation
// and the reconcile diagnostic. The invoke hook exists for deployments where
// an external scheduler posts invocations instead of the built-in worker.
type Server struct {
	discovery usecase.DiscoveryUseCase
	reconcile usecase.ReconcileUseCase
	auth      *AuthManager
	adminKey  string
	log       *zerolog.Logger
	server    *http.Server
}

func NewServer(
	discovery usecase.DiscoveryUseCase,
	reconcile usecase.ReconcileUseCase,
	auth *AuthManager,
	adminKey string,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		discovery: discovery,
		reconcile: reconcile,
		auth:      auth,
		adminKey:  adminKey,
		log:       &l,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/v1/login", s.handleLogin)

	r.Route("/api/v1/jobs", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Post("/", s.handleCreateJob)
		r.Get("/{jobID}", s.handleStatus)
		r.Get("/{jobID}/results", s.handleResults)
		r.Post("/{jobID}/cancel", s.handleCancel)
		r.Get("/{jobID}/reconcile", s.handleReconcile)
	})

	// Worker-facing hook; protected by the same operator auth.
	r.With(s.auth.Middleware).Post("/internal/invoke", s.handleInvoke)

	return r
}

func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Int("port", port).Msg("operator API listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// ---- handlers ----

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AdminKey string `json:"admin_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.AdminKey == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if s.adminKey == "" || body.AdminKey != s.adminKey {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	tok, err := s.auth.Mint()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Keywords []string `json:"keywords"`
		Target   int      `json:"target"`
		Platform string   `json:"platform"`
		Region   string   `json:"region"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	job, err := s.discovery.CreateJob(r.Context(), usecase.CreateJobInput{
		Keywords: body.Keywords,
		Target:   body.Target,
		Platform: body.Platform,
		Region:   body.Region,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"job_id": job.ID})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.discovery.Status(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse(job))
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	offset := intQuery(r, "offset", 0)
	limit := intQuery(r, "limit", 100)
	creators, err := s.discovery.Results(r.Context(), chi.URLParam(r, "jobID"), offset, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]map[string]interface{}, 0, len(creators))
	for _, c := range creators {
		out = append(out, map[string]interface{}{
			"platform":     c.Platform,
			"handle":       c.Handle,
			"display_name": c.DisplayName,
			"followers":    c.Followers,
			"avatar_url":   c.AvatarURL,
			"bio":          c.Bio,
			"region":       c.Region,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"creators": out})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	err := s.discovery.Cancel(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancel requested"})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	report, err := s.reconcile.Reconcile(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var body struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.JobID == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err := s.discovery.Invoke(r.Context(), body.JobID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- helpers ----

func statusResponse(job *model.Job) map[string]interface{} {
	return map[string]interface{}{
		"job_id":              job.ID,
		"status":              job.Status,
		"platform":            job.Platform,
		"target":              job.TargetResults,
		"keywords_dispatched": job.KeywordsDispatched,
		"keywords_completed":  job.KeywordsCompleted,
		"creators_found":      job.CreatorsFound,
		"pending_keywords":    len(job.Cursor.Pending),
		"last_error":          job.LastError,
		"created_at":          job.CreatedAt,
		"updated_at":          job.UpdatedAt,
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrUnknownPlatform):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrJobTerminal), errors.Is(err, domain.ErrConcurrentUpdate):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		s.log.Error().Err(err).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func intQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return def
	}
	return n
}
