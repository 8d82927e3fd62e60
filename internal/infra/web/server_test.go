//go:build !integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"creator-discovery/internal/domain"
	"creator-discovery/internal/domain/model"
	"creator-discovery/internal/usecase"
)

// stubDiscovery is a canned DiscoveryUseCase for handler tests.
type stubDiscovery struct {
	jobs      map[string]*model.Job
	created   *model.Job
	createErr error
	cancelled []string
	invoked   []string
}

func newStubDiscovery() *stubDiscovery {
	return &stubDiscovery{jobs: make(map[string]*model.Job)}
}

func (s *stubDiscovery) CreateJob(ctx context.Context, in usecase.CreateJobInput) (*model.Job, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	job, err := model.NewJob("01TESTJOB", model.PlatformTikTok, in.Region, in.Keywords, in.Target)
	if err != nil {
		return nil, err
	}
	s.created = job
	s.jobs[job.ID] = job
	return job, nil
}

func (s *stubDiscovery) Invoke(ctx context.Context, jobID string) error {
	s.invoked = append(s.invoked, jobID)
	return nil
}

func (s *stubDiscovery) Status(ctx context.Context, jobID string) (*model.Job, error) {
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (s *stubDiscovery) Results(ctx context.Context, jobID string, offset, limit int) ([]model.RawCreator, error) {
	if _, ok := s.jobs[jobID]; !ok {
		return nil, domain.ErrNotFound
	}
	return []model.RawCreator{
		{Platform: model.PlatformTikTok, Handle: "janedoe", Followers: 12000},
	}, nil
}

func (s *stubDiscovery) Cancel(ctx context.Context, jobID string) error {
	job, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Terminal() {
		return domain.ErrJobTerminal
	}
	s.cancelled = append(s.cancelled, jobID)
	return nil
}

func (s *stubDiscovery) ReapStale(ctx context.Context) (int, error) { return 0, nil }

// stubReconcile returns a fixed report.
type stubReconcile struct {
	report *model.ReconcileReport
}

func (s *stubReconcile) Reconcile(ctx context.Context, jobID string) (*model.ReconcileReport, error) {
	if s.report == nil {
		return nil, domain.ErrNotFound
	}
	return s.report, nil
}

func newTestServer(disc *stubDiscovery, rec *stubReconcile) (*Server, *AuthManager) {
	logger := zerolog.New(io.Discard)
	auth := NewAuthManager("test-secret", time.Minute)
	return NewServer(disc, rec, auth, "test-admin-key", &logger), auth
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_Login(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(newStubDiscovery(), &stubReconcile{})
	router := srv.Router()

	t.Run("valid admin key returns a token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/login", "", map[string]string{"admin_key": "test-admin-key"})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var out struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || out.Token == "" {
			t.Fatalf("body = %s", rec.Body.String())
		}
	})

	t.Run("wrong admin key is rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/login", "", map[string]string{"admin_key": "nope"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})
}

func TestServer_AuthRequired(t *testing.T) {
	t.Parallel()
	srv, auth := newTestServer(newStubDiscovery(), &stubReconcile{})
	router := srv.Router()

	protected := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/jobs"},
		{http.MethodGet, "/api/v1/jobs/j1"},
		{http.MethodGet, "/api/v1/jobs/j1/results"},
		{http.MethodPost, "/api/v1/jobs/j1/cancel"},
		{http.MethodGet, "/api/v1/jobs/j1/reconcile"},
		{http.MethodPost, "/internal/invoke"},
	}
	for _, ep := range protected {
		rec := doJSON(t, router, ep.method, ep.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status = %d, want 401", ep.method, ep.path, rec.Code)
		}
		rec = doJSON(t, router, ep.method, ep.path, "garbage-token", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s with bad token: status = %d, want 401", ep.method, ep.path, rec.Code)
		}
	}

	// Sanity: a minted token passes the middleware.
	token, err := auth.Mint()
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	rec := doJSON(t, router, http.MethodGet, "/api/v1/jobs/missing", token, nil)
	if rec.Code == http.StatusUnauthorized {
		t.Fatal("valid token rejected")
	}
}

func TestServer_JobLifecycle(t *testing.T) {
	t.Parallel()
	disc := newStubDiscovery()
	srv, auth := newTestServer(disc, &stubReconcile{})
	router := srv.Router()
	token, _ := auth.Mint()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/jobs", token, map[string]any{
		"platform": "tiktok",
		"region":   "US",
		"keywords": []string{"fitness"},
		"target":   50,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created.JobID == "" {
		t.Fatalf("create body = %s", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/jobs/"+created.JobID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d", rec.Code)
	}
	var status struct {
		Status string `json:"status"`
		Target int    `json:"target"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("status body = %s", rec.Body.String())
	}
	if status.Status != "pending" || status.Target != 50 {
		t.Fatalf("status = %+v", status)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/jobs/"+created.JobID+"/results", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("results endpoint = %d", rec.Code)
	}
	var results struct {
		Creators []struct {
			Handle string `json:"handle"`
		} `json:"creators"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil || len(results.Creators) != 1 {
		t.Fatalf("results body = %s", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/jobs/"+created.JobID+"/cancel", token, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("cancel status = %d", rec.Code)
	}
	if len(disc.cancelled) != 1 || disc.cancelled[0] != created.JobID {
		t.Fatalf("cancelled = %v", disc.cancelled)
	}
}

func TestServer_ErrorMapping(t *testing.T) {
	t.Parallel()
	disc := newStubDiscovery()
	srv, auth := newTestServer(disc, &stubReconcile{})
	router := srv.Router()
	token, _ := auth.Mint()

	t.Run("unknown job is 404", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/v1/jobs/missing", token, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("invalid create payload is 400", func(t *testing.T) {
		disc.createErr = domain.ErrInvalidArgument
		defer func() { disc.createErr = nil }()
		rec := doJSON(t, router, http.MethodPost, "/api/v1/jobs", token, map[string]any{"platform": "tiktok"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("cancel of terminal job is 409", func(t *testing.T) {
		job, _ := model.NewJob("done", model.PlatformTikTok, "US", []string{"x"}, 1)
		job.Status = model.JobStatusCompleted
		disc.jobs[job.ID] = job
		rec := doJSON(t, router, http.MethodPost, "/api/v1/jobs/done/cancel", token, nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
	})
}

func TestServer_Reconcile(t *testing.T) {
	t.Parallel()
	report := &model.ReconcileReport{
		JobID:         "j1",
		Status:        model.JobStatusCompleted,
		CreatorsFound: 5,
		ResultRows:    5,
		DedupKeys:     5,
		CountersMatch: true,
		CheckedAt:     time.Now(),
	}
	srv, auth := newTestServer(newStubDiscovery(), &stubReconcile{report: report})
	router := srv.Router()
	token, _ := auth.Mint()

	rec := doJSON(t, router, http.MethodGet, "/api/v1/jobs/j1/reconcile", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out model.ReconcileReport
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("body = %s", rec.Body.String())
	}
	if !out.CountersMatch || out.DedupKeys != 5 {
		t.Fatalf("report = %+v", out)
	}
}

func TestServer_InvokeHook(t *testing.T) {
	t.Parallel()
	disc := newStubDiscovery()
	srv, auth := newTestServer(disc, &stubReconcile{})
	router := srv.Router()
	token, _ := auth.Mint()

	rec := doJSON(t, router, http.MethodPost, "/internal/invoke", token, map[string]string{"job_id": "j1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(disc.invoked) != 1 || disc.invoked[0] != "j1" {
		t.Fatalf("invoked = %v", disc.invoked)
	}

	rec = doJSON(t, router, http.MethodPost, "/internal/invoke", token, map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty job_id status = %d, want 400", rec.Code)
	}
}

func TestServer_Health(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(newStubDiscovery(), &stubReconcile{})
	rec := doJSON(t, srv.Router(), http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
