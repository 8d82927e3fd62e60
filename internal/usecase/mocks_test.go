//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"creator-discovery/internal/domain"
	"creator-discovery/internal/domain/model"
	"creator-discovery/internal/domain/ports/adapter"
	"creator-discovery/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// memJobRepo is a small in-memory JobRepository used by unit tests.
type memJobRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Job
	updates int // number of UpdateProgress calls, used to assert zero-write paths

	updateErr error // used by tests to simulate persistence failures
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{store: make(map[string]*model.Job)}
}

func (m *memJobRepo) Create(ctx context.Context, tx repository.Tx, job *model.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[job.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *job
	m.store[job.ID] = &cp
	return nil
}

func (m *memJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) UpdateProgress(ctx context.Context, tx repository.Tx, job *model.Job) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.store[job.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != job.Version {
		return domain.ErrConcurrentUpdate
	}
	m.updates++
	cp := *job
	cp.Version++
	cp.UpdatedAt = time.Now()
	m.store[job.ID] = &cp
	job.Version = cp.Version
	return nil
}

func (m *memJobRepo) RequestCancel(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	j.CancelRequested = true
	return nil
}

func (m *memJobRepo) ListStaleProcessing(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Job
	for _, j := range m.store {
		if j.Status == model.JobStatusProcessing && j.UpdatedAt.Before(cutoff) {
			cp := *j
			out = append(out, &cp)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// setUpdatedAt backdates a stored job so reaper tests can age it.
func (m *memJobRepo) setUpdatedAt(id string, ts time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.store[id]; ok {
		j.UpdatedAt = ts
	}
}

func (m *memJobRepo) updateCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updates
}

// memDedupRepo backs Insert with a map under a mutex, giving the same
// insert-if-absent semantics the unique constraint provides in Postgres.
type memDedupRepo struct {
	mu    sync.Mutex
	store map[string]map[string]struct{} // jobID -> creatorKey set
}

func newMemDedupRepo() *memDedupRepo {
	return &memDedupRepo{store: make(map[string]map[string]struct{})}
}

func (m *memDedupRepo) Insert(ctx context.Context, tx repository.Tx, jobID, creatorKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys, ok := m.store[jobID]
	if !ok {
		keys = make(map[string]struct{})
		m.store[jobID] = keys
	}
	if _, exists := keys[creatorKey]; exists {
		return false, nil
	}
	keys[creatorKey] = struct{}{}
	return true, nil
}

func (m *memDedupRepo) CountByJob(ctx context.Context, tx repository.Tx, jobID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store[jobID]), nil
}

// memCreatorRepo stores appended results per job in order.
type memCreatorRepo struct {
	mu    sync.Mutex
	store map[string][]model.RawCreator
}

func newMemCreatorRepo() *memCreatorRepo {
	return &memCreatorRepo{store: make(map[string][]model.RawCreator)}
}

func (m *memCreatorRepo) AppendBatch(ctx context.Context, tx repository.Tx, jobID string, creators []model.RawCreator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[jobID] = append(m.store[jobID], creators...)
	return nil
}

func (m *memCreatorRepo) CountByJob(ctx context.Context, tx repository.Tx, jobID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store[jobID]), nil
}

func (m *memCreatorRepo) ListByJob(ctx context.Context, tx repository.Tx, jobID string, offset, limit int) ([]model.RawCreator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.store[jobID]
	if offset >= len(rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return append([]model.RawCreator(nil), rows[offset:end]...), nil
}

// mockTxManager runs the function directly with a nil handle; the in-memory
// repositories ignore the tx argument anyway.
type mockTxManager struct{}

func (mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// pageScript is one scripted response for a keyword search.
type pageScript struct {
	page *adapter.SearchPage
	err  error
}

// scriptedProvider replays a fixed sequence of pages or errors per keyword.
// Once a keyword's script is exhausted it returns an empty final page.
type scriptedProvider struct {
	mu       sync.Mutex
	platform model.Platform
	scripts  map[string][]pageScript
	calls    map[string]int
}

func newScriptedProvider(platform model.Platform) *scriptedProvider {
	return &scriptedProvider{
		platform: platform,
		scripts:  make(map[string][]pageScript),
		calls:    make(map[string]int),
	}
}

func (p *scriptedProvider) Platform() model.Platform { return p.platform }

// addPage appends a successful page of n generated creators for the keyword.
func (p *scriptedProvider) addPage(keyword string, creators []model.RawCreator, nextToken string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts[keyword] = append(p.scripts[keyword], pageScript{
		page: &adapter.SearchPage{Creators: creators, NextPageToken: nextToken},
	})
}

func (p *scriptedProvider) addErr(keyword string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts[keyword] = append(p.scripts[keyword], pageScript{err: err})
}

func (p *scriptedProvider) Search(ctx context.Context, keyword, pageToken string) (*adapter.SearchPage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.calls[keyword]
	p.calls[keyword] = n + 1
	script := p.scripts[keyword]
	if n >= len(script) {
		return &adapter.SearchPage{}, nil
	}
	s := script[n]
	if s.err != nil {
		return nil, s.err
	}
	return s.page, nil
}

func (p *scriptedProvider) callCount(keyword string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[keyword]
}

// gatedProvider parks every Search call until the test hands back a release
// signal, so two deliveries of the same job can be lined up inside their
// search phase with identical pre-flush snapshots.
type gatedProvider struct {
	inner   adapter.SearchProvider
	entered chan chan struct{}
}

func newGatedProvider(inner adapter.SearchProvider) *gatedProvider {
	return &gatedProvider{inner: inner, entered: make(chan chan struct{})}
}

func (g *gatedProvider) Platform() model.Platform { return g.inner.Platform() }

func (g *gatedProvider) Search(ctx context.Context, keyword, pageToken string) (*adapter.SearchPage, error) {
	release := make(chan struct{})
	select {
	case g.entered <- release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case <-release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.inner.Search(ctx, keyword, pageToken)
}

// fakeSuggester returns a canned expansion.
type fakeSuggester struct {
	out []string
	err error
}

func (f *fakeSuggester) Suggest(ctx context.Context, seeds []string, n int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	// Real suggesters over-produce; the caller caps the list itself.
	return f.out, nil
}

// recordingDispatcher captures every dispatched payload.
type recordingDispatcher struct {
	mu       sync.Mutex
	payloads []adapter.InvokePayload
	delays   []time.Duration
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, payload adapter.InvokePayload, delay time.Duration) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payloads = append(d.payloads, payload)
	d.delays = append(d.delays, delay)
	return "delivery-" + payload.JobID, nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.payloads)
}

// creatorsFor generates n distinct creators named after the keyword.
func creatorsFor(platform model.Platform, keyword string, n int) []model.RawCreator {
	out := make([]model.RawCreator, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.RawCreator{
			Platform:    platform,
			Handle:      fmt.Sprintf("%s_creator_%d", keyword, i),
			DisplayName: keyword + " creator",
			Followers:   int64(1000 * (i + 1)),
		})
	}
	return out
}
