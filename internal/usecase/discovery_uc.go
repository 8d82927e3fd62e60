package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"creator-discovery/internal/domain"
	"creator-discovery/internal/domain/model"
	"creator-discovery/internal/domain/ports/adapter"
	"creator-discovery/internal/domain/ports/repository"
	"creator-discovery/internal/infra/logging"
	"creator-discovery/internal/infra/metrics"
)

// Compile-time check
var _ DiscoveryUseCase = (*discoveryUC)(nil)

type CreateJobInput struct {
	Keywords []string
	Target   int
	Platform string
	Region   string
}

type DiscoveryUseCase interface {
	// CreateJob validates the intake, persists a pending job and dispatches
	// its first invocation.
	CreateJob(ctx context.Context, in CreateJobInput) (*model.Job, error)

	// Invoke is the worker entry point the dispatch facility calls. It is
	// idempotent: a job already in a terminal state is a no-op.
	Invoke(ctx context.Context, jobID string) error

	Status(ctx context.Context, jobID string) (*model.Job, error)
	Results(ctx context.Context, jobID string, offset, limit int) ([]model.RawCreator, error)
	Cancel(ctx context.Context, jobID string) error

	// ReapStale re-drives jobs whose invocation chain broke (crashed worker,
	// lost dispatch). Returns how many jobs were touched.
	ReapStale(ctx context.Context) (int, error)
}

// Tuning for one use-case instance. Zero values fall back to defaults.
type DiscoveryTuning struct {
	ParallelismWindow    int
	ExpectedYield        int
	MaxStaleInvocations  int
	SearchTimeout        time.Duration
	InvokeDelay          time.Duration
	StaleProcessingAfter time.Duration
}

func (t *DiscoveryTuning) normalize() {
	if t.ParallelismWindow <= 0 {
		t.ParallelismWindow = 5
	}
	if t.ExpectedYield <= 0 {
		t.ExpectedYield = ExpectedYieldPerKeyword
	}
	if t.MaxStaleInvocations <= 0 {
		t.MaxStaleInvocations = 3
	}
	if t.SearchTimeout <= 0 {
		t.SearchTimeout = 20 * time.Second
	}
	if t.StaleProcessingAfter <= 0 {
		t.StaleProcessingAfter = 15 * time.Minute
	}
}

type discoveryUC struct {
	jobs       repository.JobRepository
	creators   repository.CreatorRepository
	tm         repository.TransactionManager
	providers  map[model.Platform]adapter.SearchProvider
	dispatcher adapter.TaskDispatcher
	expander   *KeywordExpander
	dedup      *DedupEngine
	tuning     DiscoveryTuning
	log        *zerolog.Logger
}

func NewDiscoveryUseCase(
	jobs repository.JobRepository,
	creators repository.CreatorRepository,
	tm repository.TransactionManager,
	providers map[model.Platform]adapter.SearchProvider,
	dispatcher adapter.TaskDispatcher,
	expander *KeywordExpander,
	dedup *DedupEngine,
	tuning DiscoveryTuning,
	logger *zerolog.Logger,
) *discoveryUC {
	tuning.normalize()
	l := logger.With().Str("component", "DiscoveryUC").Logger()
	return &discoveryUC{
		jobs:       jobs,
		creators:   creators,
		tm:         tm,
		providers:  providers,
		dispatcher: dispatcher,
		expander:   expander,
		dedup:      dedup,
		tuning:     tuning,
		log:        &l,
	}
}

func (u *discoveryUC) CreateJob(ctx context.Context, in CreateJobInput) (*model.Job, error) {
	platform, err := model.ParsePlatform(in.Platform)
	if err != nil {
		return nil, err
	}
	if _, ok := u.providers[platform]; !ok {
		return nil, fmt.Errorf("no provider configured for %s: %w", platform, domain.ErrUnknownPlatform)
	}

	job, err := model.NewJob(ulid.Make().String(), platform, in.Region, in.Keywords, in.Target)
	if err != nil {
		return nil, err
	}
	if err := u.jobs.Create(ctx, nil, job); err != nil {
		return nil, err
	}

	if _, err := u.dispatcher.Dispatch(ctx, adapter.InvokePayload{JobID: job.ID}, 0); err != nil {
		return nil, fmt.Errorf("dispatch first invocation: %w", err)
	}

	u.log.Info().Str("job_id", job.ID).Str("platform", string(platform)).
		Int("target", in.Target).Int("keywords", len(in.Keywords)).Msg("discovery job created")
	return job, nil
}

func (u *discoveryUC) Status(ctx context.Context, jobID string) (*model.Job, error) {
	return u.jobs.FindByID(ctx, nil, jobID)
}

func (u *discoveryUC) Results(ctx context.Context, jobID string, offset, limit int) ([]model.RawCreator, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return u.creators.ListByJob(ctx, nil, jobID, offset, limit)
}

func (u *discoveryUC) Cancel(ctx context.Context, jobID string) error {
	job, err := u.jobs.FindByID(ctx, nil, jobID)
	if err != nil {
		return err
	}
	if job.Terminal() {
		return domain.ErrJobTerminal
	}
	return u.jobs.RequestCancel(ctx, nil, jobID)
}

// Invoke runs one bounded unit of work for the job: expansion on the first
// call, then a single batch pass. Execution beyond this invocation's budget
// survives through the dispatcher chain, not through blocking here.
func (u *discoveryUC) Invoke(ctx context.Context, jobID string) error {
	defer logging.TraceDuration(u.log, "DiscoveryUC.Invoke")()

	// Always re-read persisted state; payloads are never trusted.
	job, err := u.jobs.FindByID(ctx, nil, jobID)
	if err != nil {
		return err
	}
	log := logging.With(logging.WithJobID(ctx, job.ID), u.log)

	if job.Terminal() {
		// Idempotent re-delivery guard: zero writes, no error.
		metrics.IncInvocation("noop")
		log.Debug().Str("status", string(job.Status)).Msg("invocation for terminal job ignored")
		return nil
	}
	if job.CancelRequested {
		return u.finish(ctx, job, model.JobStatusError, "cancelled by operator")
	}

	if job.Status == model.JobStatusPending {
		expanded := u.expander.Expand(ctx, job.Keywords, job.TargetResults)
		job.ExpandedKeywords = expanded
		job.Cursor = model.NewCursor(len(expanded))
		job.Status = model.JobStatusProcessing
		if err := u.jobs.UpdateProgress(ctx, nil, job); err != nil {
			return err
		}
		log.Info().Int("expanded_keywords", len(expanded)).Msg("job moved to processing")
	}

	continued, err := u.runBatch(ctx, job, log)
	if err != nil {
		metrics.IncInvocation("error")
		return err
	}
	if !continued {
		metrics.IncInvocation("finished")
		return nil
	}

	// Cancellation is checked again right before chaining: in-flight batch
	// results were still valid and have been admitted above.
	fresh, err := u.jobs.FindByID(ctx, nil, jobID)
	if err == nil && fresh.CancelRequested {
		return u.finish(ctx, fresh, model.JobStatusError, "cancelled by operator")
	}

	metrics.IncInvocation("continued")
	if _, err := u.dispatcher.Dispatch(ctx, adapter.InvokePayload{JobID: job.ID}, u.tuning.InvokeDelay); err != nil {
		return fmt.Errorf("dispatch next invocation: %w", err)
	}
	return nil
}

// keywordOutcome is the settled result of one keyword search in a batch.
type keywordOutcome struct {
	state model.KeywordState
	page  *adapter.SearchPage
	err   error
}

// runBatch executes one parallel pass over up to ParallelismWindow pending
// keywords, settles every call, then flushes the delta and the job progress
// in a single transaction.
func (u *discoveryUC) runBatch(ctx context.Context, job *model.Job, log *zerolog.Logger) (continued bool, err error) {
	provider, ok := u.providers[job.Platform]
	if !ok {
		return false, u.finish(ctx, job, model.JobStatusError, "no provider for platform "+string(job.Platform))
	}

	batch, rest := job.Cursor.Take(u.tuning.ParallelismWindow)
	if len(batch) == 0 {
		return false, u.finish(ctx, job, model.JobStatusCompleted, "")
	}

	outcomes := make([]keywordOutcome, len(batch))
	var wg sync.WaitGroup
	for i, st := range batch {
		wg.Add(1)
		go func(i int, st model.KeywordState) {
			defer wg.Done()
			kw := job.ExpandedKeywords[st.Index]
			page, serr := u.searchOnce(ctx, provider, kw, st.PageToken)
			if serr != nil && domain.KindOf(serr) == domain.KindTransient {
				// One in-batch retry for transient faults. Rate limits are
				// deferred immediately: retrying into a live limit wastes
				// the invocation budget.
				page, serr = u.searchOnce(ctx, provider, kw, st.PageToken)
			}
			outcomes[i] = keywordOutcome{state: st, page: page, err: serr}
		}(i, st)
	}
	wg.Wait()

	var (
		candidates      []model.RawCreator
		requeued        []model.KeywordState
		dispatchedDelta int
		completedDelta  int
		fatalErr        error
	)
	for _, out := range outcomes {
		st := out.state
		if !st.Dispatched {
			dispatchedDelta++
			st.Dispatched = true
		}
		kw := job.ExpandedKeywords[st.Index]

		if out.err != nil {
			kind := domain.KindOf(out.err)
			metrics.IncKeywordSearch(string(job.Platform), kind.String())
			if kind == domain.KindFatal {
				fatalErr = out.err
				continue
			}
			// Transient (retry exhausted) or rate limited: defer to a later
			// invocation. The keyword goes to the back of the cursor.
			st.Deferrals++
			requeued = append(requeued, st)
			log.Warn().Str("keyword", kw).Str("kind", kind.String()).Int("deferrals", st.Deferrals).
				Msg("keyword deferred")
			continue
		}

		metrics.IncKeywordSearch(string(job.Platform), "ok")
		candidates = append(candidates, out.page.Creators...)
		if out.page.NextPageToken != "" && !job.TargetReached() {
			st.PageToken = out.page.NextPageToken
			requeued = append(requeued, st)
		} else {
			completedDelta++
		}
	}

	// Flush: dedup admission, result append and the job progress row commit
	// together. An invocation that dies mid-flush leaves counters, cursor,
	// dedup keys and results mutually consistent.
	var admitted, duplicates int
	var delta []model.RawCreator
	txErr := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		admitted, duplicates = 0, 0
		delta = delta[:0]
		for _, c := range candidates {
			ok, _, aerr := u.dedup.Admit(ctx, tx, job.ID, c)
			if aerr != nil {
				return aerr
			}
			if ok {
				delta = append(delta, c)
				admitted++
			} else {
				duplicates++
			}
		}
		if len(delta) > 0 {
			if err := u.creators.AppendBatch(ctx, tx, job.ID, delta); err != nil {
				return err
			}
		}

		job.KeywordsDispatched += dispatchedDelta
		job.KeywordsCompleted += completedDelta
		job.CreatorsFound += admitted
		job.Cursor = model.Cursor{Pending: append(append([]model.KeywordState(nil), rest...), requeued...)}

		if completedDelta > 0 || admitted > 0 {
			job.StaleInvocations = 0
		} else {
			job.StaleInvocations++
		}

		switch {
		case fatalErr != nil:
			job.Status = model.JobStatusError
			job.LastError = fatalErr.Error()
		case job.Cursor.Exhausted() || job.TargetReached():
			job.Status = model.JobStatusCompleted
		case job.StaleInvocations >= u.tuning.MaxStaleInvocations:
			job.Status = model.JobStatusError
			job.LastError = fmt.Sprintf("no progress after %d consecutive invocations", job.StaleInvocations)
		default:
			job.Status = model.JobStatusProcessing
		}
		return u.jobs.UpdateProgress(ctx, tx, job)
	})
	if txErr != nil {
		return false, txErr
	}

	metrics.AddCreatorsSeen(string(job.Platform), admitted, duplicates)
	if job.Terminal() {
		metrics.IncJobFinished(string(job.Status))
		log.Info().Str("status", string(job.Status)).Int("creators_found", job.CreatorsFound).
			Int("keywords_completed", job.KeywordsCompleted).Str("last_error", job.LastError).
			Msg("job finished")
		return false, nil
	}
	log.Debug().Int("admitted", admitted).Int("duplicates", duplicates).
		Int("pending_keywords", len(job.Cursor.Pending)).Msg("batch flushed")
	return true, nil
}

func (u *discoveryUC) searchOnce(ctx context.Context, provider adapter.SearchProvider, keyword, pageToken string) (*adapter.SearchPage, error) {
	callCtx, cancel := context.WithTimeout(ctx, u.tuning.SearchTimeout)
	defer cancel()
	start := time.Now()
	page, err := provider.Search(callCtx, keyword, pageToken)
	metrics.ObserveSearchLatency(string(provider.Platform()), int(time.Since(start)/time.Millisecond), err == nil)
	return page, err
}

// finish moves the job to a terminal state with a single atomic update.
func (u *discoveryUC) finish(ctx context.Context, job *model.Job, status model.JobStatus, errMsg string) error {
	job.Status = status
	if errMsg != "" {
		job.LastError = errMsg
	}
	if err := u.jobs.UpdateProgress(ctx, nil, job); err != nil {
		return err
	}
	metrics.IncJobFinished(string(status))
	u.log.Info().Str("job_id", job.ID).Str("status", string(status)).Str("last_error", errMsg).Msg("job finalized")
	return nil
}

// ReapStale re-dispatches processing jobs whose last update is older than the
// configured cutoff. Each sweep counts against the stuck-job guard so a job
// that keeps stalling eventually fails instead of looping forever.
func (u *discoveryUC) ReapStale(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-u.tuning.StaleProcessingAfter)
	stale, err := u.jobs.ListStaleProcessing(ctx, nil, cutoff, 50)
	if err != nil {
		return 0, err
	}
	touched := 0
	for _, job := range stale {
		job.StaleInvocations++
		if job.StaleInvocations >= u.tuning.MaxStaleInvocations {
			if err := u.finish(ctx, job, model.JobStatusError,
				fmt.Sprintf("no progress after %d consecutive invocations", job.StaleInvocations)); err != nil {
				return touched, err
			}
			touched++
			continue
		}
		if err := u.jobs.UpdateProgress(ctx, nil, job); err != nil {
			return touched, err
		}
		if _, err := u.dispatcher.Dispatch(ctx, adapter.InvokePayload{JobID: job.ID, Attempt: job.StaleInvocations}, 0); err != nil {
			return touched, err
		}
		u.log.Warn().Str("job_id", job.ID).Int("stale_invocations", job.StaleInvocations).
			Msg("stale job re-dispatched")
		touched++
	}
	return touched, nil
}
