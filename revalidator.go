package httpcache

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Async Revalidator (spec.md §4.13): runs background revalidation for
// entries served stale under stale-while-revalidate, bounded by a
// semaphore-limited worker pool and a buffered job queue.

// revalidationJob is one unit of background work: revalidate key, using
// req as the template for the conditional request, against entry. attempt
// is the number of consecutive failures already recorded for key at
// schedule time, used to gate the job behind exponential backoff.
type revalidationJob struct {
	key     string
	req     *conditionalRequestTemplate
	entry   *Entry
	attempt int
}

// conditionalRequestTemplate carries just enough of the original request to
// rebuild a conditional GET later, without holding the original request
// (and its body, context, etc.) alive for the life of the job queue.
type conditionalRequestTemplate struct {
	method string
	url    string
	header map[string][]string
}

// Revalidator runs background revalidation jobs with bounded concurrency.
// AsyncWorkersMax callers may run Execute at once; additional jobs queue up
// to RevalidationQueueSize before Schedule starts returning ErrQueueFull.
type Revalidator struct {
	store    EntryStore
	executor OriginExecutor
	cfg      Config

	sem   *semaphore.Weighted
	queue chan revalidationJob

	mu            sync.Mutex
	inFlight      map[string]bool
	failures      map[string]int
	lastFailureAt map[string]time.Time

	wg     sync.WaitGroup
	closed chan struct{}
	once   sync.Once
}

// NewRevalidator constructs a Revalidator and starts its worker pool. Call
// Shutdown to stop accepting new jobs and wait for in-flight ones to drain.
func NewRevalidator(store EntryStore, executor OriginExecutor, cfg Config) *Revalidator {
	workers := cfg.AsyncWorkersMax
	if workers < 1 {
		workers = 1
	}
	queueSize := cfg.RevalidationQueueSize
	if queueSize < 1 {
		queueSize = 1
	}

	r := &Revalidator{
		store:         store,
		executor:      executor,
		cfg:           cfg,
		sem:           semaphore.NewWeighted(int64(workers)),
		queue:         make(chan revalidationJob, queueSize),
		inFlight:      make(map[string]bool),
		failures:      make(map[string]int),
		lastFailureAt: make(map[string]time.Time),
		closed:        make(chan struct{}),
	}

	r.wg.Add(1)
	go r.dispatch()

	return r
}

// Schedule enqueues a background revalidation for key unless one is already
// in flight or queued. Returns ErrQueueFull if the queue is saturated.
func (r *Revalidator) Schedule(key string, entry *Entry, template *conditionalRequestTemplate) error {
	r.mu.Lock()
	if r.inFlight[key] {
		r.mu.Unlock()
		return nil
	}
	r.inFlight[key] = true
	attempt := r.failures[key]
	r.mu.Unlock()

	select {
	case r.queue <- revalidationJob{key: key, req: template, entry: entry, attempt: attempt}:
		return nil
	default:
		r.mu.Lock()
		delete(r.inFlight, key)
		r.mu.Unlock()
		return ErrQueueFull
	}
}

// Shutdown stops accepting new jobs and waits for in-flight ones to finish.
func (r *Revalidator) Shutdown() {
	r.once.Do(func() {
		close(r.closed)
	})
	r.wg.Wait()
}

func (r *Revalidator) dispatch() {
	defer r.wg.Done()
	for {
		select {
		case job := <-r.queue:
			if err := r.sem.Acquire(context.Background(), 1); err != nil {
				return
			}
			r.wg.Add(1)
			go r.run(job)
		case <-r.closed:
			return
		}
	}
}

func (r *Revalidator) run(job revalidationJob) {
	defer r.wg.Done()
	defer r.sem.Release(1)
	defer func() {
		r.mu.Lock()
		delete(r.inFlight, job.key)
		r.mu.Unlock()
	}()

	if job.attempt > 0 && !r.backoffElapsed(job.key, job.attempt) {
		GetLogger().Debug("background revalidation skipped, backing off", "key", job.key, "attempt", job.attempt)
		return
	}

	ctx := context.Background()

	if err := r.revalidateOnce(ctx, job); err != nil {
		r.recordFailure(job.key)
		GetLogger().Warn("background revalidation failed", "key", job.key, "error", err)
		return
	}
	r.clearFailures(job.key)
}

// backoffElapsed reports whether enough time has passed since key's last
// recorded failure for it to be eligible to run again, per spec.md §4.13's
// consecutive-failure backoff: a key with attempt consecutive failures is
// skipped until backoffDelay(attempt) has elapsed since that failure.
func (r *Revalidator) backoffElapsed(key string, attempt int) bool {
	r.mu.Lock()
	last, ok := r.lastFailureAt[key]
	r.mu.Unlock()
	if !ok {
		return true
	}
	return systemClock.Now().Sub(last) >= backoffDelay(attempt)
}

func (r *Revalidator) revalidateOnce(ctx context.Context, job revalidationJob) error {
	req, err := buildTemplateRequest(ctx, job.req)
	if err != nil {
		return err
	}
	conditional := BuildConditionalRequest(req, job.entry)

	requestDate := systemClock.Now()
	resp, err := r.executor.Execute(ctx, conditional)
	if err != nil {
		return &ErrOriginIO{Err: err}
	}
	responseDate := systemClock.Now()
	defer resp.Body.Close()

	if resp.StatusCode == 304 {
		merged := MergeRevalidated(job.entry, conditional, resp, requestDate, responseDate)
		return r.store.Update(ctx, job.key, r.cfg.MaxUpdateRetries, func(cur *Entry, ok bool) (*Entry, error) {
			return merged, nil
		})
	}

	// A full response replaces the stale entry outright; storing the body
	// itself is the orchestrator's job on the foreground path, so a
	// background revalidation that gets a fresh body simply drops the
	// stale entry and lets the next request repopulate it.
	return r.store.Remove(ctx, job.key)
}

// recordFailure tracks consecutive background-revalidation failures per
// key and the time of the most recent one. The count is read back by
// Schedule (as a job's attempt) and checked by run via backoffElapsed,
// applying the spec's exponential backoff (2^attempt) before a key is
// eligible to actually execute again.
func (r *Revalidator) recordFailure(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[key]++
	r.lastFailureAt[key] = systemClock.Now()
}

func (r *Revalidator) clearFailures(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.failures, key)
	delete(r.lastFailureAt, key)
}

// backoffDelay returns 2^attempt seconds, capped to avoid overflow.
func backoffDelay(attempt int) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

// newConditionalRequestTemplate captures the parts of req a background
// revalidation needs, independent of req's lifetime.
func newConditionalRequestTemplate(req *http.Request) *conditionalRequestTemplate {
	return &conditionalRequestTemplate{
		method: req.Method,
		url:    req.URL.String(),
		header: map[string][]string(req.Header.Clone()),
	}
}

func buildTemplateRequest(ctx context.Context, tpl *conditionalRequestTemplate) (*http.Request, error) {
	u, err := url.Parse(tpl.url)
	if err != nil {
		return nil, err
	}
	req := &http.Request{
		Method: tpl.method,
		URL:    u,
		Header: http.Header(tpl.header).Clone(),
	}
	return req.WithContext(ctx), nil
}
