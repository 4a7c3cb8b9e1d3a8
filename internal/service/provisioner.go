package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Harshitk-cp/tenantedge/internal/domain"
	"github.com/Harshitk-cp/tenantedge/internal/provider"
	"github.com/Harshitk-cp/tenantedge/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultProvisionWorkers     = 4
	defaultProvisionQueueSize   = 256
	defaultProvisionMaxAttempts = 3
	defaultProvisionBackoff     = 2 * time.Second
	defaultProvisionMaxBackoff  = 30 * time.Second
	provisionJobTimeout         = 60 * time.Second
	defaultReadyPollInterval    = 5 * time.Second
	defaultReadyMaxPolls        = 120
)

var (
	ErrQueueFull       = errors.New("provisioning queue is full")
	ErrBuildNotFound   = errors.New("no build known for tenant")
	ErrProvisionerDown = errors.New("provisioner is stopped")
	ErrBuildNotReady   = errors.New("build did not become ready in time")
)

// BuildProvider is the part of BuildService the provisioner drives.
type BuildProvider interface {
	GetOrCreateBuildURL(ctx context.Context, tenantID, workspaceID string) (string, error)
}

type provisionJob struct {
	id          uuid.UUID
	tenantID    string
	workspaceID string
}

type jobState struct {
	id   uuid.UUID
	done bool
	err  error
}

// Provisioner runs build creation off the request path. Requests are
// answered from the registry when possible and otherwise queued; at most
// one job per tenant is queued or running.
type Provisioner struct {
	builds   BuildProvider
	registry domain.BuildRegistry
	logger   *zap.Logger

	workers     int
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration

	pollInterval time.Duration
	maxPolls     int

	queue chan provisionJob

	mu   sync.Mutex
	jobs map[string]*jobState

	ctx     context.Context
	cancel  context.CancelFunc
	stopCh  chan struct{}
	stopped bool
	wg      sync.WaitGroup
}

func NewProvisioner(builds BuildProvider, registry domain.BuildRegistry, logger *zap.Logger) *Provisioner {
	return NewProvisionerWithOptions(builds, registry, logger, defaultProvisionWorkers, defaultProvisionQueueSize, defaultProvisionMaxAttempts)
}

func NewProvisionerWithOptions(builds BuildProvider, registry domain.BuildRegistry, logger *zap.Logger, workers, queueSize, maxAttempts int) *Provisioner {
	if workers <= 0 {
		workers = defaultProvisionWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultProvisionQueueSize
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultProvisionMaxAttempts
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Provisioner{
		builds:       builds,
		registry:     registry,
		logger:       logger,
		workers:      workers,
		maxAttempts:  maxAttempts,
		backoff:      defaultProvisionBackoff,
		maxBackoff:   defaultProvisionMaxBackoff,
		pollInterval: defaultReadyPollInterval,
		maxPolls:     defaultReadyMaxPolls,
		queue:        make(chan provisionJob, queueSize),
		jobs:         make(map[string]*jobState),
		ctx:          ctx,
		cancel:       cancel,
		stopCh:       make(chan struct{}),
	}
}

// SetBackoff sets the delay before the second attempt and its cap.
// Each further attempt doubles the delay.
func (p *Provisioner) SetBackoff(base, max time.Duration) {
	p.backoff = base
	p.maxBackoff = max
}

// SetPolling sets how often a created but unfinished build is re-checked
// and how many checks are made before the job is reported failed.
func (p *Provisioner) SetPolling(interval time.Duration, maxPolls int) {
	if interval > 0 {
		p.pollInterval = interval
	}
	if maxPolls > 0 {
		p.maxPolls = maxPolls
	}
}

// Start launches the worker pool.
func (p *Provisioner) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case job := <-p.queue:
					p.run(job)
				case <-p.stopCh:
					return
				}
			}
		}()
	}
	p.logger.Info("build provisioner started", zap.Int("workers", p.workers))
}

// Stop cancels in-flight jobs and waits for the workers to exit.
func (p *Provisioner) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.stopCh)
	p.cancel()
	p.wg.Wait()
	p.logger.Info("build provisioner stopped")
}

// Request never waits on the provider. A tenant with an active build gets
// it back immediately; anyone else gets a pending status and a queued job.
func (p *Provisioner) Request(ctx context.Context, tenantID, workspaceID string) domain.ProvisionStatus {
	status := domain.ProvisionStatus{TenantID: tenantID}
	if tenantID == "" {
		status.State = domain.ProvisionFailed
		status.Error = ErrTenantRequired.Error()
		return status
	}

	info, err := p.registry.Get(ctx, tenantID)
	if err == nil && info.Active {
		status.State = domain.ProvisionReady
		status.URL = info.BuildURL
		return status
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		p.logger.Warn("build registry lookup failed", zap.String("tenant_id", tenantID), zap.Error(err))
	}
	if info != nil {
		status.URL = info.BuildURL
	}

	if err := p.enqueue(tenantID, workspaceID); err != nil {
		status.State = domain.ProvisionFailed
		status.Error = err.Error()
		return status
	}
	status.State = domain.ProvisionPending
	return status
}

func (p *Provisioner) enqueue(tenantID, workspaceID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrProvisionerDown
	}
	if st, ok := p.jobs[tenantID]; ok && !st.done {
		return nil
	}

	job := provisionJob{id: uuid.New(), tenantID: tenantID, workspaceID: workspaceID}
	select {
	case p.queue <- job:
		p.jobs[tenantID] = &jobState{id: job.id}
		p.logger.Debug("provisioning job queued",
			zap.String("job_id", job.id.String()),
			zap.String("tenant_id", tenantID))
		return nil
	default:
		p.logger.Warn("provisioning queue full", zap.String("tenant_id", tenantID))
		return ErrQueueFull
	}
}

// Status reports the tenant's provisioning state.
func (p *Provisioner) Status(ctx context.Context, tenantID string) (domain.ProvisionStatus, error) {
	status := domain.ProvisionStatus{TenantID: tenantID}

	p.mu.Lock()
	st, tracked := p.jobs[tenantID]
	var jobDone bool
	var jobErr error
	if tracked {
		jobDone, jobErr = st.done, st.err
	}
	p.mu.Unlock()

	info, err := p.registry.Get(ctx, tenantID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return status, err
	}
	if info != nil {
		status.URL = info.BuildURL
	}

	switch {
	case info != nil && info.Active:
		status.State = domain.ProvisionReady
	case tracked && !jobDone:
		status.State = domain.ProvisionPending
	case tracked && jobErr != nil:
		status.State = domain.ProvisionFailed
		status.Error = "build provisioning failed"
	case info != nil:
		status.State = domain.ProvisionPending
	default:
		return status, ErrBuildNotFound
	}
	return status, nil
}

func (p *Provisioner) run(job provisionJob) {
	log := p.logger.With(
		zap.String("job_id", job.id.String()),
		zap.String("tenant_id", job.tenantID),
		zap.String("workspace_id", job.workspaceID))

	var err error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(p.ctx, provisionJobTimeout)
		var url string
		url, err = p.builds.GetOrCreateBuildURL(ctx, job.tenantID, job.workspaceID)
		cancel()
		if err == nil {
			log.Info("build provisioned", zap.String("url", url), zap.Int("attempt", attempt))
			err = p.awaitReady(job, log)
			break
		}

		log.Warn("build provisioning attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("status", provider.StatusCode(err)),
			zap.Error(err))

		if errors.Is(err, ErrTenantRequired) || attempt == p.maxAttempts || permanent(err) {
			break
		}
		if !p.wait(p.delay(attempt, err)) {
			break
		}
	}

	p.finish(job, err)
	if err != nil {
		log.Error("build provisioning failed", zap.Error(err))
	}
}

// awaitReady keeps the job alive until the tenant's registry entry is
// active. Each check goes through BuildService, which asks the provider for
// the stored deployment's state and replaces builds that errored.
func (p *Provisioner) awaitReady(job provisionJob, log *zap.Logger) error {
	for poll := 0; ; poll++ {
		info, err := p.registry.Get(p.ctx, job.tenantID)
		if err == nil && info.Active {
			return nil
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Warn("build registry lookup failed", zap.Error(err))
		}
		if poll == p.maxPolls {
			return ErrBuildNotReady
		}
		if !p.wait(p.pollInterval) {
			return ErrProvisionerDown
		}

		ctx, cancel := context.WithTimeout(p.ctx, provisionJobTimeout)
		_, err = p.builds.GetOrCreateBuildURL(ctx, job.tenantID, job.workspaceID)
		cancel()
		if err != nil {
			if permanent(err) {
				return err
			}
			log.Debug("build readiness check failed", zap.Int("poll", poll+1), zap.Error(err))
		}
	}
}

// permanent reports provider rejections that a retry cannot fix, such as
// 4xx other than 429.
func permanent(err error) bool {
	var pe *provider.Error
	return errors.As(err, &pe) && !provider.Temporary(err)
}

// delay returns the backoff before attempt+1, honoring a provider
// Retry-After hint up to maxBackoff.
func (p *Provisioner) delay(attempt int, err error) time.Duration {
	d := p.backoff << (attempt - 1)
	var pe *provider.Error
	if errors.As(err, &pe) && pe.RetryAfter > d {
		d = pe.RetryAfter
	}
	if d > p.maxBackoff {
		d = p.maxBackoff
	}
	return d
}

func (p *Provisioner) wait(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-p.stopCh:
		return false
	}
}

func (p *Provisioner) finish(job provisionJob, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.jobs[job.tenantID]
	if !ok || st.id != job.id {
		return
	}
	if err == nil {
		delete(p.jobs, job.tenantID)
		return
	}
	st.done = true
	st.err = err
}
