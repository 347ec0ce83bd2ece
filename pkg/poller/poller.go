// Package poller implements the polling scheduler (spec.md §4.6): a
// task table of per-node SNMP polls, a control channel for mutating
// it, and a single cooperative loop that wakes on the earliest due
// task instead of a fixed tick.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rs/zerolog"

	"github.com/unet-io/unet/pkg/derived"
	"github.com/unet-io/unet/pkg/log"
	"github.com/unet-io/unet/pkg/metrics"
	"github.com/unet-io/unet/pkg/snmp"
)

// TaskID identifies one scheduled poll.
type TaskID uuid.UUID

func (id TaskID) String() string { return uuid.UUID(id).String() }

// PollMode selects which C5 client operation a task uses.
type PollMode int

const (
	// ModeGet issues a single Get for the task's OIDs (system scalars).
	ModeGet PollMode = iota
	// ModeWalk walks the task's single base OID (interface table).
	ModeWalk
)

// Task is one entry in the scheduler's task table, per spec.md §4.6.
type Task struct {
	ID                  TaskID
	TargetAddress       string
	NodeID              uuid.UUID
	OIDs                []string
	Mode                PollMode
	Interval            time.Duration
	LastPoll            time.Time
	ConsecutiveFailures int
	Enabled             bool
	Session             snmp.SessionConfig
	NextDue             time.Time
}

func (t *Task) unhealthy(maxRetries int) bool {
	return t.ConsecutiveFailures >= maxRetries
}

// Config holds the polling section of the settings document
// (spec.md §6 "polling").
type Config struct {
	DefaultInterval        time.Duration
	MaxConcurrentPolls     int
	PollTimeout            time.Duration
	MaxRetries             int
	RetryBackoffMultiplier float64
	HealthCheckInterval    time.Duration
}

// DefaultConfig returns the defaults listed in spec.md §6.
func DefaultConfig() Config {
	return Config{
		DefaultInterval:        300 * time.Second,
		MaxConcurrentPolls:     10,
		PollTimeout:            30 * time.Second,
		MaxRetries:             3,
		RetryBackoffMultiplier: 2.0,
		HealthCheckInterval:    60 * time.Second,
	}
}

// snmpClient is the subset of *snmp.Client the poller calls. Accepting
// an interface here, rather than the concrete type, is what lets
// tests exercise the scheduling logic without a live UDP session.
type snmpClient interface {
	Get(ctx context.Context, cfg snmp.SessionConfig, oids []string) (map[string]snmp.Value, error)
	Walk(ctx context.Context, cfg snmp.SessionConfig, startOid string) ([]snmp.OidValue, error)
}

// Store is the subset of storage.Store the poller writes derived
// results into. storage.Store satisfies this structurally, the same
// pattern pkg/policy.NodeStore uses to avoid an import cycle.
type Store interface {
	PutSystemInfo(ctx context.Context, nodeID uuid.UUID, info *derived.SystemInfo) error
	PutInterfaceMetrics(ctx context.Context, nodeID uuid.UUID, metrics []derived.InterfaceMetrics) error
}

// nodeStatusWriter is implemented by backends that persist
// reachability (currently pkg/storage/relational only); it is not
// part of storage.Store, so the poller type-asserts for it.
type nodeStatusWriter interface {
	PutNodeStatus(ctx context.Context, nodeID uuid.UUID, reachable bool, checkedAt time.Time) error
}

// Poller is the C6 scheduler: a task table plus a control channel,
// run by a single goroutine per spec.md §4.6's cooperative-loop
// design.
type Poller struct {
	client snmpClient
	store  Store
	cfg    Config
	logger zerolog.Logger

	mu    sync.Mutex
	tasks map[TaskID]*Task

	controlCh chan controlMsg
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// New creates a Poller bound to client for SNMP exchanges and store
// for persisting derived results. client is typically *snmp.Client;
// the narrower interface here is what lets tests substitute a stub.
func New(client snmpClient, store Store, cfg Config) *Poller {
	return &Poller{
		client:    client,
		store:     store,
		cfg:       cfg,
		logger:    log.WithComponent("poller"),
		tasks:     map[TaskID]*Task{},
		controlCh: make(chan controlMsg, 256),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the main loop and the health-pruning loop in their
// own goroutines and returns immediately.
func (p *Poller) Start(ctx context.Context) {
	go p.run(ctx)
	go p.runHealthLoop(ctx)
}

// Stop signals Shutdown: both loops exit at their next iteration.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

// run is the production main loop: repeat RunSingleIteration forever
// until stopped, per spec.md §4.6's "test mode is identical save for
// the absence of the infinite outer loop".
func (p *Poller) run(ctx context.Context) {
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}
		p.RunSingleIteration(ctx)
	}
}

func (p *Poller) runHealthLoop(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.HealthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunHealthCheckOnce()
		}
	}
}

// RunSingleIteration performs one cycle of the main loop's three
// steps (drain control, compute earliest due, poll what's due). It is
// the deterministic test-mode entry point spec.md §4.6 calls
// "run_single_iteration".
func (p *Poller) RunSingleIteration(ctx context.Context) {
	p.drainControl()

	wait := p.timeUntilNextDue()
	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case msg := <-p.controlCh:
			timer.Stop()
			p.applyControl(msg)
			p.drainControl()
		case <-timer.C:
		case <-p.stopCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}

	p.pollDueTasks(ctx)
}

// RunHealthCheckOnce performs one health-pruning pass: disabled AND
// unhealthy tasks are removed; enabled unhealthy tasks are kept so
// operators can diagnose them.
func (p *Poller) RunHealthCheckOnce() {
	p.mu.Lock()
	defer p.mu.Unlock()

	unhealthy := 0
	for id, t := range p.tasks {
		if t.unhealthy(p.cfg.MaxRetries) {
			unhealthy++
		}
		if !t.Enabled && t.unhealthy(p.cfg.MaxRetries) {
			delete(p.tasks, id)
			unhealthy--
			p.logger.Info().Str("task_id", id.String()).Str("node_id", t.NodeID.String()).
				Msg("pruned disabled unhealthy task")
		}
	}
	metrics.TasksUnhealthy.Set(float64(unhealthy))
}

// timeUntilNextDue returns how long to sleep before the earliest
// enabled task comes due, or 0 if one is already due. When the table
// is empty or no task is enabled it returns DefaultInterval.
func (p *Poller) timeUntilNextDue() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.tasks) == 0 {
		return p.cfg.DefaultInterval
	}

	var earliest time.Time
	found := false
	for _, t := range p.tasks {
		if !t.Enabled {
			continue
		}
		if !found || t.NextDue.Before(earliest) {
			earliest = t.NextDue
			found = true
		}
	}
	if !found {
		return p.cfg.DefaultInterval
	}
	d := time.Until(earliest)
	if d < 0 {
		return 0
	}
	return d
}

func (p *Poller) dueTasks() []*Task {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	var due []*Task
	for _, t := range p.tasks {
		if t.Enabled && !t.NextDue.After(now) {
			due = append(due, t)
		}
	}
	return due
}

// pollDueTasks spawns one poll per due task; each runs concurrently,
// bounded by the SNMP client's own semaphore (spec.md §4.6 step 3:
// "spawn its poll on the SNMP client bounded by the global
// semaphore").
func (p *Poller) pollDueTasks(ctx context.Context) {
	due := p.dueTasks()
	if len(due) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, t := range due {
		wg.Add(1)
		go func(t *Task) {
			defer wg.Done()
			p.pollOne(ctx, t)
		}(t)
	}
	wg.Wait()
}

func (p *Poller) pollOne(ctx context.Context, t *Task) {
	pollCtx, cancel := context.WithTimeout(ctx, p.cfg.PollTimeout)
	defer cancel()

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.PollDuration)

	now := time.Now()
	var values map[string]snmp.Value
	var walked []snmp.OidValue
	var err error
	switch t.Mode {
	case ModeWalk:
		startOid := ""
		if len(t.OIDs) > 0 {
			startOid = t.OIDs[0]
		}
		walked, err = p.client.Walk(pollCtx, t.Session, startOid)
	default:
		values, err = p.client.Get(pollCtx, t.Session, t.OIDs)
	}

	p.mu.Lock()
	live, ok := p.tasks[t.ID]
	p.mu.Unlock()
	if !ok {
		// Task was removed while the poll was in flight; drop the result.
		return
	}

	if err != nil {
		metrics.PollsTotal.WithLabelValues("failure").Inc()
		p.recordFailure(live, now)
		p.logger.Warn().Str("task_id", t.ID.String()).Str("address", t.TargetAddress).
			Err(err).Msg("poll failed")
		return
	}

	metrics.PollsTotal.WithLabelValues("success").Inc()
	p.recordSuccess(live, now)
	p.persist(ctx, t, now, values, walked)
}

func (p *Poller) recordFailure(t *Task, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t.LastPoll = at
	t.ConsecutiveFailures++
	t.NextDue = at.Add(backoff(t.Interval, p.cfg.RetryBackoffMultiplier, t.ConsecutiveFailures))

	if w, ok := p.store.(nodeStatusWriter); ok {
		_ = w.PutNodeStatus(context.Background(), t.NodeID, false, at)
	}
}

func (p *Poller) recordSuccess(t *Task, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t.LastPoll = at
	t.ConsecutiveFailures = 0
	t.NextDue = at.Add(t.Interval)

	if w, ok := p.store.(nodeStatusWriter); ok {
		_ = w.PutNodeStatus(context.Background(), t.NodeID, true, at)
	}
}

// backoff computes interval × multiplier^failures, per spec.md §4.6's
// retry/backoff formula.
func backoff(interval time.Duration, multiplier float64, failures int) time.Duration {
	if failures <= 0 {
		return interval
	}
	scale := 1.0
	for i := 0; i < failures; i++ {
		scale *= multiplier
	}
	return time.Duration(float64(interval) * scale)
}

func (p *Poller) persist(ctx context.Context, t *Task, at time.Time, values map[string]snmp.Value, walked []snmp.OidValue) {
	switch t.Mode {
	case ModeWalk:
		metrics := buildInterfaceMetrics(t.NodeID, at, walked)
		if len(metrics) == 0 {
			return
		}
		if err := p.store.PutInterfaceMetrics(ctx, t.NodeID, metrics); err != nil {
			p.logger.Error().Str("node_id", t.NodeID.String()).Err(err).Msg("failed to persist interface metrics")
		}
	default:
		info := buildSystemInfo(t.NodeID, at, values)
		if err := p.store.PutSystemInfo(ctx, t.NodeID, info); err != nil {
			p.logger.Error().Str("node_id", t.NodeID.String()).Err(err).Msg("failed to persist system info")
		}
	}
}
