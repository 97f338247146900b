package workload

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/qlibin/event-attendees/eventrepo"
	"github.com/qlibin/event-attendees/ratecounter"
	"github.com/qlibin/event-attendees/striping"
)

const (
	defaultOperationTimeout = 5 * time.Second
	logMsgStarting          = "workload starting"
	logMsgRunning           = "workload running"
	logMsgStopping          = "workload stopping"
	logMsgStopped           = "workload stopped"
	logMsgWriteFailed       = "write failed"
	logMsgReadFailed        = "read failed"
	logMsgCountFailed       = "counting stored events failed"
	logAttrRunID            = "run_id"
	logAttrWriters          = "writers"
	logAttrReaders          = "readers"
	logAttrStripes          = "stripes"
	logAttrOperation        = "operation"
	logAttrEventID          = "event_id"
	logAttrFrom             = "from"
	logAttrUntil            = "until"
	logAttrAttendees        = "attendees"
	logAttrError            = "error"
	logAttrTotalWrites      = "total_writes"
	logAttrTotalReads       = "total_reads"
	logAttrTotalErrors      = "total_errors"
	logAttrDurationSeconds  = "duration_seconds"
	operationWrite          = "create_or_update"
	operationRead           = "find_events"
)

var (
	ErrAlreadyStarted = errors.New("workload harness was already started")
	ErrNotStopped     = errors.New("workload harness has not stopped yet")
	ErrNilRepository  = errors.New("repository must not be nil")
	ErrWritePanicked  = errors.New("store call panicked during write")
)

// Repository is what the tasks need from the event store.
type Repository interface {
	CreateOrUpdate(
		ctx context.Context,
		id eventrepo.EventID,
		startTime eventrepo.StartTime,
		attendees eventrepo.AttendeeSet,
	) error

	FindEvents(
		ctx context.Context,
		from eventrepo.StartTime,
		until eventrepo.StartTime,
		attendees eventrepo.AttendeeSet,
	) ([]eventrepo.Event, error)
}

// EventCounter is optionally implemented by a Repository to put the stored event count into the Summary.
type EventCounter interface {
	CountEvents(ctx context.Context) (int, error)
}

// State is the lifecycle state of a Harness.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Harness owns the writer and reader tasks of one run.
type Harness struct {
	repo             Repository
	cfg              Config
	logger           eventrepo.Logger
	rng              RandomSource
	counter          *ratecounter.Counter
	sinks            []ratecounter.Sink
	stripeHash       striping.HashFunc
	operationTimeout time.Duration

	state     atomic.Int32
	lockBusy  atomic.Int64
	start     chan struct{}
	startOnce sync.Once

	mu      sync.Mutex
	summary Summary
}

// Option defines a functional option for configuring a Harness.
type Option func(*Harness)

// WithLogger sets the logger for the Harness and, unless WithSinks is used, for the throughput log.
func WithLogger(logger eventrepo.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// WithRandomSource replaces DefaultRandomSource.
func WithRandomSource(rng RandomSource) Option {
	return func(h *Harness) {
		h.rng = rng
	}
}

// WithCounter lets the caller observe the counters while the harness runs.
func WithCounter(counter *ratecounter.Counter) Option {
	return func(h *Harness) {
		h.counter = counter
	}
}

// WithSinks replaces the default throughput log sink.
func WithSinks(sinks ...ratecounter.Sink) Option {
	return func(h *Harness) {
		h.sinks = sinks
	}
}

// WithStripeHash selects how event ids are mapped onto lock stripes.
func WithStripeHash(hash striping.HashFunc) Option {
	return func(h *Harness) {
		h.stripeHash = hash
	}
}

// WithOperationTimeout bounds every single store call.
func WithOperationTimeout(timeout time.Duration) Option {
	return func(h *Harness) {
		h.operationTimeout = timeout
	}
}

// NewHarness creates a Harness in StateIdle.
func NewHarness(repo Repository, cfg Config, options ...Option) (*Harness, error) {
	if repo == nil {
		return nil, ErrNilRepository
	}

	h := &Harness{
		repo:             repo,
		cfg:              cfg,
		rng:              DefaultRandomSource(),
		stripeHash:       striping.ModuloHash,
		operationTimeout: defaultOperationTimeout,
		start:            make(chan struct{}),
	}

	for _, option := range options {
		option(h)
	}

	if h.counter == nil {
		h.counter = ratecounter.NewCounter()
	}

	if h.sinks == nil {
		h.sinks = []ratecounter.Sink{ratecounter.NewLogSink(h.logger)}
	}

	return h, nil
}

// State returns the current lifecycle state.
func (h *Harness) State() State {
	return State(h.state.Load())
}

// Counter returns the counters the tasks increment.
func (h *Harness) Counter() *ratecounter.Counter {
	return h.counter
}

// Start releases the start barrier. It is only needed when Config.StartAutomatically is false
// and may be called before or during Run. Further calls are no-ops.
func (h *Harness) Start() {
	h.startOnce.Do(func() {
		close(h.start)
	})
}

// Run validates the configuration, starts all tasks and blocks until ctx is cancelled and every
// task has returned. Configuration errors are returned before any task is spawned.
func (h *Harness) Run(ctx context.Context) error {
	if err := h.cfg.Validate(); err != nil {
		return err
	}

	if !h.state.CompareAndSwap(int32(StateIdle), int32(StateStarting)) {
		return ErrAlreadyStarted
	}

	registry, err := striping.NewRegistry(h.cfg.StripeCount(), striping.WithHashFunc(h.stripeHash))
	if err != nil {
		return err
	}

	sampler, err := ratecounter.NewSampler(h.counter, h.cfg.ReportInterval, ratecounter.WithSinks(h.sinks...))
	if err != nil {
		return err
	}

	runID := newRunID()
	h.logInfo(
		logMsgStarting,
		logAttrRunID, runID,
		logAttrWriters, h.cfg.WriterCount,
		logAttrReaders, h.cfg.ReaderCount,
		logAttrStripes, registry.StripeCount(),
	)

	var (
		group errgroup.Group
		ready sync.WaitGroup
	)

	ready.Add(h.cfg.WriterCount + h.cfg.ReaderCount)

	for range h.cfg.WriterCount {
		group.Go(func() error {
			h.runWriter(ctx, registry, &ready)
			return nil
		})
	}

	for range h.cfg.ReaderCount {
		group.Go(func() error {
			h.runReader(ctx, &ready)
			return nil
		})
	}

	ready.Wait()

	if h.cfg.StartAutomatically {
		h.Start()
	}

	var startedAt time.Time

	select {
	case <-h.start:
		startedAt = time.Now()
		h.state.Store(int32(StateRunning))
		h.logInfo(logMsgRunning, logAttrRunID, runID)

		group.Go(func() error {
			sampler.Run(ctx)
			return nil
		})

	case <-ctx.Done():
		startedAt = time.Now()
	}

	<-ctx.Done()

	h.state.Store(int32(StateStopping))
	h.logInfo(logMsgStopping, logAttrRunID, runID)

	_ = group.Wait()

	summary := h.buildSummary(ctx, runID, startedAt, time.Now())

	h.mu.Lock()
	h.summary = summary
	h.mu.Unlock()

	h.state.Store(int32(StateStopped))
	h.logInfo(
		logMsgStopped,
		logAttrRunID, runID,
		logAttrTotalWrites, summary.Totals.Writes,
		logAttrTotalReads, summary.Totals.Reads,
		logAttrTotalErrors, summary.Totals.Errors,
		logAttrDurationSeconds, summary.DurationSeconds,
	)

	return nil
}

// Summary returns the result of a finished run.
func (h *Harness) Summary() (Summary, error) {
	if h.State() != StateStopped {
		return Summary{}, ErrNotStopped
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.summary, nil
}

// awaitStart marks the task as ready and blocks until the barrier is released.
// It returns false if ctx was cancelled first.
func (h *Harness) awaitStart(ctx context.Context, ready *sync.WaitGroup) bool {
	ready.Done()

	select {
	case <-h.start:
		return true
	case <-ctx.Done():
		return false
	}
}

// operationContext detaches a store call from run cancellation and bounds it by the operation timeout.
func (h *Harness) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), h.operationTimeout)
}

func (h *Harness) logInfo(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Info(msg, args...)
	}
}

func (h *Harness) logError(msg string, err error, args ...any) {
	if h.logger != nil {
		h.logger.Error(msg, append(args, logAttrError, err.Error())...)
	}
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
