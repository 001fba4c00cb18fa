package netstatus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/recipekit/pkg/events"
	"github.com/dmitrymomot/recipekit/pkg/logger"
	"github.com/dmitrymomot/recipekit/pkg/statemachine"
)

// Detector owns the live network status of the client.
type Detector struct {
	machine       *statemachine.Machine[Status]
	bus           *events.Bus[Change]
	prober        Prober
	probing       bool
	pollInterval  time.Duration
	slowThreshold time.Duration
	probeTimeout  time.Duration
	initial       Status
	bufferSize    int
	now           func() time.Time
	log           *slog.Logger

	mu         sync.Mutex
	lastOnline time.Time
	cancel     context.CancelFunc
	done       chan struct{}
}

// Option configures a Detector.
type Option func(*Detector)

func WithPollInterval(d time.Duration) Option {
	return func(det *Detector) {
		if d > 0 {
			det.pollInterval = d
		}
	}
}

// WithSlowThreshold sets the probe latency above which an online client is
// considered slow. Zero disables slow detection.
func WithSlowThreshold(d time.Duration) Option {
	return func(det *Detector) {
		if d >= 0 {
			det.slowThreshold = d
		}
	}
}

func WithProbeTimeout(d time.Duration) Option {
	return func(det *Detector) {
		if d > 0 {
			det.probeTimeout = d
		}
	}
}

// WithInitialStatus sets the status assumed before the first signal. Defaults to Online.
func WithInitialStatus(s Status) Option {
	return func(det *Detector) {
		if s.Valid() {
			det.initial = s
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(det *Detector) {
		if l != nil {
			det.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(det *Detector) {
		if now != nil {
			det.now = now
		}
	}
}

// WithBufferSize sets the per-subscriber event buffer.
func WithBufferSize(n int) Option {
	return func(det *Detector) { det.bufferSize = n }
}

// NewDetector creates a detector that probes with prober. With a nil prober
// the detector relies on platform signals: Check reports unreachable and
// Start does not poll.
func NewDetector(prober Prober, opts ...Option) *Detector {
	d := &Detector{
		prober:        prober,
		probing:       prober != nil,
		pollInterval:  DefaultPollInterval,
		slowThreshold: DefaultSlowThreshold,
		probeTimeout:  DefaultProbeTimeout,
		initial:       Online,
		now:           time.Now,
		log:           logger.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.prober == nil {
		d.prober = ProberFunc(func(context.Context) (time.Duration, error) { return 0, ErrNoProbeURL })
	}

	d.machine = NewMachine(d.initial)
	d.bus = events.NewBus(d.bufferSize, events.WithDropHandler(func(c Change) {
		d.log.Warn("network change dropped by a full subscriber",
			logger.NetworkStatus(c.To),
			slog.Uint64("dropped_total", d.bus.Dropped()),
		)
	}))
	d.log = d.log.With(logger.Component("netstatus"))
	if d.initial.IsOnline() {
		d.lastOnline = d.now()
	}
	return d
}

// NewDetectorFromConfig wires an HTTPProber from cfg. Without a ProbeURL the
// detector has no prober.
func NewDetectorFromConfig(cfg Config, opts ...Option) *Detector {
	var prober Prober
	if cfg.ProbeURL != "" {
		prober = NewHTTPProber(cfg.ProbeURL, cfg.ProbeMethod, cfg.ProbeTimeout, nil)
	}
	base := []Option{
		WithPollInterval(cfg.PollInterval),
		WithSlowThreshold(cfg.SlowThreshold),
		WithProbeTimeout(cfg.ProbeTimeout),
	}
	return NewDetector(prober, append(base, opts...)...)
}

func (d *Detector) Status() Status {
	return d.machine.Current()
}

func (d *Detector) IsOnline() bool {
	return d.Status().IsOnline()
}

// LastOnlineTime is the last moment the detector observed an online status.
func (d *Detector) LastOnlineTime() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastOnline
}

// Subscribe streams accepted status changes until ctx is cancelled.
func (d *Detector) Subscribe(ctx context.Context) events.Subscription[Change] {
	return d.bus.Subscribe(ctx)
}

// Set applies a platform signal. It returns the resulting change and whether
// the status actually moved; disallowed moves such as offline -> slow are ignored.
func (d *Detector) Set(status Status) (Change, bool) {
	if !status.Valid() {
		d.log.Warn("ignoring unknown network status", logger.NetworkStatus(status))
		return Change{}, false
	}

	now := d.now()
	from, err := d.machine.Transition(status)
	if d.machine.Current().IsOnline() {
		d.mu.Lock()
		d.lastOnline = now
		d.mu.Unlock()
	}
	if err != nil {
		if statemachine.IsNoTransitionAvailableError(err) {
			d.log.Debug("network status transition not allowed",
				slog.String("from", from.String()),
				slog.String("to", status.String()),
			)
		}
		return Change{}, false
	}

	change := Change{From: from, To: status, At: now}
	d.log.Info("network status changed",
		slog.String("from", from.String()),
		logger.NetworkStatus(status),
	)
	d.bus.Publish(context.Background(), change)
	return change, true
}

// DroppedChanges returns how many change deliveries were skipped because a
// subscriber's buffer was full.
func (d *Detector) DroppedChanges() uint64 {
	return d.bus.Dropped()
}

func (d *Detector) probe(ctx context.Context) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, d.probeTimeout)
	defer cancel()

	type result struct {
		latency time.Duration
		err     error
	}
	// Buffered so a prober that ignores ctx cannot leak the goroutine forever
	// blocked on send.
	ch := make(chan result, 1)
	go func() {
		latency, err := d.prober.Probe(ctx)
		ch <- result{latency, err}
	}()

	select {
	case r := <-ch:
		return r.latency, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Check probes the service and reports reachability. It never returns an
// error and never blocks past the probe timeout.
func (d *Detector) Check(ctx context.Context) bool {
	_, err := d.probe(ctx)
	if err != nil {
		d.log.DebugContext(ctx, "reachability probe failed", logger.Error(err))
	}
	return err == nil
}

// Refresh probes the service and folds the result into the status.
func (d *Detector) Refresh(ctx context.Context) Status {
	latency, err := d.probe(ctx)
	if ctx.Err() != nil {
		// Shutting down, not disconnected.
		return d.Status()
	}

	current := d.Status()
	next := Online
	switch {
	case err != nil:
		d.log.DebugContext(ctx, "reachability probe failed", logger.Error(err))
		next = Offline
	case current == Offline:
		next = Online
	case d.slowThreshold > 0 && latency > d.slowThreshold:
		next = Slow
	}

	if next != current {
		d.Set(next)
	} else if next.IsOnline() {
		d.mu.Lock()
		d.lastOnline = d.now()
		d.mu.Unlock()
	}
	return d.Status()
}

// Start launches periodic polling. The first probe runs immediately.
// Polling stops when ctx is cancelled or Stop is called. A detector without
// a prober is marked running but never probes.
func (d *Detector) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.cancel = cancel
	d.done = done

	if !d.probing {
		go func() {
			defer close(done)
			<-ctx.Done()
		}()
		d.log.Info("no reachability probe configured, following platform signals only")
		return nil
	}

	go func() {
		defer close(done)

		ticker := time.NewTicker(d.pollInterval)
		defer ticker.Stop()

		d.Refresh(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.Refresh(ctx)
			}
		}
	}()

	d.log.Debug("network polling started", slog.Duration("interval", d.pollInterval))
	return nil
}

// Running reports whether polling is active.
func (d *Detector) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancel != nil
}

// Stop cancels polling and waits for the poll loop to exit. Safe to call
// when not running.
func (d *Detector) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Close stops polling and ends all subscriptions.
func (d *Detector) Close() error {
	d.Stop()
	return d.bus.Close()
}
