package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Coordinator bridges one telephony connection to one backend connection.
// It is single use.
type Coordinator struct {
	cfg       Config
	telephony Telephony
	dial      DialFunc
	logger    *slog.Logger
	observers []Observer

	session *CallSession
	stats   Stats
	backend Backend
	playout *playout

	// sendMu orders writes to the caller so that a clear issued on barge-in
	// is never overtaken by audio of the truncated item.
	sendMu sync.Mutex

	started   atomic.Bool
	closeOnce sync.Once
	cancel    context.CancelFunc
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the base logger. The call id is attached to it.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver adds a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithCallID overrides the generated call id.
func WithCallID(id string) Option {
	return func(c *Coordinator) {
		if id != "" {
			c.session.id = id
		}
	}
}

// NewCoordinator prepares a call. Zero fields of cfg take defaults; the
// result must pass Validate.
func NewCoordinator(telephony Telephony, dial DialFunc, cfg Config, opts ...Option) (*Coordinator, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if telephony == nil || dial == nil {
		return nil, fmt.Errorf("%w: telephony and backend dialer are required", ErrConfigurationInvalid)
	}

	c := &Coordinator{
		cfg:       cfg,
		telephony: telephony,
		dial:      dial,
		logger:    slog.Default(),
		session:   NewCallSession(uuid.NewString(), cfg.MarkName, cfg.MaxPendingMarks),
		playout:   newPlayout(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("call_id", c.session.ID())
	return c, nil
}

// ID returns the call id.
func (c *Coordinator) ID() string {
	return c.session.ID()
}

// Session returns the shared call state.
func (c *Coordinator) Session() *CallSession {
	return c.session
}

// Stats returns the live call counters.
func (c *Coordinator) Stats() *Stats {
	return &c.stats
}

// Run dials the backend, configures it and relays audio until either side
// ends. Both connections are closed when Run returns. A normal hang-up
// returns nil.
func (c *Coordinator) Run(ctx context.Context) (err error) {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	ctx, c.cancel = context.WithCancel(ctx)
	defer c.cancel()

	startedAt := time.Now()
	for _, o := range c.observers {
		o.CallStarted(c.ID())
	}
	defer func() {
		c.publish(startedAt, err)
	}()

	c.logger.Info("call accepted")

	backend, err := c.dial(ctx)
	if err != nil {
		c.telephony.Close()
		return fmt.Errorf("bridge: dial backend: %w", err)
	}
	c.backend = backend

	stop := context.AfterFunc(ctx, c.closeBoth)
	defer stop()

	if err := backend.Configure(c.cfg); err != nil {
		c.closeBoth()
		return fmt.Errorf("bridge: configure backend: %w", err)
	}
	if c.cfg.Greeting != "" {
		if err := backend.Greet(c.cfg.Greeting); err != nil {
			c.closeBoth()
			return fmt.Errorf("bridge: greet: %w", err)
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		defer c.closeBoth()
		return c.guard("inbound", func() error { return c.runInbound(ctx) })
	})
	g.Go(func() error {
		defer c.closeBoth()
		return c.guard("outbound", func() error { return c.runOutbound(ctx) })
	})
	g.Go(func() error {
		defer c.closeBoth()
		return c.guard("playout", func() error { return c.runPlayout(ctx) })
	})
	return g.Wait()
}

// guard converts a relay panic into an error so the call is torn down
// instead of the process.
func (c *Coordinator) guard(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("relay panic", "relay", name, "panic", r)
			err = fmt.Errorf("bridge: %s relay panic: %v", name, r)
		}
	}()
	return fn()
}

// closeBoth tears the call down. It is safe to call from any goroutine and
// more than once.
func (c *Coordinator) closeBoth() {
	c.closeOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		if err := c.telephony.Close(); err != nil {
			c.logger.Debug("close telephony", "error", err)
		}
		if c.backend != nil {
			if err := c.backend.Close(); err != nil {
				c.logger.Debug("close backend", "error", err)
			}
		}
	})
}

func (c *Coordinator) publish(startedAt time.Time, err error) {
	completed, truncated := c.session.ItemCounts()
	summary := Summary{
		CallID:         c.ID(),
		StreamID:       c.session.StreamID(),
		CallSID:        c.session.CallSID(),
		StartedAt:      startedAt,
		EndedAt:        time.Now(),
		ItemsCompleted: completed,
		ItemsTruncated: truncated,
		Stats:          c.stats.Snapshot(),
		Err:            err,
	}

	attrs := []any{
		"stream_sid", summary.StreamID,
		"duration", summary.Duration().Round(time.Millisecond),
		"frames_in", summary.Stats.FramesIn,
		"frames_dropped", summary.Stats.FramesDropped,
		"chunks_out", summary.Stats.ChunksOut,
		"truncations", summary.Stats.Truncations,
	}
	if err != nil {
		c.logger.Warn("call ended", append(attrs, "error", err)...)
	} else {
		c.logger.Info("call ended", attrs...)
	}

	for _, o := range c.observers {
		o.CallEnded(summary)
	}
}
