package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/clock"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/robfig/cron/v3"
)

// Defaults applied to zero Config values.
const (
	DefaultInterval = time.Minute
	DefaultLeadTime = 5 * time.Minute
)

// Config controls how often the scheduler ticks and how far ahead it looks.
type Config struct {
	Interval time.Duration
	LeadTime time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.LeadTime <= 0 {
		c.LeadTime = DefaultLeadTime
	}
	return c
}

// Scheduler polls a TaskSource on a cron schedule and delivers reminders
// for tasks entering their notification window.
type Scheduler struct {
	source   TaskSource
	notifier Notifier
	clock    clock.Clock
	config   Config
	logger   *slog.Logger

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewScheduler creates a Scheduler. A nil clock uses the system clock and a
// nil notifier logs reminders.
func NewScheduler(
	source TaskSource,
	notifier Notifier,
	clk clock.Clock,
	config Config,
	logger *slog.Logger,
) (*Scheduler, error) {
	if source == nil {
		return nil, errors.New("notification: task source cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "notification_scheduler"))
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	if clk == nil {
		clk = clock.System()
	}

	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		source:   source,
		notifier: notifier,
		clock:    clk,
		config:   config.withDefaults(),
		logger:   logger,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start registers the recurring tick and starts the cron runner. It is an
// error to start a scheduler twice or after Stop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return errors.New("notification: scheduler already started")
	}

	spec := "@every " + s.config.Interval.String()
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("notification: schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.started = true

	s.logger.Info("notification scheduler started",
		slog.Duration("interval", s.config.Interval),
		slog.Duration("lead_time", s.config.LeadTime))
	return nil
}

// Stop prevents further ticks, cancels the tick in flight and waits for it
// to return. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	done := s.cron.Stop()
	s.cancel()
	<-done.Done()
	s.logger.Info("notification scheduler stopped")
}

func (s *Scheduler) run() {
	tickLog := s.logger.With(slog.String("tick_id", uuid.NewString()))
	ctx := logger.WithLogger(s.ctx, tickLog)
	if _, err := s.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
		tickLog.Error("notification tick failed", slog.String("error", err.Error()))
	}
}

// Tick runs one pass: it selects tasks whose reminder falls in
// [now, now+lead], notifies each owner and marks the task notified. Errors
// on a single task are logged and skipped. It returns the number of tasks
// marked.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.clock.Now()

	due, err := s.source.DueForNotification(ctx, now, s.config.LeadTime)
	if err != nil {
		return 0, fmt.Errorf("select due reminders: %w", err)
	}
	if len(due) == 0 {
		log.Debug("no reminders due", slog.Time("now", now))
		return 0, nil
	}

	marked := 0
	for _, task := range due {
		if err := ctx.Err(); err != nil {
			return marked, err
		}
		taskLog := log.With(slog.String("task_id", task.ID.String()))

		if err := s.notifier.Notify(ctx, task); err != nil {
			taskLog.Error("failed to deliver reminder", slog.String("error", err.Error()))
			continue
		}

		ok, err := s.source.MarkNotified(ctx, task.ID)
		switch {
		case err != nil:
			taskLog.Error("failed to mark task notified", slog.String("error", err.Error()))
		case !ok:
			taskLog.Debug("task changed before it was marked")
		default:
			marked++
		}
	}

	log.Info("reminders processed",
		slog.Int("selected", len(due)),
		slog.Int("marked", marked))
	return marked, nil
}

// cronLogger routes cron's own logging into slog. Routine scheduling
// messages go to debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
