package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job publishes the posts scheduled for date
type Job func(ctx context.Context, date time.Time) error

// Daemon runs a Job once per day on a cron schedule
type Daemon struct {
	job         Job
	spec        string
	schedule    cron.Schedule
	location    *time.Location
	logger      *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	lastRunDate string     // Track last successful run date to avoid duplicates
	lastRunTime time.Time  // Track last successful run time
	mu          sync.Mutex // Protect against concurrent runs
	state       *StateManager
	now         func() time.Time
}

// Option configures a Daemon
type Option func(*Daemon)

// WithState persists the last run date so it survives restarts
func WithState(state *StateManager) Option {
	return func(d *Daemon) {
		d.state = state
	}
}

// New creates a daemon for a five-field cron expression evaluated in loc
func New(job Job, spec string, loc *time.Location, logger *zap.Logger, opts ...Option) (*Daemon, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule '%s': %w", spec, err)
	}
	if loc == nil {
		loc = time.Local
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		job:      job,
		spec:     spec,
		schedule: schedule,
		location: loc,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.state != nil {
		if err := d.state.Load(); err != nil {
			cancel()
			return nil, err
		}
		d.lastRunDate = d.state.LastRunDate()
	}

	return d, nil
}

// Start runs until Stop is called or SIGINT/SIGTERM arrives
func (d *Daemon) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			d.logger.Info("Received signal, shutting down",
				zap.String("signal", sig.String()))
			d.Stop()
		case <-d.ctx.Done():
		}
	}()

	return d.run()
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}

func (d *Daemon) run() error {
	d.logger.Info("Daemon started",
		zap.String("schedule", d.spec),
		zap.String("timezone", d.location.String()))

	// Catch up if today's run time already passed
	now := d.now().In(d.location)
	if scheduled, ok := d.scheduledToday(now); ok && now.After(scheduled) {
		d.logger.Info("Scheduled time already passed today, posting now",
			zap.Time("scheduled_time", scheduled),
			zap.Time("current_time", now))
		d.runScheduled()
	}

	for {
		now := d.now().In(d.location)
		next := d.NextRun(now)
		wait := next.Sub(now)
		d.logger.Info("Next post scheduled",
			zap.Time("next_run", next),
			zap.Duration("wait_duration", wait.Round(time.Second)))

		timer := time.NewTimer(wait)
		select {
		case <-d.ctx.Done():
			timer.Stop()
			d.logger.Info("Daemon stopped")
			return nil
		case <-timer.C:
			d.runScheduled()
		}
	}
}

func (d *Daemon) runScheduled() {
	if err := d.RunOnce(d.ctx); err != nil {
		d.logger.Error("Scheduled post failed", zap.Error(err))
	}
}

// NextRun returns the first scheduled time after t
func (d *Daemon) NextRun(t time.Time) time.Time {
	return d.schedule.Next(t.In(d.location))
}

// scheduledToday returns the first scheduled time on now's calendar day
func (d *Daemon) scheduledToday(now time.Time) (time.Time, bool) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, d.location)
	first := d.schedule.Next(midnight.Add(-time.Nanosecond))
	if first.IsZero() || first.YearDay() != now.YearDay() || first.Year() != now.Year() {
		return time.Time{}, false
	}
	return first, true
}

// RunOnce runs the job for today unless it already succeeded today
func (d *Daemon) RunOnce(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now().In(d.location)
	todayStr := now.Format("2006-01-02")
	if d.lastRunDate == todayStr {
		d.logger.Info("Already posted today, skipping to prevent duplicates",
			zap.String("last_run_date", d.lastRunDate),
			zap.Time("last_run_time", d.lastRunTime))
		return nil
	}

	// The queue keys posts by local calendar day
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	d.logger.Info("Posting for today", zap.String("date", todayStr))

	if err := d.job(ctx, date); err != nil {
		return fmt.Errorf("failed to post for %s: %w", todayStr, err)
	}

	d.lastRunDate = todayStr
	d.lastRunTime = d.now()

	if d.state != nil {
		// The post is out; a failed save must not trigger a second one
		if err := d.state.Record(todayStr, d.lastRunTime); err != nil {
			d.logger.Error("Failed to save daemon state", zap.Error(err))
		}
	}

	return nil
}

// LastRunDate returns the date of the last successful run, if any
func (d *Daemon) LastRunDate() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastRunDate
}
