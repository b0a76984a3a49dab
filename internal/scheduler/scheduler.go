package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
	"github.com/davelindo/eero-menu-bar-sub001/internal/snapshot"
)

const (
	DefaultSchedule = "*/5 * * * *"
	DefaultTimeout  = 2 * time.Minute
)

// now is swapped in tests.
var now = time.Now

var (
	Refreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eero_snapshot_refreshes_total",
			Help: "Scheduled snapshot refreshes by result.",
		},
		[]string{"result"},
	)
	LastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "eero_snapshot_last_success_timestamp_seconds",
			Help: "Unix time of the last successful snapshot refresh.",
		},
	)
)

// SnapshotStore receives every successful snapshot and hands back the last
// one for a filter when a refresh fails.
type SnapshotStore interface {
	Put(filter map[string]struct{}, snap *models.AccountSnapshot)
	Get(filter map[string]struct{}) (*models.AccountSnapshot, bool)
}

// UsageSink persists usage history. Failures are logged, never fatal.
type UsageSink interface {
	StoreSnapshot(ctx context.Context, snap *models.AccountSnapshot) error
}

// HealthReporter is told whether the last refresh succeeded.
type HealthReporter interface {
	Report(serving bool)
}

type Scheduler struct {
	ctx      context.Context
	fetcher  snapshot.Fetcher
	store    SnapshotStore
	sink     UsageSink
	health   HealthReporter
	filter   map[string]struct{}
	schedule string
	timeout  time.Duration
	stale    time.Duration
	logger   *logrus.Logger
	cron     *cron.Cron
}

type Option func(*Scheduler)

func WithSink(sink UsageSink) Option { return func(s *Scheduler) { s.sink = sink } }

func WithHealth(health HealthReporter) Option { return func(s *Scheduler) { s.health = health } }

func WithFilter(filter map[string]struct{}) Option { return func(s *Scheduler) { s.filter = filter } }

func WithSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithStaleAfter keeps the service healthy through failed refreshes while
// the cached snapshot is younger than d. Zero disables the grace period.
func WithStaleAfter(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.stale = d
		}
	}
}

func NewScheduler(ctx context.Context, fetcher snapshot.Fetcher, store SnapshotStore, logger *logrus.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		ctx:      ctx,
		fetcher:  fetcher,
		store:    store,
		schedule: DefaultSchedule,
		timeout:  DefaultTimeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	cronLogger := cron.PrintfLogger(logger)
	s.cron = cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))
	return s
}

// Start registers the refresh job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.collect); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) collect() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.WithError(err).Error("Failed to refresh snapshot")
	}
}

// RunOnce fetches one snapshot and fans it out to the store, the usage sink
// and the health reporter. On failure the error is returned; health stays
// serving while the cached snapshot is within the stale-after window.
func (s *Scheduler) RunOnce(ctx context.Context) (*models.AccountSnapshot, error) {
	start := time.Now()
	snap, err := s.fetcher.FetchAccountSnapshot(ctx, s.filter)
	if err != nil {
		Refreshes.WithLabelValues("error").Inc()
		s.report(s.cachedIsFresh())
		return nil, err
	}

	s.store.Put(s.filter, snap)
	if s.sink != nil {
		if err := s.sink.StoreSnapshot(ctx, snap); err != nil {
			s.logger.WithError(err).Warn("Failed to store usage history")
		}
	}

	Refreshes.WithLabelValues("success").Inc()
	LastSuccess.Set(float64(snap.FetchedAt.Unix()))
	s.report(true)
	s.logger.WithFields(logrus.Fields{
		"networks": len(snap.Networks),
		"duration": time.Since(start),
	}).Info("Snapshot refreshed")
	return snap, nil
}

func (s *Scheduler) cachedIsFresh() bool {
	if s.stale <= 0 {
		return false
	}
	cached, ok := s.store.Get(s.filter)
	if !ok {
		return false
	}
	age := now().Sub(cached.FetchedAt)
	if age > s.stale {
		return false
	}
	s.logger.WithField("age", age).Warn("Serving cached snapshot")
	return true
}

func (s *Scheduler) report(serving bool) {
	if s.health != nil {
		s.health.Report(serving)
	}
}

// Stop the scheduler and wait for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
