package warmer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/godilite/freshness-server/internal/cachecoord"
	"github.com/godilite/freshness-server/internal/metrics"
	"github.com/godilite/freshness-server/internal/repository/models"
	"github.com/godilite/freshness-server/internal/service"
	"github.com/godilite/freshness-server/pkg/cache"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrPassInProgress = errors.New("warm pass already in progress")

const (
	DefaultInterval    = 30 * time.Minute
	DefaultTaskTimeout = 2 * time.Minute

	popularWindow = 7 * 24 * time.Hour
	popularLimit  = 50

	recentWindow = 24 * time.Hour
	recentLimit  = 100

	activeWindow     = 7 * 24 * time.Hour
	activeMinRatings = 5
	activeLimit      = 50
)

// Ledger is the read side of the rating ledger the warmer selects keys from.
type Ledger interface {
	PopularLocations(ctx context.Context, since time.Time, limit int) ([]models.LocationActivity, error)
	RecentlyRatedLocations(ctx context.Context, since time.Time, limit int) ([]string, error)
	ActiveLocations(ctx context.Context, since time.Time, minRatings, limit int) ([]models.LocationActivity, error)
}

// Views recomputes derived views and overwrites their cache entries.
type Views interface {
	RefreshLocationDetails(ctx context.Context, ids []string) (int, error)
	RefreshNearby(ctx context.Context, q service.NearbyQuery) (int, error)
	RefreshLocationStats(ctx context.Context, ids []string) (int, error)
}

// Ranker writes the hot:locations ranking.
type Ranker interface {
	TTL(v cachecoord.View) time.Duration
	RankReplace(ctx context.Context, key string, ttl time.Duration, members []cache.ScoredMember) bool
}

// Warmer proactively recomputes the most requested views on a fixed cadence.
// At most one pass runs at a time; Stop waits for the in-flight pass up to
// its context's deadline.
type Warmer struct {
	ledger      Ledger
	views       Views
	ranker      Ranker
	regions     []Region
	taskTimeout time.Duration
	now         func() time.Time
	logger      *zap.Logger

	passMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	abort  context.CancelFunc
	done   chan struct{}
}

type Option func(*Warmer)

func WithRegions(regions []Region) Option {
	return func(w *Warmer) { w.regions = regions }
}

func WithTaskTimeout(d time.Duration) Option {
	return func(w *Warmer) {
		if d > 0 {
			w.taskTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Warmer) { w.now = now }
}

func New(ledger Ledger, views Views, ranker Ranker, logger *zap.Logger, opts ...Option) *Warmer {
	if ledger == nil || views == nil || ranker == nil {
		panic("nil dependency provided to warmer.New")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Warmer{
		ledger:      ledger,
		views:       views,
		ranker:      ranker,
		regions:     MetroRegions,
		taskTimeout: DefaultTaskTimeout,
		now:         time.Now,
		logger:      logger.Named("cache-warmer"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start runs one pass immediately and then one every interval until Stop is
// called or ctx is done. Calling Start again replaces the running schedule.
func (w *Warmer) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.stopLocked(context.Background())

	loopCtx, cancel := context.WithCancel(ctx)
	// passes outlive the schedule; only abort cuts one short
	passCtx, abort := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	w.cancel, w.abort, w.done = cancel, abort, done

	go w.loop(loopCtx, passCtx, interval, done)
	w.logger.Info("cache warmer started", zap.Duration("interval", interval))
}

// Stop cancels the schedule and waits for an in-flight pass to finish. If
// ctx ends first the pass is aborted, Stop waits for its tasks to unwind and
// returns ctx.Err().
func (w *Warmer) Stop(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel == nil {
		return nil
	}
	err := w.stopLocked(ctx)
	if err != nil {
		w.logger.Warn("cache warmer stopped, in-flight pass aborted", zap.Error(err))
		return err
	}
	w.logger.Info("cache warmer stopped")
	return nil
}

func (w *Warmer) stopLocked(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()

	var err error
	select {
	case <-w.done:
	case <-ctx.Done():
		err = ctx.Err()
		w.abort()
		<-w.done
	}
	w.abort()
	w.cancel, w.abort, w.done = nil, nil, nil
	return err
}

func (w *Warmer) loop(ctx, passCtx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	_ = w.RunPass(passCtx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = w.RunPass(passCtx)
		}
	}
}

// RunPass runs the four warm tasks concurrently and returns their combined
// errors. A task failure never stops its siblings. If a pass is already
// running it returns ErrPassInProgress without doing anything.
func (w *Warmer) RunPass(ctx context.Context) error {
	if !w.passMu.TryLock() {
		metrics.WarmPassesSkipped.Inc()
		w.logger.Debug("warm pass skipped, previous pass still running")
		return ErrPassInProgress
	}
	defer w.passMu.Unlock()

	logger := w.logger.With(zap.String("pass_id", uuid.NewString()))
	start := time.Now()
	logger.Info("warm pass started")

	err := w.runAll(ctx, logger, []task{
		{name: "popular", run: w.warmPopular},
		{name: "regions", run: w.warmRegions},
		{name: "recent", run: w.warmRecent},
		{name: "active", run: w.warmActive},
	})

	elapsed := time.Since(start)
	metrics.WarmPassDuration.Observe(elapsed.Seconds())
	if err != nil {
		logger.Warn("warm pass finished with errors",
			zap.Duration("elapsed", elapsed),
			zap.Int("failed_tasks", len(multierr.Errors(err))),
			zap.Error(err))
		return err
	}
	logger.Info("warm pass finished", zap.Duration("elapsed", elapsed))
	return nil
}

type task struct {
	name string
	run  func(ctx context.Context) (int, error)
}

// runAll runs every task to completion and collects their errors.
func (w *Warmer) runAll(ctx context.Context, logger *zap.Logger, tasks []task) error {
	errs := make([]error, len(tasks))

	var g errgroup.Group
	for i, t := range tasks {
		g.Go(func() error {
			errs[i] = w.runTask(ctx, logger, t)
			return nil
		})
	}
	_ = g.Wait()

	return multierr.Combine(errs...)
}

func (w *Warmer) runTask(ctx context.Context, logger *zap.Logger, t task) (err error) {
	ctx, cancel := context.WithTimeout(ctx, w.taskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", t.name, r)
		}
		if err != nil {
			metrics.WarmTaskResults.WithLabelValues(t.name, "error").Inc()
			logger.Error("warm task failed", zap.String("task", t.name), zap.Error(err))
		}
	}()

	n, err := t.run(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", t.name, err)
	}
	metrics.WarmTaskResults.WithLabelValues(t.name, "ok").Inc()
	logger.Debug("warm task done", zap.String("task", t.name), zap.Int("entries", n))
	return nil
}

// warmPopular refreshes the detail views of the most rated locations of the
// week and rewrites the hot:locations ranking from them.
func (w *Warmer) warmPopular(ctx context.Context) (int, error) {
	popular, err := w.ledger.PopularLocations(ctx, w.now().Add(-popularWindow), popularLimit)
	if err != nil {
		return 0, fmt.Errorf("load popular locations: %w", err)
	}
	if len(popular) == 0 {
		return 0, nil
	}

	ids := make([]string, len(popular))
	members := make([]cache.ScoredMember, len(popular))
	for i, a := range popular {
		ids[i] = a.LocationID
		members[i] = cache.ScoredMember{Member: a.LocationID, Score: service.RankScore(a)}
	}

	n, err := w.views.RefreshLocationDetails(ctx, ids)
	if w.ranker.RankReplace(ctx, cachecoord.HotLocationsKey, w.ranker.TTL(cachecoord.ViewPopular), members) {
		n++
	}
	return n, err
}

func (w *Warmer) warmRegions(ctx context.Context) (int, error) {
	var (
		total int
		errs  error
	)
	for _, r := range w.regions {
		n, err := w.views.RefreshNearby(ctx, service.NearbyQuery{
			Latitude:     r.Latitude,
			Longitude:    r.Longitude,
			RadiusMeters: r.RadiusMeters,
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("region %s: %w", r.Name, err))
			continue
		}
		total += n
	}
	return total, errs
}

func (w *Warmer) warmRecent(ctx context.Context) (int, error) {
	ids, err := w.ledger.RecentlyRatedLocations(ctx, w.now().Add(-recentWindow), recentLimit)
	if err != nil {
		return 0, fmt.Errorf("load recently rated locations: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return w.views.RefreshLocationDetails(ctx, ids)
}

func (w *Warmer) warmActive(ctx context.Context) (int, error) {
	active, err := w.ledger.ActiveLocations(ctx, w.now().Add(-activeWindow), activeMinRatings, activeLimit)
	if err != nil {
		return 0, fmt.Errorf("load active locations: %w", err)
	}
	if len(active) == 0 {
		return 0, nil
	}
	ids := make([]string, len(active))
	for i, a := range active {
		ids[i] = a.LocationID
	}
	return w.views.RefreshLocationStats(ctx, ids)
}
