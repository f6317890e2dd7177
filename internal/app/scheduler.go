package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/consult_scheduler/internal/clock"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	reconcileJob     = "reconcile"
	reconcileTimeout = 50 * time.Second
)

type Reconciler interface {
	Tick(ctx context.Context)
}

// TickLocker даёт обработать тик только одному экземпляру.
type TickLocker interface {
	TryAcquire(ctx context.Context, job string, tick time.Time, ttl time.Duration) (bool, error)
}

// Scheduler запускает проходы сверки по cron-расписанию.
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	reconciler Reconciler
	lock       TickLocker
	clock      clock.Clock
	logger     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler создаёт планировщик. lock может быть nil для одного экземпляра.
func NewScheduler(reconciler Reconciler, lock TickLocker, spec string, clk clock.Clock, logger *zap.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(clk.Location()),
		cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		),
	)

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       c,
		spec:       spec,
		reconciler: reconciler,
		lock:       lock,
		clock:      clk,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (s *Scheduler) Start() error {
	s.logger.Info("Starting background scheduler", zap.String("spec", s.spec))

	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(s.ctx) }); err != nil {
		return fmt.Errorf("schedule reconciliation %q: %w", s.spec, err)
	}

	s.cron.Start()
	return nil
}

// Stop отменяет текущий тик и ждёт его завершения.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
}

// RunOnce выполняет один тик сверки, если его не занял другой экземпляр.
func (s *Scheduler) RunOnce(ctx context.Context) {
	tick := s.clock.Now().Truncate(time.Minute)

	if s.lock != nil {
		ok, err := s.lock.TryAcquire(ctx, reconcileJob, tick, reconcileTimeout)
		if err != nil {
			s.logger.Warn("Tick lock unavailable, running anyway", zap.Error(err))
		} else if !ok {
			s.logger.Debug("Tick handled by another instance", zap.Time("tick", tick))
			return
		}
	}

	ctx, cancel := context.WithTimeout(ctx, reconcileTimeout)
	defer cancel()

	started := time.Now()
	s.reconciler.Tick(ctx)
	s.logger.Debug("Reconciliation tick finished", zap.Duration("took", time.Since(started)))
}
