package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/lachb/grazier/internal/config"
	"github.com/lachb/grazier/internal/domain/models"
	"github.com/lachb/grazier/internal/repository/mongodb"
	"github.com/lachb/grazier/internal/repository/sheets"
	"github.com/lachb/grazier/internal/service/lifecycle"
	"github.com/lachb/grazier/internal/service/market"
	"github.com/lachb/grazier/internal/service/valuation"
)

// Scheduler runs the nightly lifecycle and snapshot job.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.Config
	manager  *lifecycle.Manager
	engine   *valuation.Engine
	resolver *market.Resolver
	repo     mongodb.Repository
	exporter sheets.Exporter
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance. The exporter may be nil
// when the sheets export is not configured.
func NewScheduler(cfg config.Config, manager *lifecycle.Manager, engine *valuation.Engine, resolver *market.Resolver, repo mongodb.Repository, exporter sheets.Exporter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Lifecycle.Timezone)
	if err != nil {
		logger.Warn("invalid timezone, falling back to local", zap.String("timezone", cfg.Lifecycle.Timezone), zap.Error(err))
		location = time.Local
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(location)),
		cfg:      cfg,
		manager:  manager,
		engine:   engine,
		resolver: resolver,
		repo:     repo,
		exporter: exporter,
		logger:   logger,
	}
}

// Start registers the nightly job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.Lifecycle.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.Lifecycle.CronSchedule, s.runNightly); err != nil {
		s.logger.Error("failed to schedule nightly valuation job", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

// runNightly runs the lifecycle passes, values the portfolio against fresh
// prices, persists a snapshot and exports it when an exporter is configured.
func (s *Scheduler) runNightly() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now()
	s.logger.Info("nightly valuation run starting", zap.Time("as_of", now))

	if _, err := s.manager.RunPasses(ctx, now); err != nil {
		s.logger.Error("nightly lifecycle passes failed", zap.Error(err))
		return
	}

	// Drop any intra-day cached prices so the snapshot reflects the feed.
	s.resolver.Invalidate()

	herds, err := s.repo.ListHerds(ctx)
	if err != nil {
		s.logger.Error("nightly herd listing failed", zap.Error(err))
		return
	}

	summary, err := s.engine.ValuePortfolio(ctx, herds, now)
	if err != nil {
		s.logger.Error("nightly portfolio valuation failed", zap.Error(err))
		return
	}

	snapshot := models.SnapshotFromSummary(summary, now)
	if err := s.repo.SaveSnapshot(ctx, snapshot); err != nil {
		s.logger.Error("failed to persist valuation snapshot", zap.Error(err))
		return
	}

	if s.exporter != nil {
		if err := s.exporter.AppendSnapshot(ctx, snapshot); err != nil {
			s.logger.Error("failed to export valuation snapshot", zap.Error(err))
		}
	}

	s.logger.Info("nightly valuation run complete",
		zap.Int("valued_herds", snapshot.ValuedHerds),
		zap.Int("unvalued_herds", snapshot.UnvaluedHerds),
		zap.String("unrealized_net", snapshot.UnrealizedNet.String()))
}
