package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"CapoWatch/internal/marketplace"
	"CapoWatch/internal/model"
	"CapoWatch/internal/pipeline"
	"CapoWatch/internal/publisher"
	"CapoWatch/internal/render"
)

// Scheduler runs the pipeline on a cron schedule. Invocations are expected
// not to overlap; the cron entry runs the pipeline to completion inline.
type Scheduler struct {
	Cron     *cron.Cron
	Pipeline *pipeline.Pipeline
	Market   marketplace.Client
	Pub      publisher.Publisher
	Renderer render.Renderer
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, pipe *pipeline.Pipeline, market marketplace.Client,
	pub publisher.Publisher, renderer render.Renderer) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Pipeline: pipe,
		Market:   market,
		Pub:      pub,
		Renderer: renderer,
		Ctx:      ctx,
	}
}

// Register registers the polling task.
func (s *Scheduler) Register(pollCron string) error {
	if _, err := s.Cron.AddFunc(pollCron, s.pollTask); err != nil {
		return fmt.Errorf("register poll task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes the polling task immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.pollTask()
}

func (s *Scheduler) pollTask() {
	if err := s.Ctx.Err(); err != nil {
		return
	}
	s.Pipeline.Run(s.Ctx)
}

// Selftest exercises each external dependency without side-effecting
// publishes. Returns the first hard failure; renderer absence is reported
// but not fatal.
func (s *Scheduler) Selftest(ctx context.Context) error {
	log.Info().Str("marketplace", s.Market.Name()).Msg("selftest: fetching recent sales")
	sales, err := s.Market.RecentSales(ctx, 5)
	if err != nil {
		return fmt.Errorf("selftest: recent sales: %w", err)
	}
	log.Info().Int("count", len(sales)).Msg("selftest: sales fetched")

	if addr := firstBuyer(sales); addr != "" {
		count, err := s.Market.HoldingCount(ctx, addr)
		if err != nil {
			return fmt.Errorf("selftest: holding count: %w", err)
		}
		log.Info().Str("address", addr).Int("count", count).Msg("selftest: holding count resolved")
	}

	quote, err := s.Market.Floor(ctx)
	if err != nil {
		return fmt.Errorf("selftest: floor quote: %w", err)
	}
	log.Info().Str("floor", quote.Price.String()).Str("symbol", quote.Symbol).Msg("selftest: floor fetched")

	if s.Renderer.Available(ctx) {
		log.Info().Msg("selftest: renderer available")
	} else {
		log.Warn().Msg("selftest: renderer unavailable, posts will be text-only")
	}

	if err := s.Pub.Verify(ctx); err != nil {
		return fmt.Errorf("selftest: publisher credentials: %w", err)
	}
	log.Info().Str("publisher", s.Pub.Name()).Msg("selftest: publisher credentials ok")
	return nil
}

func firstBuyer(sales []model.SaleEvent) string {
	for _, e := range sales {
		if e.Buyer != "" {
			return e.Buyer
		}
	}
	return ""
}
