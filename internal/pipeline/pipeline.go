package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"CapoWatch/internal/checkpoint"
	"CapoWatch/internal/marketplace"
	"CapoWatch/internal/model"
	"CapoWatch/internal/publisher"
	"CapoWatch/internal/rank"
	"CapoWatch/internal/recorder"
	"CapoWatch/internal/render"
)

// Config holds the pipeline's tuning knobs.
type Config struct {
	FetchLimit     int           // bounded window of recent events per poll
	BatchCap       int           // max publishes per run
	Pace           time.Duration // delay between successive publish attempts
	RetryAttempts  int
	RetryBaseDelay time.Duration
	AlertThreshold time.Duration // quiet period before a floor post is due
}

// DefaultConfig returns the observed production settings.
func DefaultConfig() Config {
	return Config{
		FetchLimit:     50,
		BatchCap:       3,
		Pace:           10 * time.Second,
		RetryAttempts:  3,
		RetryBaseDelay: 2 * time.Second,
		AlertThreshold: 20 * time.Hour,
	}
}

// Pipeline runs one poll-classify-publish cycle per invocation. It is
// single-threaded by design: the external scheduler is assumed not to overlap
// invocations, and the checkpoint file carries the only cross-run state.
type Pipeline struct {
	cfg      Config
	market   marketplace.Client
	resolver *rank.Resolver
	pub      publisher.Publisher
	renderer render.Renderer
	store    *checkpoint.Store
	rec      recorder.Recorder

	now func() time.Time
}

// New wires a Pipeline from its collaborators.
func New(cfg Config, market marketplace.Client, resolver *rank.Resolver,
	pub publisher.Publisher, renderer render.Renderer,
	store *checkpoint.Store, rec recorder.Recorder) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		market:   market,
		resolver: resolver,
		pub:      pub,
		renderer: renderer,
		store:    store,
		rec:      rec,
		now:      time.Now,
	}
}

// Run executes one full cycle: load checkpoint, fetch, process or emit the
// quiet-period alert, advance the checkpoint. Every failure path degrades to
// reduced functionality; Run never returns an error to the scheduler.
func (p *Pipeline) Run(ctx context.Context) model.ProcessingReport {
	runID := uuid.NewString()[:8]
	logger := log.With().Str("run", runID).Logger()

	cp := p.store.Load()
	logger.Info().Time("last_check", cp.LastCheck).Msg("run started")

	events := p.FetchRecentSales(ctx, cp)

	var report model.ProcessingReport
	if len(events) == 0 {
		logger.Info().Msg("no qualifying sales")
		if AlertDue(cp, p.cfg.AlertThreshold, p.now()) {
			if p.emitFloorAlert(ctx) {
				now := p.now()
				p.store.Save(model.CheckpointUpdate{LastFloorAlert: &now})
				logger.Info().Msg("floor alert published")
			}
		}
	} else {
		report = p.ProcessBatch(ctx, events)

		// Advance past the whole fetched batch, processed or throttled: the
		// per-run cap is a publish ceiling, not a queue.
		newest := events[0].OccurredAt
		for _, e := range events[1:] {
			if e.OccurredAt.After(newest) {
				newest = e.OccurredAt
			}
		}
		p.store.Save(model.CheckpointUpdate{LastCheck: &newest})
		logger.Info().
			Int("attempted", report.Attempted).
			Int("published", report.Published).
			Int("skipped", report.Skipped).
			Int("failed", report.Failed).
			Time("checkpoint", newest).
			Msg("batch processed")
	}

	if err := p.rec.RecordRun(&recorder.RunRecord{
		RunID:     runID,
		Fetched:   len(events),
		Attempted: report.Attempted,
		Published: report.Published,
		Skipped:   report.Skipped,
		Failed:    report.Failed,
	}); err != nil {
		logger.Error().Err(err).Msg("record run")
	}
	return report
}
