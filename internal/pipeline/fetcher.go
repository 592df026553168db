package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"CapoWatch/internal/model"
	"CapoWatch/internal/retry"
)

// FetchRecentSales pulls a bounded window of recent events and reduces it to
// the validated, deduplicated batch newer than the checkpoint. The
// marketplace has no reliable server-side "since" filter, so filtering is
// client-side, and events stay in marketplace order: no re-sort, no assumed
// API ordering guarantees.
//
// Retry exhaustion degrades to an empty batch: a transient outage means "no
// sales this run", not a crash.
func (p *Pipeline) FetchRecentSales(ctx context.Context, cp model.Checkpoint) []model.SaleEvent {
	raw, err := retry.Do(ctx, "recent-sales", p.cfg.RetryAttempts, p.cfg.RetryBaseDelay,
		func() ([]model.SaleEvent, error) {
			return p.market.RecentSales(ctx, p.cfg.FetchLimit)
		})
	if err != nil {
		log.Warn().Err(err).Msg("fetch sales failed, treating as empty")
		return nil
	}

	seen := make(map[string]struct{}, len(raw))
	var out []model.SaleEvent
	for _, e := range raw {
		if !e.OccurredAt.After(cp.LastCheck) {
			continue
		}
		if !e.Valid() {
			continue
		}
		if _, dup := seen[e.Key()]; dup {
			continue
		}
		seen[e.Key()] = struct{}{}
		out = append(out, e)
	}
	log.Debug().Int("raw", len(raw)).Int("qualifying", len(out)).Msg("sales fetched")
	return out
}
