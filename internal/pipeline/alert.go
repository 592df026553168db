package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"CapoWatch/internal/marketplace"
	"CapoWatch/internal/model"
	"CapoWatch/internal/publisher"
	"CapoWatch/internal/recorder"
	"CapoWatch/internal/retry"
)

// AlertDue reports whether the quiet-period floor post is due: true when no
// alert was ever recorded, or the elapsed time exceeds the threshold. The
// caller only acts on it when the run fetched zero qualifying sales; the
// alert is a filler, never a competitor for the per-run publish budget.
func AlertDue(cp model.Checkpoint, threshold time.Duration, now time.Time) bool {
	if cp.LastFloorAlert.IsZero() {
		return true
	}
	return now.Sub(cp.LastFloorAlert) > threshold
}

// emitFloorAlert fetches the floor quote and publishes the filler post.
// Returns true only when the post actually landed.
func (p *Pipeline) emitFloorAlert(ctx context.Context) bool {
	quote, err := retry.Do(ctx, "floor", p.cfg.RetryAttempts, p.cfg.RetryBaseDelay,
		func() (marketplace.FloorQuote, error) {
			return p.market.Floor(ctx)
		})
	if err != nil {
		log.Warn().Err(err).Msg("floor quote unavailable, skipping alert")
		return false
	}

	post := model.Post{Text: publisher.FormatFloorPost(quote)}
	published := true
	if err := p.pub.Publish(ctx, post); err != nil {
		log.Error().Err(err).Msg("floor alert publish failed")
		published = false
	}

	if err := p.rec.RecordPost(&recorder.PostRecord{
		Kind:      "floor",
		Price:     quote.Price.String(),
		Symbol:    quote.Symbol,
		Text:      post.Text,
		Published: published,
	}); err != nil {
		log.Error().Err(err).Msg("record floor post")
	}
	return published
}
