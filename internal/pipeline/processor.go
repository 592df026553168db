package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"CapoWatch/internal/model"
	"CapoWatch/internal/publisher"
	"CapoWatch/internal/recorder"
	"CapoWatch/internal/render"
	"CapoWatch/internal/tier"
)

// ProcessBatch publishes up to BatchCap events from the head of the batch.
// The cap is a publish-rate ceiling, not a priority ordering. Per-event
// failures are contained: a failed publish is retried once without media,
// then the event is marked failed and processing continues.
func (p *Pipeline) ProcessBatch(ctx context.Context, events []model.SaleEvent) model.ProcessingReport {
	var report model.ProcessingReport

	n := len(events)
	if p.cfg.BatchCap > 0 && n > p.cfg.BatchCap {
		n = p.cfg.BatchCap
	}
	report.Skipped = len(events) - n

	for i, e := range events[:n] {
		report.Attempted++
		if p.processOne(ctx, e) {
			report.Published++
		} else {
			report.Failed++
		}
		// Pace between publish attempts regardless of outcome.
		if i < n-1 && p.cfg.Pace > 0 {
			select {
			case <-ctx.Done():
				report.Skipped += n - 1 - i
				return report
			case <-time.After(p.cfg.Pace):
			}
		}
	}
	return report
}

func (p *Pipeline) processOne(ctx context.Context, e model.SaleEvent) bool {
	buyerTier := p.resolver.BuyerTier(ctx, e.Buyer)
	sellerTier := p.resolver.SellerTier(ctx, e.Seller)
	narrative := tier.ClassifyNarrative(buyerTier, sellerTier)

	log.Info().
		Str("asset", e.AssetID).
		Str("buyer_tier", buyerTier.Name).
		Str("seller_tier", sellerTier.Name).
		Str("narrative", string(narrative)).
		Msg("sale classified")

	post := model.Post{Text: publisher.FormatSalePost(e, buyerTier, sellerTier, narrative)}
	if buf, err := p.renderer.RenderCard(ctx, render.NewCardRequest(e, buyerTier, narrative)); err == nil {
		post.Media = [][]byte{buf}
	} else if !errors.Is(err, render.ErrUnavailable) {
		log.Warn().Err(err).Str("asset", e.AssetID).Msg("card render failed, posting text-only")
	}

	published := p.publishWithFallback(ctx, post, e.AssetID)

	if err := p.rec.RecordPost(&recorder.PostRecord{
		Kind:       "sale",
		AssetID:    e.AssetID,
		Buyer:      e.Buyer,
		Seller:     e.Seller,
		BuyerTier:  buyerTier.Name,
		SellerTier: sellerTier.Name,
		Narrative:  string(narrative),
		Price:      e.Payment.Display().String(),
		Symbol:     e.Payment.Symbol,
		Text:       post.Text,
		HadMedia:   len(post.Media) > 0,
		Published:  published,
	}); err != nil {
		log.Error().Err(err).Msg("record post")
	}
	return published
}

// publishWithFallback retries a failed publish once with the media dropped;
// a second failure gives up on this event only.
func (p *Pipeline) publishWithFallback(ctx context.Context, post model.Post, assetID string) bool {
	err := p.pub.Publish(ctx, post)
	if err == nil {
		return true
	}
	log.Warn().Err(err).Str("asset", assetID).Msg("publish failed")
	if len(post.Media) == 0 {
		return false
	}
	post.Media = nil
	if err := p.pub.Publish(ctx, post); err != nil {
		log.Error().Err(err).Str("asset", assetID).Msg("text-only publish failed, giving up on event")
		return false
	}
	return true
}
