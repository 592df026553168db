package publisher

import (
	"context"

	"github.com/rs/zerolog/log"

	"CapoWatch/internal/model"
)

// DryRunPublisher logs the post instead of publishing it. Used by dry_run
// config and selftest mode.
type DryRunPublisher struct{}

func NewDryRunPublisher() *DryRunPublisher { return &DryRunPublisher{} }

func (d *DryRunPublisher) Name() string { return "dry-run" }

func (d *DryRunPublisher) Publish(_ context.Context, post model.Post) error {
	log.Info().Int("media", len(post.Media)).Str("text", post.Text).Msg("dry-run publish")
	return nil
}

func (d *DryRunPublisher) Verify(_ context.Context) error { return nil }
