package publisher

import (
	"context"

	"CapoWatch/internal/model"
)

// Publisher posts text with optional media attachments. No partial-success
// semantics: a post either lands or fails as a whole.
type Publisher interface {
	Publish(ctx context.Context, post model.Post) error
	// Verify checks credentials without posting (selftest mode).
	Verify(ctx context.Context) error
	Name() string
}
