package render

import (
	"context"
	"errors"
)

// ErrUnavailable signals that no render backend is configured.
var ErrUnavailable = errors.New("renderer unavailable")

// NoopRenderer is used when no render service is configured; the batch
// processor falls back to text-only posts.
type NoopRenderer struct{}

func NewNoopRenderer() *NoopRenderer { return &NoopRenderer{} }

func (n *NoopRenderer) RenderCard(_ context.Context, _ CardRequest) ([]byte, error) {
	return nil, ErrUnavailable
}

func (n *NoopRenderer) Available(_ context.Context) bool { return false }
