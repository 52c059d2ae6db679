package bsky

import (
	"context"
	"fmt"
	"log/slog"
)

// DryRunClient satisfies the posting capability without touching the
// network. The state machine runs all of its transitions against it; the
// would-be post is logged and the fake AT-URI recorded like a real one.
type DryRunClient struct{}

var _ Client = (*DryRunClient)(nil)

func NewDryRunClient() *DryRunClient {
	return &DryRunClient{}
}

func (c *DryRunClient) Login(ctx context.Context) error {
	slog.Info("Dry-run mode, skipping login")
	return nil
}

func (c *DryRunClient) CreatePost(ctx context.Context, p Post) (string, error) {
	slog.Info("Dry-run post",
		"text", p.Text,
		"facets", len(p.Facets),
		"embed", p.Embed != nil,
		"created_at", p.CreatedAt)

	return fmt.Sprintf("at://dry-run/%s/%s", postCollection, p.IdempotencyKey), nil
}
