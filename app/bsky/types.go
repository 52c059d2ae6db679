package bsky

import (
	"context"
	"time"

	"github.com/avdmnk/daypost/app/digest"
	"github.com/avdmnk/daypost/app/post"
)

// Post is one outgoing update
type Post struct {
	Text      string
	Facets    []post.Facet
	Embed     *digest.Image
	Langs     []string
	CreatedAt time.Time

	// IdempotencyKey becomes the record key, so a retry after a lost
	// acknowledgment collides with the already-created record instead of
	// duplicating it.
	IdempotencyKey string
}

// Client is the posting capability. Implementations must not panic on
// network or auth failures; callers treat every error as retryable.
type Client interface {
	Login(ctx context.Context) error
	CreatePost(ctx context.Context, p Post) (string, error)
}
