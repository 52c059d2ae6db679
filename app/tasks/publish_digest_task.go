package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/avdmnk/daypost/app/bsky"
	"github.com/avdmnk/daypost/app/digest"
	"github.com/avdmnk/daypost/app/post"
	"github.com/avdmnk/daypost/app/store"
)

// PublishDigestTask runs one publication cycle: make sure today's article
// exists in the store, then post at most one unposted unit. An article whose
// non-today units are all posted is a no-op.
type PublishDigestTask struct {
	Task
	source    DigestSource
	segmenter *digest.Segmenter
	sanitizer *digest.Sanitizer
	composer  *post.Composer
	facets    *post.Builder
	client    bsky.Client
	articles  store.ArticleRepository
	posts     store.PostRepository

	// now is the clock used to address today's article; tests pin it
	now func() time.Time
}

func NewPublishDigestTask(source DigestSource, segmenter *digest.Segmenter, sanitizer *digest.Sanitizer,
	composer *post.Composer, facets *post.Builder, client bsky.Client,
	articles store.ArticleRepository, posts store.PostRepository) *PublishDigestTask {
	return &PublishDigestTask{
		Task:      NewTask(TaskTypePublishDigest),
		source:    source,
		segmenter: segmenter,
		sanitizer: sanitizer,
		composer:  composer,
		facets:    facets,
		client:    client,
		articles:  articles,
		posts:     posts,
		now:       time.Now,
	}
}

func (t *PublishDigestTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	articleID := store.ArticleIDForDate(t.now())

	article, err := t.articles.GetArticle(articleID)
	if err != nil {
		return fmt.Errorf("failed to load article: %w", err)
	}

	if article == nil {
		article = t.buildArticle(ctx, articleID)
		if article == nil {
			return nil
		}

		if err := t.articles.SaveArticle(article); err != nil {
			return fmt.Errorf("failed to persist article: %w", err)
		}

		slog.Info("Article created", "id", article.ID, "units", len(article.Units))
	}

	unit := nextUnposted(article)
	if unit == nil {
		slog.Debug("Article complete, nothing to publish", "id", article.ID)
		return nil
	}

	if err := t.publishUnit(ctx, article, unit); err != nil {
		// The unit stays unposted and is retried on a later run
		slog.Error("CRITICAL: failed to publish unit", "article", article.ID, "unit", unit.ID, "kind", unit.Kind, "error", err)
		return err
	}

	slog.Info("Task completed",
		"type", "PublishDigest",
		"duration", t.GetDuration(),
		"article", article.ID,
		"unit", unit.ID,
		"kind", unit.Kind)

	return nil
}

// buildArticle fetches today's digest and turns it into a persisted-ready
// article. Upstream fetch or parse trouble is deliberately swallowed: a feed
// outage means "no digest today", never a crashed run.
func (t *PublishDigestTask) buildArticle(ctx context.Context, articleID string) *store.Article {
	item, err := t.source.Run(ctx)
	if err != nil {
		slog.Warn("Digest selection failed, treating as no digest today", "error", err)
		return nil
	}
	if item == nil {
		slog.Info("No digest published for today")
		return nil
	}

	fragments, err := t.segmenter.Run(item.Content)
	if err != nil {
		slog.Warn("Digest segmentation failed, treating as no digest today", "error", err)
		return nil
	}

	article := &store.Article{
		ID:        articleID,
		URL:       item.Link,
		CreatedAt: t.now().UTC(),
	}

	for _, fragment := range fragments {
		sanitized, err := t.sanitizer.Run(fragment.HTML)
		if err != nil {
			slog.Warn("Fragment sanitization failed, skipping unit", "kind", fragment.Kind, "error", err)
			continue
		}

		unit := store.ContentUnit{
			ID:   uuid.NewString(),
			Kind: string(fragment.Kind),
			Text: sanitized.Text,
		}

		for _, link := range sanitized.Links {
			unit.Links = append(unit.Links, store.Link{Display: link.Display, Target: link.Target})
		}

		if fragment.Image != nil {
			unit.Image = &store.Image{
				URL:    fragment.Image.URL,
				Alt:    fragment.Image.Alt,
				Width:  fragment.Image.Width,
				Height: fragment.Image.Height,
			}
		}

		article.Units = append(article.Units, unit)
	}

	return article
}

// nextUnposted scans units in stored order for the first postable one.
// TodayText never qualifies: it is metadata for the composer.
func nextUnposted(article *store.Article) *store.ContentUnit {
	for i := range article.Units {
		unit := &article.Units[i]
		if unit.Posted || unit.Kind == string(digest.UnitTodayText) {
			continue
		}
		return unit
	}
	return nil
}

// publishUnit runs the compose → facet → post → mark-posted sequence for
// one unit. The loop ends here by design: one unit per run spreads an
// article across the day's scheduled invocations.
func (t *PublishDigestTask) publishUnit(ctx context.Context, article *store.Article, unit *store.ContentUnit) error {
	content := digest.Sanitized{Text: unit.Text}
	for _, link := range unit.Links {
		content.Links = append(content.Links, digest.LinkSpan{Display: link.Display, Target: link.Target})
	}

	var image *digest.Image
	if unit.Image != nil {
		image = &digest.Image{
			URL:    unit.Image.URL,
			Alt:    unit.Image.Alt,
			Width:  unit.Image.Width,
			Height: unit.Image.Height,
		}
	}

	composed := t.composer.Run(digest.UnitKind(unit.Kind), todayText(article), content, image)
	facets := t.facets.Run(composed.Text, composed.Links)

	createdAt := t.now().UTC()

	uri, err := t.client.CreatePost(ctx, bsky.Post{
		Text:           composed.Text,
		Facets:         facets,
		Embed:          composed.Embed,
		CreatedAt:      createdAt,
		IdempotencyKey: unit.ID,
	})
	if err != nil {
		return err
	}

	if err := t.articles.MarkUnitPosted(article.ID, unit.ID); err != nil {
		// Posted remotely but not acknowledged locally: the retry relies on
		// the idempotency key to avoid a duplicate.
		return fmt.Errorf("post created but failed to mark unit posted: %w", err)
	}

	record := store.PostRecord{
		URI:       uri,
		Text:      composed.Text,
		CreatedAt: createdAt,
	}
	for _, f := range facets {
		record.Facets = append(record.Facets, store.Facet{ByteStart: f.ByteStart, ByteEnd: f.ByteEnd, URI: f.URI})
	}

	if err := t.posts.AppendPost(record); err != nil {
		slog.Warn("Failed to append post record", "uri", uri, "error", err)
	}

	return nil
}

// todayText returns the article's today-text plain value
func todayText(article *store.Article) string {
	if len(article.Units) > 0 && article.Units[0].Kind == string(digest.UnitTodayText) {
		return article.Units[0].Text
	}
	return ""
}
