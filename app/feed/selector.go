package feed

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// Selector fetches the syndication feed and picks the item published for
// the current UTC calendar day. It returns (nil, nil) when no item matches:
// a day without a digest is an expected outcome, not an error.
type Selector struct {
	url        string
	timeout    time.Duration
	userAgent  string
	httpClient *http.Client
	parser     *gofeed.Parser

	// now is the clock used to compute "today"; tests pin it
	now func() time.Time
}

func NewSelector(feedURL string, timeoutSec int, userAgent string, httpClient *http.Client) *Selector {
	return &Selector{
		url:        feedURL,
		timeout:    time.Duration(timeoutSec) * time.Second,
		userAgent:  userAgent,
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		now:        time.Now,
	}
}

// Run fetches and parses the feed, then filters for items whose publish
// timestamp falls on today's UTC date. More than one match is a log-worthy
// anomaly resolved by taking the first; zero matches means no digest today.
func (s *Selector) Run(ctx context.Context) (*Item, error) {
	data, err := s.fetchFeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	parsed, err := s.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	today := s.now().UTC().Truncate(24 * time.Hour)

	var matches []*gofeed.Item
	for _, item := range parsed.Items {
		if item.PublishedParsed == nil {
			continue
		}
		if item.PublishedParsed.UTC().Truncate(24 * time.Hour).Equal(today) {
			matches = append(matches, item)
		}
	}

	if len(matches) == 0 {
		slog.Debug("No digest published for today", "date", today.Format(time.RFC3339), "items", len(parsed.Items))
		return nil, nil
	}

	if len(matches) > 1 {
		slog.Warn("Multiple digests match today, selecting the first", "date", today.Format(time.RFC3339), "matches", len(matches))
	}

	return s.normalizeItem(matches[0]), nil
}

func (s *Selector) normalizeItem(item *gofeed.Item) *Item {
	return &Item{
		GUID:        cmp.Or(item.GUID, item.Link),
		Title:       item.Title,
		Link:        item.Link,
		Content:     cmp.Or(item.Content, item.Description),
		PublishedAt: item.PublishedParsed.UTC(),
	}
}

func (s *Selector) fetchFeed(ctx context.Context) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
