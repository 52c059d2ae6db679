package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func rssFeed(items ...string) string {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Daily digest</title><link>https://example.org</link>`
	for _, item := range items {
		body += item
	}
	return body + `</channel></rss>`
}

func rssItem(guid string, published time.Time) string {
	return fmt.Sprintf(`<item><guid>%s</guid><title>Digest %s</title><link>https://example.org/%s</link><pubDate>%s</pubDate><description>&lt;p&gt;March 1&lt;/p&gt;</description></item>`,
		guid, guid, guid, published.Format(time.RFC1123Z))
}

func newTestSelector(t *testing.T, serverURL string, now time.Time) *Selector {
	t.Helper()

	selector := NewSelector(serverURL, 5, "daypost-test/1.0", &http.Client{})
	selector.now = func() time.Time { return now }
	return selector
}

func TestSelector_Run_PicksTodayOnly(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	midnight := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	feed := rssFeed(
		rssItem("yesterday", midnight.AddDate(0, 0, -1)),
		rssItem("today", midnight),
		rssItem("tomorrow", midnight.AddDate(0, 0, 1)),
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, feed)
	}))
	defer server.Close()

	selector := newTestSelector(t, server.URL, now)

	item, err := selector.Run(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if item == nil {
		t.Fatal("Expected today's item, got nil")
	}
	if item.GUID != "today" {
		t.Errorf("Expected item 'today', got %q", item.GUID)
	}
}

func TestSelector_Run_IgnoresProcessTimezone(t *testing.T) {
	// The process clock reads 23:30 in a +10:00 zone, which is already
	// "tomorrow" locally; selection must still use the UTC date.
	local := time.FixedZone("UTC+10", 10*3600)
	now := time.Date(2025, 3, 2, 9, 30, 0, 0, local) // 2025-03-01 23:30 UTC
	midnight := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	feed := rssFeed(
		rssItem("today", midnight),
		rssItem("tomorrow", midnight.AddDate(0, 0, 1)),
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feed)
	}))
	defer server.Close()

	selector := newTestSelector(t, server.URL, now)

	item, err := selector.Run(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if item == nil || item.GUID != "today" {
		t.Errorf("Expected UTC 'today' item regardless of local zone, got %+v", item)
	}
}

func TestSelector_Run_NoMatchMeansNoDigest(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	midnight := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	feed := rssFeed(rssItem("yesterday", midnight.AddDate(0, 0, -1)))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feed)
	}))
	defer server.Close()

	selector := newTestSelector(t, server.URL, now)

	item, err := selector.Run(context.Background())
	if err != nil {
		t.Fatalf("Zero matches must not be an error: %v", err)
	}
	if item != nil {
		t.Errorf("Expected nil item, got %+v", item)
	}
}

func TestSelector_Run_MultipleMatchesFirstWins(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	midnight := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	feed := rssFeed(
		rssItem("first", midnight),
		rssItem("second", midnight),
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feed)
	}))
	defer server.Close()

	selector := newTestSelector(t, server.URL, now)

	item, err := selector.Run(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if item == nil || item.GUID != "first" {
		t.Errorf("Expected deterministic first item, got %+v", item)
	}
}

func TestSelector_Run_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	selector := newTestSelector(t, server.URL, time.Now())

	if _, err := selector.Run(context.Background()); err == nil {
		t.Error("Expected an error for an HTTP 500 response")
	}
}

func TestSelector_Run_ParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "this is not a feed")
	}))
	defer server.Close()

	selector := newTestSelector(t, server.URL, time.Now())

	if _, err := selector.Run(context.Background()); err == nil {
		t.Error("Expected an error for an unparseable feed")
	}
}

func TestSelector_Run_ContentFallsBackToDescription(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	midnight := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	feed := rssFeed(rssItem("today", midnight))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feed)
	}))
	defer server.Close()

	selector := newTestSelector(t, server.URL, now)

	item, err := selector.Run(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if item == nil || item.Content != "<p>March 1</p>" {
		t.Errorf("Expected description fallback for content, got %+v", item)
	}
}
