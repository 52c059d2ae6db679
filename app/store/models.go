package store

import "time"

// Article is one calendar day's digest, created once and mutated only by
// marking units posted.
type Article struct {
	ID        string        `json:"id"`
	URL       string        `json:"url"`
	CreatedAt time.Time     `json:"created_at"`
	Units     []ContentUnit `json:"units"`
}

// ContentUnit is one independently postable fragment of an article. The
// today_text unit is metadata: always first, never posted standalone.
type ContentUnit struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Text   string `json:"text"`
	Links  []Link `json:"links,omitempty"`
	Image  *Image `json:"image,omitempty"`
	Posted bool   `json:"posted"`
}

// Link is a persisted link span: sanitization runs once at article creation,
// so the spans must survive with the unit for later facet building.
type Link struct {
	Display string `json:"display"`
	Target  string `json:"target"`
}

// Image is the featured image resource attached to a featured_event unit
type Image struct {
	URL    string `json:"url"`
	Alt    string `json:"alt,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Facet is a persisted byte-range link annotation
type Facet struct {
	ByteStart int    `json:"byte_start"`
	ByteEnd   int    `json:"byte_end"`
	URI       string `json:"uri"`
}

// PostRecord is one published (or dry-run recorded) update. Append-only,
// never mutated.
type PostRecord struct {
	URI       string    `json:"uri,omitempty"`
	Text      string    `json:"text"`
	Facets    []Facet   `json:"facets,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ArticleIDForDate derives the stable article id for a calendar day: the
// digest's publish instant, which the feed pins to UTC midnight. Both the
// publish task and the status API use this to address "today" without
// fetching the feed.
func ArticleIDForDate(t time.Time) string {
	return t.UTC().Truncate(24 * time.Hour).Format(time.RFC3339)
}
