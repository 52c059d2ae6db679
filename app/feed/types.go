package feed

import "time"

// Item is one normalized feed entry: the digest candidate for a calendar day
type Item struct {
	GUID        string
	Title       string
	Link        string
	Content     string
	PublishedAt time.Time
}
