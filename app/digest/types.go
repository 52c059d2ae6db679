package digest

// Unit kinds, in the order they appear in a digest.

type UnitKind string

const (
	UnitTodayText     UnitKind = "today_text"
	UnitHoliday       UnitKind = "holiday"
	UnitEvent         UnitKind = "event"
	UnitFeaturedEvent UnitKind = "featured_event"
	UnitAnniversary   UnitKind = "anniversary"
)

// Placeholder tokens survive sanitization as plain text and are swapped for
// emoji glyphs at compose time. Keeping them as tokens lets the sanitized
// text stay byte-stable in the store while the rendering stays a composer
// concern.
const (
	TokenCalendar = "{calendar}"
	TokenBorn     = "{born}"
	TokenDied     = "{died}"

	tokenYearsAgo = "{years-ago}"
)

// Fragment is one raw HTML slice of the digest, as cut by the Segmenter,
// before sanitization.
type Fragment struct {
	Kind  UnitKind
	HTML  string
	Image *Image
}

// Image describes the digest's featured image resource
type Image struct {
	URL    string
	Alt    string
	Width  int
	Height int
}

// LinkSpan is one hyperlink lifted out of a fragment: the display text left
// behind in the plain text and the absolute target URL.
type LinkSpan struct {
	Display string
	Target  string
}

// Sanitized is the output of the Sanitizer for one fragment
type Sanitized struct {
	Text  string
	Links []LinkSpan
}
