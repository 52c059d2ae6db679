package post

import (
	"strings"

	"github.com/avdmnk/daypost/app/digest"
)

// Emoji glyphs substituted for the sanitizer's placeholder tokens
const (
	EmojiCalendar = "📅"
	EmojiBorn     = "🎂"
	EmojiDied     = "🕯️"
)

// Composer builds the final postable text from one sanitized unit and the
// day's today-text. TodayText units are never composed themselves; they only
// supply the todayText argument.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

// Run decorates one unit. The today-text is used in its plain form, without
// the calendar token the sanitizer prepends to every unit: the token stays
// with the content so each post carries exactly one calendar glyph.
func (c *Composer) Run(kind digest.UnitKind, todayText string, content digest.Sanitized, image *digest.Image) Composed {
	today := stripCalendarToken(todayText)

	var text string
	var embed *digest.Image

	switch kind {
	case digest.UnitAnniversary:
		text = "#Anniversary - #OnThisDay, " + today + ":\n\n" + promoteLifeMarker(content.Text)
	case digest.UnitEvent:
		text = "#OnThisDay, " + today + " in " + breakAtSeparator(content.Text)
	case digest.UnitFeaturedEvent:
		text = "#PicOfTheDay - #OnThisDay, " + today + " in " + breakAtSeparator(content.Text)
		embed = image
	case digest.UnitHoliday:
		text = "#OnThisDay, " + today + ", the following holiday is observed:\n\n" + content.Text
	default:
		text = "#OnThisDay, " + today + " " + content.Text
	}

	text = replaceTokens(text)

	return Composed{Text: text, Links: content.Links, Embed: embed}
}

// stripCalendarToken returns the plain today-text value
func stripCalendarToken(todayText string) string {
	return strings.TrimSpace(strings.ReplaceAll(todayText, digest.TokenCalendar, ""))
}

// promoteLifeMarker moves a born/died placeholder to the front of the
// content as the anniversary's emoji marker.
func promoteLifeMarker(content string) string {
	markers := []struct {
		token string
		emoji string
	}{
		{digest.TokenBorn, EmojiBorn},
		{digest.TokenDied, EmojiDied},
	}

	for _, m := range markers {
		if strings.Contains(content, m.token) {
			content = strings.Replace(content, m.token+" ", "", 1)
			content = strings.Replace(content, m.token, "", 1)
			return m.emoji + " " + strings.TrimSpace(content)
		}
	}
	return content
}

// breakAtSeparator replaces the first dash separator between year and event
// text with a paragraph break. The digest uses a spaced en or em dash.
func breakAtSeparator(content string) string {
	for _, sep := range []string{" – ", " — ", " - "} {
		if strings.Contains(content, sep) {
			return strings.Replace(content, sep, "\n\n", 1)
		}
	}
	return content
}

// replaceTokens substitutes the remaining placeholder tokens with their
// emoji glyphs.
func replaceTokens(text string) string {
	text = strings.ReplaceAll(text, digest.TokenCalendar, EmojiCalendar)
	text = strings.ReplaceAll(text, digest.TokenBorn, EmojiBorn)
	text = strings.ReplaceAll(text, digest.TokenDied, EmojiDied)
	return text
}
