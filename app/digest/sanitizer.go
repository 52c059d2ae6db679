package digest

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var (
	doubledSpace = regexp.MustCompile(`\s{2,}`)
	parenYear    = regexp.MustCompile(`\([^)\d]*(\d{1,4})`)
)

// Sanitizer turns one fragment's raw HTML into postable plain text plus its
// link spans. Run is pure for a given input and clock, which is what makes
// the per-kind pipelines independently testable.
type Sanitizer struct {
	origin      *url.URL
	imageMarker string
	bornMarker  string
	diedMarker  string

	// now is the clock used for the years-ago computation; tests pin it
	now func() time.Time
}

func NewSanitizer(siteOrigin, imageMarker, bornMarker, diedMarker string) (*Sanitizer, error) {
	origin, err := url.Parse(siteOrigin)
	if err != nil {
		return nil, fmt.Errorf("invalid site origin %q: %w", siteOrigin, err)
	}

	return &Sanitizer{
		origin:      origin,
		imageMarker: strings.ToLower(imageMarker),
		bornMarker:  bornMarker,
		diedMarker:  diedMarker,
		now:         time.Now,
	}, nil
}

// Run sanitizes one fragment. The step order is load-bearing: links must be
// lifted before markup is unwrapped, the born/died rewrite must precede the
// years-ago substitution, and whitespace cleanup assumes all element
// rewrites already happened.
func (s *Sanitizer) Run(fragment string) (Sanitized, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return Sanitized{}, fmt.Errorf("failed to parse fragment: %w", err)
	}

	links := s.extractLinks(doc)
	s.rewriteLifeMarkers(doc)
	s.dropImageCaptions(doc)
	convertScripts(doc)

	// Text extraction unwraps the remaining p/li/b/i structure; unit
	// boundaries carry the structure from here on.
	text := doc.Text()

	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = strings.ReplaceAll(text, "\u2212", "-")

	text = doubledSpace.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "( ", "(")
	text = strings.ReplaceAll(text, " )", ")")
	text = strings.TrimSpace(text)

	text = s.resolveYearsAgo(text)

	text = TokenCalendar + " " + text

	return Sanitized{Text: norm.NFC.String(text), Links: links}, nil
}

// extractLinks lifts every hyperlink into a LinkSpan and replaces the anchor
// element with its display text.
func (s *Sanitizer) extractLinks(doc *goquery.Document) []LinkSpan {
	var links []LinkSpan

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		display := a.Text()

		if href, ok := a.Attr("href"); ok && display != "" {
			links = append(links, LinkSpan{
				Display: display,
				Target:  s.resolveURL(href),
			})
		}

		a.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: display})
	})

	return links
}

// rewriteLifeMarkers replaces born/died abbreviation elements with a
// placeholder token, the verb, and a deferred year-count token that
// resolveYearsAgo fills in once the whole text is flat.
func (s *Sanitizer) rewriteLifeMarkers(doc *goquery.Document) {
	doc.Find("abbr").Each(func(_ int, abbr *goquery.Selection) {
		title, _ := abbr.Attr("title")
		text := strings.TrimSpace(abbr.Text())

		var replacement string
		switch {
		case text == s.bornMarker || strings.EqualFold(title, "born"):
			replacement = TokenBorn + " was born " + tokenYearsAgo
		case text == s.diedMarker || strings.EqualFold(title, "died"):
			replacement = TokenDied + " died " + tokenYearsAgo
		default:
			return
		}

		abbr.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: replacement})
	})
}

// dropImageCaptions removes italic elements that only point at the featured
// image; the image travels as an embed, so the caption would be duplicated
// in plain text. Other italics are left for text extraction to unwrap.
func (s *Sanitizer) dropImageCaptions(doc *goquery.Document) {
	doc.Find("i").Each(func(_ int, i *goquery.Selection) {
		if strings.Contains(strings.ToLower(i.Text()), s.imageMarker) {
			i.Remove()
		}
	})
}

// convertScripts rewrites sup/sub elements to their precomposed Unicode
// forms in place, before text extraction flattens the markup.
func convertScripts(doc *goquery.Document) {
	doc.Find("sup").Each(func(_ int, sup *goquery.Selection) {
		sup.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: ToSuperscript(sup.Text())})
	})
	doc.Find("sub").Each(func(_ int, sub *goquery.Selection) {
		sub.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: ToSubscript(sub.Text())})
	})
}

// resolveYearsAgo substitutes the deferred year-count token using the first
// parenthesized integer in the text and the current UTC year. The match stops
// at the first digit run, so a life-span range like "(1825–1899)" yields the
// birth year. Without a parseable year the token is dropped.
func (s *Sanitizer) resolveYearsAgo(text string) string {
	if !strings.Contains(text, tokenYearsAgo) {
		return text
	}

	if m := parenYear.FindStringSubmatch(text); m != nil {
		year, err := strconv.Atoi(m[1])
		if err == nil {
			elapsed := s.now().UTC().Year() - year
			return strings.ReplaceAll(text, tokenYearsAgo, fmt.Sprintf("%d years ago", elapsed))
		}
	}

	text = strings.ReplaceAll(text, tokenYearsAgo, "")
	return strings.TrimSpace(doubledSpace.ReplaceAllString(text, " "))
}

// resolveURL makes a fragment href absolute against the configured site
// origin. Scheme-relative and absolute URLs pass through with only the
// scheme completed.
func (s *Sanitizer) resolveURL(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if parsed.IsAbs() {
		return parsed.String()
	}

	return s.origin.ResolveReference(parsed).String()
}
