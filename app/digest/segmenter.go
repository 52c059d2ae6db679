package digest

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Segmenter cuts one digest's raw HTML body into typed fragments. It is
// deliberately dumb: it only knows the digest's shape (leading paragraph,
// events list, anniversaries list, optional featured image) and leaves all
// text processing to the Sanitizer.
type Segmenter struct {
	imageMarker string
}

func NewSegmenter(imageMarker string) *Segmenter {
	return &Segmenter{imageMarker: imageMarker}
}

// Run segments the digest body. The result is deterministic for a given
// input: fragments come out in document order, TodayText first. Empty
// holiday/event/anniversary sections yield zero fragments of that kind.
func (s *Segmenter) Run(rawHTML string) ([]Fragment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse digest HTML: %w", err)
	}

	fragments := make([]Fragment, 0, 16)

	today, holidays := splitLead(doc.Find("p").First())
	fragments = append(fragments, Fragment{Kind: UnitTodayText, HTML: today})
	for _, holiday := range holidays {
		fragments = append(fragments, Fragment{Kind: UnitHoliday, HTML: holiday})
	}

	image := s.findImage(doc)

	lists := doc.Find("ul")

	lists.First().ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		html, err := li.Html()
		if err != nil {
			return
		}

		if image != nil && strings.Contains(strings.ToLower(li.Text()), s.imageMarker) {
			fragments = append(fragments, Fragment{Kind: UnitFeaturedEvent, HTML: html, Image: image})
		} else {
			fragments = append(fragments, Fragment{Kind: UnitEvent, HTML: html})
		}
	})

	s.anniversariesList(lists).ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		html, err := li.Html()
		if err != nil {
			return
		}
		fragments = append(fragments, Fragment{Kind: UnitAnniversary, HTML: html})
	})

	return fragments, nil
}

// splitLead splits the leading paragraph into the today-text and the holiday
// entries. The walk stays on the DOM and only cuts inside the paragraph's own
// text nodes: serialized HTML re-escapes apostrophes as &#39;, and splitting
// that on semicolons shatters names like "St David's Day". The separators are
// a colon-space between date and holidays and a semicolon between holidays.
// Commas are never split on: holiday names legitimately contain them.
func splitLead(p *goquery.Selection) (string, []string) {
	parts := []*strings.Builder{{}}
	current := parts[0]
	inHolidays := false

	if p.Length() > 0 {
		// Some digest variants bold the whole lead; descend through a sole
		// element wrapper so the separators stay visible.
		first := p.Nodes[0].FirstChild
		for first != nil && first.NextSibling == nil && first.Type == html.ElementNode {
			first = first.FirstChild
		}

		for node := first; node != nil; node = node.NextSibling {
			if node.Type != html.TextNode {
				var buf bytes.Buffer
				if html.Render(&buf, node) == nil {
					current.WriteString(buf.String())
				}
				continue
			}

			text := node.Data
			if !inHolidays {
				before, after, found := strings.Cut(text, ": ")
				current.WriteString(before)
				if !found {
					continue
				}
				inHolidays = true
				current = &strings.Builder{}
				parts = append(parts, current)
				text = after
			}

			pieces := strings.Split(text, ";")
			current.WriteString(pieces[0])
			for _, piece := range pieces[1:] {
				current = &strings.Builder{}
				parts = append(parts, current)
				current.WriteString(piece)
			}
		}
	}

	today := strings.TrimSpace(parts[0].String())

	var holidays []string
	for _, part := range parts[1:] {
		if holiday := strings.TrimSpace(part.String()); holiday != "" {
			holidays = append(holidays, holiday)
		}
	}

	return today, holidays
}

// anniversariesList locates the anniversaries grouping: the first list after
// the events list that carries no inline style. The digest's footer list is
// inline-styled, which is what distinguishes it.
func (s *Segmenter) anniversariesList(lists *goquery.Selection) *goquery.Selection {
	result := lists.Slice(0, 0)

	lists.Each(func(i int, ul *goquery.Selection) {
		if i == 0 || result.Length() > 0 {
			return
		}
		if _, styled := ul.Attr("style"); styled {
			return
		}
		result = ul
	})

	return result
}

// findImage returns the first image element in the document, completing a
// scheme-relative src against https.
func (s *Segmenter) findImage(doc *goquery.Document) *Image {
	img := doc.Find("img").First()
	if img.Length() == 0 {
		return nil
	}

	src, ok := img.Attr("src")
	if !ok || src == "" {
		return nil
	}
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}

	image := &Image{
		URL: src,
		Alt: img.AttrOr("alt", ""),
	}

	if w, err := strconv.Atoi(img.AttrOr("width", "")); err == nil {
		image.Width = w
	}
	if h, err := strconv.Atoi(img.AttrOr("height", "")); err == nil {
		image.Height = h
	}

	return image
}
