package post

import (
	"regexp"
	"sort"
	"strings"

	"github.com/avdmnk/daypost/app/digest"
)

var bareURL = regexp.MustCompile(`https?://[^\s]+`)

// Builder computes byte-offset link facets over a final post text. Go
// strings are UTF-8, so string indices are already the byte offsets the
// posting API expects; no code-unit conversion is needed, but the offsets
// must never be computed over runes.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Run emits one facet per link span plus any auto-detected bare URLs,
// merged additively and sorted by start offset. It never deduplicates: the
// composer is responsible for display texts that do not collide with
// auto-detectable patterns.
func (b *Builder) Run(text string, links []digest.LinkSpan) []Facet {
	facets := b.linkFacets(text, links)
	facets = append(facets, b.detectFacets(text)...)

	sort.SliceStable(facets, func(i, j int) bool {
		return facets[i].ByteStart < facets[j].ByteStart
	})

	return facets
}

// linkFacets locates each span's display text left-to-right. A cursor per
// distinct display string makes duplicate display texts consume successive
// occurrences instead of reusing the same range for two links.
func (b *Builder) linkFacets(text string, links []digest.LinkSpan) []Facet {
	facets := make([]Facet, 0, len(links))
	cursors := make(map[string]int)

	for _, link := range links {
		from := cursors[link.Display]
		if from >= len(text) {
			continue
		}

		idx := strings.Index(text[from:], link.Display)
		if idx < 0 {
			continue
		}

		start := from + idx
		end := start + len(link.Display)
		cursors[link.Display] = end

		facets = append(facets, Facet{
			ByteStart: start,
			ByteEnd:   end,
			URI:       link.Target,
		})
	}

	return facets
}

// detectFacets finds bare URLs in the text, trimming trailing punctuation
// that prose drags into the match.
func (b *Builder) detectFacets(text string) []Facet {
	var facets []Facet

	for _, loc := range bareURL.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		raw := strings.TrimRight(text[start:end], ".,;:!?)")
		if raw == "" {
			continue
		}

		facets = append(facets, Facet{
			ByteStart: start,
			ByteEnd:   start + len(raw),
			URI:       raw,
		})
	}

	return facets
}
