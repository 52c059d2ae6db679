package post

import "github.com/avdmnk/daypost/app/digest"

// Facet is a byte-range link annotation over the final post text. Offsets
// are UTF-8 byte offsets, which is what the posting API indexes by.
type Facet struct {
	ByteStart int
	ByteEnd   int
	URI       string
}

// Composed is a fully decorated, postable update
type Composed struct {
	Text  string
	Links []digest.LinkSpan
	Embed *digest.Image
}
