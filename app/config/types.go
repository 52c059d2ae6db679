package config

// SourceConfig describes the digest source: where the feed lives and the
// markers the segmenter and sanitizer key off. Keeping the markers in
// configuration isolates the splitting heuristics from the publication
// logic, so upstream markup drift is a config change, not a code change.
type SourceConfig struct {
	Source   SourceInfo     `yaml:"source"`
	Settings SourceSettings `yaml:"settings"`
}

// SourceInfo contains the feed location and link resolution origin
type SourceInfo struct {
	FeedURL    string `yaml:"feed_url"`
	SiteOrigin string `yaml:"site_origin"`
}

// SourceSettings contains fetch and segmentation settings
type SourceSettings struct {
	Timeout     int    `yaml:"timeout"` // seconds
	ImageMarker string `yaml:"image_marker"`
	BornMarker  string `yaml:"born_marker"`
	DiedMarker  string `yaml:"died_marker"`
	Language    string `yaml:"language"`
}
