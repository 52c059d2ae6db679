package digest

import (
	"reflect"
	"strings"
	"testing"
)

const sampleDigest = `<div>
<p><b><a href="/wiki/March_1">March 1</a>: <a href="/wiki/Saint_David%27s_Day">St David's Day</a> in Wales; Independence Day in Bosnia and Herzegovina</b></p>
<ul>
<li><a href="/wiki/1810">1810</a> – <a href="/wiki/Fr%C3%A9d%C3%A9ric_Chopin">Frédéric Chopin</a>, Polish composer, was born in Żelazowa Wola</li>
<li><a href="/wiki/1872">1872</a> – Yellowstone National Park was established <i>(pictured)</i></li>
<li><a href="/wiki/1950">1950</a> – Klaus Fuchs was convicted of espionage</li>
</ul>
<ul>
<li>Frédéric Chopin (<abbr title="born">b.</abbr> 1810)</li>
<li>George Herbert (<abbr title="died">d.</abbr> 1633)</li>
</ul>
<ul style="list-style:none">
<li>More anniversaries: February 28, March 2</li>
</ul>
<div><img src="//upload.example.org/yellowstone.jpg" alt="Yellowstone" width="120" height="80"/></div>
</div>`

func TestSegmenter_Run_UnitOrder(t *testing.T) {
	segmenter := NewSegmenter("pictured")

	fragments, err := segmenter.Run(sampleDigest)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	kinds := make([]UnitKind, 0, len(fragments))
	for _, f := range fragments {
		kinds = append(kinds, f.Kind)
	}

	expected := []UnitKind{
		UnitTodayText,
		UnitHoliday, UnitHoliday,
		UnitEvent, UnitFeaturedEvent, UnitEvent,
		UnitAnniversary, UnitAnniversary,
	}
	if !reflect.DeepEqual(kinds, expected) {
		t.Errorf("Expected kinds %v, got %v", expected, kinds)
	}

	if fragments[0].Kind != UnitTodayText {
		t.Errorf("First fragment must be the today-text unit, got %s", fragments[0].Kind)
	}
}

func TestSegmenter_Run_Idempotent(t *testing.T) {
	segmenter := NewSegmenter("pictured")

	first, err := segmenter.Run(sampleDigest)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := segmenter.Run(sampleDigest)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Segmentation is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestSegmenter_Run_HolidaySplitOnSemicolon(t *testing.T) {
	segmenter := NewSegmenter("pictured")

	html := `<p>December 25: Christmas; Boxing Day observed in some regions</p>`

	fragments, err := segmenter.Run(html)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var holidays []string
	for _, f := range fragments {
		if f.Kind == UnitHoliday {
			holidays = append(holidays, f.HTML)
		}
	}

	if len(holidays) != 2 {
		t.Fatalf("Expected 2 holiday units, got %d: %v", len(holidays), holidays)
	}
	if holidays[0] != "Christmas" {
		t.Errorf("Expected first holiday 'Christmas', got %q", holidays[0])
	}
	if holidays[1] != "Boxing Day observed in some regions" {
		t.Errorf("Expected second holiday split on semicolon, got %q", holidays[1])
	}
}

func TestSegmenter_Run_HolidayNamesKeepCommas(t *testing.T) {
	segmenter := NewSegmenter("pictured")

	html := `<p>June 1: Madaraka Day in Kenya; Gawai Dayak in Sarawak, Malaysia</p>`

	fragments, err := segmenter.Run(html)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var holidays []string
	for _, f := range fragments {
		if f.Kind == UnitHoliday {
			holidays = append(holidays, f.HTML)
		}
	}

	if len(holidays) != 2 {
		t.Fatalf("Expected 2 holiday units, commas must not split, got %d: %v", len(holidays), holidays)
	}
	if holidays[1] != "Gawai Dayak in Sarawak, Malaysia" {
		t.Errorf("Comma-containing holiday was broken up: %q", holidays[1])
	}
}

func TestSegmenter_Run_HolidayNamesKeepApostrophes(t *testing.T) {
	segmenter := NewSegmenter("pictured")

	html := `<p>March 1: St David's Day in Wales; Independence Day in Bosnia and Herzegovina</p>`

	fragments, err := segmenter.Run(html)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var holidays []string
	for _, f := range fragments {
		if f.Kind == UnitHoliday {
			holidays = append(holidays, f.HTML)
		}
	}

	expected := []string{"St David's Day in Wales", "Independence Day in Bosnia and Herzegovina"}
	if !reflect.DeepEqual(holidays, expected) {
		t.Errorf("Apostrophe-containing holiday was broken up:\nexpected %q\ngot      %q", expected, holidays)
	}
}

func TestSegmenter_Run_LinkedHolidayNameNotShattered(t *testing.T) {
	segmenter := NewSegmenter("pictured")

	html := `<p><b>March 1</b>: <a href="/wiki/Saint_David%27s_Day">St David's Day</a> in Wales; Independence Day in Bosnia and Herzegovina</p>`

	fragments, err := segmenter.Run(html)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var holidays []string
	for _, f := range fragments {
		if f.Kind == UnitHoliday {
			holidays = append(holidays, f.HTML)
		}
	}

	if len(holidays) != 2 {
		t.Fatalf("Expected 2 holiday units, got %d: %q", len(holidays), holidays)
	}
	if !strings.Contains(holidays[0], "St David") || !strings.Contains(holidays[0], "in Wales") {
		t.Errorf("Linked holiday name was split apart: %q", holidays[0])
	}
	if holidays[1] != "Independence Day in Bosnia and Herzegovina" {
		t.Errorf("Expected second holiday intact, got %q", holidays[1])
	}
}

func TestSegmenter_Run_NoColonMeansNoHolidays(t *testing.T) {
	segmenter := NewSegmenter("pictured")

	fragments, err := segmenter.Run(`<p>March 1</p>`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(fragments) != 1 {
		t.Fatalf("Expected only the today-text unit, got %d fragments", len(fragments))
	}
	if fragments[0].Kind != UnitTodayText {
		t.Errorf("Expected today-text unit, got %s", fragments[0].Kind)
	}
	if fragments[0].HTML != "March 1" {
		t.Errorf("Expected today-text 'March 1', got %q", fragments[0].HTML)
	}
}

func TestSegmenter_Run_FeaturedEventImage(t *testing.T) {
	segmenter := NewSegmenter("pictured")

	fragments, err := segmenter.Run(sampleDigest)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var featured *Fragment
	for i := range fragments {
		if fragments[i].Kind == UnitFeaturedEvent {
			featured = &fragments[i]
			break
		}
	}

	if featured == nil {
		t.Fatal("Expected a featured event unit")
	}
	if featured.Image == nil {
		t.Fatal("Featured event must carry the document image")
	}
	if featured.Image.URL != "https://upload.example.org/yellowstone.jpg" {
		t.Errorf("Scheme-relative image URL not completed: %q", featured.Image.URL)
	}
	if featured.Image.Alt != "Yellowstone" {
		t.Errorf("Expected alt 'Yellowstone', got %q", featured.Image.Alt)
	}
	if featured.Image.Width != 120 || featured.Image.Height != 80 {
		t.Errorf("Expected 120x80, got %dx%d", featured.Image.Width, featured.Image.Height)
	}
}

func TestSegmenter_Run_MarkerWithoutImageStaysEvent(t *testing.T) {
	segmenter := NewSegmenter("pictured")

	html := `<p>March 1</p><ul><li>1872 – Yellowstone established <i>(pictured)</i></li></ul>`

	fragments, err := segmenter.Run(html)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, f := range fragments {
		if f.Kind == UnitFeaturedEvent {
			t.Error("Marker without an image resource must not promote the unit")
		}
	}
}

func TestSegmenter_Run_EmptySectionsAreValid(t *testing.T) {
	segmenter := NewSegmenter("pictured")

	fragments, err := segmenter.Run(`<p>March 1</p><ul></ul>`)
	if err != nil {
		t.Fatalf("Empty sections must not be an error: %v", err)
	}

	for _, f := range fragments {
		if f.Kind != UnitTodayText {
			t.Errorf("Expected no units besides today-text, got %s", f.Kind)
		}
	}
}

func TestSegmenter_Run_StyledListIsNotAnniversaries(t *testing.T) {
	segmenter := NewSegmenter("pictured")

	html := `<p>March 1</p>
<ul><li>1950 – An event</li></ul>
<ul style="list-style:none"><li>Footer link list</li></ul>`

	fragments, err := segmenter.Run(html)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, f := range fragments {
		if f.Kind == UnitAnniversary {
			t.Errorf("Inline-styled footer list was mistaken for anniversaries: %q", f.HTML)
		}
	}
}
