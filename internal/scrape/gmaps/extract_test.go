package gmaps

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const detailPaneHTML = `<html><body>
<div role="main">
  <h1 class="DUwDvf">Sweet Stuff</h1>
  <span>New</span>
  <button jsaction="pane.rating.category">Bakery</button>
  <span aria-label="4.5 stars"></span>
  <button aria-label="23 reviews">23 reviews</button>
  <button data-item-id="address">&#8203;12 Main St, Austin, TX 78701</button>
  <button data-item-id="phone:tel:+15125550142">(512) 555-0142</button>
  <a data-item-id="authority" href="https://sweetstuff.example">sweetstuff.example</a>
</div>
</body></html>`

const establishedHTML = `<html><body>
<div role="main">
  <h1>Old Reliable Diner</h1>
  <button data-item-id="address">500 Elm St, Dallas, TX 75201</button>
</div>
</body></html>`

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestExtractFullRecord(t *testing.T) {
	doc := parseDoc(t, detailPaneHTML)

	if got := extractName(doc); got != "Sweet Stuff" {
		t.Errorf("name = %q", got)
	}
	if !extractNewBadge(doc) {
		t.Error("expected New badge")
	}
	addr := extractAddress(doc)
	if addr.Street != "12 Main St" {
		t.Errorf("street = %q", addr.Street)
	}
	if addr.City != "Austin, TX" {
		t.Errorf("city = %q", addr.City)
	}
	if addr.ZipCode != "78701" {
		t.Errorf("zip = %q", addr.ZipCode)
	}
	if got := extractPhone(doc); got != "(512) 555-0142" {
		t.Errorf("phone = %q", got)
	}
	if got := extractWebsite(doc); got != "https://sweetstuff.example" {
		t.Errorf("website = %q", got)
	}
	if got := extractReviewCount(doc); got != 23 {
		t.Errorf("reviews = %d", got)
	}
	if got := extractRating(doc); got != 4.5 {
		t.Errorf("rating = %v", got)
	}
	if got := extractCategory(doc, "bakery"); got != "Bakery" {
		t.Errorf("category = %q", got)
	}
}

func TestExtractDefaultsOnMissingFields(t *testing.T) {
	doc := parseDoc(t, establishedHTML)

	if extractNewBadge(doc) {
		t.Error("no badge expected")
	}
	if got := extractName(doc); got != "Old Reliable Diner" {
		t.Errorf("h1 fallback name = %q", got)
	}
	if got := extractPhone(doc); got != "" {
		t.Errorf("phone = %q, want empty", got)
	}
	if got := extractWebsite(doc); got != "" {
		t.Errorf("website = %q, want empty", got)
	}
	if got := extractReviewCount(doc); got != 0 {
		t.Errorf("reviews = %d, want 0", got)
	}
	if got := extractRating(doc); got != 0 {
		t.Errorf("rating = %v, want 0", got)
	}
	if got := extractCategory(doc, "diner"); got != "diner" {
		t.Errorf("category fallback = %q", got)
	}
}

func TestExtractNameDefaultsToUnknown(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>nothing here</p></body></html>`)
	if got := extractName(doc); got != "Unknown Business" {
		t.Errorf("name = %q", got)
	}
}

func TestExtractAddressTwoSegments(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<button data-item-id="address">9 Oak Ave, Portland 97201</button>
	</body></html>`)
	addr := extractAddress(doc)
	if addr.Street != "9 Oak Ave" {
		t.Errorf("street = %q", addr.Street)
	}
	if addr.City != "Portland" {
		t.Errorf("city = %q", addr.City)
	}
	if addr.ZipCode != "97201" {
		t.Errorf("zip = %q", addr.ZipCode)
	}
}

func TestParsePlaceID(t *testing.T) {
	url := "https://www.google.com/maps/place/Sweet+Stuff/data=!4m5!3m4!1s0x89c25a31f0deadbeef!8m2"
	if got := parsePlaceID(url); got != "0x89c25a31f0deadbeef" {
		t.Errorf("place id = %q", got)
	}

	synth := parsePlaceID("https://www.google.com/maps/search/bakery")
	if !strings.HasPrefix(synth, "generated_") {
		t.Errorf("expected synthesized id, got %q", synth)
	}
	if other := parsePlaceID("https://www.google.com/maps/search/bakery"); other == synth {
		t.Error("synthesized ids should differ between calls")
	}
}

func TestDecodeLinks(t *testing.T) {
	links, err := decodeLinks(`["https://a.example","https://b.example"]`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}

	links, err = decodeLinks("  ")
	if err != nil || links != nil {
		t.Fatalf("blank input: links=%v err=%v", links, err)
	}
}
