package gmaps

import (
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"leadscout-engine/internal/scrape/util"
)

// Field extractors over the captured detail-pane document. Each returns a
// zero value when its selector or parse fails; a bad field never aborts the
// record.

var (
	placeIDRe   = regexp.MustCompile(`!1s(0x[a-f0-9:]+)`)
	stateZipRe  = regexp.MustCompile(`([A-Z]{2})\s*(\d{5})`)
	zipRe       = regexp.MustCompile(`\b\d{5}\b`)
	intRe       = regexp.MustCompile(`\d+`)
	floatRe     = regexp.MustCompile(`\d+(\.\d+)?`)
	invisibleRe = regexp.MustCompile("[\u200b-\u200d\ufeff\u00a0]")
	nonPrintRe  = regexp.MustCompile(`[^\x20-\x7e]`)
)

func extractName(doc *goquery.Document) string {
	if name := util.CleanText(doc.Find("h1.DUwDvf").First().Text()); name != "" {
		return name
	}
	if name := util.CleanText(doc.Find("h1").First().Text()); name != "" {
		return name
	}
	return "Unknown Business"
}

// extractNewBadge looks for the "New" marker Maps puts on recently listed
// places. This is the cheapest qualifying check and runs before any other
// field extraction.
func extractNewBadge(doc *goquery.Document) bool {
	found := false
	doc.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) == "New" {
			found = true
			return false
		}
		return true
	})
	return found
}

type address struct {
	Street  string
	City    string
	ZipCode string
}

// extractAddress parses the copy-address button text. Three or more
// comma segments carry street, city and a trailing "ST 12345"; two
// segments carry street and a city that may embed a zip.
func extractAddress(doc *goquery.Document) address {
	raw := doc.Find(`button[data-item-id*="address"]`).First().Text()
	raw = strings.TrimSpace(nonPrintRe.ReplaceAllString(invisibleRe.ReplaceAllString(raw, " "), " "))
	raw = util.CleanText(raw)
	if raw == "" {
		return address{}
	}

	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var a address
	switch {
	case len(parts) >= 3:
		a.Street = parts[0]
		a.City = parts[1]
		last := parts[len(parts)-1]
		if m := stateZipRe.FindStringSubmatch(last); m != nil {
			a.ZipCode = m[2]
			a.City = a.City + ", " + m[1]
		}
	case len(parts) == 2:
		a.Street = parts[0]
		last := parts[1]
		if m := zipRe.FindString(last); m != "" {
			a.ZipCode = m
			a.City = strings.TrimSpace(strings.Replace(last, m, "", 1))
		} else {
			a.City = last
		}
	}
	return a
}

func extractPhone(doc *goquery.Document) string {
	sel := doc.Find(`button[data-item-id*="phone"]`).First()
	if sel.Length() == 0 {
		sel = doc.Find(`button[aria-label*="Phone"]`).First()
	}
	if sel.Length() == 0 {
		sel = doc.Find(`button[data-tooltip*="Copy phone"]`).First()
	}
	phone := util.CleanText(sel.Text())
	phone = strings.NewReplacer("Copy phone number", "", "Phone:", "").Replace(phone)
	return strings.TrimSpace(phone)
}

func extractWebsite(doc *goquery.Document) string {
	href, _ := doc.Find(`a[data-item-id*="authority"]`).First().Attr("href")
	return strings.TrimSpace(href)
}

func extractReviewCount(doc *goquery.Document) int {
	text := doc.Find(`button[aria-label*="review"]`).First().Text()
	if m := intRe.FindString(text); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
	}
	return 0
}

func extractRating(doc *goquery.Document) float64 {
	label, ok := doc.Find(`span[aria-label*="star"]`).First().Attr("aria-label")
	if !ok {
		return 0
	}
	if m := floatRe.FindString(label); m != "" {
		if f, err := strconv.ParseFloat(m, 64); err == nil {
			return f
		}
	}
	return 0
}

func extractCategory(doc *goquery.Document, fallback string) string {
	if cat := util.CleanText(doc.Find(`button[jsaction*="category"]`).First().Text()); cat != "" {
		return cat
	}
	return fallback
}

// parsePlaceID pulls the hex place identifier out of a Maps place URL.
// Unparseable URLs get a synthesized id so the record is never dropped.
func parsePlaceID(mapURL string) string {
	if m := placeIDRe.FindStringSubmatch(mapURL); m != nil {
		return m[1]
	}
	return "generated_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + strconv.Itoa(rand.Intn(1_000_000))
}
