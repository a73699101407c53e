package util

import (
	"regexp"
	"strings"
)

var cityCharRe = regexp.MustCompile(`[^a-z0-9 ,]`)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// NormalizeCity lowercases and strips everything except letters, digits,
// spaces and commas, so "Springfield, IL." and "springfield, il" compare equal.
func NormalizeCity(city string) string {
	city = strings.ToLower(CleanText(city))
	city = cityCharRe.ReplaceAllString(city, "")
	return strings.TrimSpace(city)
}

// CityMatches reports whether an extracted city belongs to the target city.
// Either normalized form may contain the other, or the extracted city must
// contain the target's first comma-delimited segment ("springfield township"
// matches target "Springfield, IL" through the bare city name).
func CityMatches(extracted, target string) bool {
	e := NormalizeCity(extracted)
	t := NormalizeCity(target)
	if e == "" || t == "" {
		return false
	}
	if strings.Contains(e, t) || strings.Contains(t, e) {
		return true
	}
	first := strings.TrimSpace(strings.SplitN(t, ",", 2)[0])
	return first != "" && strings.Contains(e, first)
}
