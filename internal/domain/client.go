package domain

import "strings"

// Client is one subscriber of the lead feed. Identity is the email address.
type Client struct {
	Email        string   `json:"email"`
	BusinessName string   `json:"businessName"`
	ContactName  string   `json:"contactName,omitempty"`
	TargetCities []string `json:"targetCities"`
	Keywords     []string `json:"keywords"`
	IsActive     bool     `json:"isActive"`
}

// Combination is one (keyword, city) cell of a client's search grid.
type Combination struct {
	Keyword    string
	TargetCity string
}

// Combinations returns the keyword x city cross product in configured order.
func (c Client) Combinations() []Combination {
	out := make([]Combination, 0, len(c.Keywords)*len(c.TargetCities))
	for _, kw := range c.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		for _, city := range c.TargetCities {
			city = strings.TrimSpace(city)
			if city == "" {
				continue
			}
			out = append(out, Combination{Keyword: kw, TargetCity: city})
		}
	}
	return out
}
