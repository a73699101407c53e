// Package yelp queries the Yelp Fusion business-search API for one
// (keyword, city) pair. All returned businesses are treated as established
// listings; there is no "new" signal in the API.
package yelp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/scrape/types"
	"leadscout-engine/internal/scrape/util"
)

const (
	defaultBaseURL = "https://api.yelp.com"
	searchRadius   = 1609 // meters, ~1 mile
	searchLimit    = 50
	sourceIDPrefix = "yelp_api_"
)

type Scraper struct {
	apiKey  func() string
	baseURL string
	hc      *http.Client
	limiter *util.HostLimiter
}

// New builds the adapter. apiKey is read per call so a settings save takes
// effect without restarting anything.
func New(apiKey func() string, limiter *util.HostLimiter) *Scraper {
	return &Scraper{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
	}
}

func (s *Scraper) Name() string { return "yelp_api" }

type business struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	URL          string  `json:"url"`
	Phone        string  `json:"phone"`
	DisplayPhone string  `json:"display_phone"`
	ReviewCount  int     `json:"review_count"`
	Rating       float64 `json:"rating"`
	Categories   []struct {
		Title string `json:"title"`
	} `json:"categories"`
	Location struct {
		Address1 string `json:"address1"`
		City     string `json:"city"`
		State    string `json:"state"`
		ZipCode  string `json:"zip_code"`
	} `json:"location"`
}

type searchResponse struct {
	Businesses []business `json:"businesses"`
}

// Scan returns only businesses that pass the city filter and are not
// already stored. Missing API key or target city is a quiet no-op; API
// errors are logged and produce an empty result without retrying.
func (s *Scraper) Scan(ctx context.Context, job types.Job) (types.Result, error) {
	result := types.Result{Source: domain.SourceYelp}

	key := strings.TrimSpace(s.apiKey())
	if key == "" {
		log.Printf("[yelp] no API key configured, skipping")
		return result, nil
	}
	if strings.TrimSpace(job.TargetCity) == "" {
		log.Printf("[yelp] no target city for %s, skipping", job.Client.BusinessName)
		return result, nil
	}

	businesses, err := s.search(ctx, key, job.Keyword, job.TargetCity)
	if err != nil {
		log.Printf("[yelp] search error: %v", err)
		if histErr := job.Store.AppendHistory(ctx, domain.ScanFailed, 0, err.Error()); histErr != nil {
			return result, histErr
		}
		return result, nil
	}
	log.Printf("[yelp] %d businesses within 1 mile of %q", len(businesses), job.TargetCity)

	for _, b := range businesses {
		if !util.CityMatches(b.Location.City, job.TargetCity) {
			log.Printf("[yelp] %s: city %q does not match target %q", b.Name, b.Location.City, job.TargetCity)
			continue
		}

		dup, err := job.Store.ExistsByFuzzy(ctx, b.Name, b.Phone, b.Location.Address1, job.Keyword, job.TargetCity)
		if err != nil {
			return result, err
		}
		if dup {
			continue
		}

		lead := s.toLead(b, job)
		if _, err := job.Store.InsertLead(ctx, lead); err != nil {
			return result, err
		}
		result.Leads = append(result.Leads, lead)
		log.Printf("[yelp] lead %d collected: %s", len(result.Leads), b.Name)
	}

	if histErr := job.Store.AppendHistory(ctx, domain.ScanSuccess, len(result.Leads), ""); histErr != nil {
		return result, histErr
	}
	log.Printf("[yelp] completed: %d new lead(s)", len(result.Leads))
	return result, nil
}

func (s *Scraper) search(ctx context.Context, key, keyword, city string) ([]business, error) {
	params := url.Values{
		"term":     {keyword},
		"location": {city},
		"radius":   {fmt.Sprint(searchRadius)},
		"limit":    {fmt.Sprint(searchLimit)},
	}
	searchURL := s.baseURL + "/v3/businesses/search?" + params.Encode()

	if s.limiter != nil {
		if err := s.limiter.WaitURL(ctx, searchURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")

	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return parsed.Businesses, nil
}

func (s *Scraper) toLead(b business, job types.Job) domain.Lead {
	city := job.TargetCity
	if b.Location.City != "" {
		city = b.Location.City
		if b.Location.State != "" {
			city += ", " + b.Location.State
		}
	}
	phone := b.Phone
	if phone == "" {
		phone = b.DisplayPhone
	}
	category := job.Keyword
	if len(b.Categories) > 0 && b.Categories[0].Title != "" {
		category = b.Categories[0].Title
	}
	mapURL := b.URL
	if mapURL == "" {
		mapURL = "https://www.yelp.com/biz/" + b.ID
	}

	return domain.Lead{
		Source:        domain.SourceYelp,
		SourceID:      sourceIDPrefix + b.ID,
		BusinessName:  b.Name,
		Street:        b.Location.Address1,
		City:          city,
		ZipCode:       b.Location.ZipCode,
		Phone:         phone,
		Website:       b.URL,
		MapURL:        mapURL,
		ReviewCount:   b.ReviewCount,
		Rating:        b.Rating,
		Category:      category,
		SearchKeyword: job.Keyword,
		TargetCity:    job.TargetCity,
		FoundAt:       time.Now().UTC(),
	}
}
