// Package gmaps drives a headless browser against the Google Maps search
// UI and extracts newly-badged businesses for one (keyword, city) pair.
package gmaps

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/scrape/types"
	"leadscout-engine/internal/scrape/util"
)

const (
	maxRetries = 2
	retryPause = 5 * time.Second
)

type Options struct {
	Headless    bool
	Timeout     time.Duration // per-attempt browser budget
	MaxNewLeads int           // scan stops once this many leads are collected
}

// browser is the slice of session behaviour Scan drives: harvest the feed
// links, then render each place. Tests substitute canned pages for the
// real chromedp session.
type browser interface {
	openSearch(ctx context.Context, keyword, city string) ([]string, error)
	placeHTML(ctx context.Context, placeURL string) (html, finalURL string, err error)
	Close()
}

type Scraper struct {
	opts    Options
	limiter *util.HostLimiter

	pause   time.Duration
	connect func(ctx context.Context, headless bool) (browser, error)
}

func New(opts Options, limiter *util.HostLimiter) *Scraper {
	if opts.MaxNewLeads <= 0 {
		opts.MaxNewLeads = 20
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Scraper{
		opts:    opts,
		limiter: limiter,
		pause:   retryPause,
		connect: func(ctx context.Context, headless bool) (browser, error) {
			return newSession(ctx, headless)
		},
	}
}

func (s *Scraper) Name() string { return "google_maps" }

// Scan runs one full extraction pass with up to two whole-pass retries.
// Failures are absorbed into the client's scan history: a challenge page
// records "skipped", exhausted retries record "failed", and both return an
// empty result rather than an error so sibling combinations still run.
func (s *Scraper) Scan(ctx context.Context, job types.Job) (types.Result, error) {
	result := types.Result{Source: domain.SourceMaps}
	if strings.TrimSpace(job.TargetCity) == "" {
		log.Printf("[gmaps] no target city for %s, skipping", job.Client.BusinessName)
		return result, nil
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("[gmaps] retrying %q in %q (attempt %d/%d)",
				job.Keyword, job.TargetCity, attempt+1, maxRetries+1)
			select {
			case <-time.After(s.pause):
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				lastErr = ctx.Err()
				break
			}
		}

		leads, err := s.runOnce(ctx, job)
		if err == nil {
			result.Leads = leads
			if histErr := job.Store.AppendHistory(ctx, domain.ScanSuccess, len(leads), ""); histErr != nil {
				return result, histErr
			}
			log.Printf("[gmaps] %s: %d new lead(s) for %q in %q",
				job.Client.BusinessName, len(leads), job.Keyword, job.TargetCity)
			return result, nil
		}
		if errors.Is(err, types.ErrChallenge) {
			log.Printf("[gmaps] challenge page for %s, skipping combination", job.Client.BusinessName)
			if histErr := job.Store.AppendHistory(ctx, domain.ScanSkipped, 0, "challenge page detected"); histErr != nil {
				return result, histErr
			}
			return result, nil
		}
		log.Printf("[gmaps] scan error for %s: %v", job.Client.BusinessName, err)
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	if histErr := job.Store.AppendHistory(ctx, domain.ScanFailed, 0, lastErr.Error()); histErr != nil {
		return result, histErr
	}
	return result, nil
}

func (s *Scraper) runOnce(ctx context.Context, job types.Job) ([]domain.Lead, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.WaitHost(attemptCtx, "www.google.com"); err != nil {
			return nil, err
		}
	}

	sess, err := s.connect(context.Background(), s.opts.Headless)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	links, err := sess.openSearch(attemptCtx, job.Keyword, job.TargetCity)
	if err != nil {
		if errors.Is(err, errFeedTimeout) {
			log.Printf("[gmaps] no results for %q in %q", job.Keyword, job.TargetCity)
			return nil, nil
		}
		return nil, err
	}
	if len(links) == 0 {
		log.Printf("[gmaps] empty feed for %q in %q", job.Keyword, job.TargetCity)
		return nil, nil
	}
	log.Printf("[gmaps] %d businesses in feed, scanning for new ones", len(links))

	var leads []domain.Lead
	for i, link := range links {
		if len(leads) >= s.opts.MaxNewLeads {
			log.Printf("[gmaps] reached cap of %d new leads, stopping", s.opts.MaxNewLeads)
			break
		}
		if attemptCtx.Err() != nil {
			return nil, attemptCtx.Err()
		}

		lead, ok, err := s.processPlace(attemptCtx, sess, job, link)
		if err != nil {
			// One broken listing is not worth failing the pass.
			log.Printf("[gmaps] [%d/%d] listing error: %v", i+1, len(links), err)
			continue
		}
		if ok {
			leads = append(leads, lead)
			log.Printf("[gmaps] [%d/%d] lead %d/%d collected: %s",
				i+1, len(links), len(leads), s.opts.MaxNewLeads, lead.BusinessName)
		}
	}
	return leads, nil
}

// processPlace opens one listing and returns its lead when it qualifies:
// carries the New badge, matches the target city, and is not already stored.
func (s *Scraper) processPlace(ctx context.Context, sess browser, job types.Job, link string) (domain.Lead, bool, error) {
	html, finalURL, err := sess.placeHTML(ctx, link)
	if err != nil {
		return domain.Lead{}, false, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.Lead{}, false, err
	}

	// Cheapest disqualifier first.
	if !extractNewBadge(doc) {
		return domain.Lead{}, false, nil
	}

	name := extractName(doc)
	addr := extractAddress(doc)
	if addr.City != "" && !util.CityMatches(addr.City, job.TargetCity) {
		log.Printf("[gmaps] %s: city %q does not match target %q", name, addr.City, job.TargetCity)
		return domain.Lead{}, false, nil
	}
	city := addr.City
	if city == "" {
		city = job.TargetCity
	}

	placeID := parsePlaceID(finalURL)
	exists, err := job.Store.ExistsByKey(ctx, placeID, job.Keyword, job.TargetCity)
	if err != nil {
		return domain.Lead{}, false, err
	}
	if exists {
		log.Printf("[gmaps] %s: already in database", name)
		return domain.Lead{}, false, nil
	}

	lead := domain.Lead{
		Source:        domain.SourceMaps,
		SourceID:      placeID,
		BusinessName:  name,
		Street:        addr.Street,
		City:          city,
		ZipCode:       addr.ZipCode,
		Phone:         extractPhone(doc),
		Website:       extractWebsite(doc),
		MapURL:        finalURL,
		ReviewCount:   extractReviewCount(doc),
		Rating:        extractRating(doc),
		Category:      extractCategory(doc, job.Keyword),
		SearchKeyword: job.Keyword,
		TargetCity:    job.TargetCity,
		FoundAt:       time.Now().UTC(),
	}
	if _, err := job.Store.InsertLead(ctx, lead); err != nil {
		return domain.Lead{}, false, err
	}
	return lead, true, nil
}
