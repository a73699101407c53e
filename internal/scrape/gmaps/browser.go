package gmaps

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"leadscout-engine/internal/scrape/types"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

var errFeedTimeout = errors.New("result feed never rendered")

const consentScript = `(function () {
  const selectors = [
    'button[aria-label="Accept all"]',
    'button[aria-label="I agree"]',
    'button.VfPpkd-LgbsSe-OWXEXe-k8QpJ'
  ];
  for (const sel of selectors) {
    const btn = document.querySelector(sel);
    if (btn) {
      btn.click();
      return true;
    }
  }
  return false;
})();`

const challengeScript = `(function () {
  const text = (document.body && document.body.innerText || '').toLowerCase();
  return text.includes('captcha') || text.includes('unusual traffic');
})();`

const feedLinksScript = `(function () {
  let links = Array.from(document.querySelectorAll('[role="feed"] a.hfpxzc'));
  if (links.length === 0) {
    links = Array.from(document.querySelectorAll('[role="feed"] > div > div > a'));
  }
  return JSON.stringify(links.map(a => a.href).filter(h => h));
})();`

// session owns one headless browser for the duration of one adapter call.
// Close must run on every exit path so no Chrome process outlives the scan.
type session struct {
	browserCtx context.Context
	cancels    []context.CancelFunc
}

func newSession(parent context.Context, headless bool) (*session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Start the browser now so a broken Chrome install fails fast.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, err
	}
	return &session{
		browserCtx: browserCtx,
		cancels:    []context.CancelFunc{cancelBrowser, cancelAlloc},
	}, nil
}

func (s *session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

func searchURL(keyword, city string) string {
	return "https://www.google.com/maps/search/" + url.QueryEscape(keyword+" "+city)
}

// openSearch navigates to the search results page and returns the place
// URLs in feed order. A challenge page yields ErrChallenge; a feed that
// never renders yields errFeedTimeout (the caller treats that as zero
// results, not failure).
func (s *session) openSearch(ctx context.Context, keyword, city string) ([]string, error) {
	runCtx, cancel := context.WithTimeout(s.browserCtx, timeoutOr(ctx, 60*time.Second))
	defer cancel()
	defer bridgeCancel(ctx, cancel)()

	var challenged bool
	err := chromedp.Run(runCtx,
		chromedp.Navigate(searchURL(keyword, city)),
		chromedp.Sleep(3*time.Second),
		chromedp.Evaluate(consentScript, nil),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(challengeScript, &challenged),
	)
	if err != nil {
		return nil, err
	}
	if challenged {
		return nil, types.ErrChallenge
	}

	feedCtx, cancelFeed := context.WithTimeout(runCtx, 20*time.Second)
	defer cancelFeed()
	if err := chromedp.Run(feedCtx,
		chromedp.WaitVisible(`[role="feed"]`, chromedp.ByQuery),
	); err != nil {
		if errors.Is(feedCtx.Err(), context.DeadlineExceeded) {
			return nil, errFeedTimeout
		}
		return nil, err
	}

	var rawJSON string
	if err := chromedp.Run(runCtx,
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(feedLinksScript, &rawJSON),
	); err != nil {
		return nil, err
	}
	return decodeLinks(rawJSON)
}

func decodeLinks(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var links []string
	if err := json.Unmarshal([]byte(raw), &links); err != nil {
		return nil, err
	}
	return links, nil
}

// placeHTML opens the place URL in a fresh tab and captures the rendered
// document plus the final (redirected) URL, which carries the place id.
func (s *session) placeHTML(ctx context.Context, placeURL string) (html, finalURL string, err error) {
	tabCtx, cancelTab := chromedp.NewContext(s.browserCtx)
	defer cancelTab()

	runCtx, cancel := context.WithTimeout(tabCtx, timeoutOr(ctx, 45*time.Second))
	defer cancel()
	defer bridgeCancel(ctx, cancel)()

	err = chromedp.Run(runCtx,
		chromedp.Navigate(placeURL),
		chromedp.Sleep(3*time.Second),
		chromedp.WaitVisible("h1", chromedp.ByQuery),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", "", err
	}
	if finalURL == "" {
		finalURL = placeURL
	}
	return html, finalURL, nil
}

// bridgeCancel fires cancel as soon as outer is done, so browser work
// rooted in the session context still aborts when the scan is cancelled
// rather than waiting out its timeout. The returned release stops the
// watcher on the normal exit path.
func bridgeCancel(outer context.Context, cancel context.CancelFunc) (release func()) {
	stop := make(chan struct{})
	go func() {
		select {
		case <-outer.Done():
			cancel()
		case <-stop:
		}
	}()
	return func() { close(stop) }
}

// timeoutOr returns the remaining time on ctx's deadline, or fallback when
// ctx has none.
func timeoutOr(ctx context.Context, fallback time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			return remaining
		}
	}
	return fallback
}
