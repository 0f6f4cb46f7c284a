package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// RobotsHandler fetches, parses and caches robots.txt data per host.
// A fetch or parse failure is cached as nil, which TestAgent treats as
// "allow everything".
type RobotsHandler struct {
	fetcher       *Fetcher
	rateLimiter   *RateLimiter
	userAgent     string
	robotsCache   map[string]*robotstxt.RobotsData // hostname -> parsed data (or nil)
	sitemaps      map[string][]string              // hostname -> sitemap URLs declared in robots.txt
	robotsCacheMu sync.Mutex
	log           *logrus.Entry
}

// NewRobotsHandler creates a RobotsHandler
func NewRobotsHandler(fetcher *Fetcher, rateLimiter *RateLimiter, userAgent string, log *logrus.Logger) *RobotsHandler {
	return &RobotsHandler{
		fetcher:     fetcher,
		rateLimiter: rateLimiter,
		userAgent:   userAgent,
		robotsCache: make(map[string]*robotstxt.RobotsData),
		sitemaps:    make(map[string][]string),
		log:         log.WithField("component", "robots"),
	}
}

// getRobotsData returns the parsed robots.txt for the target's host, fetching
// and caching it on first use
func (rh *RobotsHandler) getRobotsData(ctx context.Context, targetURL *url.URL) *robotstxt.RobotsData {
	host := targetURL.Hostname()

	rh.robotsCacheMu.Lock()
	robotsData, found := rh.robotsCache[host]
	rh.robotsCacheMu.Unlock()
	if found {
		return robotsData
	}

	robotsURL := &url.URL{Scheme: targetURL.Scheme, Host: targetURL.Host, Path: "/robots.txt"}
	if robotsURL.Scheme != "http" && robotsURL.Scheme != "https" {
		robotsURL.Scheme = "https"
	}
	robotsLog := rh.log.WithFields(logrus.Fields{"host": host, "robots_url": robotsURL.String()})
	robotsLog.Info("Fetching robots.txt...")

	cache := func(data *robotstxt.RobotsData) *robotstxt.RobotsData {
		rh.robotsCacheMu.Lock()
		rh.robotsCache[host] = data
		rh.robotsCacheMu.Unlock()
		return data
	}

	rh.rateLimiter.ApplyDelay(host, 0)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		robotsLog.Errorf("Error creating request: %v", err)
		return cache(nil)
	}
	req.Header.Set("User-Agent", rh.userAgent)

	resp, fetchErr := rh.fetcher.FetchWithRetry(req, ctx)
	rh.rateLimiter.UpdateLastRequestTime(host)
	if fetchErr != nil {
		drainAndClose(resp)
		robotsLog.Warnf("Fetching robots.txt failed: %v", fetchErr)
		return cache(nil)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		robotsLog.Errorf("Error reading body: %v", err)
		return cache(nil)
	}

	data, err := robotstxt.FromBytes(bodyBytes)
	if err != nil {
		robotsLog.Errorf("Error parsing content: %v", err)
		return cache(nil)
	}

	robotsLog.Info("Successfully fetched and parsed robots.txt")
	if len(data.Sitemaps) > 0 {
		robotsLog.Infof("Found %d sitemap directive(s)", len(data.Sitemaps))
		rh.robotsCacheMu.Lock()
		rh.sitemaps[host] = append(rh.sitemaps[host], data.Sitemaps...)
		rh.robotsCacheMu.Unlock()
	}
	return cache(data)
}

// TestAgent checks whether the configured user agent may fetch targetURL.
// Returns true when robots data could not be obtained.
func (rh *RobotsHandler) TestAgent(ctx context.Context, targetURL *url.URL) bool {
	robotsData := rh.getRobotsData(ctx, targetURL)
	if robotsData == nil {
		return true
	}
	return robotsData.TestAgent(targetURL.RequestURI(), rh.userAgent)
}

// Sitemaps returns the sitemap URLs declared in robots.txt for the target's
// host, fetching robots.txt first if needed
func (rh *RobotsHandler) Sitemaps(ctx context.Context, targetURL *url.URL) []string {
	rh.getRobotsData(ctx, targetURL)
	rh.robotsCacheMu.Lock()
	defer rh.robotsCacheMu.Unlock()
	return append([]string(nil), rh.sitemaps[targetURL.Hostname()]...)
}
