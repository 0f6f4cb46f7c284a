package sitemap

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"seo-audit/pkg/fetch"
	"seo-audit/pkg/models"
)

// xmlURL represents a <url> element in a sitemap
type xmlURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	Priority   string `xml:"priority,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
}

// xmlURLSet represents a <urlset> document
type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []xmlURL `xml:"url"`
}

// xmlSitemapRef represents a <sitemap> element in a sitemap index
type xmlSitemapRef struct {
	Loc string `xml:"loc"`
}

// xmlSitemapIndex represents a <sitemapindex> document
type xmlSitemapIndex struct {
	XMLName  xml.Name        `xml:"sitemapindex"`
	Sitemaps []xmlSitemapRef `xml:"sitemap"`
}

// Resolver fetches sitemaps and flattens sitemap-index indirection to any
// depth. Resolution is best-effort: a failed or unparseable sitemap
// contributes no entries and never aborts the crawl.
type Resolver struct {
	fetcher     *fetch.Fetcher
	rateLimiter *fetch.RateLimiter
	userAgent   string
	log         *logrus.Entry
}

// NewResolver creates a Resolver
func NewResolver(fetcher *fetch.Fetcher, rateLimiter *fetch.RateLimiter, userAgent string, log *logrus.Logger) *Resolver {
	return &Resolver{
		fetcher:     fetcher,
		rateLimiter: rateLimiter,
		userAgent:   userAgent,
		log:         log.WithField("component", "sitemap"),
	}
}

// Resolve fetches the sitemap at sitemapURL and returns every URL it
// declares. Index documents are followed transparently, depth-first, with
// cycle protection; results from child sitemaps are concatenated in document
// order.
func (r *Resolver) Resolve(ctx context.Context, sitemapURL string) []models.SitemapEntry {
	seen := make(map[string]bool)
	return r.resolve(ctx, sitemapURL, seen)
}

func (r *Resolver) resolve(ctx context.Context, sitemapURL string, seen map[string]bool) []models.SitemapEntry {
	if seen[sitemapURL] {
		r.log.Debugf("Skipping already processed sitemap: %s", sitemapURL)
		return nil
	}
	seen[sitemapURL] = true

	smLog := r.log.WithField("sitemap_url", sitemapURL)

	body, ok := r.fetchSitemap(ctx, sitemapURL, smLog)
	if !ok {
		return nil
	}

	// Try the index shape first; an index document that also fails to parse
	// as a urlset is simply dropped
	var index xmlSitemapIndex
	errIndex := xml.Unmarshal(body, &index)
	if errIndex == nil && len(index.Sitemaps) > 0 {
		smLog.Infof("Parsed as sitemap index, following %d child sitemaps", len(index.Sitemaps))
		var entries []models.SitemapEntry
		for _, ref := range index.Sitemaps {
			if ref.Loc == "" {
				continue
			}
			if _, err := url.ParseRequestURI(ref.Loc); err != nil {
				smLog.Warnf("Invalid child sitemap URL '%s': %v", ref.Loc, err)
				continue
			}
			entries = append(entries, r.resolve(ctx, ref.Loc, seen)...)
		}
		return entries
	}

	var urlSet xmlURLSet
	if err := xml.Unmarshal(body, &urlSet); err != nil {
		if errIndex != nil {
			smLog.Warnf("Failed to parse XML (index err=%v; urlset err=%v)", errIndex, err)
		} else {
			smLog.Warnf("Content was not a valid sitemap index or URL set: %v", err)
		}
		return nil
	}

	smLog.Infof("Parsed as URL set, found %d URLs", len(urlSet.URLs))
	entries := make([]models.SitemapEntry, 0, len(urlSet.URLs))
	for _, u := range urlSet.URLs {
		if u.Loc == "" {
			continue
		}
		parsed, err := url.Parse(u.Loc)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			continue
		}
		entries = append(entries, models.SitemapEntry{
			URL:          u.Loc,
			LastModified: u.LastMod,
			Priority:     u.Priority,
			ChangeFreq:   u.ChangeFreq,
		})
	}
	return entries
}

// fetchSitemap retrieves the raw sitemap bytes, returning ok=false on any
// failure
func (r *Resolver) fetchSitemap(ctx context.Context, sitemapURL string, smLog *logrus.Entry) ([]byte, bool) {
	parsed, err := url.Parse(sitemapURL)
	if err != nil {
		smLog.Errorf("Failed to parse sitemap URL: %v", err)
		return nil, false
	}
	host := parsed.Hostname()

	r.rateLimiter.ApplyDelay(host, 0)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		smLog.Errorf("Request creation error: %v", err)
		return nil, false
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, fetchErr := r.fetcher.FetchWithRetry(req, ctx)
	r.rateLimiter.UpdateLastRequestTime(host)
	if fetchErr != nil {
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		smLog.Warnf("Fetch failed: %v", fetchErr)
		return nil, false
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		smLog.Errorf("Read body error: %v", readErr)
		return nil, false
	}
	return body, true
}
