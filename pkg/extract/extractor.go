package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"seo-audit/pkg/config"
	"seo-audit/pkg/fetch"
	"seo-audit/pkg/models"
	"seo-audit/pkg/parse"
	"seo-audit/pkg/utils"
)

// Extractor is the page fetch + metadata extraction collaborator. Given a
// crawl task it fetches the page, pulls the on-page SEO fields, grades them,
// and collects same-domain outbound links for the controller to enqueue.
type Extractor struct {
	fetcher     *fetch.Fetcher
	rateLimiter *fetch.RateLimiter
	robots      *fetch.RobotsHandler // nil when robots checking is disabled
	opts        *config.Options
	baseURL     *url.URL
	log         *logrus.Entry
}

// NewExtractor creates an Extractor scoped to baseURL's domain
func NewExtractor(
	fetcher *fetch.Fetcher,
	rateLimiter *fetch.RateLimiter,
	robots *fetch.RobotsHandler,
	opts *config.Options,
	baseURL *url.URL,
	log *logrus.Logger,
) *Extractor {
	return &Extractor{
		fetcher:     fetcher,
		rateLimiter: rateLimiter,
		robots:      robots,
		opts:        opts,
		baseURL:     baseURL,
		log:         log.WithField("component", "extract"),
	}
}

// ExtractPage fetches and analyzes one URL. Any error is returned to the
// batch scheduler, which converts it into an errored PageResult; nothing here
// halts the crawl.
func (e *Extractor) ExtractPage(ctx context.Context, task models.CrawlTask, inSitemap bool) (*models.PageResult, error) {
	taskLog := e.log.WithFields(logrus.Fields{"url": task.URL, "depth": task.Depth})

	parsedURL, err := url.Parse(task.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing URL '%s': %w", utils.ErrParsing, task.URL, err)
	}
	host := parsedURL.Hostname()

	if e.robots != nil && !e.robots.TestAgent(ctx, parsedURL) {
		return nil, fmt.Errorf("%w: URL '%s' disallowed for agent '%s'", utils.ErrRobotsDisallowed, parsedURL.RequestURI(), e.opts.UserAgent)
	}

	e.rateLimiter.ApplyDelay(host, e.opts.DelayPerHost)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request for '%s': %w", utils.ErrRequestCreation, task.URL, err)
	}
	req.Header.Set("User-Agent", e.opts.UserAgent)

	resp, fetchErr := e.fetcher.FetchWithRetry(req, ctx)
	e.rateLimiter.UpdateLastRequestTime(host)
	if fetchErr != nil {
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		return nil, fetchErr
	}
	defer resp.Body.Close()

	finalURL := resp.Request.URL
	if finalURL.String() != task.URL {
		taskLog = taskLog.WithField("final_url", finalURL.String())
		taskLog.Info("URL redirected")
	}

	limitedReader := io.LimitReader(resp.Body, e.opts.MaxPageSizeBytes+1)
	bodyBytes, readErr := io.ReadAll(limitedReader)
	if readErr != nil {
		return nil, fmt.Errorf("%w: reading body from '%s': %w", utils.ErrResponseBodyRead, finalURL.String(), readErr)
	}
	if int64(len(bodyBytes)) > e.opts.MaxPageSizeBytes {
		return nil, fmt.Errorf("%w: page '%s' exceeds max size (%d bytes)", utils.ErrResponseBodyRead, finalURL.String(), e.opts.MaxPageSizeBytes)
	}

	doc, parseErr := goquery.NewDocumentFromReader(bytes.NewReader(bodyBytes))
	if parseErr != nil {
		return nil, fmt.Errorf("%w: parsing HTML from '%s': %w", utils.ErrParsing, finalURL.String(), parseErr)
	}

	result := e.buildResult(doc, finalURL, task, inSitemap)
	result.ContentHash = utils.CalculateStringSHA256(string(bodyBytes))
	taskLog.WithField("score", result.Scores.Overall).Debug("Page extracted")
	return result, nil
}

// buildResult pulls all on-page fields out of the parsed document
func (e *Extractor) buildResult(doc *goquery.Document, finalURL *url.URL, task models.CrawlTask, inSitemap bool) *models.PageResult {
	result := &models.PageResult{
		URL:         task.URL,
		Depth:       task.Depth,
		InSitemap:   inSitemap,
		SitemapHint: task.Hint,
		CrawledAt:   time.Now().UTC(),
	}

	result.Title = strings.TrimSpace(doc.Find("title").First().Text())
	result.MetaDescription = metaContent(doc, "description")
	result.MetaKeywords = metaContent(doc, "keywords")
	result.OGTitle = metaProperty(doc, "og:title")
	result.OGDescription = metaProperty(doc, "og:description")

	if canonical, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		result.Canonical = strings.TrimSpace(canonical)
	}

	doc.Find("h1").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			result.H1 = append(result.H1, text)
		}
	})

	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		result.ImageCount++
		if alt, ok := sel.Attr("alt"); !ok || strings.TrimSpace(alt) == "" {
			result.ImagesMissingAlt++
		}
	})

	result.Content = e.bodyMarkdown(doc)
	result.WordCount = len(strings.Fields(result.Content))
	result.Links = e.sameDomainLinks(doc, finalURL)
	result.Scores = GradePage(result)

	return result
}

// bodyMarkdown converts the page body (preferring <main> or <article>) to
// markdown for word counting and the suggestion prompt
func (e *Extractor) bodyMarkdown(doc *goquery.Document) string {
	sel := doc.Find("main").First()
	if sel.Length() == 0 {
		sel = doc.Find("article").First()
	}
	if sel.Length() == 0 {
		sel = doc.Find("body").First()
	}
	if sel.Length() == 0 {
		return ""
	}

	// Navigation and script noise would pollute the prompt
	sel.Find("script, style, nav, footer, noscript").Remove()

	html, err := sel.Html()
	if err != nil {
		e.log.Debugf("Failed to serialize body HTML: %v", err)
		return strings.TrimSpace(sel.Text())
	}

	converter := md.NewConverter("", true, nil)
	markdown, convErr := converter.ConvertString(html)
	if convErr != nil {
		e.log.Debugf("Markdown conversion failed, falling back to text: %v", convErr)
		return strings.TrimSpace(sel.Text())
	}
	return strings.TrimSpace(markdown)
}

// sameDomainLinks collects and normalizes outbound links on the same domain
func (e *Extractor) sameDomainLinks(doc *goquery.Document, pageURL *url.URL) []string {
	seen := make(map[string]struct{})
	var links []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "javascript:") {
			return
		}

		resolved, err := pageURL.Parse(href)
		if err != nil {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if !parse.SameHost(resolved, e.baseURL) {
			return
		}

		normalized := parse.NormalizeURL(resolved)
		if _, dup := seen[normalized]; dup {
			return
		}
		seen[normalized] = struct{}{}
		links = append(links, normalized)
	})

	return links
}

func metaContent(doc *goquery.Document, name string) string {
	content, _ := doc.Find(fmt.Sprintf(`meta[name="%s"]`, name)).First().Attr("content")
	return strings.TrimSpace(content)
}

func metaProperty(doc *goquery.Document, property string) string {
	content, _ := doc.Find(fmt.Sprintf(`meta[property="%s"]`, property)).First().Attr("content")
	return strings.TrimSpace(content)
}
