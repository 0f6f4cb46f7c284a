package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"seo-audit/pkg/config"
	"seo-audit/pkg/frontier"
	"seo-audit/pkg/models"
	"seo-audit/pkg/parse"
	"seo-audit/pkg/report"
	"seo-audit/pkg/suggest"
)

// TraversalPolicy selects how the crawl is seeded and expanded
type TraversalPolicy int

const (
	// PolicySitemapFirst seeds from the sitemap plus the base URL and may
	// follow discovered links
	PolicySitemapFirst TraversalPolicy = iota
	// PolicySitemapOnly seeds exclusively from the sitemap
	PolicySitemapOnly
	// PolicySinglePage processes only the target URL itself
	PolicySinglePage
)

func (p TraversalPolicy) String() string {
	switch p {
	case PolicySitemapOnly:
		return "sitemap-only"
	case PolicySinglePage:
		return "single-page"
	default:
		return "sitemap-first"
	}
}

// policyFor derives the traversal policy from validated options
func policyFor(opts *config.Options) TraversalPolicy {
	switch {
	case opts.SinglePage:
		return PolicySinglePage
	case opts.SitemapOnly:
		return PolicySitemapOnly
	default:
		return PolicySitemapFirst
	}
}

// SitemapResolver resolves a sitemap URL (following index nesting) into a
// flat list of entries
type SitemapResolver interface {
	Resolve(ctx context.Context, sitemapURL string) []models.SitemapEntry
}

// SitemapDiscoverer reports sitemap URLs a host declares out of band
// (robots.txt Sitemap directives)
type SitemapDiscoverer interface {
	Sitemaps(ctx context.Context, targetURL *url.URL) []string
}

// CacheStore persists the crawl snapshot between runs
type CacheStore interface {
	Load(baseURL string) (*models.CrawlCache, bool)
	Save(baseURL string, cc *models.CrawlCache) error
}

// ReportWriter renders the growing result collection
type ReportWriter interface {
	Write(format config.OutputFormat, pages []*models.PageResult, summary *models.ReportSummary) error
	WriteFinal(pages []*models.PageResult, summary *models.ReportSummary) error
}

// Deps bundles the collaborators the controller drives. Resolver, Robots,
// and Suggester may be nil depending on policy and configuration.
type Deps struct {
	Extractor PageExtractor
	Resolver  SitemapResolver
	Robots    SitemapDiscoverer
	Store     CacheStore
	Writer    ReportWriter
	Suggester suggest.Suggester
}

// Progress is a point-in-time snapshot of a running crawl
type Progress struct {
	Processed int `json:"processed"`
	Queued    int `json:"queued"`
}

// Controller owns the frontier, visited set, and result collection for one
// crawl invocation. It is constructed per run and not reusable.
type Controller struct {
	opts    *config.Options
	policy  TraversalPolicy
	baseURL *url.URL
	deps    Deps

	frontier  *frontier.Frontier
	visited   *frontier.VisitedSet
	scheduler *Scheduler
	processed atomic.Int64

	results     []*models.PageResult
	sitemapURLs map[string]bool // Normalized URLs declared by the sitemap
	startedAt   time.Time

	log *logrus.Entry
}

// NewController validates the target URL and wires a controller for one run
func NewController(opts *config.Options, deps Deps, log *logrus.Logger) (*Controller, error) {
	normalized, baseURL, err := parse.ParseAndNormalize(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", opts.BaseURL, err)
	}
	opts.BaseURL = normalized

	c := &Controller{
		opts:        opts,
		policy:      policyFor(opts),
		baseURL:     baseURL,
		deps:        deps,
		frontier:    frontier.NewFrontier(log),
		visited:     frontier.NewVisitedSet(),
		sitemapURLs: make(map[string]bool),
		log:         log.WithField("component", "controller"),
	}
	c.scheduler = NewScheduler(
		deps.Extractor,
		c.visited,
		func(normalizedURL string) bool { return c.sitemapURLs[normalizedURL] },
		opts.Timeout,
		&c.processed,
		log,
	)
	return c, nil
}

// Progress reports the current crawl counters. Safe to call from other
// goroutines; the result slice itself is only read between batches.
func (c *Controller) Progress() Progress {
	return Progress{
		Processed: int(c.processed.Load()),
		Queued:    c.frontier.Len(),
	}
}

// Run drives the crawl to completion and returns the full result collection
// and the end-of-run summary. Per-page failures are encoded into the results;
// the returned error covers only run-level faults (report write failure,
// context cancellation before any work).
func (c *Controller) Run(ctx context.Context) ([]*models.PageResult, *models.ReportSummary, error) {
	c.startedAt = time.Now().UTC()
	c.log.WithFields(logrus.Fields{
		"baseURL": c.opts.BaseURL,
		"policy":  c.policy.String(),
		"limit":   c.opts.PageLimit,
	}).Info("Starting crawl")

	cached, haveCache := c.deps.Store.Load(c.opts.BaseURL)
	if haveCache && !c.opts.ForceRefresh {
		if c.opts.CacheMaxAge > 0 && time.Since(cached.CrawlDate) <= c.opts.CacheMaxAge {
			c.log.WithField("pages", len(cached.Pages)).Info("Cache is fresh, skipping traversal")
			c.results = cached.Pages
			// Straight to reports; rewriting the cache here would reset the
			// staleness clock without fetching anything
			summary, err := c.writeFinalReports()
			return c.results, summary, err
		}
		c.seedFromCache(cached)
	}

	if err := c.seed(ctx); err != nil {
		return nil, nil, err
	}

	for c.frontier.Len() > 0 && c.processed.Load() < int64(c.opts.PageLimit) {
		if ctx.Err() != nil {
			c.log.Warn("Crawl cancelled, writing final report from partial results")
			break
		}

		batchSize := c.opts.Concurrency
		if remaining := c.opts.PageLimit - int(c.processed.Load()); remaining < batchSize {
			batchSize = remaining
		}
		tasks := c.frontier.NextBatch(batchSize)
		if len(tasks) == 0 {
			continue
		}

		batchResults := c.scheduler.RunBatch(ctx, tasks)
		c.enrich(ctx, batchResults)
		c.results = append(c.results, batchResults...)
		c.persist(false)

		if c.opts.FollowLinks {
			c.enqueueDiscoveredLinks(batchResults)
		}

		c.log.WithFields(logrus.Fields{
			"batch":     len(batchResults),
			"processed": c.processed.Load(),
			"queued":    c.frontier.Len(),
		}).Info("Batch complete")
	}

	summary, err := c.finalize()
	return c.results, summary, err
}

// seedFromCache loads a stale cache so a prior partial crawl resumes rather
// than restarts. Every cached URL counts as visited and is not refetched in
// this run; fully enriched entries are complete as-is.
func (c *Controller) seedFromCache(cached *models.CrawlCache) {
	for _, page := range cached.Pages {
		if !c.visited.MarkVisited(normalizeTaskURL(page.URL)) {
			continue
		}
		c.results = append(c.results, page)
	}
	c.log.WithField("pages", len(c.results)).Info("Resumed from cached crawl")
}

// seed fills the frontier according to the traversal policy
func (c *Controller) seed(ctx context.Context) error {
	baseNorm := normalizeTaskURL(c.opts.BaseURL)

	if c.policy == PolicySinglePage {
		c.enqueueIfNew(models.CrawlTask{URL: c.opts.BaseURL, Depth: 0})
		return nil
	}

	entries := c.resolveSitemap(ctx)
	if len(entries) == 0 && c.policy == PolicySitemapOnly {
		c.log.Warn("No sitemap URLs resolved in sitemap-only mode; nothing to crawl")
	}
	for _, entry := range entries {
		norm := normalizeTaskURL(entry.URL)
		c.sitemapURLs[norm] = true
		if c.visited.Contains(norm) {
			continue
		}
		if !c.budgetLeft() {
			c.log.WithField("limit", c.opts.PageLimit).Debug("Page limit reached while seeding from sitemap")
			break
		}
		c.frontier.Enqueue(models.CrawlTask{URL: entry.URL, Depth: 0, Hint: entry.Hint()})
	}

	if c.policy != PolicySitemapOnly && !c.visited.Contains(baseNorm) && c.budgetLeft() {
		c.enqueueIfNew(models.CrawlTask{URL: c.opts.BaseURL, Depth: 0})
	}
	return nil
}

// budgetLeft reports whether this run may still enqueue work. Only pages
// started or queued in this run count against the limit; cache-seeded pages
// do not, matching the loop's accounting against the processed counter.
func (c *Controller) budgetLeft() bool {
	return int(c.processed.Load())+c.frontier.Len() < c.opts.PageLimit
}

// resolveSitemap resolves the configured (or conventional) sitemap location,
// falling back to sitemaps declared in robots.txt. Failure to resolve is not
// fatal; an empty slice means link-following and the base URL carry the crawl.
func (c *Controller) resolveSitemap(ctx context.Context) []models.SitemapEntry {
	if c.deps.Resolver == nil {
		return nil
	}

	sitemapURL := c.opts.SitemapURL
	if sitemapURL == "" {
		sitemapURL = strings.TrimRight(c.opts.BaseURL, "/") + "/sitemap.xml"
	}
	entries := c.deps.Resolver.Resolve(ctx, sitemapURL)
	if len(entries) > 0 {
		return entries
	}

	if c.deps.Robots == nil || c.opts.SitemapURL != "" {
		return nil
	}
	for _, declared := range c.deps.Robots.Sitemaps(ctx, c.baseURL) {
		c.log.WithField("sitemap", declared).Debug("Trying sitemap declared in robots.txt")
		if entries = c.deps.Resolver.Resolve(ctx, declared); len(entries) > 0 {
			return entries
		}
	}
	return nil
}

// enqueueIfNew enqueues a task unless its URL is already visited. Best-effort
// only; the scheduler's claim at dequeue is the authoritative check.
func (c *Controller) enqueueIfNew(task models.CrawlTask) {
	if c.visited.Contains(normalizeTaskURL(task.URL)) {
		return
	}
	c.frontier.Enqueue(task)
}

// enqueueDiscoveredLinks queues same-domain outbound links from the batch at
// depth+1, bounded by maxDepth
func (c *Controller) enqueueDiscoveredLinks(batch []*models.PageResult) {
	for _, page := range batch {
		if page.Failed() || page.Depth >= c.opts.MaxDepth {
			continue
		}
		for _, link := range page.Links {
			c.enqueueIfNew(models.CrawlTask{URL: link, Depth: page.Depth + 1})
		}
	}
}

// enrich fills suggestion fields on the batch's successful results. Failures
// degrade to omitted suggestions per page.
func (c *Controller) enrich(ctx context.Context, batch []*models.PageResult) {
	if c.deps.Suggester == nil {
		return
	}
	for _, page := range batch {
		suggest.Enrich(ctx, c.deps.Suggester, page, c.log)
	}
}

// persist writes the cache snapshot and, mid-run, the selected output format.
// Both are best-effort between batches; a failed final report write is the
// caller's to handle via finalize.
func (c *Controller) persist(final bool) {
	snapshot := &models.CrawlCache{
		CrawlDate: c.startedAt,
		BaseURL:   c.opts.BaseURL,
		Options:   c.opts.Snapshot(),
		Pages:     c.results,
	}
	if err := c.deps.Store.Save(c.opts.BaseURL, snapshot); err != nil {
		c.log.Warnf("Failed to save cache: %v", err)
	}
	if final {
		return
	}
	summary := report.Summarize(c.opts.BaseURL, c.results, time.Now().UTC())
	if err := c.deps.Writer.Write(c.opts.OutputFormat, c.results, summary); err != nil {
		c.log.Warnf("Failed to write incremental report: %v", err)
	}
}

// finalize writes the cache and the full report set
func (c *Controller) finalize() (*models.ReportSummary, error) {
	c.persist(true)
	return c.writeFinalReports()
}

// writeFinalReports renders the summary and every output format from the
// current result collection
func (c *Controller) writeFinalReports() (*models.ReportSummary, error) {
	summary := report.Summarize(c.opts.BaseURL, c.results, time.Now().UTC())
	if err := c.deps.Writer.WriteFinal(c.results, summary); err != nil {
		return summary, fmt.Errorf("writing final report: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"pages":  summary.TotalPages,
		"failed": summary.FailedPages,
		"score":  summary.AverageScore,
	}).Info("Crawl complete")
	return summary, nil
}
