package models

import "time"

// SitemapHint carries the optional metadata a sitemap declares for a URL
type SitemapHint struct {
	LastModified string `json:"lastModified,omitempty"`
	Priority     string `json:"priority,omitempty"`
	ChangeFreq   string `json:"changeFrequency,omitempty"`
}

// SitemapEntry is one URL declared by a sitemap (or flattened sitemap index)
type SitemapEntry struct {
	URL          string
	LastModified string
	Priority     string
	ChangeFreq   string
}

// Hint converts the entry's optional metadata into a SitemapHint, or nil if
// the sitemap declared none of it
func (e SitemapEntry) Hint() *SitemapHint {
	if e.LastModified == "" && e.Priority == "" && e.ChangeFreq == "" {
		return nil
	}
	return &SitemapHint{
		LastModified: e.LastModified,
		Priority:     e.Priority,
		ChangeFreq:   e.ChangeFreq,
	}
}

// CrawlTask is one unit of pending work in the frontier.
// Immutable once created; consumed exactly once by the batch scheduler.
type CrawlTask struct {
	URL   string
	Depth int
	Hint  *SitemapHint // Non-nil only for sitemap-discovered URLs
}

// PageScores holds the rule-based quality grades for a page (each 0-100)
type PageScores struct {
	Title       int `json:"title"`
	Description int `json:"description"`
	Keywords    int `json:"keywords"`
	Headings    int `json:"headings"`
	Images      int `json:"images"`
	Content     int `json:"content"`
	Overall     int `json:"overall"`
}

// PageResult is the outcome of processing one URL, successful or not.
// Once appended to the result collection it is immutable except for the
// suggestion fields, which may be filled in later (append-only enrichment).
type PageResult struct {
	URL              string       `json:"url"`
	Depth            int          `json:"depth"`
	InSitemap        bool         `json:"inSitemap"`
	SitemapHint      *SitemapHint `json:"sitemapHint,omitempty"`
	Title            string       `json:"title"`
	MetaDescription  string       `json:"metaDescription"`
	MetaKeywords     string       `json:"metaKeywords"`
	Canonical        string       `json:"canonical,omitempty"`
	H1               []string     `json:"h1,omitempty"`
	OGTitle          string       `json:"ogTitle,omitempty"`
	OGDescription    string       `json:"ogDescription,omitempty"`
	WordCount        int          `json:"wordCount"`
	ImageCount       int          `json:"imageCount"`
	ImagesMissingAlt int          `json:"imagesMissingAlt"`
	Links            []string     `json:"-"` // Same-domain outbound links; not persisted
	Content          string       `json:"-"` // Markdown body kept only for the suggestion prompt
	ContentHash      string       `json:"contentHash,omitempty"`
	Scores           PageScores   `json:"scores"`

	SuggestedTitle       string `json:"suggestedTitle,omitempty"`
	SuggestedDescription string `json:"suggestedDescription,omitempty"`
	SuggestedKeywords    string `json:"suggestedKeywords,omitempty"`

	Error     string    `json:"error,omitempty"`
	CrawledAt time.Time `json:"crawledAt"`
}

// Failed reports whether the page was recorded as an error result
func (r *PageResult) Failed() bool {
	return r.Error != ""
}

// FullyEnriched reports whether all three suggestion fields are populated.
// A cached result passing this check is treated as complete and is never
// refetched on a later run.
func (r *PageResult) FullyEnriched() bool {
	return r.SuggestedTitle != "" && r.SuggestedDescription != "" && r.SuggestedKeywords != ""
}

// MergeSuggestions copies suggestion fields from other without overwriting
// any field already populated on r
func (r *PageResult) MergeSuggestions(other *PageResult) {
	if other == nil {
		return
	}
	if r.SuggestedTitle == "" {
		r.SuggestedTitle = other.SuggestedTitle
	}
	if r.SuggestedDescription == "" {
		r.SuggestedDescription = other.SuggestedDescription
	}
	if r.SuggestedKeywords == "" {
		r.SuggestedKeywords = other.SuggestedKeywords
	}
}

// OptionsSnapshot records the crawl-shaping options in effect when a cache
// file was written, stored alongside the pages so a later run can tell what
// produced them
type OptionsSnapshot struct {
	MaxDepth    int    `json:"maxDepth"`
	PageLimit   int    `json:"pageLimit"`
	Concurrency int    `json:"concurrency"`
	FollowLinks bool   `json:"followLinks"`
	SitemapOnly bool   `json:"sitemapOnly"`
	SinglePage  bool   `json:"singlePage"`
	UserAgent   string `json:"userAgent,omitempty"`
}

// CrawlCache is the durable snapshot of one crawl target, written as a single
// JSON document after every completed batch.
// Invariant: Pages contains no duplicate URLs.
type CrawlCache struct {
	CrawlDate time.Time       `json:"crawlDate"`
	BaseURL   string          `json:"baseUrl"`
	Options   OptionsSnapshot `json:"options"`
	Pages     []*PageResult   `json:"pages"`
}

// ReportSummary is derived from the full result collection at the end of a
// run; it is never persisted independently of the report files
type ReportSummary struct {
	BaseURL            string    `json:"baseUrl"`
	TotalPages         int       `json:"totalPages"`
	FailedPages        int       `json:"failedPages"`
	AverageScore       int       `json:"averageScore"`
	TitleIssues        int       `json:"titleIssues"`
	DescriptionIssues  int       `json:"descriptionIssues"`
	MissingKeywords    int       `json:"missingKeywords"`
	MissingH1          int       `json:"missingH1"`
	ImagesMissingAlt   int       `json:"imagesMissingAlt"`
	TitleCompleteness  float64   `json:"titleCompleteness"`       // % of pages with a non-empty title
	DescCompleteness   float64   `json:"descriptionCompleteness"` // % of pages with a non-empty description
	SuggestionCoverage float64   `json:"suggestionCoverage"`      // % of pages fully enriched
	Recommendations    []string  `json:"recommendations"`
	GeneratedAt        time.Time `json:"generatedAt"`
}
