package config

import (
	"fmt"
	"net/url"
	"time"

	"seo-audit/pkg/utils"
)

const (
	DefaultOutputDir = "./seo-reports"
	DefaultCacheDir  = "./.seo-audit-cache"
)

// Validate checks Options fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (o *Options) Validate() (warnings []string, err error) {
	// BaseURL is the only configuration whose absence aborts the run
	if o.BaseURL == "" {
		return warnings, fmt.Errorf("%w: target URL is required", utils.ErrConfigValidation)
	}
	parsed, parseErr := url.ParseRequestURI(o.BaseURL)
	if parseErr != nil {
		return warnings, fmt.Errorf("%w: invalid target URL '%s': %v", utils.ErrConfigValidation, o.BaseURL, parseErr)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return warnings, fmt.Errorf("%w: target URL '%s' must be http or https", utils.ErrConfigValidation, o.BaseURL)
	}
	if parsed.Hostname() == "" {
		return warnings, fmt.Errorf("%w: target URL '%s' has no host", utils.ErrConfigValidation, o.BaseURL)
	}

	if o.SitemapURL != "" {
		if _, smErr := url.ParseRequestURI(o.SitemapURL); smErr != nil {
			warnings = append(warnings, fmt.Sprintf("invalid sitemap URL '%s', falling back to <base>/sitemap.xml", o.SitemapURL))
			o.SitemapURL = ""
		}
	}

	if o.SinglePage && o.SitemapOnly {
		warnings = append(warnings, "single_page and sitemap_only are mutually exclusive; single_page wins")
		o.SitemapOnly = false
	}
	if o.SinglePage && o.FollowLinks {
		warnings = append(warnings, "follow_links has no effect in single_page mode")
		o.FollowLinks = false
	}

	if o.MaxDepth < 0 {
		warnings = append(warnings, "max_depth cannot be negative, defaulting to 3")
		o.MaxDepth = 3
	} else if o.MaxDepth == 0 && o.FollowLinks {
		o.MaxDepth = 3
	}

	if o.PageLimit <= 0 {
		warnings = append(warnings, "page_limit should be > 0, defaulting to 100")
		o.PageLimit = 100
	}
	if o.Concurrency <= 0 {
		warnings = append(warnings, "concurrency should be > 0, defaulting to 5")
		o.Concurrency = 5
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}

	if o.UserAgent == "" {
		o.UserAgent = "seo-audit/1.0 (+https://github.com/seo-audit)"
	}
	if o.MaxRequests <= 0 {
		// The batch model already bounds in-flight requests at Concurrency;
		// the global cap only matters when sitemap fetches overlap a batch
		o.MaxRequests = o.Concurrency * 2
	}

	if o.MaxRetries < 0 {
		warnings = append(warnings, "max_retries cannot be negative, setting to 0")
		o.MaxRetries = 0
	}
	if o.MaxRetries == 0 && o.InitialRetryDelay == 0 {
		o.MaxRetries = 2
	}
	if o.MaxRetries > 0 {
		if o.InitialRetryDelay <= 0 {
			o.InitialRetryDelay = 1 * time.Second
		}
		if o.MaxRetryDelay <= 0 {
			o.MaxRetryDelay = 15 * time.Second
		}
	}
	if o.InitialRetryDelay > o.MaxRetryDelay && o.MaxRetryDelay > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"initial_retry_delay (%v) > max_retry_delay (%v), using max_retry_delay for initial",
			o.InitialRetryDelay, o.MaxRetryDelay))
		o.InitialRetryDelay = o.MaxRetryDelay
	}

	if o.MaxPageSizeBytes <= 0 {
		o.MaxPageSizeBytes = 10 << 20 // 10 MiB
	}

	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.OutputName == "" {
		o.OutputName = utils.SanitizeFilename(parsed.Hostname())
	}
	if o.OutputFormat == "" {
		o.OutputFormat = FormatJSON
	}
	if !o.OutputFormat.IsValid() {
		warnings = append(warnings, fmt.Sprintf("unknown output format '%s', defaulting to json", o.OutputFormat))
		o.OutputFormat = FormatJSON
	}

	if o.CacheDir == "" {
		o.CacheDir = DefaultCacheDir
	}
	if o.CacheMaxAge <= 0 {
		o.CacheMaxAge = 24 * time.Hour
	}

	// HTTP client defaults
	if o.HTTPClientSettings.Timeout <= 0 {
		o.HTTPClientSettings.Timeout = o.Timeout + 15*time.Second
	}
	if o.HTTPClientSettings.MaxIdleConns <= 0 {
		o.HTTPClientSettings.MaxIdleConns = 100
	}
	if o.HTTPClientSettings.MaxIdleConnsPerHost <= 0 {
		o.HTTPClientSettings.MaxIdleConnsPerHost = o.Concurrency
	}
	if o.HTTPClientSettings.IdleConnTimeout <= 0 {
		o.HTTPClientSettings.IdleConnTimeout = 90 * time.Second
	}
	if o.HTTPClientSettings.TLSHandshakeTimeout <= 0 {
		o.HTTPClientSettings.TLSHandshakeTimeout = 10 * time.Second
	}
	if o.HTTPClientSettings.ExpectContinueTimeout <= 0 {
		o.HTTPClientSettings.ExpectContinueTimeout = 1 * time.Second
	}
	if o.HTTPClientSettings.DialerTimeout <= 0 {
		o.HTTPClientSettings.DialerTimeout = 15 * time.Second
	}
	if o.HTTPClientSettings.DialerKeepAlive <= 0 {
		o.HTTPClientSettings.DialerKeepAlive = 30 * time.Second
	}

	// Suggestion defaults only matter when enrichment is on
	if o.Suggestions.Enabled {
		if o.Suggestions.Model == "" {
			o.Suggestions.Model = "gpt-4o-mini"
		}
		if o.Suggestions.MaxContentTokens <= 0 {
			o.Suggestions.MaxContentTokens = 2048
		}
		if o.Suggestions.TokenizerEncoding == "" {
			o.Suggestions.TokenizerEncoding = "cl100k_base"
		}
	}

	if o.Publish.Enabled && o.Publish.Endpoint == "" {
		warnings = append(warnings, "publish.enabled set without publish.endpoint; disabling CMS push")
		o.Publish.Enabled = false
	}

	return warnings, nil
}
