package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"seo-audit/pkg/models"
)

// OutputFormat selects the report rendering for the growing result set
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatCSV  OutputFormat = "csv"
	FormatHTML OutputFormat = "html"
)

// IsValid returns true if the format is a known renderer
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatJSON, FormatCSV, FormatHTML:
		return true
	}
	return false
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"`
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"`
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`
}

// SuggestionConfig controls the optional LLM metadata enrichment
type SuggestionConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Model             string `yaml:"model,omitempty"`              // Model name passed to the LLM client
	MaxContentTokens  int    `yaml:"max_content_tokens,omitempty"` // Page content is truncated to this budget
	TokenizerEncoding string `yaml:"tokenizer_encoding,omitempty"` // e.g. "cl100k_base"
}

// PublishConfig controls the optional CMS metadata push
type PublishConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint,omitempty"` // REST endpoint receiving page metadata
	Token    string `yaml:"token,omitempty"`    // Bearer token; usually set via SEO_AUDIT_CMS_TOKEN
}

// Options holds the full configuration for one crawl invocation.
// Flags override whatever a YAML config file provides.
type Options struct {
	BaseURL      string `yaml:"base_url"`
	SitemapURL   string `yaml:"sitemap_url,omitempty"` // Override; defaults to <base>/sitemap.xml
	SinglePage   bool   `yaml:"single_page,omitempty"`
	SitemapOnly  bool   `yaml:"sitemap_only,omitempty"`
	FollowLinks  bool   `yaml:"follow_links"`
	ForceRefresh bool   `yaml:"force_refresh,omitempty"`

	MaxDepth    int           `yaml:"max_depth"`
	PageLimit   int           `yaml:"page_limit"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"` // Per-request fetch timeout

	UserAgent     string        `yaml:"user_agent,omitempty"`
	RespectRobots bool          `yaml:"respect_robots"`
	DelayPerHost  time.Duration `yaml:"delay_per_host,omitempty"`
	MaxRequests   int           `yaml:"max_requests,omitempty"` // Global in-flight request cap

	MaxRetries        int           `yaml:"max_retries,omitempty"`
	InitialRetryDelay time.Duration `yaml:"initial_retry_delay,omitempty"`
	MaxRetryDelay     time.Duration `yaml:"max_retry_delay,omitempty"`
	MaxPageSizeBytes  int64         `yaml:"max_page_size_bytes,omitempty"`

	OutputDir    string       `yaml:"output_dir,omitempty"`
	OutputName   string       `yaml:"output_name,omitempty"` // Base name for report files
	OutputFormat OutputFormat `yaml:"output_format,omitempty"`
	CacheDir     string       `yaml:"cache_dir,omitempty"`
	CacheMaxAge  time.Duration `yaml:"cache_max_age,omitempty"` // Staleness window for the short-circuit path

	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
	Suggestions        SuggestionConfig `yaml:"suggestions,omitempty"`
	Publish            PublishConfig    `yaml:"publish,omitempty"`
}

// Load reads a YAML config file into Options. A missing file is an error;
// callers decide whether the flag was explicitly set.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

// Snapshot returns the crawl-shaping subset of the options for persistence
// in the cache file
func (o *Options) Snapshot() models.OptionsSnapshot {
	return models.OptionsSnapshot{
		MaxDepth:    o.MaxDepth,
		PageLimit:   o.PageLimit,
		Concurrency: o.Concurrency,
		FollowLinks: o.FollowLinks,
		SitemapOnly: o.SitemapOnly,
		SinglePage:  o.SinglePage,
		UserAgent:   o.UserAgent,
	}
}
