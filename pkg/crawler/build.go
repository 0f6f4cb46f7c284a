package crawler

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"seo-audit/pkg/cache"
	"seo-audit/pkg/config"
	"seo-audit/pkg/extract"
	"seo-audit/pkg/fetch"
	"seo-audit/pkg/parse"
	"seo-audit/pkg/report"
	"seo-audit/pkg/sitemap"
	"seo-audit/pkg/suggest"
)

// Build wires the default collaborator stack for one crawl invocation.
// Options must already be validated.
func Build(opts *config.Options, log *logrus.Logger) (*Controller, error) {
	normalized, baseURL, err := parse.ParseAndNormalize(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", opts.BaseURL, err)
	}
	opts.BaseURL = normalized

	httpClient := fetch.NewClient(opts.HTTPClientSettings, log)
	fetcher := fetch.NewFetcher(httpClient, opts, log)
	rateLimiter := fetch.NewRateLimiter(time.Second, log)

	var robots *fetch.RobotsHandler
	if opts.RespectRobots {
		robots = fetch.NewRobotsHandler(fetcher, rateLimiter, opts.UserAgent, log)
	}

	deps := Deps{
		Extractor: extract.NewExtractor(fetcher, rateLimiter, robots, opts, baseURL, log),
		Resolver:  sitemap.NewResolver(fetcher, rateLimiter, opts.UserAgent, log),
		Store:     cache.NewStore(opts.CacheDir, log),
		Writer:    report.NewWriter(opts.OutputDir, opts.OutputName, log),
	}
	if robots != nil {
		deps.Robots = robots
	}
	if opts.Suggestions.Enabled {
		suggester, err := suggest.NewLLMSuggester(opts.Suggestions, log)
		if err != nil {
			return nil, fmt.Errorf("initializing suggestion service: %w", err)
		}
		deps.Suggester = suggester
	}

	return NewController(opts, deps, log)
}
