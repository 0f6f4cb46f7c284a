package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"seo-audit/pkg/config"
	"seo-audit/pkg/crawler"
	"seo-audit/pkg/fetch"
	"seo-audit/pkg/mcp"
	"seo-audit/pkg/publish"
)

const version = "1.0.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "mcp-server":
			os.Exit(runMcpServer(os.Args[2:]))
		case "version":
			fmt.Printf("seo-audit %s\n", version)
			os.Exit(0)
		case "help", "-h", "--help":
			printUsage(os.Stdout)
			os.Exit(0)
		}
	}
	os.Exit(runAudit(os.Args[1:]))
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `seo-audit %s - crawl a site and report on its on-page SEO

Usage:
  seo-audit [flags]          Run an audit
  seo-audit mcp-server       Start MCP server for AI tool integration
  seo-audit version          Show version info
  seo-audit help             Show this help

Run 'seo-audit -h' for audit flags.
`, version)
}

// runAudit runs a full audit from CLI flags, returning the process exit code
func runAudit(args []string) int {
	fs := flag.NewFlagSet("seo-audit", flag.ContinueOnError)
	urlFlag := fs.String("url", "", "Base URL of the site to audit (required unless -page is given)")
	pageFlag := fs.String("page", "", "Audit only this single page (implies no sitemap or link discovery)")
	sitemapFlag := fs.String("sitemap", "", "Sitemap URL override (defaults to <base>/sitemap.xml)")
	depthFlag := fs.Int("depth", 3, "Maximum link-following depth")
	limitFlag := fs.Int("limit", 100, "Maximum number of pages to process")
	timeoutFlag := fs.Duration("timeout", 30*time.Second, "Per-request fetch timeout")
	concurrencyFlag := fs.Int("concurrency", 5, "Pages fetched concurrently per batch")
	outputDirFlag := fs.String("output", "", "Directory for report files (default ./seo-reports)")
	outputNameFlag := fs.String("name", "", "Base name for report files (default: target hostname)")
	formatFlag := fs.String("format", "json", "Incremental report format: json, csv, or html")
	sitemapOnlyFlag := fs.Bool("sitemap-only", false, "Process only URLs declared by the sitemap")
	followLinksFlag := fs.Bool("follow-links", false, "Also crawl same-domain links discovered on pages")
	userAgentFlag := fs.String("user-agent", "", "User-Agent header for all requests")
	forceRefreshFlag := fs.Bool("force-refresh", false, "Ignore cached results and refetch every page")
	noRobotsFlag := fs.Bool("no-robots", false, "Skip robots.txt checks")
	suggestFlag := fs.Bool("suggest", false, "Generate metadata suggestions via LLM (needs OPENAI_API_KEY)")
	publishFlag := fs.Bool("publish", false, "Push accepted suggestions to the configured CMS endpoint")
	configFlag := fs.String("config", "", "Path to YAML config file")
	logLevelFlag := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	log := setupLogger(*logLevelFlag)

	// A config file supplies the baseline; explicitly set flags override it
	opts := &config.Options{RespectRobots: true}
	if *configFlag != "" {
		loaded, err := config.Load(*configFlag)
		if err != nil {
			log.Errorf("Config error: %v", err)
			return 1
		}
		opts = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			opts.BaseURL = *urlFlag
		case "page":
			opts.BaseURL = *pageFlag
			opts.SinglePage = true
		case "sitemap":
			opts.SitemapURL = *sitemapFlag
		case "depth":
			opts.MaxDepth = *depthFlag
		case "limit":
			opts.PageLimit = *limitFlag
		case "timeout":
			opts.Timeout = *timeoutFlag
		case "concurrency":
			opts.Concurrency = *concurrencyFlag
		case "output":
			opts.OutputDir = *outputDirFlag
		case "name":
			opts.OutputName = *outputNameFlag
		case "format":
			opts.OutputFormat = config.OutputFormat(*formatFlag)
		case "sitemap-only":
			opts.SitemapOnly = *sitemapOnlyFlag
		case "follow-links":
			opts.FollowLinks = *followLinksFlag
		case "user-agent":
			opts.UserAgent = *userAgentFlag
		case "force-refresh":
			opts.ForceRefresh = *forceRefreshFlag
		case "no-robots":
			opts.RespectRobots = !*noRobotsFlag
		case "suggest":
			opts.Suggestions.Enabled = *suggestFlag
		case "publish":
			opts.Publish.Enabled = *publishFlag
		}
	})
	if opts.Publish.Token == "" {
		opts.Publish.Token = os.Getenv("SEO_AUDIT_CMS_TOKEN")
	}

	warnings, err := opts.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Errorf("Configuration error: %v", err)
		fmt.Fprintln(os.Stderr)
		printUsage(os.Stderr)
		return 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
		cancel()
		select {
		case sig = <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()

	ctrl, err := crawler.Build(opts, log)
	if err != nil {
		log.Errorf("Failed to initialize crawler: %v", err)
		return 1
	}

	pages, summary, err := ctrl.Run(ctx)
	if err != nil {
		log.Errorf("Audit finished with error: %v", err)
		return 1
	}

	if opts.Publish.Enabled {
		httpClient := fetch.NewClient(opts.HTTPClientSettings, log)
		fetcher := fetch.NewFetcher(httpClient, opts, log)
		publisher, pubErr := publish.NewPublisher(fetcher, opts.Publish, log)
		if pubErr != nil {
			log.Errorf("CMS publisher setup failed: %v", pubErr)
		} else {
			publisher.PublishAll(ctx, pages)
		}
	}

	fmt.Printf("\nAudited %d pages (%d failed), average score %d/100\n",
		summary.TotalPages, summary.FailedPages, summary.AverageScore)
	fmt.Printf("Reports written to %s\n", opts.OutputDir)
	for _, rec := range summary.Recommendations {
		fmt.Printf("  - %s\n", rec)
	}

	if ctx.Err() != nil {
		log.Warn("Audit cancelled; reports reflect partial results")
	}
	return 0
}

// runMcpServer starts the MCP server, returning the process exit code
func runMcpServer(args []string) int {
	fs := flag.NewFlagSet("mcp-server", flag.ContinueOnError)
	configFlag := fs.String("config", "", "Path to YAML config file with audit defaults")
	transportFlag := fs.String("transport", "stdio", "Transport: stdio or sse")
	portFlag := fs.Int("port", 8080, "Port for SSE transport")
	logLevelFlag := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	log := setupLogger(*logLevelFlag)

	defaults := &config.Options{RespectRobots: true}
	if *configFlag != "" {
		loaded, err := config.Load(*configFlag)
		if err != nil {
			log.Errorf("Config error: %v", err)
			return 1
		}
		defaults = loaded
	}
	if defaults.OutputDir == "" {
		defaults.OutputDir = config.DefaultOutputDir
	}
	if defaults.CacheDir == "" {
		defaults.CacheDir = config.DefaultCacheDir
	}

	srv, err := mcp.NewServer(&mcp.ServerConfig{
		Defaults:  defaults,
		Transport: *transportFlag,
		Port:      *portFlag,
		Logger:    log,
	})
	if err != nil {
		log.Errorf("Failed to create MCP server: %v", err)
		return 1
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Shutting down MCP server...", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
		os.Exit(0)
	}()

	if err := srv.Run(); err != nil {
		log.Errorf("MCP server error: %v", err)
		return 1
	}
	return 0
}

// setupLogger creates a configured logrus.Logger with the given log level
func setupLogger(logLevelStr string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", logLevelStr, err)
	} else {
		log.SetLevel(level)
	}
	return log
}
