package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"seo-audit/pkg/frontier"
	"seo-audit/pkg/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeExtractor is a scriptable PageExtractor. URLs mapped to an error fail;
// URLs mapped to a delay block until the context expires or the delay
// elapses; everything else succeeds.
type fakeExtractor struct {
	mu     sync.Mutex
	calls  []string
	errs   map[string]error
	delays map[string]time.Duration
	links  map[string][]string
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{
		errs:   make(map[string]error),
		delays: make(map[string]time.Duration),
		links:  make(map[string][]string),
	}
}

func (f *fakeExtractor) ExtractPage(ctx context.Context, task models.CrawlTask, inSitemap bool) (*models.PageResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, task.URL)
	f.mu.Unlock()

	if delay, ok := f.delays[task.URL]; ok {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err, ok := f.errs[task.URL]; ok {
		return nil, err
	}
	return &models.PageResult{
		URL:       task.URL,
		Depth:     task.Depth,
		InSitemap: inSitemap,
		Title:     "ok",
		Links:     f.links[task.URL],
		CrawledAt: time.Now().UTC(),
	}, nil
}

func (f *fakeExtractor) calledURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeExtractor) callCount(url string) int {
	n := 0
	for _, c := range f.calledURLs() {
		if c == url {
			n++
		}
	}
	return n
}

func newTestScheduler(extractor PageExtractor, visited *frontier.VisitedSet, timeout time.Duration) (*Scheduler, *atomic.Int64) {
	var processed atomic.Int64
	s := NewScheduler(extractor, visited, nil, timeout, &processed, testLogger())
	return s, &processed
}

func tasks(urls ...string) []models.CrawlTask {
	out := make([]models.CrawlTask, len(urls))
	for i, u := range urls {
		out[i] = models.CrawlTask{URL: u}
	}
	return out
}

func TestRunBatch_OneResultPerTask(t *testing.T) {
	extractor := newFakeExtractor()
	s, processed := newTestScheduler(extractor, frontier.NewVisitedSet(), time.Second)

	results := s.RunBatch(context.Background(), tasks(
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	))

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if processed.Load() != 3 {
		t.Errorf("processed = %d, want 3", processed.Load())
	}
}

func TestRunBatch_SkipsDuplicatesWithinBatch(t *testing.T) {
	extractor := newFakeExtractor()
	s, processed := newTestScheduler(extractor, frontier.NewVisitedSet(), time.Second)

	// Same URL in different surface forms; normalization makes them one claim
	results := s.RunBatch(context.Background(), tasks(
		"https://example.com/a",
		"https://example.com/a",
		"https://EXAMPLE.com/a",
	))

	if len(results) != 1 {
		t.Fatalf("got %d results for duplicate tasks, want 1", len(results))
	}
	if got := extractor.callCount("https://example.com/a"); got != 1 {
		t.Errorf("extractor called %d times, want 1", got)
	}
	if processed.Load() != 1 {
		t.Errorf("processed = %d, want 1", processed.Load())
	}
}

func TestRunBatch_SkipsAlreadyVisited(t *testing.T) {
	extractor := newFakeExtractor()
	visited := frontier.NewVisitedSet()
	visited.MarkVisited("https://example.com/seen")
	s, _ := newTestScheduler(extractor, visited, time.Second)

	results := s.RunBatch(context.Background(), tasks("https://example.com/seen", "https://example.com/new"))

	if len(results) != 1 || results[0].URL != "https://example.com/new" {
		t.Fatalf("results = %v, want only the unvisited URL", results)
	}
	if len(extractor.calledURLs()) != 1 {
		t.Errorf("extractor called for a visited URL")
	}
}

func TestRunBatch_ConvertsErrors(t *testing.T) {
	extractor := newFakeExtractor()
	extractor.errs["https://example.com/bad"] = errors.New("connection refused")
	s, _ := newTestScheduler(extractor, frontier.NewVisitedSet(), time.Second)

	results := s.RunBatch(context.Background(), []models.CrawlTask{
		{URL: "https://example.com/bad", Depth: 2, Hint: &models.SitemapHint{Priority: "0.3"}},
		{URL: "https://example.com/good"},
	})

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (errors converted, not dropped)", len(results))
	}

	var bad *models.PageResult
	for _, r := range results {
		if r.URL == "https://example.com/bad" {
			bad = r
		}
	}
	if bad == nil {
		t.Fatal("no result for the failing URL")
	}
	if !bad.Failed() || bad.Error != "connection refused" {
		t.Errorf("Error = %q, want the collaborator error message", bad.Error)
	}
	if bad.Title != "" {
		t.Errorf("errored result carries extracted data: %q", bad.Title)
	}
	if bad.Depth != 2 || bad.SitemapHint == nil {
		t.Errorf("errored result lost task fields: %+v", bad)
	}
	if bad.CrawledAt.IsZero() {
		t.Error("errored result missing CrawledAt")
	}
}

func TestRunBatch_TimeoutConvertsToResult(t *testing.T) {
	extractor := newFakeExtractor()
	extractor.delays["https://example.com/slow"] = 500 * time.Millisecond
	s, _ := newTestScheduler(extractor, frontier.NewVisitedSet(), 30*time.Millisecond)

	start := time.Now()
	results := s.RunBatch(context.Background(), tasks("https://example.com/slow", "https://example.com/fast"))
	elapsed := time.Since(start)

	if elapsed > 300*time.Millisecond {
		t.Errorf("batch took %v, want the per-task timeout to cut the slow task short", elapsed)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.URL == "https://example.com/slow" && !r.Failed() {
			t.Error("slow task did not produce an errored result")
		}
		if r.URL == "https://example.com/fast" && r.Failed() {
			t.Errorf("fast task failed: %s", r.Error)
		}
	}
}

func TestRunBatch_ResultOrderFollowsClaimOrder(t *testing.T) {
	extractor := newFakeExtractor()
	// First task resolves last
	extractor.delays["https://example.com/0"] = 50 * time.Millisecond
	s, _ := newTestScheduler(extractor, frontier.NewVisitedSet(), time.Second)

	var urls []string
	for i := 0; i < 4; i++ {
		urls = append(urls, fmt.Sprintf("https://example.com/%d", i))
	}
	results := s.RunBatch(context.Background(), tasks(urls...))

	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for i, r := range results {
		if r.URL != urls[i] {
			t.Errorf("results[%d].URL = %q, want %q", i, r.URL, urls[i])
		}
	}
}
