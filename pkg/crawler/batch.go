package crawler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"seo-audit/pkg/frontier"
	"seo-audit/pkg/models"
	"seo-audit/pkg/parse"
	"seo-audit/pkg/utils"
)

// PageExtractor is the fetch/extract collaborator contract. An error return
// is converted into an errored PageResult by the scheduler and never fails
// the batch.
type PageExtractor interface {
	ExtractPage(ctx context.Context, task models.CrawlTask, inSitemap bool) (*models.PageResult, error)
}

// Scheduler executes one bounded-size batch of tasks concurrently and
// returns one outcome per non-skipped task. The visited-set claim here is
// the authoritative deduplication point: a task whose URL was already
// claimed contributes no result.
type Scheduler struct {
	extractor PageExtractor
	visited   *frontier.VisitedSet
	inSitemap func(normalizedURL string) bool
	timeout   time.Duration // Per-request budget
	processed *atomic.Int64
	log       *logrus.Entry
}

// NewScheduler creates a Scheduler
func NewScheduler(
	extractor PageExtractor,
	visited *frontier.VisitedSet,
	inSitemap func(normalizedURL string) bool,
	timeout time.Duration,
	processed *atomic.Int64,
	log *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		extractor: extractor,
		visited:   visited,
		inSitemap: inSitemap,
		timeout:   timeout,
		processed: processed,
		log:       log.WithField("component", "scheduler"),
	}
}

// RunBatch dispatches every claimable task in the batch concurrently and
// blocks until all of them have resolved (success, skip, or converted
// error). No task outlives the batch. Result order follows claim order, not
// completion order.
func (s *Scheduler) RunBatch(ctx context.Context, tasks []models.CrawlTask) []*models.PageResult {
	slots := make([]*models.PageResult, len(tasks))
	g, batchCtx := errgroup.WithContext(ctx)

	for i, task := range tasks {
		normalizedURL := normalizeTaskURL(task.URL)

		// Authoritative dedup: first claim wins, duplicates enqueued within
		// the same batch are silently dropped here
		if !s.visited.MarkVisited(normalizedURL) {
			s.log.WithField("url", task.URL).Debug("Skipping already visited URL")
			continue
		}
		s.processed.Add(1)

		i, task := i, task
		sitemapMember := s.inSitemap != nil && s.inSitemap(normalizedURL)

		g.Go(func() error {
			taskCtx := batchCtx
			if s.timeout > 0 {
				var cancel context.CancelFunc
				taskCtx, cancel = context.WithTimeout(batchCtx, s.timeout)
				defer cancel()
			}

			result, err := s.extractor.ExtractPage(taskCtx, task, sitemapMember)
			if err != nil {
				s.log.WithFields(logrus.Fields{
					"url":      task.URL,
					"category": utils.CategorizeError(err),
				}).Warnf("Page failed: %v", err)
				result = errorResult(task, sitemapMember, err)
			}
			slots[i] = result
			return nil
		})
	}

	// Workers never return errors; Wait is purely the join point
	_ = g.Wait()

	results := make([]*models.PageResult, 0, len(tasks))
	for _, r := range slots {
		if r != nil {
			results = append(results, r)
		}
	}
	return results
}

// errorResult converts a collaborator failure into a PageResult carrying the
// error and empty extracted fields
func errorResult(task models.CrawlTask, sitemapMember bool, err error) *models.PageResult {
	return &models.PageResult{
		URL:         task.URL,
		Depth:       task.Depth,
		InSitemap:   sitemapMember,
		SitemapHint: task.Hint,
		Error:       err.Error(),
		CrawledAt:   time.Now().UTC(),
	}
}

// normalizeTaskURL is the visited-set key for a task URL; unparseable URLs
// fall back to the raw string so they still dedup against themselves
func normalizeTaskURL(rawURL string) string {
	if normalized, _, err := parse.ParseAndNormalize(rawURL); err == nil {
		return normalized
	}
	return rawURL
}
