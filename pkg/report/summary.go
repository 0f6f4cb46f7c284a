package report

import (
	"fmt"
	"time"

	"seo-audit/pkg/models"
)

// Summarize derives the end-of-run summary from the full result collection.
// It is recomputed from scratch every time and never persisted on its own.
func Summarize(baseURL string, pages []*models.PageResult, now time.Time) *models.ReportSummary {
	summary := &models.ReportSummary{
		BaseURL:     baseURL,
		TotalPages:  len(pages),
		GeneratedAt: now,
	}

	if len(pages) == 0 {
		summary.Recommendations = []string{"No pages were crawled; check the target URL and sitemap."}
		return summary
	}

	var scoreSum, scored int
	var withTitle, withDesc, enriched int
	for _, p := range pages {
		if p.Failed() {
			summary.FailedPages++
			continue
		}
		scoreSum += p.Scores.Overall
		scored++

		if p.Title != "" {
			withTitle++
		}
		// A missing title is a length issue too (length 0)
		if n := len(p.Title); n < 30 || n > 60 {
			summary.TitleIssues++
		}
		if p.MetaDescription != "" {
			withDesc++
		}
		if d := len(p.MetaDescription); d < 120 || d > 160 {
			summary.DescriptionIssues++
		}
		if p.MetaKeywords == "" {
			summary.MissingKeywords++
		}
		if len(p.H1) == 0 {
			summary.MissingH1++
		}
		summary.ImagesMissingAlt += p.ImagesMissingAlt
		if p.FullyEnriched() {
			enriched++
		}
	}

	if scored > 0 {
		summary.AverageScore = scoreSum / scored
		summary.TitleCompleteness = pct(withTitle, scored)
		summary.DescCompleteness = pct(withDesc, scored)
	}
	summary.SuggestionCoverage = pct(enriched, len(pages))
	summary.Recommendations = recommendations(summary)

	return summary
}

// recommendations turns the aggregate counts into actionable guidance
func recommendations(s *models.ReportSummary) []string {
	var recs []string

	if s.FailedPages > 0 {
		recs = append(recs, fmt.Sprintf("%d pages could not be crawled; review the error column and re-run.", s.FailedPages))
	}
	if s.TitleIssues > 0 {
		recs = append(recs, fmt.Sprintf("%d pages have title length issues (aim for 30-60 characters).", s.TitleIssues))
	}
	if s.DescriptionIssues > 0 {
		recs = append(recs, fmt.Sprintf("%d pages have meta description length issues (aim for 120-160 characters).", s.DescriptionIssues))
	}
	if s.MissingKeywords > 0 {
		recs = append(recs, fmt.Sprintf("%d pages have no meta keywords.", s.MissingKeywords))
	}
	if s.MissingH1 > 0 {
		recs = append(recs, fmt.Sprintf("%d pages are missing an H1 heading.", s.MissingH1))
	}
	if s.ImagesMissingAlt > 0 {
		recs = append(recs, fmt.Sprintf("%d images across the site are missing alt text.", s.ImagesMissingAlt))
	}
	if s.SuggestionCoverage < 100 && s.SuggestionCoverage > 0 {
		recs = append(recs, fmt.Sprintf("Suggestions cover %.0f%% of pages; re-run with enrichment enabled to complete the rest.", s.SuggestionCoverage))
	}
	if len(recs) == 0 {
		recs = append(recs, "No significant on-page issues detected.")
	}
	return recs
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}
