package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"seo-audit/pkg/config"
	"seo-audit/pkg/crawler"
	"seo-audit/pkg/models"
	"seo-audit/pkg/parse"
	"seo-audit/pkg/report"
	"seo-audit/pkg/utils"
)

// handleAuditSite handles the audit_site tool
func (s *Server) handleAuditSite(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	urlStr := request.GetString("url", "")
	if urlStr == "" {
		return mcp.NewToolResultError("url parameter is required"), nil
	}
	normalized, _, err := parse.ParseAndNormalize(urlStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid URL: %v", err)), nil
	}

	forceRefresh := request.GetBool("force_refresh", false)

	if s.jobManager.IsRunning(normalized) {
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"status":  "already_running",
			"message": "An audit is already in progress for this site",
			"url":     normalized,
		})), nil
	}

	// Clone the baseline options and overlay the per-job parameters
	opts := *s.cfg.Defaults
	opts.BaseURL = normalized
	opts.ForceRefresh = forceRefresh
	opts.SinglePage = request.GetBool("single_page", opts.SinglePage)
	if limit := request.GetInt("page_limit", 0); limit > 0 {
		opts.PageLimit = limit
	}
	opts.OutputName = "" // Re-derive from the target hostname
	if _, err := opts.Validate(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid options: %v", err)), nil
	}

	job := s.jobManager.CreateJob(normalized, forceRefresh)
	go s.runAuditJob(job, &opts)

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"status":        "started",
		"message":       "Audit started successfully",
		"job_id":        job.ID,
		"url":           normalized,
		"force_refresh": forceRefresh,
	})), nil
}

// handleJobStatus handles the job_status tool
func (s *Server) handleJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	job := s.jobManager.GetJob(jobID)
	if job == nil {
		return mcp.NewToolResultError(fmt.Sprintf("job '%s' not found", jobID)), nil
	}

	result := map[string]interface{}{
		"job_id":          job.ID,
		"url":             job.TargetURL,
		"status":          job.Status,
		"started_at":      job.StartedAt.Format(time.RFC3339),
		"pages_processed": job.PagesProcessed,
		"pages_queued":    job.PagesQueued,
		"force_refresh":   job.ForceRefresh,
	}

	if !job.CompletedAt.IsZero() {
		result["completed_at"] = job.CompletedAt.Format(time.RFC3339)
		result["duration_seconds"] = job.CompletedAt.Sub(job.StartedAt).Seconds()
	}
	if job.Status == JobStatusCompleted {
		result["failed_pages"] = job.FailedPages
		result["average_score"] = job.AverageScore
	}
	if job.ErrorMessage != "" {
		result["error_message"] = job.ErrorMessage
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetReport handles the get_report tool
func (s *Server) handleGetReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	urlStr := request.GetString("url", "")
	if urlStr == "" {
		return mcp.NewToolResultError("url parameter is required"), nil
	}
	normalized, baseURL, err := parse.ParseAndNormalize(urlStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid URL: %v", err)), nil
	}

	maxPages := request.GetInt("max_pages", 25)
	if maxPages <= 0 {
		maxPages = 25
	}
	if maxPages > 200 {
		maxPages = 200
	}

	// Report files follow the same naming the CLI uses for this target
	baseName := utils.SanitizeFilename(baseURL.Hostname())
	writer := report.NewWriter(s.cfg.Defaults.OutputDir, baseName, s.cfg.Logger)

	pagesData, err := os.ReadFile(writer.Path(config.FormatJSON))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no report found for '%s'; run audit_site first", normalized)), nil
	}
	var pages []*models.PageResult
	if err := json.Unmarshal(pagesData, &pages); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report for '%s' is unreadable: %v", normalized, err)), nil
	}

	response := map[string]interface{}{
		"url":         normalized,
		"total_pages": len(pages),
	}
	if len(pages) > maxPages {
		pages = pages[:maxPages]
		response["truncated"] = true
	}
	response["pages"] = pages

	if summaryData, err := os.ReadFile(writer.SummaryPath()); err == nil {
		var summary models.ReportSummary
		if err := json.Unmarshal(summaryData, &summary); err == nil {
			response["summary"] = summary
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// runAuditJob runs an audit job in the background
func (s *Server) runAuditJob(job *Job, opts *config.Options) {
	s.jobManager.UpdateStatus(job.ID, JobStatusRunning, "")
	jobCtx := s.jobManager.GetContext(job.ID)

	ctrl, err := crawler.Build(opts, s.cfg.Logger)
	if err != nil {
		s.jobManager.UpdateStatus(job.ID, JobStatusFailed, fmt.Sprintf("failed to build crawler: %v", err))
		return
	}

	// Mirror crawl progress into the job while the run is in flight
	progressDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-progressDone:
				return
			case <-ticker.C:
				p := ctrl.Progress()
				s.jobManager.UpdateProgress(job.ID, int64(p.Processed), int64(p.Queued))
			}
		}
	}()

	_, summary, runErr := ctrl.Run(jobCtx)
	close(progressDone)

	p := ctrl.Progress()
	s.jobManager.UpdateProgress(job.ID, int64(p.Processed), int64(p.Queued))

	if runErr != nil {
		if jobCtx.Err() != nil {
			s.jobManager.UpdateStatus(job.ID, JobStatusCancelled, "")
		} else {
			s.jobManager.UpdateStatus(job.ID, JobStatusFailed, runErr.Error())
		}
		return
	}

	if summary != nil {
		s.jobManager.RecordOutcome(job.ID, int64(summary.FailedPages), summary.AverageScore)
	}
	s.jobManager.UpdateStatus(job.ID, JobStatusCompleted, "")
}

// formatJSON formats data as an indented JSON string
func formatJSON(data map[string]interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(b)
}
