package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/yuin/goldmark"

	"seo-audit/pkg/models"
)

const htmlTemplateText = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>SEO Audit: {{.BaseURL}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; color: #1a1a2e; }
h1 { border-bottom: 2px solid #16213e; padding-bottom: .4rem; }
table { border-collapse: collapse; width: 100%; font-size: .85rem; }
th, td { border: 1px solid #d0d0e0; padding: .35rem .6rem; text-align: left; vertical-align: top; }
th { background: #16213e; color: #fff; }
tr:nth-child(even) { background: #f4f4fb; }
.score-good { color: #1b7a3d; font-weight: 600; }
.score-mid { color: #b8860b; font-weight: 600; }
.score-bad { color: #b02a30; font-weight: 600; }
.error { color: #b02a30; }
.summary { background: #f4f4fb; border: 1px solid #d0d0e0; border-radius: 6px; padding: 1rem 1.5rem; margin-bottom: 1.5rem; }
footer { margin-top: 2rem; font-size: .75rem; color: #666; }
</style>
</head>
<body>
<h1>SEO Audit Report</h1>
<p>Target: <a href="{{.BaseURL}}">{{.BaseURL}}</a></p>
{{if .Summary}}
<div class="summary">
<h2>Summary</h2>
<p>{{.Summary.TotalPages}} pages audited, {{.Summary.FailedPages}} failed, average score {{.Summary.AverageScore}}/100.</p>
<p>Title completeness {{printf "%.0f" .Summary.TitleCompleteness}}%, description completeness {{printf "%.0f" .Summary.DescCompleteness}}%, suggestion coverage {{printf "%.0f" .Summary.SuggestionCoverage}}%.</p>
{{.RecommendationsHTML}}
</div>
{{end}}
<table>
<thead><tr>
<th>URL</th><th>Depth</th><th>Title</th><th>Description</th><th>H1</th><th>Words</th><th>Score</th><th>Suggested Title</th><th>Error</th>
</tr></thead>
<tbody>
{{range .Pages}}
<tr>
<td><a href="{{.URL}}">{{.URL}}</a></td>
<td>{{.Depth}}</td>
<td>{{.Title}}</td>
<td>{{.MetaDescription}}</td>
<td>{{len .H1}}</td>
<td>{{.WordCount}}</td>
<td class="{{scoreClass .Scores.Overall}}">{{.Scores.Overall}}</td>
<td>{{.SuggestedTitle}}</td>
<td class="error">{{.Error}}</td>
</tr>
{{end}}
</tbody>
</table>
<footer>Generated at {{.GeneratedAt}}</footer>
</body>
</html>
`

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"scoreClass": func(score int) string {
		switch {
		case score >= 80:
			return "score-good"
		case score >= 50:
			return "score-mid"
		default:
			return "score-bad"
		}
	},
}).Parse(htmlTemplateText))

// htmlReportData is the template input
type htmlReportData struct {
	BaseURL             string
	Pages               []*models.PageResult
	Summary             *models.ReportSummary
	RecommendationsHTML template.HTML
	GeneratedAt         string
}

// RenderHTML renders the styled document format. The generation timestamp is
// embedded in the footer, so this renderer is exempt from byte-idempotence.
func RenderHTML(pages []*models.PageResult, summary *models.ReportSummary, now time.Time) ([]byte, error) {
	data := htmlReportData{
		Pages:       pages,
		Summary:     summary,
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}
	if summary != nil {
		data.BaseURL = summary.BaseURL

		// Recommendations are composed as markdown and converted for embedding
		var recBuf bytes.Buffer
		if mdSrc := recommendationsMarkdown(summary); mdSrc != "" {
			if err := goldmark.Convert([]byte(mdSrc), &recBuf); err != nil {
				return nil, fmt.Errorf("rendering recommendations: %w", err)
			}
		}
		data.RecommendationsHTML = template.HTML(recBuf.String())
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
