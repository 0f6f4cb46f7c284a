package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"seo-audit/pkg/config"
	"seo-audit/pkg/models"
)

// Writer renders the result collection into the report files. Rendering is a
// pure function of the collection: JSON and CSV output is byte-identical for
// an unchanged input; the HTML document embeds a generation timestamp and is
// exempt from that guarantee.
type Writer struct {
	outputDir string
	baseName  string
	log       *logrus.Entry
}

// NewWriter creates a Writer. Files are written as <outputDir>/<baseName>.<ext>.
func NewWriter(outputDir, baseName string, log *logrus.Logger) *Writer {
	return &Writer{
		outputDir: outputDir,
		baseName:  baseName,
		log:       log.WithField("component", "report"),
	}
}

// Path returns the output path for the given format
func (w *Writer) Path(format config.OutputFormat) string {
	return filepath.Join(w.outputDir, w.baseName+"."+string(format))
}

// SummaryPath returns the output path for the end-of-run summary document
func (w *Writer) SummaryPath() string {
	return filepath.Join(w.outputDir, w.baseName+"-summary.json")
}

// Write renders the collection in the selected format and writes it to disk.
// Called after every completed batch so a crash leaves a usable partial
// report behind.
func (w *Writer) Write(format config.OutputFormat, pages []*models.PageResult, summary *models.ReportSummary) error {
	var data []byte
	var err error

	switch format {
	case config.FormatCSV:
		data, err = RenderCSV(pages)
	case config.FormatHTML:
		data, err = RenderHTML(pages, summary, time.Now())
	default:
		data, err = RenderJSON(pages)
	}
	if err != nil {
		return fmt.Errorf("rendering %s report: %w", format, err)
	}

	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output dir '%s': %w", w.outputDir, err)
	}
	path := w.Path(format)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s report: %w", format, err)
	}

	w.log.WithFields(logrus.Fields{"path": path, "pages": len(pages)}).Debug("Report written")
	return nil
}

// WriteFinal produces the complete end-of-run report: every format plus the
// summary document
func (w *Writer) WriteFinal(pages []*models.PageResult, summary *models.ReportSummary) error {
	for _, format := range []config.OutputFormat{config.FormatJSON, config.FormatCSV, config.FormatHTML} {
		if err := w.Write(format, pages, summary); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	path := w.SummaryPath()
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	w.log.WithField("path", path).Info("Final report written")
	return nil
}

// RenderJSON renders the collection as indented JSON
func RenderJSON(pages []*models.PageResult) ([]byte, error) {
	if pages == nil {
		pages = []*models.PageResult{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(pages); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// csvHeader is the fixed column set of the tabular report
var csvHeader = []string{
	"url", "depth", "in_sitemap", "title", "title_length",
	"meta_description", "description_length", "meta_keywords",
	"h1_count", "word_count", "image_count", "images_missing_alt",
	"score", "suggested_title", "suggested_description", "suggested_keywords",
	"error",
}

// RenderCSV renders the collection as CSV with a fixed header row
func RenderCSV(pages []*models.PageResult) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, p := range pages {
		record := []string{
			p.URL,
			strconv.Itoa(p.Depth),
			strconv.FormatBool(p.InSitemap),
			p.Title,
			strconv.Itoa(len(p.Title)),
			p.MetaDescription,
			strconv.Itoa(len(p.MetaDescription)),
			p.MetaKeywords,
			strconv.Itoa(len(p.H1)),
			strconv.Itoa(p.WordCount),
			strconv.Itoa(p.ImageCount),
			strconv.Itoa(p.ImagesMissingAlt),
			strconv.Itoa(p.Scores.Overall),
			p.SuggestedTitle,
			p.SuggestedDescription,
			p.SuggestedKeywords,
			p.Error,
		}
		if err := cw.Write(record); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// recommendationsMarkdown renders the summary recommendations as a markdown
// list for the HTML document
func recommendationsMarkdown(summary *models.ReportSummary) string {
	if summary == nil || len(summary.Recommendations) == 0 {
		return ""
	}
	var b strings.Builder
	for _, rec := range summary.Recommendations {
		fmt.Fprintf(&b, "- %s\n", rec)
	}
	return b.String()
}
