// Package publish pushes accepted metadata suggestions to a CMS REST
// endpoint. Publishing is best-effort: failures are logged and counted,
// never fatal to the run.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"seo-audit/pkg/config"
	"seo-audit/pkg/fetch"
	"seo-audit/pkg/models"
	"seo-audit/pkg/utils"
)

// pageUpdate is the request body for one page's metadata push
type pageUpdate struct {
	URL             string `json:"url"`
	Title           string `json:"title,omitempty"`
	MetaDescription string `json:"metaDescription,omitempty"`
	MetaKeywords    string `json:"metaKeywords,omitempty"`
}

// Publisher posts suggested metadata for fully enriched pages
type Publisher struct {
	fetcher  *fetch.Fetcher
	endpoint string
	token    string
	log      *logrus.Entry
}

// NewPublisher creates a Publisher
func NewPublisher(fetcher *fetch.Fetcher, cfg config.PublishConfig, log *logrus.Logger) (*Publisher, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: publish endpoint is required", utils.ErrConfigValidation)
	}
	return &Publisher{
		fetcher:  fetcher,
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		log:      log.WithField("component", "publisher"),
	}, nil
}

// PublishAll pushes every fully enriched page and returns the number of
// successful updates. Per-page failures are logged and skipped.
func (p *Publisher) PublishAll(ctx context.Context, pages []*models.PageResult) int {
	published := 0
	for _, page := range pages {
		if page.Failed() || !page.FullyEnriched() {
			continue
		}
		if err := p.publishPage(ctx, page); err != nil {
			p.log.WithField("url", page.URL).Warnf("Publish failed: %v", err)
			continue
		}
		published++
	}
	p.log.WithFields(logrus.Fields{
		"published": published,
		"total":     len(pages),
	}).Info("CMS publish pass complete")
	return published
}

func (p *Publisher) publishPage(ctx context.Context, page *models.PageResult) error {
	body, err := json.Marshal(pageUpdate{
		URL:             page.URL,
		Title:           page.SuggestedTitle,
		MetaDescription: page.SuggestedDescription,
		MetaKeywords:    page.SuggestedKeywords,
	})
	if err != nil {
		return fmt.Errorf("%w: marshaling update: %v", utils.ErrPublish, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrRequestCreation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.fetcher.FetchWithRetry(req, ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrPublish, err)
	}
	resp.Body.Close()
	return nil
}
