package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"seo-audit/pkg/config"
	"seo-audit/pkg/models"
	"seo-audit/pkg/utils"
)

// Suggestion holds the replacement metadata proposed for a page
type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
}

// Suggester proposes improved metadata for a page. Implementations must
// treat failure as "no suggestion": the page result stays valid without one.
type Suggester interface {
	Suggest(ctx context.Context, page *models.PageResult) (*Suggestion, error)
}

// LLMSuggester generates suggestions with an LLM via langchaingo
type LLMSuggester struct {
	model llms.Model
	cfg   config.SuggestionConfig
	log   *logrus.Entry
}

// NewLLMSuggester creates an LLM-backed Suggester. The API key is taken from
// the environment by the underlying client (OPENAI_API_KEY).
func NewLLMSuggester(cfg config.SuggestionConfig, log *logrus.Logger) (*LLMSuggester, error) {
	llm, err := openai.New(openai.WithModel(cfg.Model))
	if err != nil {
		return nil, fmt.Errorf("%w: creating LLM client: %w", utils.ErrSuggestion, err)
	}

	if err := InitTokenizer(cfg.TokenizerEncoding); err != nil {
		log.Warnf("Failed to initialize tokenizer with encoding '%s': %v. Content truncation will use estimates.", cfg.TokenizerEncoding, err)
	}

	return &LLMSuggester{
		model: llm,
		cfg:   cfg,
		log:   log.WithField("component", "suggest"),
	}, nil
}

// Suggest asks the model for replacement title/description/keywords based on
// the page content and its current metadata
func (s *LLMSuggester) Suggest(ctx context.Context, page *models.PageResult) (*Suggestion, error) {
	prompt := buildPrompt(page, s.cfg.MaxContentTokens)

	completion, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt,
		llms.WithTemperature(0.3),
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrSuggestion, err)
	}

	suggestion, err := parseSuggestion(completion)
	if err != nil {
		return nil, err
	}

	s.log.WithField("url", page.URL).Debug("Suggestion generated")
	return suggestion, nil
}

// Enrich fills in the page's suggestion fields in place. Failures degrade to
// omitted suggestions and are never propagated.
func Enrich(ctx context.Context, suggester Suggester, page *models.PageResult, log *logrus.Entry) {
	if suggester == nil || page.Failed() || page.FullyEnriched() {
		return
	}

	suggestion, err := suggester.Suggest(ctx, page)
	if err != nil {
		log.WithField("url", page.URL).Warnf("Suggestion failed, continuing without: %v", err)
		return
	}
	if suggestion == nil {
		return
	}

	if page.SuggestedTitle == "" {
		page.SuggestedTitle = strings.TrimSpace(suggestion.Title)
	}
	if page.SuggestedDescription == "" {
		page.SuggestedDescription = strings.TrimSpace(suggestion.Description)
	}
	if page.SuggestedKeywords == "" {
		page.SuggestedKeywords = strings.TrimSpace(suggestion.Keywords)
	}
}

// buildPrompt assembles the instruction plus truncated page content
func buildPrompt(page *models.PageResult, maxContentTokens int) string {
	content := TruncateToTokens(page.Content, maxContentTokens)

	var b strings.Builder
	b.WriteString("You are an SEO consultant. Based on the page content below, propose improved metadata.\n")
	b.WriteString("Respond with a JSON object containing exactly these keys: title, description, keywords.\n")
	b.WriteString("The title must be 30-60 characters. The description must be 120-160 characters. ")
	b.WriteString("Keywords must be a comma-separated list of 5-10 phrases.\n\n")
	fmt.Fprintf(&b, "URL: %s\n", page.URL)
	fmt.Fprintf(&b, "Current title: %s\n", page.Title)
	fmt.Fprintf(&b, "Current description: %s\n", page.MetaDescription)
	fmt.Fprintf(&b, "Current keywords: %s\n\n", page.MetaKeywords)
	fmt.Fprintf(&b, "Page content:\n%s\n", content)
	return b.String()
}

// parseSuggestion decodes the model output, tolerating markdown code fences
func parseSuggestion(completion string) (*Suggestion, error) {
	cleaned := strings.TrimSpace(completion)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var suggestion Suggestion
	if err := json.Unmarshal([]byte(cleaned), &suggestion); err != nil {
		return nil, fmt.Errorf("%w: unparseable model output: %w", utils.ErrSuggestion, err)
	}
	if suggestion.Title == "" && suggestion.Description == "" && suggestion.Keywords == "" {
		return nil, fmt.Errorf("%w: model returned no usable fields", utils.ErrSuggestion)
	}
	return &suggestion, nil
}
