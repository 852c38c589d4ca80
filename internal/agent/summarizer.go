package agent

import (
	"encoding/json"
	"fmt"

	"github.com/fairyhunter13/crhoy-crawler/internal/config"
	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
)

// Summarizer composes a concise English summary of a Spanish article.
type Summarizer struct {
	engine   domain.Engine
	settings settings
}

// NewSummarizer constructs a Summarizer.
func NewSummarizer(cfg config.Config, engine domain.Engine) *Summarizer {
	return &Summarizer{
		engine:   engine,
		settings: settings{model: cfg.AgentLightModel, temperature: summarizeTemperature},
	}
}

type summarizedArticleRaw struct {
	ChainOfThought string `json:"a_chain_of_thought"`
	NewsSummary    string `json:"b_news_summary"`
}

// Process summarizes one article in English.
func (s *Summarizer) Process(ctx domain.Context, article string) (string, error) {
	var out summarizedArticleRaw
	if err := run(ctx, s.engine, s.settings, summarizerPrompt, article, summarizerSchema, "summarizer", &out); err != nil {
		return "", fmt.Errorf("op=agent.summarize: %w", err)
	}
	if out.NewsSummary == "" {
		return "", fmt.Errorf("op=agent.summarize: empty summary: %w", domain.ErrSchemaInvalid)
	}
	return out.NewsSummary, nil
}

// Translator renders an English summary in another language.
type Translator struct {
	engine   domain.Engine
	settings settings
	system   string
}

// languageNames maps summary language codes to the names used in prompts.
var languageNames = map[string]string{
	"ru": "Russian",
	"en": "English",
	"de": "German",
	"fr": "French",
	"pt": "Portuguese",
	"it": "Italian",
	"nl": "Dutch",
	"uk": "Ukrainian",
	"he": "Hebrew",
	"zh": "Chinese",
}

// LanguageName resolves a language code to its prompt name, falling back to
// the code itself.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

// NewTranslator constructs a Translator for one target language code.
func NewTranslator(cfg config.Config, engine domain.Engine, lang string) *Translator {
	return &Translator{
		engine:   engine,
		settings: settings{model: cfg.AgentLightModel, temperature: translateTemperature},
		system:   fmt.Sprintf(translatorPrompt, LanguageName(lang)),
	}
}

type workItem struct {
	OriginalArticle string `json:"original_article"`
	Summary         string `json:"summary"`
}

type translatedSummaryRaw struct {
	TranslatedSummary string `json:"translated_summary"`
}

// Process translates the summary, passing the original article for context.
func (t *Translator) Process(ctx domain.Context, article, summary string) (string, error) {
	payload, err := json.Marshal(workItem{OriginalArticle: article, Summary: summary})
	if err != nil {
		return "", fmt.Errorf("op=agent.translate: %w", err)
	}
	var out translatedSummaryRaw
	if err := run(ctx, t.engine, t.settings, t.system, string(payload), translatorSchema, "translator", &out); err != nil {
		return "", fmt.Errorf("op=agent.translate: %w", err)
	}
	if out.TranslatedSummary == "" {
		return "", fmt.Errorf("op=agent.translate: empty translation: %w", domain.ErrSchemaInvalid)
	}
	return out.TranslatedSummary, nil
}
