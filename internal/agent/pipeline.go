package agent

import (
	"fmt"
	"log/slog"

	"github.com/fairyhunter13/crhoy-crawler/internal/config"
	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
)

// CategoryResult is the outcome of the categorization pipeline.
type CategoryResult struct {
	Relation    domain.Relation
	Category    string
	Description string // set only for a newly invented category
	NewCategory bool
}

// SummaryResult maps language codes to summary text. "en" is always present.
type SummaryResult map[string]string

// Pipeline runs the staged analysis of one article: relation classification,
// category resolution against a catalog, then summarization and translation.
type Pipeline struct {
	cfg        config.Config
	engine     domain.Engine
	classifier *Classifier
	namer      *Namer
	finalizer  *Finalizer
	summarizer *Summarizer
}

// NewPipeline constructs a Pipeline.
func NewPipeline(cfg config.Config, engine domain.Engine) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		engine:     engine,
		classifier: NewClassifier(cfg, engine),
		namer:      NewNamer(cfg, engine),
		finalizer:  NewFinalizer(cfg, engine),
		summarizer: NewSummarizer(cfg, engine),
	}
}

// Categorize resolves the article's relation and category. categories is the
// current catalog without the __unknown__ row, name to description.
//
// Unrelated articles are not categorized further; they carry the __unknown__
// category. Otherwise the labeler ranks existing categories and the namer
// always proposes a fresh alternative; when both produce something, the
// finalizer arbitrates between the best existing category and the proposal.
func (p *Pipeline) Categorize(ctx domain.Context, article string, categories map[string]string) (CategoryResult, error) {
	relation, err := p.classifier.Process(ctx, article)
	if err != nil {
		return CategoryResult{}, fmt.Errorf("op=pipeline.categorize: %w", err)
	}
	if relation == domain.RelationNotApplicable {
		return CategoryResult{Relation: relation, Category: domain.UnknownCategory}, nil
	}

	labeled, err := NewLabeler(p.cfg, p.engine, categories).Process(ctx, article)
	if err != nil {
		return CategoryResult{}, fmt.Errorf("op=pipeline.categorize: %w", err)
	}

	proposal, err := p.namer.Process(ctx, article)
	if err != nil {
		return CategoryResult{}, fmt.Errorf("op=pipeline.categorize: %w", err)
	}

	if labeled.NoCategory || len(labeled.Suggestions) == 0 {
		if _, exists := categories[proposal.Name]; exists {
			return CategoryResult{Relation: relation, Category: proposal.Name}, nil
		}
		return CategoryResult{
			Relation:    relation,
			Category:    proposal.Name,
			Description: proposal.Description,
			NewCategory: true,
		}, nil
	}

	top := labeled.Suggestions[0]
	if proposal.Name == top.Category {
		return CategoryResult{Relation: relation, Category: top.Category}, nil
	}

	final, err := p.finalizer.Process(ctx, article, top.Category, categories[top.Category], proposal)
	if err != nil {
		return CategoryResult{}, fmt.Errorf("op=pipeline.categorize: %w", err)
	}
	if _, exists := categories[final.Category]; exists {
		return CategoryResult{Relation: relation, Category: final.Category}, nil
	}
	slog.Info("new category chosen",
		slog.String("category", final.Category),
		slog.Int("top_existing_rank", top.Rank))
	return CategoryResult{
		Relation:    relation,
		Category:    final.Category,
		Description: proposal.Description,
		NewCategory: true,
	}, nil
}

// Summarize produces the English summary plus one translation per configured
// language.
func (p *Pipeline) Summarize(ctx domain.Context, article string) (SummaryResult, error) {
	summary, err := p.summarizer.Process(ctx, article)
	if err != nil {
		return nil, fmt.Errorf("op=pipeline.summarize: %w", err)
	}
	result := SummaryResult{"en": summary}
	for _, lang := range p.cfg.SummaryLanguages {
		if lang == "en" {
			continue
		}
		translated, err := NewTranslator(p.cfg, p.engine, lang).Process(ctx, article, summary)
		if err != nil {
			return nil, fmt.Errorf("op=pipeline.summarize: %w", err)
		}
		result[lang] = translated
	}
	return result, nil
}
