package agent

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fairyhunter13/crhoy-crawler/internal/config"
	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
)

// CategorySuggestion is one existing category with its suitability rank.
type CategorySuggestion struct {
	Category string
	Rank     int
}

// LabeledArticle is the labeler's verdict on existing categories.
type LabeledArticle struct {
	NoCategory  bool
	Suggestions []CategorySuggestion // rank descending
}

// Labeler matches an article against the existing smart category catalog.
type Labeler struct {
	engine   domain.Engine
	settings settings
	system   string
	known    map[string]struct{}
}

// NewLabeler constructs a Labeler over the given catalog
// (category name to description).
func NewLabeler(cfg config.Config, engine domain.Engine, categories map[string]string) *Labeler {
	catalogJSON, _ := json.MarshalIndent(categories, "", "  ")
	known := make(map[string]struct{}, len(categories))
	for name := range categories {
		known[name] = struct{}{}
	}
	return &Labeler{
		engine:   engine,
		settings: basicSettings(cfg),
		system:   fmt.Sprintf(labelerPrompt, catalogJSON),
		known:    known,
	}
}

type labeledArticleRaw struct {
	ChainOfThought string   `json:"a_chain_of_thought"`
	NoCategory     flexBool `json:"b_no_category"`
	Existing       []struct {
		Category string  `json:"a_category"`
		Rank     flexInt `json:"b_rank"`
	} `json:"c_existing_categories_list"`
}

// Process ranks the existing categories for one article. Suggestions naming
// categories outside the catalog are dropped.
func (l *Labeler) Process(ctx domain.Context, article string) (LabeledArticle, error) {
	var out labeledArticleRaw
	if err := run(ctx, l.engine, l.settings, l.system, article, labelerSchema, "labeler", &out); err != nil {
		return LabeledArticle{}, fmt.Errorf("op=agent.label: %w", err)
	}

	result := LabeledArticle{NoCategory: bool(out.NoCategory)}
	for _, item := range out.Existing {
		if _, ok := l.known[item.Category]; !ok {
			continue
		}
		result.Suggestions = append(result.Suggestions, CategorySuggestion{
			Category: item.Category,
			Rank:     int(item.Rank),
		})
	}
	sort.SliceStable(result.Suggestions, func(i, j int) bool {
		return result.Suggestions[i].Rank > result.Suggestions[j].Rank
	})
	if len(result.Suggestions) == 0 {
		result.NoCategory = true
	}
	return result, nil
}
