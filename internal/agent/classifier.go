package agent

import (
	"fmt"

	"github.com/fairyhunter13/crhoy-crawler/internal/config"
	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
)

// Classifier decides whether an article relates to Costa Rica.
type Classifier struct {
	engine   domain.Engine
	settings settings
}

// NewClassifier constructs a Classifier.
func NewClassifier(cfg config.Config, engine domain.Engine) *Classifier {
	return &Classifier{engine: engine, settings: basicSettings(cfg)}
}

type classifiedArticle struct {
	ChainOfThought string `json:"a_chain_of_thought"`
	Related        string `json:"b_related"`
}

// Process classifies one article's relation to Costa Rica.
func (c *Classifier) Process(ctx domain.Context, article string) (domain.Relation, error) {
	var out classifiedArticle
	if err := run(ctx, c.engine, c.settings, classifierPrompt, article, classifierSchema, "classifier", &out); err != nil {
		return "", fmt.Errorf("op=agent.classify: %w", err)
	}
	rel := domain.Relation(out.Related)
	if !rel.Valid() {
		return "", fmt.Errorf("op=agent.classify: unexpected relation %q: %w", out.Related, domain.ErrSchemaInvalid)
	}
	return rel, nil
}
