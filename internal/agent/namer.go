package agent

import (
	"fmt"
	"regexp"

	"github.com/fairyhunter13/crhoy-crawler/internal/config"
	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
)

// categoryNameRe is the allowed shape of a category path: single words of
// letters, digits and underscores, optionally one sub-level.
var categoryNameRe = regexp.MustCompile(`^[a-z0-9_]+(/[a-z0-9_]+)?$`)

// CategoryProposal is a freshly invented category with its description.
type CategoryProposal struct {
	Name        string
	Description string
}

// Namer invents a new category name for articles the catalog cannot place.
type Namer struct {
	engine   domain.Engine
	settings settings
}

// NewNamer constructs a Namer.
func NewNamer(cfg config.Config, engine domain.Engine) *Namer {
	return &Namer{engine: engine, settings: basicSettings(cfg)}
}

type namedCategoryRaw struct {
	ChainOfThought string `json:"a_chain_of_thought"`
	Category       string `json:"b_category"`
	Description    string `json:"d_category_description"`
}

// Process proposes a new category for one article.
func (n *Namer) Process(ctx domain.Context, article string) (CategoryProposal, error) {
	var out namedCategoryRaw
	if err := run(ctx, n.engine, n.settings, namerPrompt, article, namerSchema, "namer", &out); err != nil {
		return CategoryProposal{}, fmt.Errorf("op=agent.name: %w", err)
	}
	if !categoryNameRe.MatchString(out.Category) {
		return CategoryProposal{}, fmt.Errorf("op=agent.name: invalid category name %q: %w", out.Category, domain.ErrSchemaInvalid)
	}
	if out.Description == "" {
		return CategoryProposal{}, fmt.Errorf("op=agent.name: empty description: %w", domain.ErrSchemaInvalid)
	}
	return CategoryProposal{Name: out.Category, Description: out.Description}, nil
}
