package agent

import (
	"fmt"
	"math/rand"

	"github.com/fairyhunter13/crhoy-crawler/internal/config"
	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
)

// FinalizedLabel is the finalizer's choice between the best existing category
// and a newly proposed one.
type FinalizedLabel struct {
	Category  string
	NewChosen bool
}

// Finalizer chooses between the labeler's best existing category and the
// namer's proposal. Candidate names are anonymized and presented in random
// order so the model judges descriptions alone, without bias toward familiar
// names or toward whichever option comes first.
type Finalizer struct {
	engine   domain.Engine
	settings settings

	// swapOrder decides the presentation order of the two candidates.
	swapOrder func() bool
}

// NewFinalizer constructs a Finalizer.
func NewFinalizer(cfg config.Config, engine domain.Engine) *Finalizer {
	return &Finalizer{
		engine:    engine,
		settings:  basicSettings(cfg),
		swapOrder: func() bool { return rand.Intn(2) == 1 },
	}
}

type finalizedLabelRaw struct {
	ChainOfThought string `json:"a_chain_of_thought"`
	Category       string `json:"b_category"`
}

// Process picks the article's category between existing and proposed.
// existingDesc is the description of the existing candidate.
func (f *Finalizer) Process(ctx domain.Context, article, existingName, existingDesc string, proposal CategoryProposal) (FinalizedLabel, error) {
	type candidate struct {
		alias string
		name  string
		desc  string
		isNew bool
	}
	candidates := []candidate{
		{name: existingName, desc: existingDesc},
		{name: proposal.Name, desc: proposal.Description, isNew: true},
	}
	if f.swapOrder() {
		candidates[0], candidates[1] = candidates[1], candidates[0]
	}
	listing := ""
	for i := range candidates {
		candidates[i].alias = fmt.Sprintf("CAT%03d", i)
		listing += fmt.Sprintf("%s: %s\n", candidates[i].alias, candidates[i].desc)
	}

	var out finalizedLabelRaw
	system := fmt.Sprintf(finalizerPrompt, listing)
	if err := run(ctx, f.engine, f.settings, system, article, finalizerSchema, "label_finalizer", &out); err != nil {
		return FinalizedLabel{}, fmt.Errorf("op=agent.finalize: %w", err)
	}

	for _, c := range candidates {
		if c.alias == out.Category {
			return FinalizedLabel{Category: c.name, NewChosen: c.isNew}, nil
		}
	}
	return FinalizedLabel{}, fmt.Errorf("op=agent.finalize: unknown candidate %q: %w", out.Category, domain.ErrSchemaInvalid)
}
