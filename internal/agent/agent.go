// Package agent implements the LLM agents that analyze downloaded articles:
// relation classification, category labeling and naming, label finalization,
// summarization and translation.
package agent

import (
	"encoding/json"
	"fmt"

	"github.com/fairyhunter13/crhoy-crawler/internal/config"
	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
)

// Temperatures and token budgets per agent role.
const (
	categorizeTemperature = 0.2
	summarizeTemperature  = 1.0
	translateTemperature  = 0.2

	maxOutputTokens = 8192
)

// settings selects the model and sampling parameters for one agent.
type settings struct {
	model       string
	temperature float64
}

// basicSettings is used by the reasoning-heavy categorization agents.
func basicSettings(cfg config.Config) settings {
	return settings{model: cfg.AgentBasicModel, temperature: categorizeTemperature}
}

// run performs one structured generation and decodes the JSON reply into out.
func run(ctx domain.Context, engine domain.Engine, s settings, system, user string, schema *domain.Schema, schemaName string, out any) error {
	content, err := engine.Generate(ctx, domain.GenerateRequest{
		Model:       s.model,
		System:      system,
		Messages:    []domain.Message{{Role: "user", Content: user}},
		Temperature: s.temperature,
		MaxTokens:   maxOutputTokens,
		Schema:      schema,
		SchemaName:  schemaName,
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("op=agent.run: %s: %w: %v", schemaName, domain.ErrSchemaInvalid, err)
	}
	return nil
}

// flexBool tolerates models that emit booleans as strings ("true"/"false").
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*b = s == "true"
	return nil
}

// flexInt tolerates models that emit integers as strings ("80").
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err == nil {
		*i = flexInt(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return err
	}
	*i = flexInt(n)
	return nil
}
