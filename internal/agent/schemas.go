package agent

import "github.com/fairyhunter13/crhoy-crawler/internal/domain"

var classifierSchema = &domain.Schema{
	Type:     "object",
	Required: []string{"a_chain_of_thought", "b_related"},
	Properties: map[string]*domain.Schema{
		"a_chain_of_thought": {Type: "string"},
		"b_related":          {Type: "string", Enum: []string{"directly", "indirectly", "na"}},
	},
}

var labelerSchema = &domain.Schema{
	Type:     "object",
	Required: []string{"a_chain_of_thought", "b_no_category", "c_existing_categories_list"},
	Properties: map[string]*domain.Schema{
		"a_chain_of_thought": {Type: "string"},
		"b_no_category":      {Type: "boolean"},
		"c_existing_categories_list": {
			Type: "array",
			Items: &domain.Schema{
				Type:     "object",
				Required: []string{"a_category", "b_rank"},
				Properties: map[string]*domain.Schema{
					"a_category": {Type: "string"},
					"b_rank":     {Type: "integer"},
				},
			},
		},
	},
}

var namerSchema = &domain.Schema{
	Type:     "object",
	Required: []string{"a_chain_of_thought", "b_category", "d_category_description"},
	Properties: map[string]*domain.Schema{
		"a_chain_of_thought":     {Type: "string"},
		"b_category":             {Type: "string"},
		"d_category_description": {Type: "string"},
	},
}

var finalizerSchema = &domain.Schema{
	Type:     "object",
	Required: []string{"a_chain_of_thought", "b_category"},
	Properties: map[string]*domain.Schema{
		"a_chain_of_thought": {Type: "string"},
		"b_category":         {Type: "string"},
	},
}

var summarizerSchema = &domain.Schema{
	Type:     "object",
	Required: []string{"a_chain_of_thought", "b_news_summary"},
	Properties: map[string]*domain.Schema{
		"a_chain_of_thought": {Type: "string"},
		"b_news_summary":     {Type: "string"},
	},
}

var translatorSchema = &domain.Schema{
	Type:     "object",
	Required: []string{"translated_summary"},
	Properties: map[string]*domain.Schema{
		"translated_summary": {Type: "string"},
	},
}
