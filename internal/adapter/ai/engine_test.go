package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/crhoy-crawler/internal/config"
	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
	"github.com/fairyhunter13/crhoy-crawler/internal/service/ratelimiter"
)

func testConfig(baseURL string) config.Config {
	return config.Config{
		AgentAPIKey:      "test-key",
		AgentBaseURL:     baseURL,
		AgentBasicModel:  "basic-model",
		AgentBasicLimit:  100,
		AgentBasicPeriod: 60,
		AgentLightModel:  "light-model",
		AgentLightLimit:  100,
		AgentLightPeriod: 60,
		AgentSuppModel:   "supp-model",
		AgentSuppLimit:   100,
		AgentSuppPeriod:  60,
	}
}

func chatResponseBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"model": "basic-model",
		"choices": []map[string]any{
			{"finish_reason": "stop", "message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func TestGeneratePlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "basic-model", req["model"])
		fmt.Fprint(w, chatResponseBody("hola"))
	}))
	defer srv.Close()

	e := NewEngine(testConfig(srv.URL), ratelimiter.NewRegistry(), nil)
	got, err := e.Generate(context.Background(), domain.GenerateRequest{
		Model:    "basic-model",
		Messages: []domain.Message{{Role: "user", Content: "saluda"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hola", got)
}

func TestGenerateSendsSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		rf, ok := req["response_format"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "json_schema", rf["type"])
		js := rf["json_schema"].(map[string]any)
		assert.Equal(t, "related", js["name"])
		fmt.Fprint(w, chatResponseBody(`{"related":"directly"}`))
	}))
	defer srv.Close()

	e := NewEngine(testConfig(srv.URL), ratelimiter.NewRegistry(), nil)
	got, err := e.Generate(context.Background(), domain.GenerateRequest{
		Model:      "basic-model",
		Messages:   []domain.Message{{Role: "user", Content: "clasifica"}},
		Schema:     &domain.Schema{Type: "object"},
		SchemaName: "related",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"related":"directly"}`, got)
}

func TestGenerateMissingAPIKey(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.AgentAPIKey = ""
	e := NewEngine(cfg, ratelimiter.NewRegistry(), nil)

	_, err := e.Generate(context.Background(), domain.GenerateRequest{Model: "basic-model"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestGenerateMalformedJSONWithoutSupplementary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, chatResponseBody("this is not json"))
	}))
	defer srv.Close()

	e := NewEngine(testConfig(srv.URL), ratelimiter.NewRegistry(), nil)
	_, err := e.Generate(context.Background(), domain.GenerateRequest{
		Model:    "basic-model",
		Messages: []domain.Message{{Role: "user", Content: "x"}},
		Schema:   &domain.Schema{Type: "object"},
	})
	assert.ErrorIs(t, err, domain.ErrSchemaInvalid)
}

func TestGenerateReparsesWithSupplementaryModel(t *testing.T) {
	var models []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		models = append(models, req["model"].(string))
		if req["model"] == "basic-model" {
			fmt.Fprint(w, chatResponseBody("the answer is: directly related"))
			return
		}
		assert.Equal(t, float64(0), req["temperature"])
		fmt.Fprint(w, chatResponseBody(`{"related":"directly"}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.BasicRequiresSupp = true
	e := NewEngine(cfg, ratelimiter.NewRegistry(), nil)

	got, err := e.Generate(context.Background(), domain.GenerateRequest{
		Model:    "basic-model",
		Messages: []domain.Message{{Role: "user", Content: "x"}},
		Schema:   &domain.Schema{Type: "object"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"related":"directly"}`, got)
	assert.Equal(t, []string{"basic-model", "supp-model"}, models)
}

func TestGenerateTruncatedFinishReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices":[{"finish_reason":"length","message":{"role":"assistant","content":"cut"}}]}`)
	}))
	defer srv.Close()

	e := NewEngine(testConfig(srv.URL), ratelimiter.NewRegistry(), nil)
	_, err := e.Generate(context.Background(), domain.GenerateRequest{
		Model:    "basic-model",
		Messages: []domain.Message{{Role: "user", Content: "x"}},
	})
	assert.ErrorIs(t, err, domain.ErrGeneration)
}

func TestGenerateAcquiresSlotPerAttempt(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, chatResponseBody("ok"))
	}))
	defer srv.Close()

	e := NewEngine(testConfig(srv.URL), ratelimiter.NewRegistry(), nil)
	var acquired int
	e.acquire = func(domain.Context, string) error {
		acquired++
		return nil
	}

	_, err := e.Generate(context.Background(), domain.GenerateRequest{
		Model:    "basic-model",
		Messages: []domain.Message{{Role: "user", Content: "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, calls, acquired)
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, chatResponseBody("ok"))
	}))
	defer srv.Close()

	e := NewEngine(testConfig(srv.URL), ratelimiter.NewRegistry(), nil)
	got, err := e.Generate(context.Background(), domain.GenerateRequest{
		Model:    "basic-model",
		Messages: []domain.Message{{Role: "user", Content: "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, calls)
}
