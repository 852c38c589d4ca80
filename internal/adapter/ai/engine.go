// Package ai implements the LLM engine on any OpenAI-compatible chat API.
package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/crhoy-crawler/internal/adapter/observability"
	"github.com/fairyhunter13/crhoy-crawler/internal/config"
	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
	"github.com/fairyhunter13/crhoy-crawler/internal/service/ratelimiter"
)

// RawDumper records raw responses for debugging; nil disables dumping.
type RawDumper interface {
	Dump(agent, raw string) error
}

// Engine calls an OpenAI-compatible chat completions endpoint with structured
// outputs, per-model rate limiting and bounded retries. When a model's JSON
// comes back malformed and a supplementary model is configured, the raw text
// is re-parsed through that model at temperature zero.
type Engine struct {
	cfg      config.Config
	hc       *http.Client
	limiters *ratelimiter.Registry
	dumper   RawDumper

	// requiresSupp marks models whose structured output is unreliable.
	requiresSupp map[string]bool

	// acquire claims one rate-limit slot for model; every outgoing request
	// claims its own slot, retries included.
	acquire func(ctx domain.Context, model string) error
}

// NewEngine constructs an Engine. dumper may be nil.
func NewEngine(cfg config.Config, limiters *ratelimiter.Registry, dumper RawDumper) *Engine {
	requires := map[string]bool{}
	if cfg.BasicRequiresSupp {
		requires[cfg.AgentBasicModel] = true
	}
	if cfg.LightRequiresSupp {
		requires[cfg.AgentLightModel] = true
	}
	e := &Engine{
		cfg: cfg,
		hc: &http.Client{
			Timeout:   120 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiters:     limiters,
		dumper:       dumper,
		requiresSupp: requires,
	}
	e.acquire = func(ctx domain.Context, model string) error {
		return e.limiterFor(model).Acquire(ctx)
	}
	return e
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		FinishReason string      `json:"finish_reason"`
		Message      chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate performs one structured chat completion and returns the message
// content. With a schema set, the content is guaranteed to be valid JSON.
func (e *Engine) Generate(ctx domain.Context, req domain.GenerateRequest) (string, error) {
	if e.cfg.AgentAPIKey == "" {
		return "", fmt.Errorf("op=ai.generate: %w: AGENT_API_KEY missing", domain.ErrInvalidArgument)
	}

	content, err := e.complete(ctx, req)
	if err != nil {
		return "", err
	}
	if req.Schema == nil {
		return content, nil
	}
	if json.Valid([]byte(content)) {
		return content, nil
	}

	supp := e.cfg.AgentSuppModel
	if !e.requiresSupp[req.Model] || supp == "" {
		return "", fmt.Errorf("op=ai.generate: model %s returned malformed JSON: %w", req.Model, domain.ErrSchemaInvalid)
	}
	slog.Warn("malformed structured output, re-parsing with supplementary model",
		slog.String("model", req.Model),
		slog.String("supplementary", supp))
	return e.reparse(ctx, req, content)
}

// reparse feeds malformed output through the supplementary model with the
// same schema at temperature zero.
func (e *Engine) reparse(ctx domain.Context, orig domain.GenerateRequest, raw string) (string, error) {
	req := domain.GenerateRequest{
		Model:  e.cfg.AgentSuppModel,
		System: "You convert text into JSON strictly matching the provided schema. Output only JSON.",
		Messages: []domain.Message{
			{Role: "user", Content: "Convert the following text into the required JSON format:\n\n" + raw},
		},
		Temperature: 0,
		MaxTokens:   orig.MaxTokens,
		Schema:      orig.Schema,
		SchemaName:  orig.SchemaName,
	}
	content, err := e.complete(ctx, req)
	if err != nil {
		return "", err
	}
	if !json.Valid([]byte(content)) {
		return "", fmt.Errorf("op=ai.reparse: supplementary model returned malformed JSON: %w", domain.ErrSchemaInvalid)
	}
	return content, nil
}

func (e *Engine) limiterFor(model string) *ratelimiter.Limiter {
	limit, period := e.budgetFor(model)
	return e.limiters.Get(model, limit, period)
}

func (e *Engine) budgetFor(model string) (int, time.Duration) {
	switch model {
	case e.cfg.AgentBasicModel:
		return e.cfg.AgentBasicLimit, time.Duration(e.cfg.AgentBasicPeriod) * time.Second
	case e.cfg.AgentLightModel:
		return e.cfg.AgentLightLimit, time.Duration(e.cfg.AgentLightPeriod) * time.Second
	case e.cfg.AgentSuppModel:
		return e.cfg.AgentSuppLimit, time.Duration(e.cfg.AgentSuppPeriod) * time.Second
	}
	return e.cfg.AgentLightLimit, time.Duration(e.cfg.AgentLightPeriod) * time.Second
}

func (e *Engine) complete(ctx domain.Context, req domain.GenerateRequest) (string, error) {
	msgs := make([]chatMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}
	payload := chatRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.Schema != nil {
		name := req.SchemaName
		if name == "" {
			name = "response"
		}
		payload.ResponseFormat = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   name,
				"strict": true,
				"schema": req.Schema,
			},
		}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("op=ai.complete: %w", err)
	}

	var out chatResponse
	start := time.Now()
	op := func() error {
		if err := e.acquire(ctx, req.Model); err != nil {
			return backoff.Permanent(err)
		}
		r, err := http.NewRequestWithContext(ctx, http.MethodPost,
			strings.TrimRight(e.cfg.AgentBaseURL, "/")+"/chat/completions", bytes.NewReader(b))
		if err != nil {
			return backoff.Permanent(err)
		}
		r.Header.Set("Authorization", "Bearer "+e.cfg.AgentAPIKey)
		r.Header.Set("Content-Type", "application/json")
		resp, err := e.hc.Do(r)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			slog.Warn("ai provider rate limited", slog.String("model", req.Model))
			return fmt.Errorf("rate limited: 429")
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			slog.Error("ai provider 4xx",
				slog.Int("status", resp.StatusCode),
				slog.String("model", req.Model),
				slog.String("body", snippet(bodyBytes)))
			return backoff.Permanent(fmt.Errorf("chat status %d", resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			slog.Error("ai provider non-2xx",
				slog.Int("status", resp.StatusCode),
				slog.String("model", req.Model),
				slog.String("body", snippet(bodyBytes)))
			return fmt.Errorf("chat status %d", resp.StatusCode)
		}
		if err := json.Unmarshal(bodyBytes, &out); err != nil {
			return err
		}
		if e.dumper != nil {
			if derr := e.dumper.Dump(req.SchemaName, string(bodyBytes)); derr != nil {
				slog.Warn("failed to dump raw response", slog.Any("error", derr))
			}
		}
		return nil
	}
	expo := backoff.NewExponentialBackOff()
	expo.MaxElapsedTime = 5 * time.Minute
	err = backoff.Retry(op, backoff.WithContext(expo, ctx))
	observability.LLMRequestDuration.WithLabelValues(req.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.LLMRequestsTotal.WithLabelValues(req.Model, "error").Inc()
		return "", fmt.Errorf("op=ai.complete: %w: %v", domain.ErrGeneration, err)
	}

	if len(out.Choices) == 0 {
		observability.LLMRequestsTotal.WithLabelValues(req.Model, "error").Inc()
		return "", fmt.Errorf("op=ai.complete: empty choices: %w", domain.ErrGeneration)
	}
	choice := out.Choices[0]
	if choice.FinishReason != "" && choice.FinishReason != "stop" {
		observability.LLMRequestsTotal.WithLabelValues(req.Model, "truncated").Inc()
		return "", fmt.Errorf("op=ai.complete: finish reason %q: %w", choice.FinishReason, domain.ErrGeneration)
	}
	observability.LLMRequestsTotal.WithLabelValues(req.Model, "ok").Inc()
	return choice.Message.Content, nil
}

func snippet(b []byte) string {
	const max = 512
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
