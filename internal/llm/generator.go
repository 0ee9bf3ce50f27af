package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"course-rag/internal/config"
	"course-rag/internal/models"
)

// Generator turns a formatted prompt into generated text. Options
// override the instance defaults for a single call only. No retries
// happen at this layer.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts ...Option) (string, error)
}

// Option adjusts generation parameters for one call.
type Option func(*callParams)

type callParams struct {
	maxTokens   int
	temperature float64
}

func WithMaxTokens(n int) Option {
	return func(p *callParams) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

func WithTemperature(t float64) Option {
	return func(p *callParams) {
		if t > 0 {
			p.temperature = t
		}
	}
}

// LLMGenerator is the langchaingo-backed Generator.
type LLMGenerator struct {
	model llms.Model
	cfg   *config.LLMConfig
}

func NewGenerator(cfg *config.LLMConfig) (*LLMGenerator, error) {
	model, err := newInferenceLLM(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: initializing inference model: %v", models.ErrConfiguration, err)
	}

	log.Debug().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Msg("Initialized generator")

	return &LLMGenerator{model: model, cfg: cfg}, nil
}

func newInferenceLLM(cfg *config.LLMConfig) (llms.Model, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "openai", "":
		return openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unsupported inference provider: %s", cfg.Provider)
	}
}

func (g *LLMGenerator) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	params := callParams{
		maxTokens:   g.cfg.MaxTokens,
		temperature: g.cfg.Temperature,
	}
	for _, opt := range opts {
		opt(&params)
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt,
		llms.WithMaxTokens(params.maxTokens),
		llms.WithTemperature(params.temperature),
		llms.WithTopP(g.cfg.TopP),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}
	return StripPromptEcho(out, prompt), nil
}

// StripPromptEcho removes an echoed prompt prefix from model output.
// Some completion models return the prompt followed by the generated
// text; callers must only see the new text.
func StripPromptEcho(output, prompt string) string {
	if prompt != "" && strings.HasPrefix(output, prompt) {
		return strings.TrimSpace(strings.TrimPrefix(output, prompt))
	}
	return output
}
