package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"

	"github.com/gitsensei/sensei/pkg/models"
)

// DefaultOllamaURL is used when an ollama provider does not set url
const DefaultOllamaURL = "http://localhost:11434"

// ModelFactory builds a langchaingo model for a provider spec
type ModelFactory func(spec models.ProviderSpec) (llms.Model, error)

// OllamaInvoker sends the system prompt and the diff to an ollama server as
// a system message and a human message
type OllamaInvoker struct {
	Timeout  time.Duration
	NewModel ModelFactory
}

// NewOllamaInvoker creates an ollama invoker with the given per-call timeout
func NewOllamaInvoker(timeout time.Duration) *OllamaInvoker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OllamaInvoker{Timeout: timeout, NewModel: newOllamaModel}
}

func newOllamaModel(spec models.ProviderSpec) (llms.Model, error) {
	url := spec.URL
	if url == "" {
		url = DefaultOllamaURL
	}
	return ollama.New(
		ollama.WithServerURL(url),
		ollama.WithModel(spec.Model),
	)
}

// Invoke calls the model once
func (o *OllamaInvoker) Invoke(ctx context.Context, spec models.ProviderSpec, systemPrompt, diffText string) (string, error) {
	if spec.Model == "" {
		return "", &models.ProviderError{Provider: spec.Name, Reason: models.ReasonConfig, Err: fmt.Errorf("ollama provider needs a model")}
	}

	model, err := o.NewModel(spec)
	if err != nil {
		return "", &models.ProviderError{Provider: spec.Name, Reason: models.ReasonConfig, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	zerolog.Ctx(ctx).Debug().
		Str("provider", spec.Name).
		Str("model", spec.Model).
		Int("diff_bytes", len(diffText)).
		Msg("Calling ollama")

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, diffText),
	}
	resp, err := model.GenerateContent(ctx, messages, llms.WithTemperature(0.2))
	if err != nil {
		return "", classifyHTTPError(ctx, spec.Name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", &models.ProviderError{Provider: spec.Name, Reason: models.ReasonMalformedOutput, Err: fmt.Errorf("no choices in response")}
	}
	return resp.Choices[0].Content, nil
}

func classifyHTTPError(ctx context.Context, provider string, err error) error {
	pe := &models.ProviderError{Provider: provider, Reason: models.ReasonNonZeroExit, Err: err}
	msg := strings.ToLower(err.Error())
	switch {
	case ctx.Err() != nil:
		pe.Reason = models.ReasonTimeout
		pe.Err = ctx.Err()
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"), strings.Contains(msg, "not found"):
		pe.Reason = models.ReasonNotFound
	}
	return pe
}
