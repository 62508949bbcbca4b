// Package ai runs text-generation providers over a staged diff and turns
// their output into commit proposals.
package ai

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/gitsensei/sensei/internal/capture"
	"github.com/gitsensei/sensei/internal/retry"
	"github.com/gitsensei/sensei/pkg/models"
)

const (
	// DefaultTimeout bounds a single provider invocation
	DefaultTimeout = 30 * time.Second
	// DefaultMaxDiffLines is the diff size above which low-signal content is truncated
	DefaultMaxDiffLines = 2000
)

// Invoker sends a system prompt and a diff to one kind of provider and
// returns the raw generated text. Failures are *models.ProviderError.
type Invoker interface {
	Invoke(ctx context.Context, spec models.ProviderSpec, systemPrompt, diffText string) (string, error)
}

// Options configures an Adapter
type Options struct {
	Timeout      time.Duration
	MaxDiffLines int
	// Capture records every exchange when set
	Capture *capture.Recorder
}

// Exchange is the capture record of one Propose call
type Exchange struct {
	Provider     string   `json:"provider"`
	Kind         string   `json:"kind"`
	SystemPrompt string   `json:"system_prompt"`
	Diff         string   `json:"diff"`
	Truncated    bool     `json:"truncated"`
	Attempts     int      `json:"attempts"`
	RawFile      string   `json:"raw_file,omitempty"` // Provider output, stored as a blob beside the record
	Error        string   `json:"error,omitempty"`
	Reasons      []string `json:"retry_reasons,omitempty"`
}

// Adapter routes a provider spec to the invoker for its kind, applies the
// size policy and normalizes the output
type Adapter struct {
	opts     Options
	invokers map[models.ProviderKind]Invoker
}

// NewAdapter creates an adapter with the command and ollama invokers
func NewAdapter(opts Options) *Adapter {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxDiffLines <= 0 {
		opts.MaxDiffLines = DefaultMaxDiffLines
	}
	return &Adapter{
		opts: opts,
		invokers: map[models.ProviderKind]Invoker{
			models.ProviderKindCommand: NewCommandInvoker(opts.Timeout),
			models.ProviderKindOllama:  NewOllamaInvoker(opts.Timeout),
		},
	}
}

// Register replaces the invoker used for a provider kind
func (a *Adapter) Register(kind models.ProviderKind, inv Invoker) {
	a.invokers[kind] = inv
}

// Propose invokes the provider and parses its output into a proposal. The
// proposal is not validated against the commit grammar here.
func (a *Adapter) Propose(ctx context.Context, spec models.ProviderSpec, systemPrompt, diffText string) (models.CommitProposal, error) {
	logger := zerolog.Ctx(ctx)

	inv, ok := a.invokers[spec.EffectiveKind()]
	if !ok {
		return models.CommitProposal{}, &models.ProviderError{
			Provider: spec.Name,
			Reason:   models.ReasonConfig,
			Err:      fmt.Errorf("unknown provider kind %q", spec.Kind),
		}
	}

	payload, stats := Truncate(diffText, a.opts.MaxDiffLines)
	if stats.Truncated {
		logger.Debug().
			Int("total_lines", stats.TotalLines).
			Int("dropped_lines", stats.DroppedLines).
			Strs("collapsed", stats.CollapsedFiles).
			Msg("Diff truncated before sending to provider")
	}

	var raw string
	start := time.Now()
	result := retry.RetryWithBackoff(ctx, retry.ProviderRetryConfig(spec.Attempts), func() error {
		out, err := inv.Invoke(ctx, spec, systemPrompt, payload)
		if err != nil {
			return err
		}
		raw = out
		return nil
	})
	var err error
	if !result.Success {
		err = asProviderError(spec.Name, result.LastError)
	}
	a.record(ctx, Exchange{
		Provider:     spec.Name,
		Kind:         string(spec.EffectiveKind()),
		SystemPrompt: systemPrompt,
		Diff:         payload,
		Truncated:    stats.Truncated,
		Attempts:     result.Attempts,
		Reasons:      result.RetryReasons,
	}, raw, err)
	if err != nil {
		return models.CommitProposal{}, err
	}
	logger.Debug().
		Str("provider", spec.Name).
		Int("attempts", result.Attempts).
		Dur("elapsed", time.Since(start)).
		Int("output_bytes", len(raw)).
		Msg("Provider responded")

	proposal, err := Normalize(spec.Name, raw)
	if err != nil {
		return models.CommitProposal{}, err
	}
	proposal.Truncated = stats.Truncated
	return proposal, nil
}

// record writes the exchange and the raw provider output when capture is on
func (a *Adapter) record(ctx context.Context, ex Exchange, raw string, err error) {
	if !a.opts.Capture.Enabled() {
		return
	}
	if raw != "" {
		if path := a.opts.Capture.WriteBlob(ctx, "output", "txt", []byte(raw)); path != "" {
			ex.RawFile = filepath.Base(path)
		}
	}
	if err != nil {
		ex.Error = err.Error()
	}
	a.opts.Capture.WriteJSON(ctx, "exchange", ex)
}

// asProviderError keeps provider errors as they are and wraps anything else,
// which can only be a context error from the retry loop
func asProviderError(provider string, err error) error {
	var pe *models.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &models.ProviderError{Provider: provider, Reason: models.ReasonTimeout, Err: err}
}
