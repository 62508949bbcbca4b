// Package pipeline turns a staged diff into a valid commit proposal. Every
// recoverable failure (blocked secrets, provider errors, invalid provider
// output) is absorbed here and replaced by the heuristic proposal plus a
// warning; only an empty diff escapes as an error.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gitsensei/sensei/internal/commitmsg"
	"github.com/gitsensei/sensei/internal/heuristic"
	"github.com/gitsensei/sensei/internal/prompts"
	"github.com/gitsensei/sensei/internal/secrets"
	"github.com/gitsensei/sensei/internal/smartcontext"
	"github.com/gitsensei/sensei/pkg/models"
)

// ProviderClient produces a proposal from a provider. *ai.Adapter implements it.
type ProviderClient interface {
	Propose(ctx context.Context, spec models.ProviderSpec, systemPrompt, diffText string) (models.CommitProposal, error)
}

// Scanner finds probable secrets in a diff. *secrets.Scanner implements it.
type Scanner interface {
	Scan(diffText string) []models.ScanFinding
}

// Request is one proposal build
type Request struct {
	Diff string
	// Spec is the provider to try; nil uses the heuristic generator directly
	Spec   *models.ProviderSpec
	Branch string
	// Hint is appended to the system prompt on retries
	Hint string
}

// Result is the proposal with everything the user should be told about it
type Result struct {
	Proposal models.CommitProposal
	Findings []models.ScanFinding
	// Blocked is set when a high-confidence finding kept the diff from the provider
	Blocked  bool
	Warnings []string
}

// Pipeline builds proposals
type Pipeline struct {
	provider ProviderClient
	scanner  Scanner
	prompts  *prompts.PromptBuilder
}

// New creates a pipeline. A nil scanner uses the default secrets scanner.
func New(provider ProviderClient, scanner Scanner) *Pipeline {
	if scanner == nil {
		scanner = secrets.NewScanner(secrets.DefaultOptions())
	}
	return &Pipeline{
		provider: provider,
		scanner:  scanner,
		prompts:  prompts.NewPromptBuilder(),
	}
}

// BuildProposal runs scan, generation, validation and the smart-context
// footer. The returned proposal always validates.
func (p *Pipeline) BuildProposal(ctx context.Context, req Request) (Result, error) {
	logger := zerolog.Ctx(ctx)

	if strings.TrimSpace(req.Diff) == "" {
		return Result{}, models.ErrEmptyInput
	}

	var res Result
	res.Findings = p.scanner.Scan(req.Diff)
	res.Blocked = secrets.Blocks(res.Findings)
	if len(res.Findings) > 0 {
		res.Warnings = append(res.Warnings, secrets.FormatWarning(res.Findings))
		logger.Debug().Int("findings", len(res.Findings)).Bool("blocked", res.Blocked).Msg("Secrets scan reported findings")
	}

	proposal, ok := models.CommitProposal{}, false
	switch {
	case res.Blocked:
		logger.Debug().Msg("Provider skipped because of high-confidence secrets")
	case req.Spec == nil:
		logger.Debug().Msg("No provider selected, using heuristic generator")
	case p.provider == nil:
		res.Warnings = append(res.Warnings, fmt.Sprintf("provider %q is not available; using the offline heuristic message", req.Spec.Name))
	default:
		proposal, ok = p.fromProvider(ctx, req, &res)
	}

	if !ok {
		h, err := heuristic.Generate(req.Diff)
		if err != nil {
			return Result{}, err
		}
		proposal = h
	}

	if proposal.Truncated {
		res.Warnings = append(res.Warnings, "the diff was too large; lockfile, generated and trailing hunks were truncated before sending it to the provider")
	}

	proposal = commitmsg.DedupeFooter(proposal).WithFooter(smartcontext.RefsFooter(req.Branch))
	res.Proposal = proposal

	logger.Debug().
		Str("source", string(proposal.Source)).
		Str("subject", proposal.Subject).
		Int("warnings", len(res.Warnings)).
		Msg("Proposal built")
	return res, nil
}

// fromProvider asks the provider for a proposal and validates it. Failures
// become warnings and report ok=false.
func (p *Pipeline) fromProvider(ctx context.Context, req Request, res *Result) (models.CommitProposal, bool) {
	spec := *req.Spec
	system := p.prompts.Build(prompts.Input{
		Override: spec.Prompt,
		Branch:   smartcontext.FromBranch(req.Branch),
		Hint:     req.Hint,
	})

	proposal, err := p.provider.Propose(ctx, spec, system, req.Diff)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("provider", spec.Name).Msg("Provider failed, falling back to heuristic")
		res.Warnings = append(res.Warnings, fmt.Sprintf("%v; using the offline heuristic message", err))
		return models.CommitProposal{}, false
	}

	if err := commitmsg.Validate(proposal); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("provider", spec.Name).Msg("Provider proposal failed validation")
		res.Warnings = append(res.Warnings, fmt.Sprintf("provider %q returned an invalid message: %v; using the offline heuristic message", spec.Name, err))
		return models.CommitProposal{}, false
	}
	return proposal, true
}
