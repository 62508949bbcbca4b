package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gitsensei/sensei/internal/pipeline"
	"github.com/gitsensei/sensei/pkg/models"
)

// VCS is the version-control collaborator. *git.Repository implements it.
type VCS interface {
	HasStagedChanges(ctx context.Context) (bool, error)
	StagedDiff(ctx context.Context) (string, error)
	CurrentBranchName(ctx context.Context) (string, error)
	Commit(ctx context.Context, message string) (string, error)
	Push(ctx context.Context) error
}

// ProposalBuilder builds proposals. *pipeline.Pipeline implements it.
type ProposalBuilder interface {
	BuildProposal(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// View is what the prompter shows before each decision
type View struct {
	Proposal    models.CommitProposal
	Warnings    []string
	Retries     int
	RetriesLeft int
	DryRun      bool
}

// Prompter shows proposals and collects decisions
type Prompter interface {
	Present(v View)
	Decide(ctx context.Context, options []models.DecisionKind, current models.CommitProposal) (models.ReviewDecision, error)
	Notify(msg string)
}

// Config holds the review service configuration
type Config struct {
	MaxRetries int
	DryRun     bool
	Push       bool
}

// DefaultReviewConfig returns the default configuration
func DefaultReviewConfig() Config {
	return Config{MaxRetries: DefaultMaxRetries}
}

// Service runs commit flows
type Service struct {
	vcs      VCS
	builder  ProposalBuilder
	prompter Prompter
	config   Config
}

// NewService creates a review service
func NewService(vcs VCS, builder ProposalBuilder, prompter Prompter, config Config) *Service {
	return &Service{vcs: vcs, builder: builder, prompter: prompter, config: config}
}

// RunCommitFlow builds a proposal for the staged changes, runs the review
// loop and commits the accepted message. It fails with models.ErrEmptyInput
// before any scanning or generation when nothing is staged. On a dry run the
// accepted outcome is returned without committing. Aborting is not an error.
func (s *Service) RunCommitFlow(ctx context.Context, spec *models.ProviderSpec) (models.ReviewOutcome, error) {
	logger := zerolog.Ctx(ctx)

	staged, err := s.vcs.HasStagedChanges(ctx)
	if err != nil {
		return models.ReviewOutcome{}, fmt.Errorf("failed to check staged changes: %w", err)
	}
	if !staged {
		return models.ReviewOutcome{}, models.ErrEmptyInput
	}

	diffText, err := s.vcs.StagedDiff(ctx)
	if err != nil {
		return models.ReviewOutcome{}, fmt.Errorf("failed to read staged diff: %w", err)
	}
	if strings.TrimSpace(diffText) == "" {
		return models.ReviewOutcome{}, models.ErrEmptyInput
	}

	branch, err := s.vcs.CurrentBranchName(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("Could not resolve branch; continuing without smart context")
		branch = ""
	}

	req := pipeline.Request{Diff: diffText, Spec: spec, Branch: branch}
	res, err := s.builder.BuildProposal(ctx, req)
	if err != nil {
		return models.ReviewOutcome{}, err
	}

	loop := NewLoop(res.Proposal, s.config.MaxRetries)
	warnings := res.Warnings

	for !loop.State().Terminal() {
		s.prompter.Present(View{
			Proposal:    loop.Proposal(),
			Warnings:    warnings,
			Retries:     loop.Retries(),
			RetriesLeft: loop.RetriesLeft(),
			DryRun:      s.config.DryRun,
		})
		warnings = nil

		decision, err := s.prompter.Decide(ctx, loop.Options(), loop.Proposal())
		if err != nil {
			return models.ReviewOutcome{}, fmt.Errorf("failed to read decision: %w", err)
		}

		state, err := loop.Decide(decision)
		logger.Debug().Str("decision", decision.Kind.String()).Str("state", state.String()).Err(err).Msg("Review transition")
		if err != nil {
			var verr *models.ValidationError
			switch {
			case errors.As(err, &verr):
				s.prompter.Notify("Edit rejected: " + verr.Error())
			case errors.Is(err, ErrRetryExhausted):
				s.prompter.Notify("No retries left; accept, edit or abort.")
			default:
				return models.ReviewOutcome{}, err
			}
			continue
		}

		if state == StateRetrying {
			req.Hint = decision.Hint
			res, err := s.builder.BuildProposal(ctx, req)
			if err != nil {
				loop.CancelRetry()
				s.prompter.Notify("Retry failed: " + err.Error())
				continue
			}
			if err := loop.CompleteRetry(res.Proposal); err != nil {
				return models.ReviewOutcome{}, err
			}
			warnings = res.Warnings
		}
	}

	outcome := models.ReviewOutcome{Retries: loop.Retries(), DryRun: s.config.DryRun}
	if loop.State() == StateAborted {
		logger.Debug().Int("retries", outcome.Retries).Msg("Review aborted")
		return outcome, nil
	}

	outcome.Accepted = true
	outcome.Message = loop.Proposal().String()
	if s.config.DryRun {
		return outcome, nil
	}

	id, err := s.vcs.Commit(ctx, outcome.Message)
	if err != nil {
		return models.ReviewOutcome{}, err
	}
	outcome.CommitID = id
	logger.Debug().Str("commit", id).Msg("Commit created")

	if s.config.Push {
		if err := s.vcs.Push(ctx); err != nil {
			return outcome, err
		}
		outcome.Pushed = true
	}
	return outcome, nil
}
