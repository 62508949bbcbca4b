package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/gitsensei/sensei/internal/ai"
	"github.com/gitsensei/sensei/internal/capture"
	"github.com/gitsensei/sensei/internal/config"
	"github.com/gitsensei/sensei/internal/git"
	"github.com/gitsensei/sensei/internal/logging"
	"github.com/gitsensei/sensei/internal/pipeline"
	"github.com/gitsensei/sensei/internal/review"
	"github.com/gitsensei/sensei/internal/secrets"
	"github.com/gitsensei/sensei/pkg/models"
)

// CommitCommand returns the commit command
func CommitCommand() *cli.Command {
	return &cli.Command{
		Name:  "commit",
		Usage: "Generate a commit message for the staged changes and commit",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "Override the provider to use",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Show the message without committing",
			},
			&cli.BoolFlag{
				Name:  "push",
				Usage: "Push after a successful commit",
			},
			&cli.BoolFlag{
				Name:  "no-provider",
				Usage: "Use the offline heuristic generator only",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Accept the first valid proposal without prompting",
			},
		},
		Action: runCommit,
	}
}

func runCommit(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var spec *models.ProviderSpec
	if !c.Bool("no-provider") {
		resolved, err := cfg.ResolveProvider(c.String("provider"))
		if err != nil {
			return fmt.Errorf("%w (use 'sensei ls' to see available providers)", err)
		}
		if err := config.ValidateProvider(resolved); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		spec = &resolved
	}

	dryRun := c.Bool("dry-run")
	prompter, err := selectPrompter(c.Bool("yes"), term.IsTerminal(int(os.Stdin.Fd())), os.Stdin)
	if err != nil {
		return err
	}

	repo, err := git.Open(".")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()
	ctx, _ = logging.StartRun(ctx, "commit")

	adapter := ai.NewAdapter(ai.Options{
		Timeout:      cfg.Core.Timeout,
		MaxDiffLines: cfg.Core.MaxDiffLines,
		Capture:      capture.New(cfg.Core.CaptureDir),
	})
	pipe := pipeline.New(adapter, secrets.NewScanner(secrets.DefaultOptions()))

	reviewCfg := review.DefaultReviewConfig()
	reviewCfg.MaxRetries = cfg.Core.MaxRetries
	reviewCfg.DryRun = dryRun
	reviewCfg.Push = c.Bool("push")

	if spec != nil {
		fmt.Printf("Using: %s\n", spec.Name)
	} else {
		fmt.Println("Using: offline heuristic")
	}

	svc := review.NewService(repo, pipe, prompter, reviewCfg)
	outcome, err := svc.RunCommitFlow(ctx, spec)
	zerolog.Ctx(ctx).Debug().Bool("accepted", outcome.Accepted).Err(err).Msg("Commit flow finished")

	if errors.Is(err, models.ErrEmptyInput) {
		fmt.Println("No staged changes.")
		return nil
	}
	if outcome.CommitID != "" {
		fmt.Printf("Committed %s\n", shortID(outcome.CommitID))
	}
	if err != nil {
		return err
	}

	switch {
	case !outcome.Accepted:
		fmt.Println("Aborted.")
	case outcome.DryRun:
		fmt.Println("Dry run: nothing committed.")
	case outcome.Pushed:
		fmt.Println("Pushed.")
	}
	return nil
}

// selectPrompter only accepts without asking when --yes was given. The
// interactive menu goes to stderr so stdout carries just the run summary.
func selectPrompter(yes, interactive bool, in io.Reader) (review.Prompter, error) {
	switch {
	case yes:
		return review.AutoPrompter{Out: os.Stdout}, nil
	case interactive:
		return review.NewTerminalPrompter(in, os.Stderr, editorCommand()), nil
	default:
		return nil, errNotInteractive
	}
}

var errNotInteractive = errors.New("stdin is not a terminal; pass --yes to accept the generated message")

// editorCommand follows git's editor lookup order
func editorCommand() string {
	for _, key := range []string{"GIT_EDITOR", "VISUAL", "EDITOR"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
