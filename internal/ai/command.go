package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/rs/zerolog"

	"github.com/gitsensei/sensei/pkg/models"
)

// waitDelay bounds how long Wait keeps draining pipes after the process is
// killed, in case a grandchild still holds them open
const waitDelay = 2 * time.Second

// CommandInvoker runs a provider's command template as a subprocess. The diff
// is written to the process's stdin and never appears on its command line.
type CommandInvoker struct {
	Timeout time.Duration
}

// NewCommandInvoker creates a command invoker with the given per-call timeout
func NewCommandInvoker(timeout time.Duration) *CommandInvoker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CommandInvoker{Timeout: timeout}
}

// BuildArgv splits a command template with shell-word rules and then
// substitutes the system prompt into the argument holding the placeholder,
// so the prompt is always exactly one argument and no shell ever parses it.
func BuildArgv(template, systemPrompt string) ([]string, error) {
	if n := strings.Count(template, models.SystemPlaceholder); n != 1 {
		return nil, fmt.Errorf("command must contain %s exactly once, found %d", models.SystemPlaceholder, n)
	}

	parser := shellwords.NewParser()
	args, err := parser.Parse(template)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command %q: %w", template, err)
	}
	if parser.Position >= 0 {
		return nil, fmt.Errorf("command %q uses shell operators; wrap it in sh -c", template)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("command is empty")
	}
	if strings.Contains(args[0], models.SystemPlaceholder) {
		return nil, fmt.Errorf("the executable cannot be %s", models.SystemPlaceholder)
	}

	found := false
	for i, a := range args {
		if strings.Contains(a, models.SystemPlaceholder) {
			args[i] = strings.Replace(a, models.SystemPlaceholder, systemPrompt, 1)
			found = true
		}
	}
	if !found {
		// The placeholder was removed by quoting rules, e.g. inside an escape
		return nil, fmt.Errorf("command %q lost its %s placeholder when split", template, models.SystemPlaceholder)
	}
	return args, nil
}

// Invoke runs the command. os/exec copies stdin and stdout on separate
// goroutines, so a diff larger than the pipe buffer cannot deadlock against
// a provider that writes while it reads. The process is killed when the
// timeout expires and Wait always reaps it.
func (c *CommandInvoker) Invoke(ctx context.Context, spec models.ProviderSpec, systemPrompt, diffText string) (string, error) {
	logger := zerolog.Ctx(ctx)

	argv, err := BuildArgv(spec.CommandTemplate, systemPrompt)
	if err != nil {
		return "", &models.ProviderError{Provider: spec.Name, Reason: models.ReasonConfig, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(diffText)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	logger.Debug().
		Str("provider", spec.Name).
		Str("executable", argv[0]).
		Int("args", len(argv)-1).
		Int("stdin_bytes", len(diffText)).
		Dur("timeout", c.Timeout).
		Msg("Starting provider command")

	start := time.Now()
	runErr := cmd.Run()
	logger.Debug().
		Str("provider", spec.Name).
		Dur("elapsed", time.Since(start)).
		Int("stdout_bytes", stdout.Len()).
		Int("stderr_bytes", stderr.Len()).
		Err(runErr).
		Msg("Provider command finished")

	if runErr == nil || (errors.Is(runErr, exec.ErrWaitDelay) && ctx.Err() == nil) {
		return stdout.String(), nil
	}
	return "", classifyRunError(ctx, spec.Name, runErr, stderr.String())
}

func classifyRunError(ctx context.Context, provider string, err error, stderr string) error {
	pe := &models.ProviderError{Provider: provider, Stderr: stderr, Err: err}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		pe.Reason = models.ReasonTimeout
		pe.Err = ctx.Err()
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		pe.Reason = models.ReasonNotFound
	case errors.As(err, &exitErr):
		pe.Reason = models.ReasonNonZeroExit
		pe.Err = fmt.Errorf("exit status %d", exitErr.ExitCode())
	default:
		pe.Reason = models.ReasonNonZeroExit
	}
	return pe
}
