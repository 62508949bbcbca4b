package review

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/gitsensei/sensei/pkg/models"
)

const separator = "--------------------------------------------------"

// TerminalPrompter reads decisions line by line from a terminal
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
	// Editor is the command used to edit a message, e.g. from $GIT_EDITOR.
	// Empty means the message is typed inline.
	Editor string
}

// NewTerminalPrompter creates a prompter over in and out
func NewTerminalPrompter(in io.Reader, out io.Writer, editor string) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out, Editor: editor}
}

// Present prints warnings and the proposal
func (p *TerminalPrompter) Present(v View) {
	presentTo(p.out, v)
}

func presentTo(out io.Writer, v View) {
	for _, w := range v.Warnings {
		fmt.Fprintln(out, w)
	}
	fmt.Fprintln(out, separator)
	fmt.Fprintln(out, v.Proposal.String())
	fmt.Fprintln(out, separator)
	if v.DryRun {
		fmt.Fprintln(out, "(dry run: nothing will be committed)")
	}
}

// Notify prints a one-line message
func (p *TerminalPrompter) Notify(msg string) {
	fmt.Fprintln(p.out, msg)
}

// Decide asks until the user picks one of options. End of input aborts.
func (p *TerminalPrompter) Decide(ctx context.Context, options []models.DecisionKind, current models.CommitProposal) (models.ReviewDecision, error) {
	menu := menuFor(options)
	for {
		if err := ctx.Err(); err != nil {
			return models.ReviewDecision{}, err
		}
		fmt.Fprintf(p.out, "%s: ", menu)
		line, err := p.readLine()
		if errors.Is(err, io.EOF) && line == "" {
			fmt.Fprintln(p.out)
			return models.Abort(), nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return models.ReviewDecision{}, err
		}

		kind, ok := parseChoice(line)
		if !ok || !slices.Contains(options, kind) {
			fmt.Fprintf(p.out, "Please answer one of: %s\n", menu)
			continue
		}

		switch kind {
		case models.DecisionEdit:
			text, err := p.edit(ctx, current.String())
			if err != nil {
				return models.ReviewDecision{}, err
			}
			return models.Edit(text), nil
		case models.DecisionRetry:
			fmt.Fprint(p.out, "Hint for the next attempt (optional): ")
			hint, err := p.readLine()
			if err != nil && !errors.Is(err, io.EOF) {
				return models.ReviewDecision{}, err
			}
			return models.Retry(hint), nil
		case models.DecisionAccept:
			return models.Accept(), nil
		default:
			return models.Abort(), nil
		}
	}
}

func (p *TerminalPrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	return strings.TrimSpace(line), err
}

// edit returns the replacement message, from the editor when one is set
func (p *TerminalPrompter) edit(ctx context.Context, current string) (string, error) {
	if p.Editor != "" {
		return editInEditor(ctx, p.Editor, current)
	}

	fmt.Fprintln(p.out, "Enter the new message. Finish with a line containing only \".\":")
	var lines []string
	for {
		line, err := p.in.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "." {
			break
		}
		if trimmed != "" || err == nil {
			lines = append(lines, trimmed)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", err
		}
	}
	return strings.Join(lines, "\n"), nil
}

func editInEditor(ctx context.Context, editor, current string) (string, error) {
	args, err := shellwords.Parse(editor)
	if err != nil || len(args) == 0 {
		return "", fmt.Errorf("invalid editor command %q", editor)
	}

	f, err := os.CreateTemp("", "sensei-commit-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create message file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(current + "\n"); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write message file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor %q failed: %w", args[0], err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read message file: %w", err)
	}
	return string(data), nil
}

func parseChoice(s string) (models.DecisionKind, bool) {
	switch strings.ToLower(s) {
	case "y", "yes":
		return models.DecisionAccept, true
	case "e", "edit":
		return models.DecisionEdit, true
	case "r", "retry":
		return models.DecisionRetry, true
	case "n", "no", "q", "quit", "abort":
		return models.DecisionAbort, true
	}
	return 0, false
}

func menuFor(options []models.DecisionKind) string {
	labels := make([]string, 0, len(options))
	for _, o := range options {
		switch o {
		case models.DecisionAccept:
			labels = append(labels, "[y]es")
		case models.DecisionEdit:
			labels = append(labels, "[e]dit")
		case models.DecisionRetry:
			labels = append(labels, "[r]etry")
		case models.DecisionAbort:
			labels = append(labels, "[n]o")
		}
	}
	return strings.Join(labels, ", ")
}

// AutoPrompter accepts the first proposal it is shown. It stands in for the
// terminal when the user passed --yes.
type AutoPrompter struct {
	Out io.Writer
}

func (p AutoPrompter) Present(v View)    { presentTo(p.Out, v) }
func (p AutoPrompter) Notify(msg string) { fmt.Fprintln(p.Out, msg) }

// Decide always accepts
func (p AutoPrompter) Decide(context.Context, []models.DecisionKind, models.CommitProposal) (models.ReviewDecision, error) {
	return models.Accept(), nil
}
