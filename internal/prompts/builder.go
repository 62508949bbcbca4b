// Package prompts assembles the system prompt sent to providers.
package prompts

import (
	"strings"

	"github.com/gitsensei/sensei/internal/commitmsg"
	"github.com/gitsensei/sensei/internal/smartcontext"
)

// Input is everything that shapes one system prompt
type Input struct {
	// Override replaces DefaultPrompt when non-empty
	Override string
	Branch   smartcontext.Context
	// Hint is the user's retry hint, if any
	Hint string
}

// PromptBuilder builds system prompts
type PromptBuilder struct{}

// NewPromptBuilder creates a new prompt builder instance
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Build renders the base (or overridden) prompt, then appends the branch
// context line and the retry hint when they are present
func (pb *PromptBuilder) Build(in Input) string {
	base := DefaultPrompt
	if strings.TrimSpace(in.Override) != "" {
		base = in.Override
	}

	var prompt strings.Builder
	prompt.WriteString(strings.TrimSpace(Render(base, vars(in.Branch))))

	if summary := in.Branch.Summary(); summary != "" {
		prompt.WriteString("\n\n")
		prompt.WriteString(BranchContextPrefix)
		prompt.WriteString(summary)
	}

	if hint := strings.TrimSpace(in.Hint); hint != "" {
		prompt.WriteString("\n\n")
		prompt.WriteString(RetryHintPrefix)
		prompt.WriteString(hint)
	}
	return prompt.String()
}

func vars(c smartcontext.Context) map[string][]string {
	return map[string][]string{
		VarTypes:      commitmsg.AllowedTypes,
		VarBranch:     {c.Branch},
		VarBranchType: {c.BranchType},
		VarIssue:      {c.IssueRef},
	}
}
