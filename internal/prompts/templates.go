package prompts

// DefaultPrompt is sent with every provider call unless the provider sets
// its own. Provider prompts may use {{VAR:name}} placeholders, see vars.go.
const DefaultPrompt = `OUTPUT ONLY THE COMMIT MESSAGE. NO EXPLANATIONS. NO MARKDOWN. NO COMMENTARY.

Format:
type(scope): short summary

- bullet point describing change

Rules:
- Types: {{VAR:types|join=", "}}
- Use imperative mood: "add" not "added"
- First line max 72 characters
- NO preamble, NO markdown, NO "I/we/this commit"
- Start DIRECTLY with the type`

// Sections appended after the base prompt
const (
	// BranchContextPrefix introduces the line describing the current branch
	BranchContextPrefix = "Context: "

	// RetryHintPrefix introduces a hint the user typed when asking for another proposal
	RetryHintPrefix = "Additional instructions from the user: "
)

// Variables available to prompt templates
const (
	VarTypes      = "types"
	VarBranch     = "branch"
	VarBranchType = "branch_type"
	VarIssue      = "issue"
)
