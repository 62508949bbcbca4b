package models

import (
	"strings"
)

// Provider models

// ProviderKind selects how a provider is invoked
type ProviderKind string

const (
	// ProviderKindCommand runs an external command with the diff on stdin
	ProviderKindCommand ProviderKind = "command"
	// ProviderKindOllama talks to an ollama server over HTTP
	ProviderKindOllama ProviderKind = "ollama"
)

// SystemPlaceholder marks where the system prompt goes in a command template
const SystemPlaceholder = "{system}"

// ProviderSpec describes one configured text-generation provider
type ProviderSpec struct {
	Name            string       `json:"name" koanf:"name"`
	Description     string       `json:"description" koanf:"description"`
	Kind            ProviderKind `json:"kind,omitempty" koanf:"kind"`
	CommandTemplate string       `json:"command,omitempty" koanf:"command"`
	// Prompt replaces the base system prompt when set
	Prompt string `json:"prompt,omitempty" koanf:"prompt"`
	// Model and URL are only used by ollama providers
	Model string `json:"model,omitempty" koanf:"model"`
	URL   string `json:"url,omitempty" koanf:"url"`
	// Attempts bounds tries on transient failures; zero means one
	Attempts int `json:"attempts,omitempty" koanf:"attempts"`
}

// EffectiveKind returns the provider kind, defaulting to command
func (p ProviderSpec) EffectiveKind() ProviderKind {
	if p.Kind == "" {
		return ProviderKindCommand
	}
	return p.Kind
}

// Proposal models

// ProposalSource records which generator produced a proposal
type ProposalSource string

const (
	SourceProvider  ProposalSource = "provider"
	SourceHeuristic ProposalSource = "heuristic"
	SourceUser      ProposalSource = "user"
)

// CommitProposal is a candidate commit message split into its parts
type CommitProposal struct {
	Subject   string         `json:"subject"`
	Body      string         `json:"body,omitempty"`
	Footer    []string       `json:"footer,omitempty"`
	Source    ProposalSource `json:"source"`
	Truncated bool           `json:"truncated,omitempty"` // Provider saw a truncated diff
}

// HasFooter reports whether the exact trailer line is already present
func (p CommitProposal) HasFooter(line string) bool {
	line = strings.TrimSpace(line)
	for _, f := range p.Footer {
		if strings.TrimSpace(f) == line {
			return true
		}
	}
	return false
}

// WithFooter returns a copy with the trailer appended unless it is already present
func (p CommitProposal) WithFooter(line string) CommitProposal {
	if line == "" || p.HasFooter(line) {
		return p
	}
	footer := make([]string, 0, len(p.Footer)+1)
	footer = append(footer, p.Footer...)
	p.Footer = append(footer, line)
	return p
}

// String renders the full commit message
func (p CommitProposal) String() string {
	var sb strings.Builder
	sb.WriteString(p.Subject)
	if body := strings.TrimSpace(p.Body); body != "" {
		sb.WriteString("\n\n")
		sb.WriteString(body)
	}
	if len(p.Footer) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(strings.Join(p.Footer, "\n"))
	}
	return sb.String()
}

// Secret scanning models

// FindingKind classifies a probable credential
type FindingKind string

const (
	KindAPIKey     FindingKind = "api-key"
	KindToken      FindingKind = "token"
	KindPassword   FindingKind = "password"
	KindPrivateKey FindingKind = "private-key-block"
)

// Confidence is how sure the scanner is about a finding
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// ScanFinding is one probable secret on an added diff line
type ScanFinding struct {
	Kind       FindingKind `json:"kind"`
	Rule       string      `json:"rule"`           // Signature name, gitleaks rule id, or "entropy"
	Path       string      `json:"path,omitempty"` // File the line belongs to
	Line       int         `json:"line"`           // Line in the new file; the diff line when no hunk header is known
	Offset     int         `json:"offset"`         // Byte offset of the match within the line content
	Confidence Confidence  `json:"confidence"`
	Preview    string      `json:"preview"` // Redacted match
}

// Review models

// DecisionKind is the user's choice in one review iteration
type DecisionKind int

const (
	DecisionAccept DecisionKind = iota
	DecisionAbort
	DecisionEdit
	DecisionRetry
)

func (d DecisionKind) String() string {
	switch d {
	case DecisionAccept:
		return "accept"
	case DecisionAbort:
		return "abort"
	case DecisionEdit:
		return "edit"
	case DecisionRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// ReviewDecision is produced once per review iteration from user input
type ReviewDecision struct {
	Kind DecisionKind
	Text string // Replacement message for DecisionEdit
	Hint string // Optional prompt hint for DecisionRetry
}

// Accept, Abort, Edit and Retry build decisions
func Accept() ReviewDecision           { return ReviewDecision{Kind: DecisionAccept} }
func Abort() ReviewDecision            { return ReviewDecision{Kind: DecisionAbort} }
func Edit(text string) ReviewDecision  { return ReviewDecision{Kind: DecisionEdit, Text: text} }
func Retry(hint string) ReviewDecision { return ReviewDecision{Kind: DecisionRetry, Hint: hint} }

// ReviewOutcome is the terminal result of a commit flow
type ReviewOutcome struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
	CommitID string `json:"commit_id,omitempty"` // Empty on dry runs
	Pushed   bool   `json:"pushed,omitempty"`
	DryRun   bool   `json:"dry_run,omitempty"`
	Retries  int    `json:"retries"`
}
