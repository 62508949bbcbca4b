// Package smartcontext derives commit context from the current branch name.
package smartcontext

import (
	"fmt"
	"regexp"
	"strings"
)

// RefsKey is the footer trailer carrying the issue id
const RefsKey = "Refs"

var (
	// Uppercase project key, hyphen, number: PROJ-123
	issueIDRe = regexp.MustCompile(`[A-Z]+-[0-9]+`)

	trackerPatterns = []struct {
		re     *regexp.Regexp
		format string
	}{
		{regexp.MustCompile(`(AB#[0-9]+)`), "%s"},
		{regexp.MustCompile(`(?i)issue[/-]([0-9]+)`), "#%s"},
		{regexp.MustCompile(`(?i)sc[/-]([0-9]+)`), "sc-%s"},
		{regexp.MustCompile(`(?:^|/)#([0-9]+)`), "#%s"},
	}

	branchPrefixRe = regexp.MustCompile(`^([A-Za-z]+)[/-]`)

	branchTypes = map[string]string{
		"feature":  "feat",
		"feat":     "feat",
		"fix":      "fix",
		"bugfix":   "fix",
		"hotfix":   "fix",
		"refactor": "refactor",
		"docs":     "docs",
		"doc":      "docs",
		"style":    "style",
		"chore":    "chore",
		"test":     "test",
		"tests":    "test",
	}
)

// IssueID returns the first issue id of the form PROJ-123 in the branch name, or ""
func IssueID(branch string) string {
	return issueIDRe.FindString(branch)
}

// RefsFooter returns the "Refs: ID" footer line for the branch, or "" when it names no issue
func RefsFooter(branch string) string {
	id := IssueID(branch)
	if id == "" {
		return ""
	}
	return RefsKey + ": " + id
}

// TrackerRef recognises the wider set of tracker references used in branch
// names (Azure DevOps AB#1, GitHub #1 or issue-1, Shortcut sc-1) on top of
// IssueID. It feeds the prompt only; the footer uses IssueID.
func TrackerRef(branch string) string {
	if id := IssueID(branch); id != "" {
		return id
	}
	for _, p := range trackerPatterns {
		if m := p.re.FindStringSubmatch(branch); m != nil {
			return fmt.Sprintf(p.format, m[1])
		}
	}
	return ""
}

// BranchType maps a branch prefix such as feature/ or bugfix- to a commit type
func BranchType(branch string) string {
	m := branchPrefixRe.FindStringSubmatch(branch)
	if m == nil {
		return ""
	}
	return branchTypes[strings.ToLower(m[1])]
}

// Context is what the prompt builder is told about the branch
type Context struct {
	Branch     string
	BranchType string
	IssueRef   string
}

// FromBranch collects the branch context
func FromBranch(branch string) Context {
	return Context{
		Branch:     branch,
		BranchType: BranchType(branch),
		IssueRef:   TrackerRef(branch),
	}
}

// IsMainline reports whether the branch is a trunk branch
func (c Context) IsMainline() bool {
	switch c.Branch {
	case "main", "master", "trunk", "develop":
		return true
	}
	return false
}

// Summary renders the context as one line, or "" when there is nothing to say
func (c Context) Summary() string {
	if c.Branch == "" {
		return ""
	}
	parts := []string{"Branch: " + c.Branch}
	if c.IsMainline() {
		parts = append(parts, "direct commit to the main branch")
	}
	if c.BranchType != "" {
		parts = append(parts, "likely type: "+c.BranchType)
	}
	if c.IssueRef != "" {
		parts = append(parts, "issue: "+c.IssueRef)
	}
	return strings.Join(parts, "; ")
}
