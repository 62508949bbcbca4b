// Package commitmsg implements the Conventional Commits subset sensei accepts
// and converts between message text and models.CommitProposal.
package commitmsg

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gitsensei/sensei/pkg/models"
)

// AllowedTypes is the fixed type vocabulary, in display order
var AllowedTypes = []string{"feat", "fix", "docs", "style", "refactor", "test", "chore"}

var (
	subjectRe = regexp.MustCompile(`^(` + strings.Join(AllowedTypes, "|") + `)(\([a-zA-Z0-9_./+\-]+\))?!?: \S.*$`)

	// SubjectLineRe finds a subject line anywhere in a block of text
	SubjectLineRe = regexp.MustCompile(`(?m)^(` + strings.Join(AllowedTypes, "|") + `)(\([a-zA-Z0-9_./+\-]+\))?!?: \S.*$`)

	trailerRe = regexp.MustCompile(`^(BREAKING CHANGE|[A-Za-z][A-Za-z0-9-]*)(: | #)\S`)
	scopeRe   = regexp.MustCompile(`[^a-zA-Z0-9_./+\-]+`)
)

// ValidateSubject checks a subject line against `type(scope)?: description`
func ValidateSubject(subject string) error {
	switch {
	case strings.TrimSpace(subject) == "":
		return &models.ValidationError{Text: subject, Reason: "empty subject"}
	case strings.ContainsAny(subject, "\r\n"):
		return &models.ValidationError{Text: subject, Reason: "subject must be a single line"}
	case !subjectRe.MatchString(subject):
		return &models.ValidationError{
			Text:   subject,
			Reason: fmt.Sprintf("expected type(scope): description with type one of %s", strings.Join(AllowedTypes, ", ")),
		}
	}
	return nil
}

// Validate checks the subject of a proposal
func Validate(p models.CommitProposal) error {
	return ValidateSubject(p.Subject)
}

// Subject builds a subject line. Scope is sanitised to the allowed charset and
// omitted when empty.
func Subject(typ, scope, description string) string {
	scope = SanitizeScope(scope)
	if scope == "" {
		return fmt.Sprintf("%s: %s", typ, description)
	}
	return fmt.Sprintf("%s(%s): %s", typ, scope, description)
}

// SanitizeScope replaces characters the grammar does not allow in a scope
func SanitizeScope(scope string) string {
	scope = scopeRe.ReplaceAllString(strings.TrimSpace(scope), "-")
	return strings.Trim(scope, "-")
}

// Parse splits message text into subject, body and footer. The first line is
// the subject; a final paragraph made only of trailer lines becomes the
// footer; everything between is the body. It fails when the text is empty or
// when a multi-paragraph message starts with a multi-line paragraph that is
// not a subject followed by list items.
func Parse(text string) (models.CommitProposal, error) {
	var p models.CommitProposal

	paragraphs := Paragraphs(text)
	if len(paragraphs) == 0 {
		return p, fmt.Errorf("empty message")
	}

	first := paragraphs[0]
	if len(first) > 1 && len(paragraphs) > 1 && !isListItem(first[1]) {
		return p, fmt.Errorf("ambiguous subject: first paragraph has %d lines", len(first))
	}

	p.Subject = strings.TrimSpace(first[0])
	var body []string
	if len(first) > 1 {
		body = append(body, strings.Join(first[1:], "\n"))
	}

	rest := paragraphs[1:]
	if n := len(rest); n > 0 && isTrailerBlock(rest[n-1]) {
		for _, l := range rest[n-1] {
			p.Footer = append(p.Footer, strings.TrimSpace(l))
		}
		rest = rest[:n-1]
	}
	for _, para := range rest {
		body = append(body, strings.Join(para, "\n"))
	}
	p.Body = strings.Join(body, "\n\n")

	return p, nil
}

// ParseValid parses text and validates the subject
func ParseValid(text string) (models.CommitProposal, error) {
	p, err := Parse(text)
	if err != nil {
		return p, &models.ValidationError{Text: text, Reason: err.Error()}
	}
	if err := Validate(p); err != nil {
		return p, err
	}
	return p, nil
}

// Paragraphs returns the non-blank paragraphs of text as lists of lines with
// trailing whitespace removed
func Paragraphs(text string) [][]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var (
		out [][]string
		cur []string
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func isTrailerBlock(lines []string) bool {
	for _, l := range lines {
		if !trailerRe.MatchString(strings.TrimSpace(l)) {
			return false
		}
	}
	return len(lines) > 0
}

func isListItem(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ")
}

// DedupeFooter drops repeated trailer lines, keeping the first occurrence
func DedupeFooter(p models.CommitProposal) models.CommitProposal {
	if len(p.Footer) < 2 {
		return p
	}
	seen := make(map[string]bool, len(p.Footer))
	footer := make([]string, 0, len(p.Footer))
	for _, l := range p.Footer {
		key := strings.TrimSpace(l)
		if seen[key] {
			continue
		}
		seen[key] = true
		footer = append(footer, l)
	}
	p.Footer = footer
	return p
}
