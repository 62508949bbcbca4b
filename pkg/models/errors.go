package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyInput is returned when there is nothing staged to describe
var ErrEmptyInput = errors.New("no staged changes")

// ProviderErrorReason classifies a provider failure
type ProviderErrorReason string

const (
	ReasonNotFound        ProviderErrorReason = "not_found"
	ReasonNonZeroExit     ProviderErrorReason = "non_zero_exit"
	ReasonTimeout         ProviderErrorReason = "timeout"
	ReasonMalformedOutput ProviderErrorReason = "malformed_output"
	ReasonConfig          ProviderErrorReason = "config"
)

// ProviderError reports a failed provider invocation. It is always recoverable:
// the pipeline falls back to the heuristic generator.
type ProviderError struct {
	Provider string
	Reason   ProviderErrorReason
	Stderr   string // Captured error stream, if any
	Err      error
}

func (e *ProviderError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "provider %q failed (%s)", e.Provider, e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		fmt.Fprintf(&sb, ": %s", stderr)
	}
	return sb.String()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsTransient reports whether trying again may succeed
func (e *ProviderError) IsTransient() bool {
	return e.Reason == ReasonTimeout
}

// ValidationError reports a message that does not follow the Conventional Commits grammar
type ValidationError struct {
	Text   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid commit message %q: %s", firstLine(e.Text), e.Reason)
}

// CommandError reports a failed version-control command. The repository is left unchanged.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s failed", strings.Join(e.Args, " "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\n" + stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
