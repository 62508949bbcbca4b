// Package llm cleans raw text returned by generation providers.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gitsensei/sensei/internal/commitmsg"
)

// envelopeKeys are the fields provider CLIs use for the generated text when
// they print JSON, checked in order
var envelopeKeys = []string{"result", "response", "message", "content", "text", "output"}

// ProcessorResult describes what CleanResponse did
type ProcessorResult struct {
	Text          string      `json:"text"`
	Unwrapped     bool        `json:"unwrapped"` // Text came out of a JSON envelope
	RepairStats   RepairStats `json:"repair_stats"`
	StrippedFence bool        `json:"stripped_fence"`
	StrippedQuote bool        `json:"stripped_quote"`
	SkippedLines  int         `json:"skipped_lines"` // Preamble lines dropped before the subject
}

// CleanResponse normalizes raw provider output into commit message text. It
// trims whitespace, unwraps JSON envelopes, strips one pair of surrounding
// code fences or quotes and drops any preamble before a Conventional Commits
// subject line. Empty output is an error.
func CleanResponse(raw string) (ProcessorResult, error) {
	res := ProcessorResult{}
	text := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))

	if inner, stats, ok := unwrapEnvelope(text); ok {
		text = strings.TrimSpace(inner)
		res.Unwrapped = true
		res.RepairStats = stats
	}

	if inner, ok := stripFence(text); ok {
		text = strings.TrimSpace(inner)
		res.StrippedFence = true
	}

	if inner, ok := stripQuotes(text); ok {
		text = strings.TrimSpace(inner)
		res.StrippedQuote = true
	}

	if loc := commitmsg.SubjectLineRe.FindStringIndex(text); loc != nil && loc[0] > 0 {
		res.SkippedLines = strings.Count(text[:loc[0]], "\n")
		text = strings.TrimSpace(text[loc[0]:])
		// A fence opened in the preamble leaves its closing half behind
		if strings.HasSuffix(text, "```") && strings.Count(text, "```") == 1 {
			text = strings.TrimSpace(strings.TrimSuffix(text, "```"))
		}
	}

	if text == "" {
		return res, fmt.Errorf("empty response")
	}

	res.Text = text
	log.Debug().
		Int("raw_bytes", len(raw)).
		Bool("unwrapped", res.Unwrapped).
		Bool("fence", res.StrippedFence).
		Bool("quote", res.StrippedQuote).
		Int("skipped_lines", res.SkippedLines).
		Str("preview", truncateForLog(text, 80)).
		Msg("Cleaned provider response")
	return res, nil
}

// unwrapEnvelope extracts the text field of a JSON object, repairing it first if needed
func unwrapEnvelope(text string) (string, RepairStats, bool) {
	if !strings.HasPrefix(text, "{") {
		return "", RepairStats{}, false
	}

	repaired, stats, err := RepairJSON(text)
	if err != nil {
		log.Debug().Err(err).Msg("Output looks like JSON but could not be repaired")
		return "", stats, false
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(repaired), &obj); err != nil {
		return "", stats, false
	}
	for _, key := range envelopeKeys {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return s, stats, true
		}
	}
	return "", stats, false
}

// stripFence removes a code fence wrapping the whole text, including an
// optional language tag on the opening fence
func stripFence(text string) (string, bool) {
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return "", false
	}
	inner := strings.TrimSuffix(text[3:], "```")
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		if tag := strings.TrimSpace(inner[:nl]); !strings.ContainsAny(tag, " \t") {
			inner = inner[nl+1:]
		}
	}
	if strings.Contains(inner, "```") {
		return "", false
	}
	return inner, true
}

// stripQuotes removes one pair of matching quote characters around the text
func stripQuotes(text string) (string, bool) {
	if len(text) < 2 {
		return "", false
	}
	first, last := text[0], text[len(text)-1]
	if first != last || !strings.ContainsRune(`"'`+"`", rune(first)) {
		return "", false
	}
	inner := text[1 : len(text)-1]
	if strings.ContainsRune(inner, rune(first)) {
		return "", false
	}
	return inner, true
}

// truncateForLog truncates text for logging purposes
func truncateForLog(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
