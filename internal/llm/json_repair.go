package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// RepairStats records what was done to make an envelope parseable
type RepairStats struct {
	OriginalBytes    int      `json:"original_bytes"`
	RepairedBytes    int      `json:"repaired_bytes"`
	RepairStrategies []string `json:"repair_strategies"`
	WasRepaired      bool     `json:"was_repaired"`
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// RepairJSON makes a JSON envelope parseable. Trailing commas are removed
// first; anything still invalid goes through the jsonrepair library.
func RepairJSON(raw string) (string, RepairStats, error) {
	stats := RepairStats{OriginalBytes: len(raw)}

	if json.Valid([]byte(raw)) {
		stats.RepairedBytes = len(raw)
		return raw, stats, nil
	}

	stats.WasRepaired = true
	repaired := raw

	if trailingCommaRe.MatchString(repaired) {
		repaired = trailingCommaRe.ReplaceAllString(repaired, "$1")
		stats.RepairStrategies = append(stats.RepairStrategies, "trailing_commas")
	}

	if !json.Valid([]byte(repaired)) {
		fixed, err := jsonrepair.JSONRepair(repaired)
		if err != nil {
			stats.RepairedBytes = len(repaired)
			return repaired, stats, fmt.Errorf("json repair failed: %w", err)
		}
		repaired = fixed
		stats.RepairStrategies = append(stats.RepairStrategies, "jsonrepair_library")
	}

	stats.RepairedBytes = len(repaired)
	if !json.Valid([]byte(repaired)) {
		return repaired, stats, fmt.Errorf("json still invalid after %s", strings.Join(stats.RepairStrategies, ", "))
	}
	return repaired, stats, nil
}
