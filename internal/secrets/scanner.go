// Package secrets screens the added lines of a diff for probable credentials
// before the diff is handed to an external provider.
package secrets

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	leaksconfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	"github.com/zricethezav/gitleaks/v8/report"

	"github.com/gitsensei/sensei/internal/diff"
	"github.com/gitsensei/sensei/pkg/models"
)

// Options tunes the scanner
type Options struct {
	MinRunLength     int     // Shortest run considered for the entropy check (default 20)
	EntropyThreshold float64 // Bits per character at or above which a run is reported (default 4.5)
	UseGitleaks      bool    // Also run the gitleaks default rule set
}

// DefaultOptions returns the scanner defaults
func DefaultOptions() Options {
	return Options{
		MinRunLength:     20,
		EntropyThreshold: 4.5,
		UseGitleaks:      true,
	}
}

// Scanner runs signature, gitleaks and entropy checks over added diff lines.
// It holds no state between scans.
type Scanner struct {
	opts       Options
	signatures []Signature
	runRe      *regexp.Regexp
}

// NewScanner creates a scanner with the default signatures
func NewScanner(opts Options) *Scanner {
	def := DefaultOptions()
	if opts.MinRunLength <= 0 {
		opts.MinRunLength = def.MinRunLength
	}
	if opts.EntropyThreshold <= 0 {
		opts.EntropyThreshold = def.EntropyThreshold
	}
	return &Scanner{
		opts:       opts,
		signatures: DefaultSignatures,
		runRe:      regexp.MustCompile(fmt.Sprintf(`[A-Za-z0-9+/=_\-]{%d,}`, opts.MinRunLength)),
	}
}

var defaultScanner = sync.OnceValue(func() *Scanner {
	return NewScanner(DefaultOptions())
})

// Scan runs the default scanner over diffText
func Scan(diffText string) []models.ScanFinding {
	return defaultScanner().Scan(diffText)
}

// Blocks reports whether any finding is high confidence. A blocking finding
// means the diff must not leave the machine.
func Blocks(findings []models.ScanFinding) bool {
	for _, f := range findings {
		if f.Confidence == models.ConfidenceHigh {
			return true
		}
	}
	return false
}

type span struct{ start, end int }

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// Scan inspects every added line of diffText. Context, removed and header lines
// are ignored. The result is sorted by path, line, offset and rule so that
// identical input always yields identical output regardless of hunk order.
func (s *Scanner) Scan(diffText string) []models.ScanFinding {
	files := diff.NewParser().Parse(diffText)
	if len(files) == 0 {
		return nil
	}

	leaks := s.gitleaksDetector()

	var findings []models.ScanFinding
	for _, f := range files {
		for _, h := range f.Hunks {
			for _, l := range h.Lines {
				if l.Op != diff.OpAdd || strings.TrimSpace(l.Text) == "" {
					continue
				}
				findings = append(findings, s.scanLine(f.Path, l, leaks)...)
			}
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		return a.Rule < b.Rule
	})
	return findings
}

func (s *Scanner) scanLine(path string, l diff.Line, leaks *detect.Detector) []models.ScanFinding {
	var (
		out   []models.ScanFinding
		taken []span
	)

	line := l.NewLine
	if line == 0 {
		line = l.DiffLine
	}

	add := func(rule string, kind models.FindingKind, conf models.Confidence, sp span) {
		for _, t := range taken {
			if t.overlaps(sp) {
				return
			}
		}
		taken = append(taken, sp)
		value := l.Text[sp.start:sp.end]
		if conf == models.ConfidenceHigh && IsPlaceholder(value) {
			conf = models.ConfidenceLow
		}
		out = append(out, models.ScanFinding{
			Kind:       kind,
			Rule:       rule,
			Path:       path,
			Line:       line,
			Offset:     sp.start,
			Confidence: conf,
			Preview:    Redact(value),
		})
	}

	for _, sig := range s.signatures {
		for _, m := range sig.Pattern.FindAllStringSubmatchIndex(l.Text, -1) {
			g := sig.Group
			if 2*g+1 >= len(m) || m[2*g] < 0 {
				g = 0
			}
			add(sig.Name, sig.Kind, models.ConfidenceHigh, span{m[2*g], m[2*g+1]})
		}
	}

	if leaks != nil {
		for _, hit := range gitleaksHits(l.Text, leaks.DetectString(l.Text)) {
			conf := models.ConfidenceHigh
			if hit.rule == "generic-api-key" {
				// gitleaks' generic rule is itself entropy driven
				conf = models.ConfidenceLow
			}
			add("gitleaks:"+hit.rule, kindForRule(hit.rule), conf, hit.span)
		}
	}

	for _, m := range s.runRe.FindAllStringIndex(l.Text, -1) {
		run := l.Text[m[0]:m[1]]
		if ShannonEntropy(run) < s.opts.EntropyThreshold {
			continue
		}
		add("entropy", models.KindToken, models.ConfidenceLow, span{m[0], m[1]})
	}

	return out
}

// gitleaksRules compiles the gitleaks default rule set once per process
var gitleaksRules = sync.OnceValues(func() (leaksconfig.Config, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return leaksconfig.Config{}, err
	}
	return d.Config, nil
})

// gitleaksDetector builds a fresh detector over the cached rules so no state
// carries over between scans. A nil result disables the gitleaks pass.
func (s *Scanner) gitleaksDetector() *detect.Detector {
	if !s.opts.UseGitleaks {
		return nil
	}
	cfg, err := gitleaksRules()
	if err != nil {
		log.Warn().Err(err).Msg("gitleaks rules unavailable, using built-in signatures only")
		return nil
	}
	return detect.NewDetector(cfg)
}

type leakHit struct {
	rule string
	span span
}

// gitleaksHits locates each finding in the line and orders them by offset and
// rule id, since gitleaks does not guarantee a rule order
func gitleaksHits(text string, found []report.Finding) []leakHit {
	hits := make([]leakHit, 0, len(found))
	for _, f := range found {
		if sp, ok := locate(text, f); ok {
			hits = append(hits, leakHit{rule: f.RuleID, span: sp})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].span.start != hits[j].span.start {
			return hits[i].span.start < hits[j].span.start
		}
		return hits[i].rule < hits[j].rule
	})
	return hits
}

func locate(text string, f report.Finding) (span, bool) {
	for _, needle := range []string{f.Secret, f.Match} {
		if needle == "" {
			continue
		}
		if i := strings.Index(text, needle); i >= 0 {
			return span{i, i + len(needle)}, true
		}
	}
	return span{}, false
}

func kindForRule(ruleID string) models.FindingKind {
	id := strings.ToLower(ruleID)
	switch {
	case strings.Contains(id, "private-key"):
		return models.KindPrivateKey
	case strings.Contains(id, "password"):
		return models.KindPassword
	case strings.Contains(id, "token"), strings.Contains(id, "pat"),
		strings.Contains(id, "jwt"), strings.Contains(id, "webhook"):
		return models.KindToken
	default:
		return models.KindAPIKey
	}
}

// ShannonEntropy returns the entropy of s in bits per byte
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	var counts [256]int
	for i := 0; i < len(s); i++ {
		counts[s[i]]++
	}
	var h float64
	n := float64(len(s))
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	return h
}

// Redact keeps a short prefix of a value and masks the rest
func Redact(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	masked := len(value) - 4
	if masked > 12 {
		masked = 12
	}
	return value[:4] + strings.Repeat("*", masked)
}

// FormatWarning renders findings as a warning block for the terminal
func FormatWarning(findings []models.ScanFinding) string {
	if len(findings) == 0 {
		return ""
	}
	var sb strings.Builder
	if Blocks(findings) {
		sb.WriteString("WARNING: potential secrets detected; the diff will not be sent to the provider\n")
	} else {
		sb.WriteString("WARNING: possible secrets detected (low confidence)\n")
	}
	for _, f := range findings {
		loc := fmt.Sprintf("line %d", f.Line)
		if f.Path != "" {
			loc = fmt.Sprintf("%s:%d", f.Path, f.Line)
		}
		fmt.Fprintf(&sb, "  %s  %s (%s, %s)  %s\n", loc, f.Kind, f.Confidence, f.Rule, f.Preview)
	}
	return strings.TrimRight(sb.String(), "\n")
}
