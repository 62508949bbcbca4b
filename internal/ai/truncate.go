package ai

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/gitsensei/sensei/internal/diff"
)

// TruncateStats describes what Truncate removed
type TruncateStats struct {
	Truncated      bool
	TotalLines     int
	DroppedLines   int
	CollapsedFiles []string
}

var (
	lockfileNames = map[string]bool{
		"package-lock.json": true, "npm-shrinkwrap.json": true, "yarn.lock": true, "pnpm-lock.yaml": true,
		"bun.lockb": true, "go.sum": true, "go.work.sum": true, "cargo.lock": true, "poetry.lock": true,
		"pipfile.lock": true, "composer.lock": true, "gemfile.lock": true, "mix.lock": true,
		"packages.lock.json": true, "flake.lock": true,
	}
	generatedSuffixes = []string{
		".lock", ".min.js", ".min.css", ".map", ".pb.go", ".pb.gw.go", "_gen.go", "_generated.go",
		".generated.go", ".g.dart", ".snap", ".svg",
	}
	generatedDirs = map[string]bool{"vendor": true, "node_modules": true, "dist": true, "build": true, "third_party": true}

	generatedMarkerRe = regexp.MustCompile(`(?i)^\s*(//|#|/\*|--)\s*(code generated .* do not edit|@generated|auto-?generated)`)
)

// IsLowSignal reports whether a file is a lockfile or generated output whose
// content says little about the intent of a change
func IsLowSignal(f *diff.FileChange) bool {
	p := strings.ToLower(f.Path)
	base := path.Base(p)
	if lockfileNames[base] {
		return true
	}
	for _, s := range generatedSuffixes {
		if strings.HasSuffix(base, s) {
			return true
		}
	}
	for _, seg := range strings.Split(path.Dir(p), "/") {
		if generatedDirs[seg] {
			return true
		}
	}
	for _, h := range f.Hunks {
		for i, l := range h.Lines {
			if i >= 5 {
				break
			}
			if l.Op != diff.OpDelete && generatedMarkerRe.MatchString(l.Text) {
				return true
			}
		}
	}
	return false
}

// Truncate shrinks a diff of more than maxLines lines. It is deterministic:
//
//  1. hunks of lockfiles and generated files collapse to one placeholder line per file, in diff order
//  2. if the diff is still too long, every file keeps its header lines and hunks
//     are kept in diff order while they fit; each hunk that does not fit
//     becomes one "@@ truncated N lines @@" marker. The result, notice
//     included, never exceeds maxLines unless headers and markers alone do
//  3. a final notice line records how many lines were omitted
//
// A diff within the limit is returned unchanged.
func Truncate(diffText string, maxLines int) (string, TruncateStats) {
	total := len(diff.SplitLines(diffText))
	stats := TruncateStats{TotalLines: total}
	if maxLines <= 0 || total <= maxLines {
		return diffText, stats
	}

	files := diff.NewParser().Parse(diffText)

	// Rendered output, built per file so phase two can see each file's cost
	type block struct {
		header []string
		hunks  [][]string
	}
	blocks := make([]block, 0, len(files))
	for _, f := range files {
		b := block{header: f.Header}
		if IsLowSignal(f) && len(f.Hunks) > 0 {
			n := 0
			for _, h := range f.Hunks {
				n += len(renderHunk(h))
			}
			stats.DroppedLines += n
			stats.CollapsedFiles = append(stats.CollapsedFiles, f.Path)
			b.hunks = [][]string{{fmt.Sprintf("@@ collapsed %d lines of lockfile or generated content @@", n)}}
		} else {
			for _, h := range f.Hunks {
				b.hunks = append(b.hunks, renderHunk(h))
			}
		}
		blocks = append(blocks, b)
	}

	size := 0
	for _, b := range blocks {
		size += len(b.header)
		for _, h := range b.hunks {
			size += len(h)
		}
	}

	if size+1 > maxLines {
		// The notice, every header and one line per hunk are always paid for;
		// a hunk is upgraded from its marker to full text while that fits
		used := 1
		for _, b := range blocks {
			used += len(b.header) + len(b.hunks)
		}
		for bi := range blocks {
			for hi, h := range blocks[bi].hunks {
				if len(h) == 1 {
					continue
				}
				if used-1+len(h) <= maxLines {
					used += len(h) - 1
					continue
				}
				stats.DroppedLines += len(h)
				blocks[bi].hunks[hi] = []string{fmt.Sprintf("@@ truncated %d lines @@", len(h))}
			}
		}
	}

	if stats.DroppedLines == 0 {
		return diffText, TruncateStats{TotalLines: total}
	}

	var sb strings.Builder
	for _, b := range blocks {
		for _, l := range b.header {
			sb.WriteString(l)
			sb.WriteByte('\n')
		}
		for _, h := range b.hunks {
			for _, l := range h {
				sb.WriteString(l)
				sb.WriteByte('\n')
			}
		}
	}
	fmt.Fprintf(&sb, "# diff truncated: %d of %d lines omitted\n", stats.DroppedLines, total)
	stats.Truncated = true
	return sb.String(), stats
}

func renderHunk(h diff.Hunk) []string {
	out := make([]string, 0, len(h.Lines)+1)
	if h.Header != "" {
		out = append(out, h.Header)
	}
	for _, l := range h.Lines {
		out = append(out, string(rune(l.Op))+l.Text)
	}
	return out
}
