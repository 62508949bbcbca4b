package heuristic

import (
	"path"
	"regexp"
	"strings"

	"github.com/gitsensei/sensei/internal/diff"
)

// Changeset is what the classification rules look at
type Changeset struct {
	Files []*diff.FileChange
	Added []string // Text of every added line, in diff order
}

// Rule maps a predicate over a changeset to a commit type
type Rule struct {
	Name  string
	Type  string
	Match func(cs *Changeset) bool
}

// DefaultType applies when no rule matches
const DefaultType = "feat"

// Rules are evaluated in order and the first match wins. Fix keywords in
// added lines override every path-based rule; binary-only changes have no
// added lines, so their position relative to fix-keywords does not matter.
var Rules = []Rule{
	{Name: "binary-only", Type: "chore", Match: allFiles(func(f *diff.FileChange) bool { return f.IsBinary && f.Delta() == 0 })},
	{Name: "fix-keywords", Type: "fix", Match: hasFixKeyword},
	{Name: "tests-only", Type: "test", Match: allFiles(IsTestFile)},
	{Name: "docs-only", Type: "docs", Match: allFiles(func(f *diff.FileChange) bool { return IsDocFile(f) && !IsManifestFile(f) })},
	{Name: "styles-only", Type: "style", Match: allFiles(IsStyleFile)},
	{Name: "manifests-only", Type: "chore", Match: allFiles(IsManifestFile)},
}

// Classify returns the commit type and the name of the rule that chose it
func Classify(cs *Changeset) (string, string) {
	for _, r := range Rules {
		if r.Match(cs) {
			return r.Type, r.Name
		}
	}
	return DefaultType, "default"
}

func allFiles(pred func(*diff.FileChange) bool) func(*Changeset) bool {
	return func(cs *Changeset) bool {
		if len(cs.Files) == 0 {
			return false
		}
		for _, f := range cs.Files {
			if !pred(f) {
				return false
			}
		}
		return true
	}
}

var (
	docExts   = map[string]bool{".md": true, ".markdown": true, ".rst": true, ".txt": true, ".adoc": true, ".asciidoc": true}
	styleExts = map[string]bool{".css": true, ".scss": true, ".sass": true, ".less": true, ".styl": true, ".stylus": true}

	manifestNames = map[string]bool{
		"go.mod": true, "go.sum": true, "go.work": true, "go.work.sum": true,
		"package.json": true, "package-lock.json": true, "yarn.lock": true, "pnpm-lock.yaml": true, "bun.lockb": true,
		"cargo.toml": true, "cargo.lock": true,
		"requirements.txt": true, "requirements-dev.txt": true, "pipfile": true, "pipfile.lock": true,
		"poetry.lock": true, "pyproject.toml": true, "setup.cfg": true,
		"gemfile": true, "gemfile.lock": true, "composer.json": true, "composer.lock": true,
		"dockerfile": true, "makefile": true, ".env.example": true, ".editorconfig": true, ".gitattributes": true,
	}

	fixKeywordRe = regexp.MustCompile(`(?i)\b(fix|fixes|fixed|bug|bugs|error)\b`)
)

// IsTestFile reports whether the path looks like a test
func IsTestFile(f *diff.FileChange) bool {
	p := strings.ToLower(f.Path)
	base := path.Base(p)
	switch {
	case strings.Contains(base, "_test."), strings.Contains(base, ".test."), strings.Contains(base, ".spec."),
		strings.HasPrefix(base, "test_"):
		return true
	}
	for _, seg := range strings.Split(path.Dir(p), "/") {
		switch seg {
		case "test", "tests", "__tests__", "spec", "testdata":
			return true
		}
	}
	return false
}

// IsDocFile reports whether the file has a documentation extension
func IsDocFile(f *diff.FileChange) bool {
	return docExts[f.Ext()]
}

// IsStyleFile reports whether the file has a style-sheet extension
func IsStyleFile(f *diff.FileChange) bool {
	return styleExts[f.Ext()]
}

// IsManifestFile reports whether the file is a manifest, lockfile or ignore file
func IsManifestFile(f *diff.FileChange) bool {
	base := strings.ToLower(path.Base(f.Path))
	switch {
	case manifestNames[base]:
		return true
	case strings.HasSuffix(base, ".lock"), strings.HasSuffix(base, "-lock.json"), strings.HasSuffix(base, "-lock.yaml"):
		return true
	case strings.HasPrefix(base, ".") && strings.HasSuffix(base, "ignore"):
		return true
	}
	return false
}

func hasFixKeyword(cs *Changeset) bool {
	for _, l := range cs.Added {
		if fixKeywordRe.MatchString(l) {
			return true
		}
	}
	return false
}
