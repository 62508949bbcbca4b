package heuristic

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitsensei/sensei/internal/commitmsg"
	"github.com/gitsensei/sensei/internal/diff"
	"github.com/gitsensei/sensei/pkg/models"
)

// fileDiff builds a single-file diff with the given added and removed lines
func fileDiff(path string, added, removed []string) string {
	s := fmt.Sprintf("diff --git a/%s b/%s\n--- a/%s\n+++ b/%s\n@@ -1,%d +1,%d @@\n", path, path, path, path, len(removed), len(added))
	for _, l := range removed {
		s += "-" + l + "\n"
	}
	for _, l := range added {
		s += "+" + l + "\n"
	}
	return s
}

func TestGenerate_ReadmeOnly(t *testing.T) {
	p, err := Generate(fileDiff("README.md", []string{"# Project", "Usage notes"}, nil))
	require.NoError(t, err)
	assert.Equal(t, "docs(README): implement README.md", p.Subject)
	assert.Equal(t, models.SourceHeuristic, p.Source)
	assert.Empty(t, p.Body)
	assert.Empty(t, p.Footer)
}

func TestGenerate_Types(t *testing.T) {
	tests := []struct {
		name string
		diff string
		want string
	}{
		{
			name: "tests only",
			diff: fileDiff("internal/auth/login_test.go", []string{"func TestX(t *testing.T) {}"}, nil),
			want: "test(login_test): implement internal/auth/login_test.go",
		},
		{
			name: "styles only",
			diff: fileDiff("web/app.css", []string{"body { margin: 0 }"}, []string{"body { margin: 1px }"}),
			want: "style(app): update web/app.css",
		},
		{
			name: "manifest only",
			diff: fileDiff("go.mod", []string{"require x v1.2.0"}, []string{"require x v1.1.0"}),
			want: "chore(go): update go.mod",
		},
		{
			name: "fix keyword",
			diff: fileDiff("server.go", []string{"// fixes nil dereference", "if s == nil { return }"}, nil),
			want: "fix(server): implement server.go",
		},
		{
			name: "fix keyword in docs",
			diff: fileDiff("README.md", []string{"Fix the bug in the install steps"}, nil),
			want: "fix(README): implement README.md",
		},
		{
			name: "binary only",
			diff: "diff --git a/assets/logo.png b/assets/logo.png\nnew file mode 100644\nindex 0000000..8d3f2a1\nBinary files /dev/null and b/assets/logo.png differ\n",
			want: "chore(logo): implement assets/logo.png",
		},
		{
			name: "removal",
			diff: fileDiff("legacy.go", nil, []string{"package legacy", "func Old() {}"}),
			want: "feat(legacy): remove legacy.go",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Generate(tt.diff)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Subject)
		})
	}
}

func TestGenerate_MultipleFiles(t *testing.T) {
	text := fileDiff("internal/api/handler.go", []string{"a", "b", "c"}, []string{"d"}) +
		fileDiff("internal/api/routes.go", []string{"e"}, nil)
	p, err := Generate(text)
	require.NoError(t, err)
	assert.Equal(t, "feat(handler): update internal/api/handler.go and 1 more file", p.Subject)
}

func TestGenerate_NoScopeAcrossTopDirs(t *testing.T) {
	text := fileDiff("cmd/main.go", []string{"a", "b"}, nil) +
		fileDiff("internal/x.go", []string{"c"}, nil) +
		fileDiff("pkg/y.go", []string{"d"}, nil)
	p, err := Generate(text)
	require.NoError(t, err)
	assert.Equal(t, "feat: implement cmd/main.go and 2 more files", p.Subject)
}

func TestGenerate_NoScopeOnTie(t *testing.T) {
	text := fileDiff("src/a.go", []string{"x"}, nil) + fileDiff("src/b.go", []string{"y"}, nil)
	p, err := Generate(text)
	require.NoError(t, err)
	assert.Equal(t, "feat: implement src/a.go and 1 more file", p.Subject)
}

func TestGenerate_Empty(t *testing.T) {
	_, err := Generate("")
	assert.True(t, errors.Is(err, models.ErrEmptyInput))
}

func TestGenerate_Idempotent(t *testing.T) {
	text := fileDiff("docs/guide.md", []string{"new"}, []string{"old"}) + fileDiff("main.go", []string{"fix bug"}, nil)
	first, err := Generate(text)
	require.NoError(t, err)
	second, err := Generate(text)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerate_AlwaysValid(t *testing.T) {
	paths := []string{
		"README.md",
		"a b/weird name!.go",
		"vendor/github.com/x/y/z.go",
		".gitignore",
		"assets/logo.png",
		"Makefile",
		"@scope/pkg/index.ts",
		"x",
	}
	for _, path := range paths {
		p, err := Generate(fileDiff(path, []string{"line"}, nil))
		require.NoError(t, err, path)
		assert.NoError(t, commitmsg.Validate(p), "subject %q for %s", p.Subject, path)
	}

	p, err := Generate("+stray added line\n")
	require.NoError(t, err)
	assert.NoError(t, commitmsg.Validate(p))
	assert.Equal(t, "feat: implement staged changes", p.Subject)
}

func TestClassify_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		cs       *Changeset
		wantType string
		wantRule string
	}{
		{
			name:     "fix keyword beats docs",
			cs:       &Changeset{Files: []*diff.FileChange{{Path: "README.md", LinesAdded: 1}}, Added: []string{"Fix the bug in the install steps"}},
			wantType: "fix",
			wantRule: "fix-keywords",
		},
		{
			name:     "fix keyword beats tests",
			cs:       &Changeset{Files: []*diff.FileChange{{Path: "a_test.go", LinesAdded: 1}}, Added: []string{"// fix flaky assertion"}},
			wantType: "fix",
			wantRule: "fix-keywords",
		},
		{
			name:     "docs without keywords",
			cs:       &Changeset{Files: []*diff.FileChange{{Path: "README.md", LinesAdded: 1}}, Added: []string{"Usage notes"}},
			wantType: "docs",
			wantRule: "docs-only",
		},
		{
			name:     "binary only",
			cs:       &Changeset{Files: []*diff.FileChange{{Path: "logo.png", IsBinary: true}}},
			wantType: "chore",
			wantRule: "binary-only",
		},
		{
			name:     "default",
			cs:       &Changeset{Files: []*diff.FileChange{{Path: "main.go", LinesAdded: 1}}},
			wantType: DefaultType,
			wantRule: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, rule := Classify(tt.cs)
			assert.Equal(t, tt.wantType, typ)
			assert.Equal(t, tt.wantRule, rule)
		})
	}
}

func TestIsManifestFile(t *testing.T) {
	for _, p := range []string{"go.sum", "web/package.json", "Cargo.lock", ".dockerignore", "deps/foo.lock"} {
		assert.True(t, IsManifestFile(&diff.FileChange{Path: p}), p)
	}
	assert.False(t, IsManifestFile(&diff.FileChange{Path: "main.go"}))
}
