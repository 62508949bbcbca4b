package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoFileDiff = `diff --git a/internal/auth/login.go b/internal/auth/login.go
index 1111111..2222222 100644
--- a/internal/auth/login.go
+++ b/internal/auth/login.go
@@ -10,3 +10,4 @@ func Login() {
 	user := load()
-	check(user)
+	if err := check(user); err != nil {
+		return err
 	}
diff --git a/docs/new.md b/docs/new.md
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/docs/new.md
@@ -0,0 +1,2 @@
+# Title
+text
`

func TestParse_TwoFiles(t *testing.T) {
	files := NewParser().Parse(twoFileDiff)
	require.Len(t, files, 2)

	login := files[0]
	assert.Equal(t, "internal/auth/login.go", login.Path)
	assert.Equal(t, 2, login.LinesAdded)
	assert.Equal(t, 1, login.LinesRemoved)
	assert.Equal(t, 3, login.Delta())
	assert.Equal(t, "internal", login.TopDir())
	assert.Equal(t, "login", login.BaseName())
	assert.Equal(t, ".go", login.Ext())
	require.Len(t, login.Hunks, 1)

	h := login.Hunks[0]
	assert.Equal(t, 10, h.NewStartLine)
	assert.Equal(t, 4, h.NewLineCount)
	require.Len(t, h.Lines, 5)
	assert.Equal(t, OpAdd, h.Lines[2].Op)
	assert.Equal(t, 11, h.Lines[2].NewLine)
	assert.Equal(t, 8, h.Lines[2].DiffLine)
	assert.Equal(t, 0, h.Lines[1].NewLine, "deletions have no new-file line")

	doc := files[1]
	assert.Equal(t, "docs/new.md", doc.Path)
	assert.True(t, doc.IsNewFile)
	assert.Equal(t, 2, doc.LinesAdded)
	assert.Equal(t, 1, doc.Hunks[0].Lines[0].NewLine)
}

func TestParse_LineCountCoversText(t *testing.T) {
	files := NewParser().Parse(twoFileDiff)
	total := 0
	for _, f := range files {
		total += f.LineCount()
	}
	assert.Equal(t, len(SplitLines(twoFileDiff)), total)
}

func TestParse_HunkBodyLooksLikeHeader(t *testing.T) {
	// A removed line starting with "-- " must stay inside a counted hunk
	text := "diff --git a/q.sql b/q.sql\n--- a/q.sql\n+++ b/q.sql\n@@ -1,2 +1,1 @@\n--- old comment\n select 1;\n"
	files := NewParser().Parse(text)
	require.Len(t, files, 1)
	assert.Equal(t, 1, files[0].LinesRemoved)
	assert.Equal(t, "-- old comment", files[0].Hunks[0].Lines[0].Text)
}

func TestParse_DeletedAndRenamed(t *testing.T) {
	text := `diff --git a/old.txt b/old.txt
deleted file mode 100644
--- a/old.txt
+++ /dev/null
@@ -1 +0,0 @@
-gone
diff --git a/a.go b/b.go
similarity index 100%
rename from a.go
rename to b.go
`
	files := NewParser().Parse(text)
	require.Len(t, files, 2)
	assert.True(t, files[0].IsDeletedFile)
	assert.Equal(t, "old.txt", files[0].Path)
	assert.True(t, files[1].IsRename)
	assert.Equal(t, "a.go", files[1].OldPath)
	assert.Equal(t, "b.go", files[1].Path)
}

func TestParse_Headerless(t *testing.T) {
	files := NewParser().Parse("+added\n-removed\n context\n")
	require.Len(t, files, 1)
	assert.Equal(t, "", files[0].Path)
	assert.Equal(t, 1, files[0].LinesAdded)
	assert.Equal(t, 1, files[0].LinesRemoved)
	assert.Equal(t, 1, files[0].Hunks[0].Lines[0].DiffLine)
}

func TestParse_Binary(t *testing.T) {
	text := "diff --git a/logo.png b/logo.png\nindex 1..2 100644\nBinary files a/logo.png and b/logo.png differ\n"
	files := NewParser().Parse(text)
	require.Len(t, files, 1)
	assert.True(t, files[0].IsBinary)
	assert.Empty(t, files[0].Hunks)
}

func TestParse_Empty(t *testing.T) {
	assert.Nil(t, NewParser().Parse(""))
	assert.Nil(t, NewParser().Parse("  \n\n"))
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\r\nb\n"))
	assert.Nil(t, SplitLines("\n"))
}
