package diff

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

// LineOp marks the kind of a diff body line
type LineOp byte

const (
	OpContext LineOp = ' '
	OpAdd     LineOp = '+'
	OpDelete  LineOp = '-'
)

// Line is one body line of a hunk
type Line struct {
	Op       LineOp
	Text     string // Content without the op prefix
	DiffLine int    // 1-based line within the diff text
	NewLine  int    // Line in the new file, 0 for deletions or when no hunk header is known
}

// Hunk is one @@ section of a file diff
type Hunk struct {
	Header       string // Raw @@ line, empty for headerless input
	OldStartLine int
	OldLineCount int
	NewStartLine int
	NewLineCount int
	Lines        []Line
}

// FileChange is the change record for a single file
type FileChange struct {
	Path          string
	OldPath       string
	Header        []string // Raw header lines (diff --git, index, ---, +++)
	Hunks         []Hunk
	LinesAdded    int
	LinesRemoved  int
	IsNewFile     bool
	IsDeletedFile bool
	IsBinary      bool
	IsRename      bool
}

// Delta is the total number of changed lines
func (f *FileChange) Delta() int {
	return f.LinesAdded + f.LinesRemoved
}

// Ext returns the lower-cased file extension including the dot
func (f *FileChange) Ext() string {
	return strings.ToLower(path.Ext(f.Path))
}

// BaseName returns the file name without directory and extension
func (f *FileChange) BaseName() string {
	base := path.Base(f.Path)
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// TopDir returns the first path segment, or "" for files at the root
func (f *FileChange) TopDir() string {
	if i := strings.IndexByte(f.Path, '/'); i > 0 {
		return f.Path[:i]
	}
	return ""
}

// LineCount is the number of diff text lines the file occupies
func (f *FileChange) LineCount() int {
	n := len(f.Header)
	for _, h := range f.Hunks {
		if h.Header != "" {
			n++
		}
		n += len(h.Lines)
	}
	return n
}

// Parser parses git diff output into structured data
type Parser struct{}

// NewParser creates a new diff parser
func NewParser() *Parser {
	return &Parser{}
}

var (
	gitHeaderRe = regexp.MustCompile(`^diff --git a/(.*) b/(.*)$`)
	hunkRe      = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)
)

type parseState struct {
	files    []*FileChange
	file     *FileChange
	hunk     *Hunk
	oldLeft  int
	newLeft  int
	counted  bool // current hunk has a header with line counts
	newLine  int
	diffLine int
}

// Parse splits a unified diff into per-file change records. It never fails:
// lines it does not recognise are kept as header lines, and body lines that
// appear without any file header are collected under a file with an empty path.
func (p *Parser) Parse(diffText string) []*FileChange {
	if strings.TrimSpace(diffText) == "" {
		return nil
	}

	st := &parseState{}
	for _, raw := range SplitLines(diffText) {
		st.diffLine++
		p.parseLine(st, raw)
	}
	st.closeHunk()
	return st.files
}

func (p *Parser) parseLine(st *parseState, line string) {
	if st.inCountedHunk() && !strings.HasPrefix(line, "diff --git ") {
		st.addBody(line)
		return
	}

	switch {
	case strings.HasPrefix(line, "diff --git "):
		st.closeHunk()
		st.startFile()
		st.file.Header = append(st.file.Header, line)
		if m := gitHeaderRe.FindStringSubmatch(line); m != nil {
			st.file.OldPath = m[1]
			st.file.Path = m[2]
		}
	case hunkRe.MatchString(line):
		st.startHunk(line)
	case strings.HasPrefix(line, "--- ") && st.hunk == nil:
		if st.file == nil || len(st.file.Hunks) > 0 {
			st.startFile()
		}
		st.file.Header = append(st.file.Header, line)
		if name := headerPath(line[4:]); name != "" {
			st.file.OldPath = name
			if st.file.Path == "" {
				st.file.Path = name
			}
		} else {
			st.file.IsNewFile = true
		}
	case strings.HasPrefix(line, "+++ ") && st.hunk == nil && st.file != nil:
		st.file.Header = append(st.file.Header, line)
		if name := headerPath(line[4:]); name != "" {
			st.file.Path = name
		} else {
			st.file.IsDeletedFile = true
			if st.file.Path == "" {
				st.file.Path = st.file.OldPath
			}
		}
	case st.hunk == nil && st.file != nil && st.file.applyHeaderLine(line):
		st.file.Header = append(st.file.Header, line)
	case len(line) > 0 && (line[0] == '+' || line[0] == '-' || line[0] == ' '):
		if st.hunk == nil {
			st.ensureFile()
			st.hunk = &Hunk{}
		}
		st.addBody(line)
	case line == `\ No newline at end of file`:
		// Marker line belongs to the previous body line
	default:
		if st.hunk == nil && st.file != nil {
			st.file.Header = append(st.file.Header, line)
		}
	}
}

// applyHeaderLine records an extended git header line and reports whether it was one
func (f *FileChange) applyHeaderLine(line string) bool {
	switch {
	case strings.HasPrefix(line, "new file mode"):
		f.IsNewFile = true
	case strings.HasPrefix(line, "deleted file mode"):
		f.IsDeletedFile = true
	case strings.HasPrefix(line, "rename from "):
		f.IsRename = true
		f.OldPath = strings.TrimPrefix(line, "rename from ")
	case strings.HasPrefix(line, "rename to "):
		f.IsRename = true
		f.Path = strings.TrimPrefix(line, "rename to ")
	case strings.HasPrefix(line, "Binary files ") || line == "GIT binary patch":
		f.IsBinary = true
	case strings.HasPrefix(line, "index "),
		strings.HasPrefix(line, "old mode"),
		strings.HasPrefix(line, "new mode"),
		strings.HasPrefix(line, "similarity index"),
		strings.HasPrefix(line, "dissimilarity index"),
		strings.HasPrefix(line, "copy from "),
		strings.HasPrefix(line, "copy to "):
	default:
		return false
	}
	return true
}

func (st *parseState) inCountedHunk() bool {
	return st.hunk != nil && st.counted && (st.oldLeft > 0 || st.newLeft > 0)
}

func (st *parseState) startFile() {
	st.file = &FileChange{}
	st.files = append(st.files, st.file)
}

func (st *parseState) ensureFile() {
	if st.file == nil {
		st.startFile()
	}
}

func (st *parseState) startHunk(line string) {
	st.closeHunk()
	st.ensureFile()

	m := hunkRe.FindStringSubmatch(line)
	h := &Hunk{Header: line}
	h.OldStartLine, _ = strconv.Atoi(m[1])
	h.OldLineCount = countOrOne(m[2])
	h.NewStartLine, _ = strconv.Atoi(m[3])
	h.NewLineCount = countOrOne(m[4])

	st.hunk = h
	st.counted = true
	st.oldLeft = h.OldLineCount
	st.newLeft = h.NewLineCount
	st.newLine = h.NewStartLine
}

func (st *parseState) closeHunk() {
	if st.hunk != nil && st.file != nil {
		st.file.Hunks = append(st.file.Hunks, *st.hunk)
	}
	st.hunk = nil
	st.counted = false
	st.oldLeft, st.newLeft, st.newLine = 0, 0, 0
}

func (st *parseState) addBody(line string) {
	op := OpContext
	text := line
	if len(line) > 0 {
		switch line[0] {
		case '+':
			op, text = OpAdd, line[1:]
		case '-':
			op, text = OpDelete, line[1:]
		case ' ':
			text = line[1:]
		case '\\':
			// "\ No newline at end of file" does not count against the hunk
			return
		}
	}

	l := Line{Op: op, Text: text, DiffLine: st.diffLine}
	switch op {
	case OpAdd:
		st.file.LinesAdded++
		st.newLeft--
		if st.counted {
			l.NewLine = st.newLine
			st.newLine++
		}
	case OpDelete:
		st.file.LinesRemoved++
		st.oldLeft--
	default:
		st.oldLeft--
		st.newLeft--
		if st.counted {
			l.NewLine = st.newLine
			st.newLine++
		}
	}
	st.hunk.Lines = append(st.hunk.Lines, l)

	if st.counted && st.oldLeft <= 0 && st.newLeft <= 0 {
		st.closeHunk()
	}
}

func countOrOne(s string) int {
	if s == "" {
		return 1
	}
	n, _ := strconv.Atoi(s)
	return n
}

// headerPath extracts the file name from a ---/+++ line, or "" for /dev/null
func headerPath(name string) string {
	if i := strings.IndexByte(name, '\t'); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if name == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		name = name[2:]
	}
	return name
}

// SplitLines splits diff text into lines, dropping a trailing newline and carriage returns
func SplitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
