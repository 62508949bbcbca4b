// Package heuristic builds commit messages from a diff without any external
// calls. It is the offline fallback for every provider failure.
package heuristic

import (
	"fmt"

	"github.com/gitsensei/sensei/internal/commitmsg"
	"github.com/gitsensei/sensei/internal/diff"
	"github.com/gitsensei/sensei/pkg/models"
)

// Actions describing the dominant change
const (
	ActionImplement = "implement"
	ActionUpdate    = "update"
	ActionRemove    = "remove"
)

// Generate synthesises a single-line Conventional Commits subject from diffText.
// The only error it returns is models.ErrEmptyInput, for a diff that touches
// no files.
func Generate(diffText string) (models.CommitProposal, error) {
	files := diff.NewParser().Parse(diffText)
	if len(files) == 0 {
		return models.CommitProposal{}, models.ErrEmptyInput
	}

	cs := &Changeset{Files: files}
	for _, f := range files {
		for _, h := range f.Hunks {
			for _, l := range h.Lines {
				if l.Op == diff.OpAdd {
					cs.Added = append(cs.Added, l.Text)
				}
			}
		}
	}

	typ, _ := Classify(cs)
	dominant, tied := dominantFile(files)

	scope := ""
	if !tied && !spansTopDirs(files) && dominant.Path != "" {
		scope = dominant.BaseName()
	}

	target := dominant.Path
	if target == "" {
		target = "staged changes"
	}
	description := fmt.Sprintf("%s %s", Action(files), target)
	switch n := len(files) - 1; {
	case n == 1:
		description += " and 1 more file"
	case n > 1:
		description += fmt.Sprintf(" and %d more files", n)
	}

	return models.CommitProposal{
		Subject: commitmsg.Subject(typ, scope, description),
		Source:  models.SourceHeuristic,
	}, nil
}

// Action picks the verb for the aggregate change: only additions implement,
// only deletions remove, anything mixed updates
func Action(files []*diff.FileChange) string {
	added, removed := 0, 0
	allNew, allDeleted := true, true
	for _, f := range files {
		added += f.LinesAdded
		removed += f.LinesRemoved
		allNew = allNew && f.IsNewFile
		allDeleted = allDeleted && f.IsDeletedFile
	}
	switch {
	case allDeleted || (added == 0 && removed > 0):
		return ActionRemove
	case allNew || (removed == 0 && added > 0):
		return ActionImplement
	default:
		return ActionUpdate
	}
}

// dominantFile returns the file with the largest line delta, and whether
// another file has the same delta. Ties resolve to the first file in diff order.
func dominantFile(files []*diff.FileChange) (*diff.FileChange, bool) {
	best := files[0]
	tied := false
	for _, f := range files[1:] {
		switch {
		case f.Delta() > best.Delta():
			best, tied = f, false
		case f.Delta() == best.Delta():
			tied = true
		}
	}
	return best, tied
}

func spansTopDirs(files []*diff.FileChange) bool {
	top := files[0].TopDir()
	for _, f := range files[1:] {
		if f.TopDir() != top {
			return true
		}
	}
	return false
}
