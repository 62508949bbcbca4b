package smartcontext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefsFooter(t *testing.T) {
	tests := []struct {
		branch string
		want   string
	}{
		{"PROJ-123-login-fix", "Refs: PROJ-123"},
		{"feature/ABC-9-cache", "Refs: ABC-9"},
		{"fix/proj-123-lowercase", ""},
		{"main", ""},
		{"", ""},
		{"release/OPS-1-and-OPS-2", "Refs: OPS-1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RefsFooter(tt.branch), tt.branch)
	}
}

func TestTrackerRef(t *testing.T) {
	tests := []struct {
		branch string
		want   string
	}{
		{"feature/JIRA-42-x", "JIRA-42"},
		{"feature/AB#1234-board", "AB#1234"},
		{"fix/issue-77", "#77"},
		{"sc-311/new-widget", "sc-311"},
		{"fix/#12-typo", "#12"},
		{"feature/plain", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TrackerRef(tt.branch), tt.branch)
	}
}

func TestBranchType(t *testing.T) {
	assert.Equal(t, "feat", BranchType("feature/login"))
	assert.Equal(t, "fix", BranchType("hotfix-crash"))
	assert.Equal(t, "docs", BranchType("Docs/readme"))
	assert.Equal(t, "", BranchType("PROJ-1-thing"))
	assert.Equal(t, "", BranchType("main"))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "", FromBranch("").Summary())
	assert.Equal(t, "Branch: main; direct commit to the main branch", FromBranch("main").Summary())
	assert.Equal(t,
		"Branch: feature/PROJ-1-search; likely type: feat; issue: PROJ-1",
		FromBranch("feature/PROJ-1-search").Summary())
}
