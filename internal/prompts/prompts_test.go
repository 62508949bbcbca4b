package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitsensei/sensei/internal/smartcontext"
)

func TestParsePlaceholders(t *testing.T) {
	body := `a {{VAR:types|join=" / "|default=none}} b {{VAR:issue}}`
	phs := ParsePlaceholders(body)
	require.Len(t, phs, 2)

	assert.Equal(t, "types", phs[0].Name)
	assert.Equal(t, " / ", phs[0].Options["join"])
	assert.Equal(t, "none", phs[0].Options["default"])
	assert.Equal(t, "issue", phs[1].Name)
	assert.Empty(t, phs[1].Options)
	assert.Equal(t, "{{VAR:issue}}", body[phs[1].Start:phs[1].End])
}

func TestRender(t *testing.T) {
	vars := map[string][]string{
		"types": {"feat", "fix"},
		"issue": {""},
	}

	assert.Equal(t, "feat, fix", Render("{{VAR:types}}", vars))
	assert.Equal(t, "feat\nfix", Render(`{{VAR:types|join="\n"}}`, vars))
	assert.Equal(t, "issue: n/a", Render("issue: {{VAR:issue|default=n/a}}", vars))
	assert.Equal(t, "x  y", Render("x {{VAR:unknown}} y", vars))
	assert.Equal(t, "no placeholders", Render("no placeholders", vars))
}

func TestBuild_Default(t *testing.T) {
	prompt := NewPromptBuilder().Build(Input{})

	assert.Contains(t, prompt, "- Types: feat, fix, docs, style, refactor, test, chore")
	assert.NotContains(t, prompt, "{{VAR:")
	assert.NotContains(t, prompt, BranchContextPrefix)
	assert.NotContains(t, prompt, RetryHintPrefix)
}

func TestBuild_BranchAndHint(t *testing.T) {
	prompt := NewPromptBuilder().Build(Input{
		Branch: smartcontext.FromBranch("fix/PROJ-7-crash"),
		Hint:   "  mention the panic  ",
	})

	assert.True(t, strings.HasSuffix(prompt,
		"\n\nContext: Branch: fix/PROJ-7-crash; likely type: fix; issue: PROJ-7"+
			"\n\nAdditional instructions from the user: mention the panic"))
}

func TestBuild_Override(t *testing.T) {
	prompt := NewPromptBuilder().Build(Input{
		Override: "Write a commit for {{VAR:branch|default=an unknown branch}} using {{VAR:types|join=/}}",
	})
	assert.Equal(t, "Write a commit for an unknown branch using feat/fix/docs/style/refactor/test/chore", prompt)
}
