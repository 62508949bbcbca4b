package commitmsg

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitsensei/sensei/pkg/models"
)

func TestValidateSubject(t *testing.T) {
	valid := []string{
		"feat: add login",
		"fix(auth): handle expired tokens",
		"refactor(core/io)!: drop legacy reader",
		"chore(deps): bump x to 1.2.3",
	}
	for _, s := range valid {
		assert.NoError(t, ValidateSubject(s), s)
	}

	invalid := []string{
		"",
		"added login",
		"feature: add login",
		"feat:add login",
		"feat(): empty scope",
		"feat(a b): space in scope",
		"feat: two\nlines",
	}
	for _, s := range invalid {
		err := ValidateSubject(s)
		var verr *models.ValidationError
		assert.True(t, errors.As(err, &verr), "%q should fail with a ValidationError", s)
	}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "feat: add x", Subject("feat", "", "add x"))
	assert.Equal(t, "fix(api): y", Subject("fix", "api", "y"))
	assert.Equal(t, "docs(my-dir): z", Subject("docs", " my dir ", "z"))
	assert.NoError(t, ValidateSubject(Subject("test", "@scope!", "w")))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.CommitProposal
	}{
		{
			name: "subject only",
			text: "feat: add x\n",
			want: models.CommitProposal{Subject: "feat: add x"},
		},
		{
			name: "subject body footer",
			text: "fix(db): retry on lock\n\nLocks are released late.\n\nRefs: PROJ-1\nSigned-off-by: A <a@b.c>",
			want: models.CommitProposal{
				Subject: "fix(db): retry on lock",
				Body:    "Locks are released late.",
				Footer:  []string{"Refs: PROJ-1", "Signed-off-by: A <a@b.c>"},
			},
		},
		{
			name: "subject followed by list",
			text: "chore: tidy\n- remove a\n- remove b\n\nCloses #4",
			want: models.CommitProposal{
				Subject: "chore: tidy",
				Body:    "- remove a\n- remove b",
				Footer:  []string{"Closes #4"},
			},
		},
		{
			name: "last paragraph prose stays in body",
			text: "docs: explain\n\nfirst\n\nsecond paragraph here",
			want: models.CommitProposal{Subject: "docs: explain", Body: "first\n\nsecond paragraph here"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("  \n\n ")
	assert.Error(t, err)

	_, err = Parse("line one\nline two\n\nmore")
	assert.Error(t, err)
}

func TestParse_RoundTrip(t *testing.T) {
	texts := []string{
		"feat: add x",
		"fix(a): b\n\nbody text\n\nRefs: X-1",
		"refactor: c\n\npara one\n\npara two",
	}
	for _, text := range texts {
		p, err := ParseValid(text)
		require.NoError(t, err)
		assert.Equal(t, text, p.String())
	}
}

func TestParseValid(t *testing.T) {
	_, err := ParseValid("update stuff")
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = ParseValid("")
	require.ErrorAs(t, err, &verr)
}

func TestDedupeFooter(t *testing.T) {
	p := models.CommitProposal{Subject: "feat: x", Footer: []string{"Refs: A-1", "Refs: A-1 ", "Closes #2"}}
	got := DedupeFooter(p)
	assert.Equal(t, []string{"Refs: A-1", "Closes #2"}, got.Footer)
	assert.Len(t, p.Footer, 3, "input is not modified")
}
