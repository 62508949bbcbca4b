package review

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitsensei/sensei/pkg/models"
)

var allOptions = []models.DecisionKind{models.DecisionAccept, models.DecisionEdit, models.DecisionRetry, models.DecisionAbort}

func decide(t *testing.T, input string, options []models.DecisionKind) (models.ReviewDecision, string) {
	t.Helper()
	var out bytes.Buffer
	p := NewTerminalPrompter(strings.NewReader(input), &out, "")
	d, err := p.Decide(context.Background(), options, initial)
	require.NoError(t, err)
	return d, out.String()
}

func TestTerminalPrompter_Choices(t *testing.T) {
	tests := []struct {
		input string
		want  models.ReviewDecision
	}{
		{"y\n", models.Accept()},
		{"YES\n", models.Accept()},
		{"n\n", models.Abort()},
		{"q\n", models.Abort()},
		{"", models.Abort()},
		{"r\nbe brief\n", models.Retry("be brief")},
		{"retry\n\n", models.Retry("")},
		{"e\nfix: edited\n\nbody\n.\n", models.Edit("fix: edited\n\nbody")},
	}

	for _, tt := range tests {
		d, _ := decide(t, tt.input, allOptions)
		assert.Equal(t, tt.want, d, "input %q", tt.input)
	}
}

func TestTerminalPrompter_RepromptsOnInvalidInput(t *testing.T) {
	d, out := decide(t, "maybe\nr\ny\n", []models.DecisionKind{models.DecisionAccept, models.DecisionEdit, models.DecisionAbort})
	assert.Equal(t, models.Accept(), d)
	assert.Equal(t, 2, strings.Count(out, "Please answer one of: [y]es, [e]dit, [n]o"))
}

func TestTerminalPrompter_InlineEditAtEOF(t *testing.T) {
	d, _ := decide(t, "e\nchore: tidy", allOptions)
	assert.Equal(t, models.Edit("chore: tidy"), d)
}

func TestTerminalPrompter_Present(t *testing.T) {
	var out bytes.Buffer
	p := NewTerminalPrompter(strings.NewReader(""), &out, "")
	p.Present(View{Proposal: initial, Warnings: []string{"WARNING: x"}, DryRun: true})

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "WARNING: x\n"+separator+"\n"))
	assert.Contains(t, text, initial.String())
	assert.Contains(t, text, "dry run")
}

func TestTerminalPrompter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewTerminalPrompter(strings.NewReader("y\n"), &bytes.Buffer{}, "")
	_, err := p.Decide(ctx, allOptions, initial)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAutoPrompter(t *testing.T) {
	var out bytes.Buffer
	p := AutoPrompter{Out: &out}
	p.Present(View{Proposal: initial})
	d, err := p.Decide(context.Background(), allOptions, initial)
	require.NoError(t, err)
	assert.Equal(t, models.Accept(), d)
	assert.Contains(t, out.String(), initial.Subject)
}

func TestMenuFor(t *testing.T) {
	assert.Equal(t, "[y]es, [e]dit, [r]etry, [n]o", menuFor(allOptions))
}
