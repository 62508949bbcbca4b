package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitsensei/sensei/internal/config"
	"github.com/gitsensei/sensei/internal/review"
	"github.com/gitsensei/sensei/pkg/models"
)

func TestWriteProviderList(t *testing.T) {
	cfg, err := config.Load(nil, "")
	require.NoError(t, err)

	var out bytes.Buffer
	writeProviderList(&out, cfg)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"  claude: Claude CLI",
		"  echo: Debug (echo the diff back)",
		"* gemini: Google Gemini CLI",
		"  ollama: Ollama (local)",
	}, lines)
}

func TestChooseProvider(t *testing.T) {
	names := config.KnownProviders()

	got, err := chooseProvider(strings.NewReader("\n"), &bytes.Buffer{}, names)
	require.NoError(t, err)
	assert.Equal(t, "gemini", got)

	got, err = chooseProvider(strings.NewReader("3\n"), &bytes.Buffer{}, names)
	require.NoError(t, err)
	assert.Equal(t, "ollama", got)

	_, err = chooseProvider(strings.NewReader("9\n"), &bytes.Buffer{}, names)
	assert.Error(t, err)

	var out bytes.Buffer
	_, _ = chooseProvider(strings.NewReader(""), &out, names)
	assert.Contains(t, out.String(), "2. claude (Claude CLI)")
}

func TestCheckProvider(t *testing.T) {
	msg, err := checkProvider(models.ProviderSpec{Name: "echo", CommandTemplate: "sh -c cat {system}"})
	if err == nil {
		assert.Contains(t, msg, "OK - executable found at")
	}

	_, err = checkProvider(models.ProviderSpec{Name: "missing", CommandTemplate: "sensei-no-such-binary-xyz {system}"})
	assert.ErrorContains(t, err, "NOT FOUND")

	_, err = checkProvider(models.ProviderSpec{Name: "bad", CommandTemplate: "tool"})
	assert.ErrorContains(t, err, "invalid configuration")

	msg, err = checkProvider(models.ProviderSpec{Name: "ollama", Kind: models.ProviderKindOllama, Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "OK - ollama model m at http://localhost:11434", msg)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortID("0123456789abcdef"))
	assert.Equal(t, "abc", shortID("abc"))
}

func TestSelectPrompter(t *testing.T) {
	p, err := selectPrompter(true, false, strings.NewReader(""))
	require.NoError(t, err)
	assert.IsType(t, review.AutoPrompter{}, p)

	p, err = selectPrompter(false, true, strings.NewReader(""))
	require.NoError(t, err)
	assert.IsType(t, &review.TerminalPrompter{}, p)

	// Without --yes a pipe never gets an auto-accepting prompter, dry run or not
	p, err = selectPrompter(false, false, strings.NewReader(""))
	assert.ErrorIs(t, err, errNotInteractive)
	assert.Nil(t, p)
}

func TestWriteValidationReport(t *testing.T) {
	cfg, err := config.Load(nil, "")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, writeValidationReport(&out, cfg))
	assert.Contains(t, out.String(), "Default provider: gemini")
	assert.Contains(t, out.String(), "ok       ollama: OK - ollama model qwen2.5-coder at http://localhost:11434")
	assert.Contains(t, out.String(), "Configuration is valid")

	cfg.Providers["broken"] = models.ProviderSpec{Name: "broken", CommandTemplate: "tool"}
	cfg.Providers["absent"] = models.ProviderSpec{Name: "absent", CommandTemplate: "sensei-no-such-binary-xyz {system}"}
	out.Reset()
	err = writeValidationReport(&out, cfg)
	assert.ErrorContains(t, err, "providers.broken.command must contain {system} exactly once")
	assert.Contains(t, out.String(), "invalid  broken: ")
	assert.Contains(t, out.String(), "missing  absent: NOT FOUND - sensei-no-such-binary-xyz is not on PATH")
	assert.NotContains(t, out.String(), "Configuration is valid")
}
