package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gitsensei/sensei/pkg/models"
)

const (
	// FileName is the config file looked up in the home and working directories
	FileName = ".sensei.toml"
	// EnvPrefix prefixes environment overrides, e.g. SENSEI_CORE_DEFAULT_PROVIDER
	EnvPrefix = "SENSEI_"
)

// Config represents the application configuration
type Config struct {
	Core struct {
		DefaultProvider string        `koanf:"default_provider"`
		MaxDiffLines    int           `koanf:"max_diff_lines"`
		Timeout         time.Duration `koanf:"timeout"`
		MaxRetries      int           `koanf:"max_retries"`
		// CaptureDir, when set, receives a JSON record of every provider exchange
		CaptureDir string `koanf:"capture_dir"`
	} `koanf:"core"`

	Providers map[string]models.ProviderSpec `koanf:"providers"`

	// Files that were loaded, lowest precedence first
	Sources []string `koanf:"-"`
}

// Defaults are the built-in settings every file layers over
var Defaults = map[string]interface{}{
	"core.default_provider": "gemini",
	"core.max_diff_lines":   2000,
	"core.timeout":          "30s",
	"core.max_retries":      5,

	"providers.gemini.description": "Google Gemini CLI",
	"providers.gemini.command":     "gemini --system {system}",

	"providers.claude.description": "Claude CLI",
	"providers.claude.command":     "claude -p --append-system-prompt {system}",

	"providers.ollama.description": "Ollama (local)",
	"providers.ollama.kind":        "ollama",
	"providers.ollama.model":       "qwen2.5-coder",
	"providers.ollama.url":         "http://localhost:11434",

	"providers.echo.description": "Debug (echo the diff back)",
	"providers.echo.command":     "sh -c cat {system}",
}

// providerFields are the keys a provider table may carry, used to map
// SENSEI_PROVIDERS_<NAME>_<FIELD> back to providers.<name>.<field>
var providerFields = []string{"description", "command", "prompt", "attempts", "kind", "model", "url"}

// DefaultPaths returns the implicit config files, lowest precedence first
func DefaultPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, FileName))
	}
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, FileName))
	}
	return paths
}

// LoadConfig loads defaults, the implicit config files, the explicit file
// when configPath is set, and SENSEI_ environment variables, in that order
func LoadConfig(configPath string) (*Config, error) {
	return Load(DefaultPaths(), configPath)
}

// Load layers the given files over the defaults. Missing implicit files are
// skipped; a missing explicit file is an error.
func Load(paths []string, configPath string) (*Config, error) {
	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	var sources []string
	seen := map[string]bool{}
	for _, path := range paths {
		abs, _ := filepath.Abs(path)
		if seen[abs] {
			continue
		}
		seen[abs] = true
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config %s: %w", path, err)
		}
		sources = append(sources, path)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
		sources = append(sources, configPath)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	for name, spec := range config.Providers {
		spec.Name = name
		config.Providers[name] = spec
	}
	config.Sources = sources

	return &config, nil
}

// envKey maps SENSEI_CORE_DEFAULT_PROVIDER to core.default_provider and
// SENSEI_PROVIDERS_MY_CLI_COMMAND to providers.my_cli.command
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "providers_"); ok {
		for _, field := range providerFields {
			if name, ok := strings.CutSuffix(rest, "_"+field); ok && name != "" {
				return "providers." + name + "." + field
			}
		}
	}
	return strings.Replace(key, "_", ".", 1)
}

// ResolveProvider returns the named provider, or the default one when name is empty
func (c *Config) ResolveProvider(name string) (models.ProviderSpec, error) {
	if name == "" {
		name = c.Core.DefaultProvider
	}
	spec, ok := c.Providers[name]
	if !ok {
		return models.ProviderSpec{}, fmt.Errorf("provider %q not found", name)
	}
	return spec, nil
}

// ListProviders returns all providers sorted by name
func (c *Config) ListProviders() []models.ProviderSpec {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]models.ProviderSpec, 0, len(names))
	for _, name := range names {
		out = append(out, c.Providers[name])
	}
	return out
}

// Validate validates the configuration and reports every problem it finds
func Validate(config *Config) error {
	var errs []error

	if config.Core.DefaultProvider == "" {
		errs = append(errs, fmt.Errorf("core.default_provider is required"))
	} else if _, ok := config.Providers[config.Core.DefaultProvider]; !ok {
		errs = append(errs, fmt.Errorf("configuration for provider %s not found", config.Core.DefaultProvider))
	}
	if config.Core.MaxDiffLines < 0 {
		errs = append(errs, fmt.Errorf("core.max_diff_lines must not be negative"))
	}
	if config.Core.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("core.max_retries must not be negative"))
	}
	if config.Core.Timeout < 0 {
		errs = append(errs, fmt.Errorf("core.timeout must not be negative"))
	}

	for _, spec := range config.ListProviders() {
		if err := ValidateProvider(spec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ValidateProvider checks a single provider table
func ValidateProvider(spec models.ProviderSpec) error {
	switch spec.EffectiveKind() {
	case models.ProviderKindCommand:
		if strings.TrimSpace(spec.CommandTemplate) == "" {
			return fmt.Errorf("providers.%s.command is required", spec.Name)
		}
		if n := strings.Count(spec.CommandTemplate, models.SystemPlaceholder); n != 1 {
			return fmt.Errorf("providers.%s.command must contain %s exactly once, found %d", spec.Name, models.SystemPlaceholder, n)
		}
	case models.ProviderKindOllama:
		if spec.Model == "" {
			return fmt.Errorf("providers.%s.model is required for ollama providers", spec.Name)
		}
	default:
		return fmt.Errorf("providers.%s.kind %q is not one of %s, %s", spec.Name, spec.Kind, models.ProviderKindCommand, models.ProviderKindOllama)
	}
	if spec.Attempts < 0 {
		return fmt.Errorf("providers.%s.attempts must not be negative", spec.Name)
	}
	return nil
}

// UserConfigPath is the file SetDefaultProvider writes: the explicit path if
// given, otherwise the home directory file
func UserConfigPath(configPath string) (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate home directory: %w", err)
	}
	return filepath.Join(home, FileName), nil
}

// SetDefaultProvider rewrites core.default_provider in the file at path,
// keeping every other key. The file is created if it does not exist.
func SetDefaultProvider(path, name string) error {
	var k = koanf.New(".")
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return fmt.Errorf("error loading config %s: %w", path, err)
		}
	}

	if err := k.Set("core.default_provider", name); err != nil {
		return err
	}

	data, err := k.Marshal(toml.Parser())
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// KnownProviders are the providers offered by the setup wizard, in menu order
func KnownProviders() []string {
	return []string{"gemini", "claude", "ollama"}
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	// Create sample configuration
	sampleConfig := `# sensei configuration

[core]
default_provider = "gemini"
# Diffs longer than this many lines are truncated before reaching a provider
max_diff_lines = 2000
timeout = "30s"
max_retries = 5
# capture_dir = "/tmp/sensei-captures"   # record provider exchanges for debugging

# Every command provider receives the diff on stdin. {system} must appear
# exactly once and is replaced by the system prompt as a single argument.
[providers.gemini]
description = "Google Gemini CLI"
command = "gemini --system {system}"

[providers.claude]
description = "Claude CLI"
command = "claude -p --append-system-prompt {system}"
# attempts = 2   # retry once on timeout

[providers.ollama]
description = "Ollama (local)"
kind = "ollama"
model = "qwen2.5-coder"
url = "http://localhost:11434"
# prompt = "Custom system prompt. Allowed types: {{VAR:types}}"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0o644)
}
