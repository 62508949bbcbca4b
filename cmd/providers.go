package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/urfave/cli/v2"

	"github.com/gitsensei/sensei/internal/ai"
	"github.com/gitsensei/sensei/internal/config"
	"github.com/gitsensei/sensei/pkg/models"
)

// ListCommand returns the ls command
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:   "ls",
		Usage:  "List available providers",
		Action: runList,
	}
}

// UseCommand returns the use command
func UseCommand() *cli.Command {
	return &cli.Command{
		Name:      "use",
		Usage:     "Set the default provider",
		ArgsUsage: "PROVIDER",
		Action:    runUse,
	}
}

// CheckCommand returns the check command
func CheckCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Check that a provider is installed and configured",
		ArgsUsage: "[PROVIDER]",
		Action:    runCheck,
	}
}

// InitCommand returns the init command
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Interactive setup wizard",
		Action: runInit,
	}
}

func runList(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	writeProviderList(os.Stdout, cfg)
	return nil
}

func writeProviderList(w io.Writer, cfg *config.Config) {
	for _, spec := range cfg.ListProviders() {
		prefix := " "
		if spec.Name == cfg.Core.DefaultProvider {
			prefix = "*"
		}
		fmt.Fprintf(w, "%s %s: %s\n", prefix, spec.Name, spec.Description)
	}
}

func runUse(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing required argument: PROVIDER")
	}
	return setDefault(c.String("config"), c.Args().Get(0))
}

func setDefault(configPath, name string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if _, err := cfg.ResolveProvider(name); err != nil {
		return err
	}

	path, err := config.UserConfigPath(configPath)
	if err != nil {
		return err
	}
	if err := config.SetDefaultProvider(path, name); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	fmt.Printf("Default set to '%s' in %s\n", name, path)
	return nil
}

func runCheck(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	spec, err := cfg.ResolveProvider(c.Args().Get(0))
	if err != nil {
		return err
	}

	fmt.Printf("Checking: %s\n", spec.Name)
	msg, err := checkProvider(spec)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

// checkProvider validates the provider table and, for command providers,
// that the executable resolves on PATH
func checkProvider(spec models.ProviderSpec) (string, error) {
	if err := config.ValidateProvider(spec); err != nil {
		return "", fmt.Errorf("invalid configuration: %w", err)
	}
	if spec.EffectiveKind() == models.ProviderKindOllama {
		url := spec.URL
		if url == "" {
			url = ai.DefaultOllamaURL
		}
		return fmt.Sprintf("OK - ollama model %s at %s", spec.Model, url), nil
	}

	args, err := shellwords.Parse(spec.CommandTemplate)
	if err != nil || len(args) == 0 {
		return "", fmt.Errorf("cannot parse command %q", spec.CommandTemplate)
	}
	path, err := exec.LookPath(args[0])
	if err != nil {
		return "", fmt.Errorf("NOT FOUND - %s is not on PATH", args[0])
	}
	return "OK - executable found at " + path, nil
}

func runInit(c *cli.Context) error {
	fmt.Println("Welcome to sensei!")
	fmt.Println()

	known := config.KnownProviders()
	name, err := chooseProvider(os.Stdin, os.Stdout, known)
	if err != nil {
		return err
	}
	fmt.Printf("\nSelected: %s\n", name)
	return setDefault(c.String("config"), name)
}

// chooseProvider shows a numbered menu and returns the chosen name. An empty
// answer picks the first entry.
func chooseProvider(in io.Reader, out io.Writer, names []string) (string, error) {
	for i, name := range names {
		desc := ""
		if v, ok := config.Defaults["providers."+name+".description"].(string); ok {
			desc = " (" + v + ")"
		}
		fmt.Fprintf(out, "  %d. %s%s\n", i+1, name, desc)
	}
	fmt.Fprint(out, "\nSelect provider [1]: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return names[0], nil
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(names) {
		return "", fmt.Errorf("invalid choice %q", line)
	}
	return names[n-1], nil
}
