package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gitsensei/sensei/internal/config"
)

// ConfigCommand returns the config command
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a sample configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: ~/" + config.FileName + ")",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:   "validate",
				Usage:  "Validate the merged configuration",
				Action: runConfigValidate,
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	outputPath, err := config.UserConfigPath(c.String("output"))
	if err != nil {
		return err
	}

	if err := config.InitConfig(outputPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Created configuration file at %s\n", outputPath)
	return nil
}

func runConfigValidate(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return writeValidationReport(os.Stdout, cfg)
}

// writeValidationReport prints the loaded files, the core settings and one
// line per provider. A provider whose executable is missing is reported but
// does not make the configuration invalid.
func writeValidationReport(w io.Writer, cfg *config.Config) error {
	for _, src := range cfg.Sources {
		fmt.Fprintf(w, "Loaded %s\n", src)
	}
	fmt.Fprintf(w, "Default provider: %s\n", cfg.Core.DefaultProvider)
	fmt.Fprintf(w, "Limits: timeout %s, max_diff_lines %d, max_retries %d\n",
		cfg.Core.Timeout, cfg.Core.MaxDiffLines, cfg.Core.MaxRetries)
	if cfg.Core.CaptureDir != "" {
		fmt.Fprintf(w, "Capturing provider exchanges to %s\n", cfg.Core.CaptureDir)
	}

	fmt.Fprintln(w)
	for _, spec := range cfg.ListProviders() {
		status, detail := "ok", ""
		if err := config.ValidateProvider(spec); err != nil {
			status, detail = "invalid", err.Error()
		} else if msg, err := checkProvider(spec); err != nil {
			status, detail = "missing", err.Error()
		} else {
			detail = msg
		}
		fmt.Fprintf(w, "%-8s %s: %s\n", status, spec.Name, detail)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	fmt.Fprintln(w, "\nConfiguration is valid")
	return nil
}
