package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"

	"github.com/caopengau/aiready/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "Validate a configuration file",
				Description: `Validates an aiready configuration file for syntax errors and
out-of-range values.

Examples:
  aiready config validate                     # Validates default config locations
  aiready -c aiready.toml config validate     # Validates specific file`,
				Action: runConfigValidate,
			},
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Description: `Shows the merged configuration from defaults and config file.

Examples:
  aiready config show                  # Show effective config
  aiready -c aiready.toml config show  # Show config from specific file`,
				Action: runConfigShow,
			},
		},
	}
}

func resolveConfig(c *cli.Context) (*config.Config, string, error) {
	path := c.String("config")
	if path == "" {
		path = config.FindDefault()
	}
	if path == "" {
		return config.DefaultConfig(), "", nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func runConfigValidate(c *cli.Context) error {
	cfg, source, err := resolveConfig(c)
	if err != nil {
		color.Red("Configuration validation failed:")
		fmt.Printf("  - %s\n", err)
		return cli.Exit("", 2)
	}

	warnings := cfg.Normalize()
	for _, w := range warnings {
		color.Yellow("  - %s", w)
	}

	switch {
	case source == "":
		color.Yellow("No config file found. Default configuration is valid.")
	case len(warnings) > 0:
		color.Yellow("Configuration usable with adjustments: %s", source)
	default:
		color.Green("Configuration valid: %s", source)
	}
	return nil
}

func runConfigShow(c *cli.Context) error {
	cfg, source, err := resolveConfig(c)
	if err != nil {
		return err
	}
	cfg.Normalize()

	if source != "" {
		fmt.Printf("# Configuration from: %s\n\n", source)
	} else {
		fmt.Println("# Default configuration (no config file found)")
	}

	content, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Print(string(content))

	return nil
}
