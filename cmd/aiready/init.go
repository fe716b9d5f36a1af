package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"

	"github.com/caopengau/aiready/pkg/config"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new aiready configuration file",
		Description: `Creates a new aiready.toml configuration file in the current directory
with sensible defaults. Use --output to specify a different location.

Examples:
  aiready init                          # Creates aiready.toml in current directory
  aiready init -o .aiready/aiready.toml # Creates config in .aiready directory
  aiready init --force                  # Overwrite existing config file`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "aiready.toml",
				Usage:   "Output file path",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing config file",
			},
		},
		Action: runInitCmd,
	}
}

func runInitCmd(c *cli.Context) error {
	outputPath := c.String("output")
	force := c.Bool("force")

	if _, err := os.Stat(outputPath); err == nil && !force {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := generateDefaultConfig()
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	color.Green("Created %s", outputPath)
	fmt.Println("Edit this file to customize analysis settings.")
	return nil
}

func generateDefaultConfig() (string, error) {
	cfg := config.DefaultConfig()

	content, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config to TOML: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# Aiready Configuration\n")
	buf.WriteString("# Documentation: https://github.com/caopengau/aiready\n\n")
	buf.Write(content)

	return buf.String(), nil
}
