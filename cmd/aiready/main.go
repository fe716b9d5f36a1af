package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

func main() {
	app := &cli.App{
		Name:     "aiready",
		Usage:    "Near-duplicate code pattern detection for AI-ready codebases",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `Aiready finds near-duplicate functions, methods, and components that
inflate the token cost of a codebase, clusters them into duplicate
groups, and reports where one canonical implementation would do.

Supports: Go, Rust, Python, TypeScript, JavaScript, Java, Ruby`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"AIREADY_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, markdown, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.StringFlag{
				Name:  "pprof",
				Usage: "Enable pprof profiling and write to specified prefix (creates <prefix>.cpu.pprof and <prefix>.mem.pprof)",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("no-color") {
				color.NoColor = true
			}
			if pprofPrefix := c.String("pprof"); pprofPrefix != "" {
				cpuFile, err := os.Create(pprofPrefix + ".cpu.pprof")
				if err != nil {
					return fmt.Errorf("failed to create CPU profile: %w", err)
				}
				if err := pprof.StartCPUProfile(cpuFile); err != nil {
					cpuFile.Close()
					return fmt.Errorf("failed to start CPU profile: %w", err)
				}
				c.App.Metadata["pprofCPU"] = cpuFile
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if pprofPrefix := c.String("pprof"); pprofPrefix != "" {
				pprof.StopCPUProfile()
				if cpuFile, ok := c.App.Metadata["pprofCPU"].(*os.File); ok {
					cpuFile.Close()
					color.Green("CPU profile written to %s.cpu.pprof", pprofPrefix)
				}

				memFile, err := os.Create(pprofPrefix + ".mem.pprof")
				if err != nil {
					return fmt.Errorf("failed to create memory profile: %w", err)
				}
				defer memFile.Close()

				runtime.GC() // Get up-to-date statistics
				if err := pprof.WriteHeapProfile(memFile); err != nil {
					return fmt.Errorf("failed to write memory profile: %w", err)
				}
				color.Green("Memory profile written to %s.mem.pprof", pprofPrefix)
			}
			return nil
		},
		Commands: []*cli.Command{
			patternsCmd(),
			initCmd(),
			configCmd(),
			mcpCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitCoder errors terminate inside Run; anything else is fatal.
		color.Red("Error: %v", err)
		os.Exit(2)
	}
}
