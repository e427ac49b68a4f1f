package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/prebake/internal/config"
	"github.com/wharflab/prebake/internal/plan"
	"github.com/wharflab/prebake/internal/progress"
	"github.com/wharflab/prebake/internal/stage"
	"github.com/wharflab/prebake/internal/topo"
)

// Exit codes
const (
	ExitSuccess     = 0 // Plan written successfully
	ExitGraphError  = 1 // Duplicate stage, cycle, or missing non-external reference
	ExitConfigError = 2 // Invalid flags or config file
	ExitIOError     = 3 // Discovery or plan-writing I/O failure
)

// bakeCommand builds the root command: the scanned directory is the sole
// positional argument, every other setting is a flag layered over
// internal/config's file/env/default stack.
func bakeCommand() *cli.Command {
	return &cli.Command{
		ArgsUsage: "[DIRECTORY]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "outfile",
				Aliases: []string{"o"},
				Usage:   "Destination for the emitted plan (default: ./docker.hcl or ./docker.json)",
				Sources: cli.EnvVars("PREBAKE_OUTPUT_FILE"),
			},
			&cli.StringFlag{
				Name:    "tag",
				Aliases: []string{"t"},
				Usage:   "Tag applied to crossover stages",
				Sources: cli.EnvVars("PREBAKE_TAG"),
			},
			&cli.StringFlag{
				Name:    "file-format",
				Usage:   "Plan emitter: hcl or json",
				Sources: cli.EnvVars("PREBAKE_FILE_FORMAT"),
			},
			&cli.IntFlag{
				Name:    "output",
				Usage:   "Per-target output directive: 0 omit, 1 registry, 2 local, 3 both",
				Sources: cli.EnvVars("PREBAKE_OUTPUT_MODE"),
			},
			&cli.IntFlag{
				Name:    "optimize",
				Usage:   "Number of brute-force wave-ordering attempts (0 disables)",
				Sources: cli.EnvVars("PREBAKE_OPTIMIZE_BUDGET"),
			},
			&cli.IntFlag{
				Name:    "cores",
				Usage:   "Optimizer worker count (0 = auto, capped at cores available - 1)",
				Sources: cli.EnvVars("PREBAKE_CORES"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable progress logging",
				Sources: cli.EnvVars("PREBAKE_VERBOSE"),
			},
			&cli.StringSliceFlag{
				Name:    "exclude",
				Usage:   "Glob pattern to exclude from discovery (can be repeated)",
				Sources: cli.EnvVars("PREBAKE_EXCLUDE"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: auto-discover .prebake.toml)",
			},
		},
		Action: runBake,
	}
}

func runBake(ctx context.Context, cmd *cli.Command) error {
	root := cmd.Args().First()
	if root == "" {
		root = "."
	}

	cfg, err := loadBakeConfig(cmd, root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	rep := progress.New(os.Stderr, cfg.Verbose)

	res, err := plan.Run(ctx, root, cfg, rep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", classifyRunError(err))
	}

	fmt.Fprintf(os.Stdout, "wrote %s (%d stage(s), %d wave(s))\n", res.OutputPath, res.Stages, res.Waves)
	return nil
}

// loadBakeConfig loads configuration for root and applies CLI flag
// overrides. CLI flags take precedence over file and environment values,
// matching spec.md's priority ordering.
func loadBakeConfig(cmd *cli.Command, root string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configPath := cmd.String("config"); configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load(root)
	}
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("outfile") {
		cfg.OutputFile = cmd.String("outfile")
	}
	if cmd.IsSet("tag") {
		cfg.Tag = cmd.String("tag")
	}
	if cmd.IsSet("file-format") {
		cfg.FileFormat = cmd.String("file-format")
		if !cmd.IsSet("outfile") {
			cfg.OutputFile = config.DefaultOutputFile(cfg.FileFormat)
		}
	}
	if cmd.IsSet("output") {
		cfg.OutputMode = cmd.Int("output")
	}
	if cmd.IsSet("optimize") {
		cfg.OptimizeBudget = cmd.Int("optimize")
	}
	if cmd.IsSet("cores") {
		cfg.Cores = cmd.Int("cores")
	}
	if cmd.IsSet("verbose") {
		cfg.Verbose = cmd.Bool("verbose")
	}
	if cmd.IsSet("exclude") {
		cfg.Exclude = append(cfg.Exclude, cmd.StringSlice("exclude")...)
	}

	if cfg.FileFormat != "hcl" && cfg.FileFormat != "json" {
		return nil, fmt.Errorf("invalid --file-format %q: must be hcl or json", cfg.FileFormat)
	}
	if cfg.OutputMode < config.OutputModeOmit || cfg.OutputMode > config.OutputModeBoth {
		return nil, fmt.Errorf("invalid --output %d: must be 0, 1, 2, or 3", cfg.OutputMode)
	}
	if cfg.OptimizeBudget < 0 {
		return nil, fmt.Errorf("invalid --optimize %d: must be >= 0", cfg.OptimizeBudget)
	}
	if cfg.Cores < 0 {
		return nil, fmt.Errorf("invalid --cores %d: must be >= 0", cfg.Cores)
	}

	return cfg, nil
}

// classifyRunError maps a plan.Run failure to an exit code. Graph-shape
// errors (duplicate stages, cycles, missing non-external references) are
// distinguished from I/O failures so scripts can tell them apart.
func classifyRunError(err error) int {
	if errors.Is(err, stage.ErrDuplicateStage) || errors.Is(err, stage.ErrInvalidInput) ||
		errors.Is(err, topo.ErrCycle) || errors.Is(err, topo.ErrMissingDep) {
		return ExitGraphError
	}
	return ExitIOError
}
