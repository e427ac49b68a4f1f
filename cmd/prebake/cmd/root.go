package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/prebake/internal/version"
)

// NewApp creates the CLI application. prebake takes the scanned root
// directory as its positional argument and writes a bake plan directly;
// there is no separate verb subcommand for the primary action.
func NewApp() *cli.Command {
	app := bakeCommand()
	app.Name = "prebake"
	app.Usage = "Plan parallel docker buildx bake waves from a tree of Dockerfiles"
	app.Version = version.Version()
	app.Description = `prebake scans a directory tree for multi-stage container build files,
resolves their FROM / COPY --from= / RUN --mount=...,from= dependency graph
across files, groups independent stages into parallel build waves, and
emits an HCL or JSON plan for buildx bake (./docker.hcl or ./docker.json
unless --outfile is given).

Examples:
  prebake .
  prebake --file-format json --tag ci ./services
  prebake --optimize 200 --cores 4 .`
	app.Commands = []*cli.Command{
		versionCommand(),
	}
	return app
}

// Execute runs the CLI application.
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}
