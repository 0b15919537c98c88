// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"
)

// App builds the root command.
func (r *Runner) App() *cli.Command {
	return &cli.Command{
		Name:    "dupx",
		Usage:   "Find and remove duplicate tracks from a Spotify playlist",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
		},
		Before:   r.before,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		dedupeCommand, resumeCommand, plansCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// dedupeCommand is the main workflow: ingest, resolve, confirm, reconcile.
func dedupeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "dedupe",
		Aliases: []string{"run"},
		Usage:   "Detect duplicates in a playlist and keep one copy of each",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Playlist ID, spotify:playlist: URI or open.spotify.com link (prompted when absent)",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Skip the confirmation prompt",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report duplicates and the plan without modifying the playlist",
			},
			&cli.StringFlag{
				Name:    "report",
				Aliases: []string{"o"},
				Usage:   "Write the duplicate report to a file (.txt, .md or .csv)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser login (0 waits forever)",
			},
		},
		Action: r.Dedupe,
	}
}

// resumeCommand finishes a plan left behind by a failed run.
func resumeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resume",
		Usage: "Finish a failed or interrupted reconciliation plan",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "plan"},
		},
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser login (0 waits forever)",
			},
		},
		Action: r.Resume,
	}
}

func plansCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "plans",
		Usage: "Inspect saved reconciliation plans",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List plans, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only plans with this status (pending, removed, completed, failed)",
					},
					&cli.StringFlag{
						Name:  "playlist",
						Usage: "Only plans for this playlist",
					},
				},
				Action: r.PlansList,
			},
			{
				Name:  "show",
				Usage: "Show one plan with its track ids",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "plan"},
				},
				Action: r.PlansShow,
			},
			{
				Name:  "delete",
				Usage: "Delete a plan",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "plan"},
				},
				Action: r.PlansDelete,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example configuration file to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}
