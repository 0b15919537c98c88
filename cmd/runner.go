package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dupx/internal/repositories"
	"github.com/desertthunder/dupx/internal/services"
	"github.com/desertthunder/dupx/internal/shared"
	"github.com/desertthunder/dupx/internal/tasks"
	"github.com/desertthunder/dupx/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// Connector authenticates and returns a ready playlist service.
type Connector func(ctx context.Context, cfg *shared.Config, logger *log.Logger) (services.PlaylistService, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	prompter   ui.Prompter
	connect    Connector
	openDB     func(shared.DatabaseConfig) (*sql.DB, error)
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is loaded from the --config flag before any command runs.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Prompter   ui.Prompter
	Connect    Connector
	OpenDB     func(shared.DatabaseConfig) (*sql.DB, error)
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Prompter == nil {
		opts.Prompter = ui.NewTerminalPrompter(opts.Logger)
	}
	if opts.Connect == nil {
		opts.Connect = spotifyConnector
	}
	if opts.OpenDB == nil {
		opts.OpenDB = shared.OpenDatabase
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		prompter:   opts.Prompter,
		connect:    opts.Connect,
		openDB:     opts.OpenDB,
	}
}

// before applies --log-level and loads the configuration once per invocation.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := shared.SetLogLevel(r.logger, cmd.String("log-level")); err != nil {
		return ctx, err
	}

	if r.configPath == "" {
		r.configPath = cmd.String("config")
	}
	if r.config != nil {
		return ctx, nil
	}

	config, err := shared.LoadConfigOrDefault(r.configPath)
	if err != nil {
		return ctx, err
	}
	r.config = config
	r.logger.Debug("loaded configuration", "path", r.configPath)
	return ctx, nil
}

// planStore opens the plan database. The caller closes the returned db.
func (r *Runner) planStore() (*repositories.PlanRepository, *sql.DB, error) {
	db, err := r.openDB(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open plan database: %w", err)
	}
	return repositories.NewPlanRepository(db), db, nil
}

// withProgress runs fn while a [ui.ProgressBar] renders its updates, and returns once both are done.
func (r *Runner) withProgress(ctx context.Context, fn func(ctx context.Context, progress chan<- tasks.ProgressUpdate) error) error {
	progress := make(chan tasks.ProgressUpdate, 64)
	bar := ui.NewProgressBar(r.output, ui.Styles)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bar.Run(gctx, progress)
	})
	g.Go(func() error {
		defer close(progress)
		return fn(gctx, progress)
	})
	return g.Wait()
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", ui.Styles.Title(title))
	r.writePlain("═══════════════════════════════════════\n")
}
