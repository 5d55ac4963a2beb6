package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/harmonia-app/harmonia/internal/repositories"
	"github.com/harmonia-app/harmonia/internal/services"
	"github.com/harmonia-app/harmonia/internal/shared"
	"github.com/harmonia-app/harmonia/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	adapters   services.Registry
	matcher    services.Matcher
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	// db is injected in tests; command actions otherwise open one from config.
	db *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Adapters   services.Registry
	Matcher    services.Matcher
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Matcher == nil {
		opts.Matcher = services.FirstMatch{}
	}
	if opts.Adapters == nil {
		opts.Adapters = services.Registry{}
	}

	return &Runner{
		config:     opts.Config,
		adapters:   opts.Adapters,
		matcher:    opts.Matcher,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, accountCommand, playlistCommand, trackCommand, syncCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// reloadConfig swaps in the config file named by the command's --config flag
// when it exists.
func (r *Runner) reloadConfig(cmd *cli.Command) {
	configPath := cmd.String("config")
	if configPath == "" {
		return
	}
	if _, err := os.Stat(configPath); err != nil {
		return
	}
	if config, err := shared.LoadConfig(configPath); err == nil {
		r.config = config
	} else {
		r.logger.Warn("failed to load config, keeping current", "path", configPath, "error", err)
	}
}

// database returns an open connection and its closer. An injected connection
// is reused and never closed by the caller.
func (r *Runner) database() (*sql.DB, func(), error) {
	if r.db != nil {
		return r.db, func() {}, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database)

	return db, func() { db.Close() }, nil
}

// engine builds a sync engine over the given connection.
func (r *Runner) engine(db *sql.DB) *tasks.PlaylistSyncEngine {
	return tasks.NewPlaylistSyncEngine(
		repositories.NewPlaylistRepository(db),
		repositories.NewTrackRepository(db),
		repositories.NewAccountRepository(db),
		r.adapters,
		r.matcher,
		r.config.Sync.CallTimeout(),
		r.logger,
	)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
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
