package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/uus/internal/catalog"
	"github.com/desertthunder/uus/internal/embed"
	"github.com/desertthunder/uus/internal/repositories"
	"github.com/desertthunder/uus/internal/services"
	"github.com/desertthunder/uus/internal/shared"
	"github.com/desertthunder/uus/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The backend is opened lazily on first use so that commands like "setup config" and
// "video normalize" work without a reachable database.
type Runner struct {
	config     *shared.Config
	backend    services.Backend
	videos     *embed.Normalizer
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	closers    []io.Closer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Backend    services.Backend // skips opening the configured backend when set
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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

	return &Runner{
		config:     opts.Config,
		backend:    opts.Backend,
		videos:     embed.NewNormalizer(opts.Config.VideoProvider()),
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, videoCommand, coursesCommand, likesCommand, maintenanceCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Configure loads the config file named by --config, overlays the environment and applies the
// log settings. A missing file is only an error when the flag was given explicitly.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")

	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			return ctx, err
		}
		r.logger.Debug("loaded config", "path", path)
	} else if cmd.IsSet("config") {
		return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	}

	if err := config.ApplyEnv(); err != nil {
		return ctx, err
	}
	if err := shared.ConfigureLogger(r.logger, config.Log); err != nil {
		return ctx, err
	}

	r.config = config
	r.videos = embed.NewNormalizer(config.VideoProvider())
	return ctx, nil
}

// SetLogger replaces the logger used by subsequent actions.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases anything opened by the runner, such as the SQLite handle.
func (r *Runner) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// store returns the configured backend, opening it on first use.
func (r *Runner) store() (services.Backend, error) {
	if r.backend != nil {
		return r.backend, nil
	}

	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	switch r.config.Backend.Driver {
	case shared.BackendSupabase:
		svc, err := r.supabase()
		if err != nil {
			return nil, err
		}
		r.backend = svc
	default:
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		r.closers = append(r.closers, db)

		if err := shared.RunMigrations(db); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		r.backend = services.NewLocalBackend(repositories.NewStore(db))
	}

	r.logger.Debug("backend ready", "backend", r.backend.Name())
	return r.backend, nil
}

func (r *Runner) supabase() (*services.SupabaseService, error) {
	if svc, ok := r.backend.(*services.SupabaseService); ok {
		return svc, nil
	}

	cfg := r.config.Supabase
	return services.NewSupabaseService(cfg.URL, cfg.ServiceRoleKey, services.SupabaseOptions{
		RateLimit: cfg.RateLimit,
		Burst:     cfg.Burst,
		Timeout:   cfg.TimeoutDuration(),
		Transport: r.httpClient.Transport,
	})
}

func (r *Runner) catalog() (*catalog.Catalog, error) {
	backend, err := r.store()
	if err != nil {
		return nil, err
	}
	return catalog.New(backend, r.videos, r.logger), nil
}

func (r *Runner) engine() (*tasks.Engine, error) {
	backend, err := r.store()
	if err != nil {
		return nil, err
	}
	return tasks.NewEngine(backend, r.videos, r.logger), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
