package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tcgtrack/internal/auth"
	"github.com/desertthunder/tcgtrack/internal/collection"
	"github.com/desertthunder/tcgtrack/internal/repositories"
	"github.com/desertthunder/tcgtrack/internal/services"
	"github.com/desertthunder/tcgtrack/internal/shared"
	"github.com/desertthunder/tcgtrack/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	transport  http.RoundTripper
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader

	session    *auth.Session
	api        *services.APIService
	collection *services.CollectionService
	auth       *services.AuthService
	runs       *repositories.ImportRunRepository
	engine     *tasks.ImportEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB           // Migrated local store
	Transport  http.RoundTripper // Base transport under the auth layer
	HTTPClient *http.Client      // Unauthenticated client for card images
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) (*Runner, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("%w: local store not opened", shared.ErrMissingConfig)
	}
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.TimeoutDuration()}
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		transport:  opts.Transport,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
	if err := r.wire(); err != nil {
		return nil, err
	}
	return r, nil
}

// wire builds the session and backend clients over the runner's store and logger.
func (r *Runner) wire() error {
	session, err := auth.NewSession(repositories.NewLocalStorage(r.db), r.logger)
	if err != nil {
		return err
	}

	client := auth.NewClient(session, r.transport, r.logger)
	client.Timeout = r.config.API.TimeoutDuration()

	api := services.NewAPIService(r.config.API.BaseURL, client)
	api.SetLogger(r.logger)
	api.SetRetry(500*time.Millisecond, r.config.API.RetryDuration())

	r.session = session
	r.api = api
	r.collection = services.NewCollectionService(api)
	r.auth = services.NewAuthService(api)
	r.runs = repositories.NewImportRunRepository(r.db)
	r.engine = tasks.NewImportEngine(r.collection, r.runs, r.logger)
	return nil
}

// SetLogger replaces the logger and rebuilds every component that writes to it.
func (r *Runner) SetLogger(l *log.Logger) error {
	r.logger = l
	return r.wire()
}

// viewModel returns a fresh collection view model over the backend.
func (r *Runner) viewModel() *collection.ViewModel {
	return collection.NewViewModel(r.collection, collection.ViewModelOpts{
		Grouped: r.config.API.Grouped,
		Logger:  r.logger,
	})
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, collectionCommand, expansionsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
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
	return r.writePlain("\n"+format+"\n", args...)
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
