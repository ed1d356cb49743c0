// Package cli is the bookhub command-line client. Each command is one view
// of the BookHub web app.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/binhbb2204/bookhub/cli/config"
	"github.com/binhbb2204/bookhub/internal/api"
	"github.com/binhbb2204/bookhub/internal/guard"
	"github.com/binhbb2204/bookhub/internal/session"
	"github.com/binhbb2204/bookhub/internal/storage"
	"github.com/binhbb2204/bookhub/pkg/logger"
	"github.com/spf13/cobra"
)

const (
	// annotationGuard holds a guard.Level name: "auth" or "admin".
	annotationGuard = "guard"
	// annotationStandalone marks commands that run without config or API.
	annotationStandalone = "standalone"
)

var rootCmd = &cobra.Command{
	Use:   "bookhub",
	Short: "BookHub - browse, rate and review books",
	Long: `BookHub is a command-line client for the BookHub book review service.
Browse the catalog, rate and review books, and manage the catalog as an admin.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: teardownApp,
}

func Execute() error {
	return execute(context.Background())
}

// active is the App of the running command. PostRun is skipped when RunE
// fails, so execute closes it as well.
var active *App

func execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if active != nil {
		active.Close()
		active = nil
	}
	return err
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(booksCmd)
	rootCmd.AddCommand(reviewsCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(systemCmd)
}

// App is what a command needs to talk to the API as the current user.
type App struct {
	Config  *config.Config
	Storage storage.Store
	Client  *api.Client
	Session *session.Store
	Log     *logger.Logger

	redirect string
	closers  []func() error
}

// Navigate is called by the API client when a 401 ends the session.
func (a *App) Navigate(route string) {
	a.redirect = route
	if route == api.LoginRoute {
		printInfo("Your session has expired. Please log in again: bookhub auth login")
	}
}

type appKey struct{}

func appFrom(cmd *cobra.Command) *App {
	a, _ := cmd.Context().Value(appKey{}).(*App)
	return a
}

var initForce bool

var initCmd = &cobra.Command{
	Use:         "init",
	Short:       "Initialize BookHub configuration",
	Long:        `Create ~/.bookhub with a default config file and a logs directory.`,
	Annotations: map[string]string{annotationStandalone: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Init(initForce)
		if err != nil {
			printError("Failed to initialize configuration")
			return err
		}
		path, _ := config.GetConfigPath()
		printSuccess("Configuration initialized")
		outf("Config file: %s\n", path)
		outf("API: %s\n", cfg.BaseURL())
		outf("Session storage: %s (%s)\n", cfg.Storage.Path, cfg.Storage.Backend)
		outln("\nTry: bookhub books list")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func isStandalone(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationStandalone] == "true" {
			return true
		}
	}
	return false
}

// guardLevel is the strictest guard annotated on cmd or its parents.
func guardLevel(cmd *cobra.Command) guard.Level {
	level := guard.Public
	for c := cmd; c != nil; c = c.Parent() {
		if l := guard.ParseLevel(c.Annotations[annotationGuard]); l > level {
			level = l
		}
	}
	return level
}

func setupApp(cmd *cobra.Command, args []string) error {
	setOutput(cmd.OutOrStdout())
	if isStandalone(cmd) {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		printError("Configuration not initialized")
		outln("Run: bookhub init")
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		printError("Failed to start BookHub")
		return err
	}
	active = a
	cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))

	level := guardLevel(cmd)
	if level == guard.Public {
		return nil
	}
	if err := a.Session.Validate(cmd.Context()); err != nil && !api.IsUnauthorized(err) {
		a.Log.Warn("session_validation_error", "error", err.Error())
	}
	switch guard.Check(level, a.Session) {
	case guard.RedirectLogin:
		a.Close()
		printError("You must be logged in to do that")
		outln("Run: bookhub auth login --email <email>")
		return errors.New("login required")
	case guard.RedirectUnauthorized:
		a.Close()
		printError("Admin access required")
		outln("Log in with an admin account: bookhub auth login --admin --email <email>")
		return errors.New("admin access required")
	}
	return nil
}

func teardownApp(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	if a == nil {
		return nil
	}
	return a.Close()
}

func newApp(cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	level := logger.ParseLevel(cfg.Logging.Level)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level = logger.ParseLevel(v)
	}
	jsonFormat := cfg.Logging.JSON || os.Getenv("LOG_FORMAT") == "json"
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile()), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(cfg.LogFile(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	a.closers = append(a.closers, logFile.Close)
	logger.Init(level, jsonFormat, logFile)
	a.Log = logger.GetLogger().WithContext("component", "cli")

	switch cfg.Storage.Backend {
	case config.StorageSQLite:
		st, err := storage.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Storage = st
		a.closers = append(a.closers, st.Close)
	default:
		st, err := storage.NewFileStore(cfg.Storage.Path)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Storage = st
	}

	a.Client = api.New(cfg.BaseURL(), a.Storage,
		api.WithTimeout(cfg.Timeout()),
		api.WithLogger(logger.GetLogger()),
		api.WithNavigator(a),
	)
	a.Session = session.NewFromClient(a.Client, a.Storage, session.WithLogger(logger.GetLogger()))
	return a, nil
}

// Close releases files in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
