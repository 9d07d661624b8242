// Package cli provides the toybox commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pthm/toybox/internal/app"
	"github.com/pthm/toybox/internal/config"
	"github.com/pthm/toybox/internal/logging"
	"github.com/pthm/toybox/internal/toyapi"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

// env is what a command runs with once flags, environment and the config
// file have been merged.
type env struct {
	flags  globalFlags
	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd builds the toybox command tree.
func NewRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "toybox",
		Short: "toybox manages a toy collection over a REST backend",
		Long: `toybox lists, creates, likes and donates toys stored behind a /toys REST API.

It ships a browser UI (serve), a terminal UI (tui) and a local backend
(backend) that stands in for json-server.

Configuration can be provided via flags, TOYBOX_* environment variables, or a
YAML file passed with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.load(cmd)
		},
	}

	f := &e.flags
	root.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")

	root.AddCommand(
		newServeCmd(e),
		newTUICmd(e),
		newBackendCmd(e),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// load merges the config file, environment and persistent flags.
func (e *env) load(cmd *cobra.Command) error {
	cfg, err := config.Load(e.flags.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	override(flags.Changed("log-level"), &cfg.Log.Level, e.flags.logLevel)
	override(flags.Changed("log-format"), &cfg.Log.Format, e.flags.logFormat)
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.cfg = cfg
	e.logger = e.newLogger(cmd.ErrOrStderr())
	return nil
}

func (e *env) newLogger(w io.Writer) *slog.Logger {
	lc := e.cfg.Logging()
	lc.Output = w
	return logging.New(lc)
}

// override sets *dst to v when the flag was given on the command line.
func override(changed bool, dst *string, v string) {
	if changed {
		*dst = v
	}
}

// newClient returns a backend client for the configured base URL.
func (e *env) newClient() *toyapi.Client {
	return toyapi.New(e.cfg.Client.BaseURL)
}

// newApp mounts a controller against client.
func (e *env) newApp(client toyapi.API, logger *slog.Logger) *app.App {
	return app.New(client,
		app.WithLogger(logger),
		app.WithRequestTimeout(e.cfg.Client.RequestTimeout),
	)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
