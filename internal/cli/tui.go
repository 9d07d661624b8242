package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/toybox/internal/logging"
	"github.com/pthm/toybox/internal/tui"
)

type tuiFlags struct {
	api     string
	logFile string
}

func newTUICmd(e *env) *cobra.Command {
	f := &tuiFlags{}

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse the collection in the terminal",
		Long: `Browse the toy collection in the terminal.

Keys: a toggles the creation form, l likes the selected toy, d donates
(deletes) it, q quits. In the form, tab moves between fields, enter creates
the toy and esc closes the form.

The terminal owns stderr while the UI runs, so logs are discarded unless
--log-file is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			override(cmd.Flags().Changed("api"), &e.cfg.Client.BaseURL, f.api)

			logger, closeLog, err := f.logger(e)
			if err != nil {
				return err
			}
			defer closeLog()

			a := e.newApp(e.newClient(), logger)
			defer a.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			return tui.Run(ctx, a, tui.Options{
				Title:      e.cfg.UI.Title,
				ShowErrors: e.cfg.UI.ShowErrors,
			})
		},
	}

	cmd.Flags().StringVar(&f.api, "api", "", "Backend base URL (default from client.base_url)")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "Append logs to this file")
	return cmd
}

func (f *tuiFlags) logger(e *env) (*slog.Logger, func(), error) {
	if f.logFile == "" {
		return logging.Nop(), func() {}, nil
	}
	file, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return e.newLogger(file), func() { _ = file.Close() }, nil
}
