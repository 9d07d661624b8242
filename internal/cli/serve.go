package cli

import (
	"github.com/spf13/cobra"

	"github.com/pthm/toybox/internal/app"
	"github.com/pthm/toybox/internal/session"
	"github.com/pthm/toybox/internal/web"
)

type serveFlags struct {
	addr string
	api  string
}

func newServeCmd(e *env) *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser UI",
		Long: `Serve the toy collection as an HTMX page. Every browser gets its own session
with its own view of the collection; idle sessions expire after session.idle_ttl.`,
		Example: `  # Against a local backend on :3001
  toybox serve

  # Custom listen address and backend
  toybox serve --addr :9000 --api http://toys.internal:3001`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			override(cmd.Flags().Changed("addr"), &e.cfg.Server.Addr, f.addr)
			override(cmd.Flags().Changed("api"), &e.cfg.Client.BaseURL, f.api)
			return runServe(cmd, e)
		},
	}

	cmd.Flags().StringVar(&f.addr, "addr", "", "Listen address (default from server.addr)")
	cmd.Flags().StringVar(&f.api, "api", "", "Backend base URL (default from client.base_url)")
	return cmd
}

func runServe(cmd *cobra.Command, e *env) error {
	cfg := e.cfg
	client := e.newClient()

	sessions := session.NewManager(
		func() *app.App { return e.newApp(client, e.logger) },
		session.WithIdleTTL(cfg.Session.IdleTTL),
		session.WithLogger(e.logger),
	)

	var key []byte
	if cfg.Server.PropsKey != "" {
		key = []byte(cfg.Server.PropsKey)
	} else {
		e.logger.Warn("no props key configured, generated a random one; component URLs will not survive a restart")
	}

	srv, err := web.New(sessions, web.Options{
		PropsKey:     key,
		EncryptProps: cfg.Server.EncryptProps,
		CookieName:   cfg.Session.CookieName,
		Title:        cfg.UI.Title,
		ShowErrors:   cfg.UI.ShowErrors,
		Logger:       e.logger,
	})
	if err != nil {
		sessions.Close()
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	e.logger.Info("serving toy collection", "addr", cfg.Server.Addr, "api", client.BaseURL())
	return srv.Run(ctx, cfg.Server.Addr)
}
