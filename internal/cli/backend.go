package cli

import (
	"github.com/spf13/cobra"

	"github.com/pthm/toybox/internal/backend"
	"github.com/pthm/toybox/internal/web"
)

type backendFlags struct {
	addr string
	db   string
	seed bool
}

func newBackendCmd(e *env) *cobra.Command {
	f := &backendFlags{}

	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Run the /toys REST backend",
		Long: `Run a json-server compatible /toys REST backend persisted to a JSON file.

The file holds a top-level "toys" array; other top-level keys are preserved.`,
		Example: `  # Serve db.json on :3001
  toybox backend

  # Start with a few demo toys when the collection is empty
  toybox backend --db /tmp/toys.json --seed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			override(cmd.Flags().Changed("addr"), &e.cfg.Backend.Addr, f.addr)
			override(cmd.Flags().Changed("db"), &e.cfg.Backend.DBPath, f.db)
			return runBackend(cmd, e, f.seed)
		},
	}

	cmd.Flags().StringVar(&f.addr, "addr", "", "Listen address (default from backend.addr)")
	cmd.Flags().StringVar(&f.db, "db", "", "JSON database file (default from backend.db_path)")
	cmd.Flags().BoolVar(&f.seed, "seed", false, "Add demo toys when the collection is empty")
	return cmd
}

func runBackend(cmd *cobra.Command, e *env, seed bool) error {
	cfg := e.cfg

	store, err := backend.Open(cfg.Backend.DBPath)
	if err != nil {
		return err
	}
	if seed {
		n, err := seedDemo(store)
		if err != nil {
			return err
		}
		if n > 0 {
			e.logger.Info("seeded demo toys", "count", n)
		}
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	e.logger.Info("serving toys", "addr", cfg.Backend.Addr, "db", cfg.Backend.DBPath, "toys", len(store.List()))
	return web.Serve(ctx, backend.NewServer(store, e.logger), cfg.Backend.Addr, e.logger)
}

var demoToys = []backend.Record{
	{"name": "Woody", "image": "http://www.pngmart.com/files/3/Toy-Story-Woody-PNG-Photos.png", "likes": 8},
	{"name": "Buzz Lightyear", "image": "http://www.pngmart.com/files/6/Buzz-Lightyear-PNG-Transparent-Picture.png", "likes": 14},
	{"name": "Mr. Potato Head", "image": "https://vignette.wikia.nocookie.net/universe-of-smash-bros-lawl/images/d/d8/Mr-potato-head-toy-story.gif", "likes": 3},
	{"name": "Rex", "image": "http://umich.edu/~chemh215/W11HTML/SSG5/ssg6/html/Website/DinoPics/Rex.png", "likes": 1},
}

// seedDemo creates the demo toys in an empty store and reports how many were
// added.
func seedDemo(store *backend.Store) (int, error) {
	if len(store.List()) > 0 {
		return 0, nil
	}
	for _, r := range demoToys {
		if _, err := store.Create(r); err != nil {
			return 0, err
		}
	}
	return len(demoToys), nil
}
