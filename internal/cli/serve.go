package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/depicta/internal/server"
	"github.com/ppiankov/depicta/internal/store"
)

var (
	serveListen  string
	serveOrigins []string
	noLabels     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local annotation server",
	Long: `Serve keeps local statements, regions, comments and approvals in
sqlite and answers the annotation API.

Example:
  depicta serve --listen :8080
  DEPICTA_STORE_DSN=/var/lib/depicta.sqlite depicta serve`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)
		defer log.Sync()

		st, err := store.Open(cfg.Store.DSN, nil, log)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		opts := server.Options{
			Store:      st,
			Properties: cfg.PropertyIDs(),
			Domains:    []string{cfg.Server.Domain, "www.wikidata.org", "commons.wikimedia.org"},
			Language:   cfg.Search.Language,
			Origins:    serveOrigins,
			Logger:     log,
		}
		if !noLabels {
			labels, err := newSearch(cfg, log)
			if err != nil {
				return err
			}
			opts.Labels = labels
		}

		addr := cfg.Store.Listen
		if serveListen != "" {
			addr = serveListen
		}
		fmt.Fprintf(os.Stderr, "Serving annotations on %s (store: %s)\n", addr, cfg.Store.DSN)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.New(opts).Run(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default: store.listen)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", nil, "browser origins allowed to call the API")
	serveCmd.Flags().BoolVar(&noLabels, "no-labels", false, "do not look up item labels; use item ids")
}
