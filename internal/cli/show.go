package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/depicta/internal/regions"
	"github.com/ppiankov/depicta/internal/render"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the regions, statements and comments of an entity",
	Long: `Show loads the statements of an entity, its comment threads and the
approval state, and prints them.

Example:
  depicta show --entity Q42 --image Painting.jpg
  depicta show --entity Q42 --owner Alice`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	e, err := a.entity()
	if err != nil {
		return err
	}
	ed := regions.New(e, a.gw, regions.Options{Username: owner, Properties: a.cfg.PropertyIDs(), Logger: a.log})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ed.Load(gctx) })
	g.Go(func() error {
		_, err := ed.CheckApproval(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	// threads are placed against the loaded statements
	threads := a.threads(ed)
	if err := loadThreads(ctx, threads); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	return render.Write(os.Stdout, render.Page{
		View:       ed.Snapshot(),
		Threads:    threads.All(),
		Properties: a.cfg.Properties,
	})
}
