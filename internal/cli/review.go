package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/depicta/internal/worker"
)

var (
	uploadProperty string
	concurrency    int
)

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve a user's annotations of an entity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		if owner == "" {
			return fmt.Errorf("--owner is required")
		}
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		e, err := a.entity()
		if err != nil {
			return err
		}
		if err := a.gw.Approve(ctx, e.ID, owner); err != nil {
			return err
		}
		fmt.Printf("✓ Approved annotations of %s on %s\n", owner, e.ID)
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Publish approved annotations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		ed, err := a.editor(ctx)
		if err != nil {
			return err
		}
		if _, err := ed.CheckApproval(ctx); err != nil {
			return err
		}
		property := uploadProperty
		if property == "" {
			property = a.cfg.PropertyIDs()[0]
		}
		if err := ed.Upload(ctx, property); err != nil {
			return err
		}
		fmt.Printf("✓ Uploaded annotations of %s\n", ed.Entity().ID)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <file>",
	Short: "Check approval and comment counts for many entities",
	Long: `Status reads one entity id per line and reports, for each, whether the
annotations were approved and how many comments they have.

Example:
  depicta status entities.txt --owner Alice --concurrency 8`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		username := owner
		if username == "" {
			username = a.cfg.Server.Username
		}

		start := time.Now()
		batch := worker.NewStatusBatch(statusChecker{gw: a.gw}, username, concurrency)
		statuses, err := batch.CheckFile(ctx, args[0])
		if err != nil {
			return err
		}

		var approved, failed int
		for _, s := range statuses {
			if s.Error != nil {
				failed++
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", s.EntityID, s.Error)
				continue
			}
			mark := " "
			if s.Approved {
				approved++
				mark = "✓"
			}
			fmt.Printf("%s %s  comments: %d\n", mark, s.EntityID, s.Comments)
		}

		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "  Total:     %d entities\n", len(statuses))
		fmt.Fprintf(os.Stderr, "  Approved:  %d\n", approved)
		fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failed)
		fmt.Fprintf(os.Stderr, "  Elapsed:   %v\n", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(approveCmd, uploadCmd, statusCmd)
	uploadCmd.Flags().StringVar(&uploadProperty, "property", "", "property whose statements leave the lists (default: first configured property)")
	statusCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "number of concurrent checks")
}
