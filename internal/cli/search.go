package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	searchLimit  int
	searchOffset int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search items to depict",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newSearch(cfg, newLogger(cfg))
		if err != nil {
			return err
		}
		limit := searchLimit
		if limit <= 0 {
			limit = cfg.Search.Limit
		}
		results, err := client.Search(ctx, args[0], limit, searchOffset)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, r := range results {
			fmt.Fprintf(tw, "%s\t%s %s\t%s\n", r.ID, r.Label, r.Match, r.Description)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "results per page (default: search.limit)")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "skip this many results")
}
