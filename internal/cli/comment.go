package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "List or post review comments",
}

var commentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List comment threads of an entity",
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
		threads := a.threads(ed)
		if err := loadThreads(ctx, threads); err != nil {
			return err
		}

		all := threads.All()
		if len(all) == 0 {
			fmt.Println("No comments")
			return nil
		}
		for _, th := range all {
			heading := th.Heading
			if heading == "" {
				heading = th.StatementID
			}
			fmt.Printf("%s (%s)\n", heading, th.Placement)
			for _, c := range th.Comments {
				fmt.Printf("  %s: %s\n", c.Author, c.Text)
			}
		}
		return nil
	},
}

var commentPostCmd = &cobra.Command{
	Use:   "post <statement-id> <text>...",
	Short: "Comment on a statement",
	Long: `Post attaches a comment to a statement of the reviewed user (--owner).

Example:
  depicta comment post L-3 "is this the cat or the dog?" --entity Q42 --owner Alice`,
	Args: cobra.MinimumNArgs(2),
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
		username := owner
		if username == "" {
			username = a.cfg.Server.Username
		}
		stored, err := a.threads(ed).Post(ctx, args[0], username, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s commented on %s: %s\n", stored.Author, stored.StatementID, stored.Text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commentCmd)
	commentCmd.AddCommand(commentListCmd, commentPostCmd)
}
