package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/depicta/internal/regions"
)

var cropFlag string

var regionCmd = &cobra.Command{
	Use:   "region",
	Short: "Add, edit or delete the region of a statement",
}

var regionAddCmd = &cobra.Command{
	Use:   "add <statement-id>",
	Short: "Restrict a statement without a region to a rectangle",
	Long: `Add saves a region for a statement. The crop is given in natural image
pixels and stored as percentages.

Example:
  depicta region add L-3 --entity Q42 --image Painting.jpg --crop 120,40,300,200`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRegion(cmd, func(ed *regions.Editor) error {
			return ed.StartAdd(args[0])
		}, args[0])
	},
}

var regionEditCmd = &cobra.Command{
	Use:   "edit <statement-id>",
	Short: "Change the rectangle of a region",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRegion(cmd, func(ed *regions.Editor) error {
			if err := ed.StartEdit(); err != nil {
				return err
			}
			return ed.Select(cmd.Context(), args[0])
		}, args[0])
	},
}

var regionDeleteCmd = &cobra.Command{
	Use:   "delete <statement-id>",
	Short: "Remove the region of a statement",
	Args:  cobra.ExactArgs(1),
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
		if err := ed.StartDelete(); err != nil {
			return err
		}
		if err := ed.Select(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Removed region of %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(regionCmd)
	regionCmd.AddCommand(regionAddCmd, regionEditCmd, regionDeleteCmd)
	for _, c := range []*cobra.Command{regionAddCmd, regionEditCmd} {
		c.Flags().StringVar(&cropFlag, "crop", "", "rectangle in image pixels: x,y,width,height")
		_ = c.MarkFlagRequired("crop")
	}
}

// runRegion opens a session with start, applies --crop and saves.
func runRegion(cmd *cobra.Command, start func(*regions.Editor) error, statementID string) error {
	crop, err := parseCrop(cropFlag)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()
	cmd.SetContext(ctx)

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	ed, err := a.editor(ctx)
	if err != nil {
		return err
	}
	size := ed.Entity().Image.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return fmt.Errorf("image size unknown: pass --width/--height or a local --image")
	}
	if !crop.Within(size) {
		return fmt.Errorf("crop %v lies outside the %.0fx%.0f image", crop, size.Width, size.Height)
	}

	if err := start(ed); err != nil {
		return err
	}
	if err := ed.Adjust(crop); err != nil {
		_ = ed.Cancel()
		return err
	}
	if err := ed.Commit(ctx); err != nil {
		return err
	}

	s, _ := ed.Lookup(statementID)
	fmt.Printf("✓ Saved region %s for %s\n", s.Region, s.DisplayLabel())
	return nil
}
