package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/depicta/internal/geometry"
	"github.com/ppiankov/depicta/internal/imagesrc"
)

var (
	previewRegion string
	previewOut    string
)

var previewCmd = &cobra.Command{
	Use:   "preview <image-file>",
	Short: "Export a region crop or an overlay of all regions",
	Long: `Preview writes a local image file. With --region it exports that crop;
otherwise it loads the regions of --entity and outlines them on the image.

Example:
  depicta preview Painting.jpg --region pct:10,10,25,25 --out cat.png
  depicta preview Painting.jpg --entity Q42 --out regions.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := args[0]
		size, _, err := imagesrc.NaturalSizeFile(src)
		if err != nil {
			return err
		}

		if previewRegion != "" {
			r, err := geometry.ParseRegionString(previewRegion, size)
			if err != nil {
				return err
			}
			if err := imagesrc.ExportRegion(src, previewOut, r); err != nil {
				return err
			}
			fmt.Printf("✓ Wrote %s (%s)\n", previewOut, r)
			return nil
		}

		ctx, cancel := commandContext()
		defer cancel()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		imageSrc = src
		imageWidth, imageHeight = size.Width, size.Height
		ed, err := a.editor(ctx)
		if err != nil {
			return err
		}

		var boxes []imagesrc.Box
		for _, s := range ed.Snapshot().Overlay {
			boxes = append(boxes, imagesrc.Box{Label: s.DisplayLabel(), Region: *s.Region})
		}
		if err := imagesrc.ExportOverlay(src, previewOut, boxes); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %s (%d regions)\n", previewOut, len(boxes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().StringVar(&previewRegion, "region", "", `region to crop ("pct:l,t,w,h", "full" or "x,y,w,h")`)
	previewCmd.Flags().StringVarP(&previewOut, "out", "o", "preview.png", "output image path")
}
