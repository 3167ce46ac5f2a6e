package imagesrc

import (
	"fmt"
	"image"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ppiankov/depicta/internal/geometry"
)

// Box is one labelled region to draw on an overlay preview.
type Box struct {
	Label  string
	Region geometry.Region
}

// Palette returns n distinct outline colors.
func Palette(n int) []colorful.Color {
	out := make([]colorful.Color, n)
	for i := range out {
		out[i] = colorful.Hcl(float64(i)*360/float64(max(n, 1)), 0.7, 0.6).Clamped()
	}
	return out
}

// DrawOverlay outlines every box on a copy of img. Larger boxes are drawn
// first so smaller ones stay visible on top, the same stacking the viewer uses.
func DrawOverlay(img image.Image, boxes []Box) image.Image {
	bounds := img.Bounds()
	size := geometry.Size{Width: float64(bounds.Dx()), Height: float64(bounds.Dy())}

	ordered := append([]Box(nil), boxes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Region.ZIndex() < ordered[j].Region.ZIndex()
	})
	colors := Palette(len(ordered))

	dc := gg.NewContextForImage(img)
	lineWidth := max(2, size.Width/300)
	for i, b := range ordered {
		c := geometry.FromPercentageRegion(b.Region, size)
		dc.SetColor(colors[i])
		dc.SetLineWidth(lineWidth)
		dc.DrawRectangle(c.X, c.Y, c.Width, c.Height)
		dc.Stroke()
		if b.Label != "" {
			dc.DrawStringAnchored(b.Label, c.X+lineWidth+2, c.Y+lineWidth+2, 0, 1)
		}
	}
	return dc.Image()
}

// ExportOverlay draws boxes on the image at src and writes the result to dst.
func ExportOverlay(src, dst string, boxes []Box) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	if err := imaging.Save(DrawOverlay(img, boxes), dst); err != nil {
		return fmt.Errorf("save overlay: %w", err)
	}
	return nil
}
