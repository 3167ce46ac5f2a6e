package imagesrc

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/ppiankov/depicta/internal/geometry"
)

// CropRegion cuts the region out of img.
func CropRegion(img image.Image, r geometry.Region) (image.Image, error) {
	bounds := img.Bounds()
	size := geometry.Size{Width: float64(bounds.Dx()), Height: float64(bounds.Dy())}
	c := geometry.FromPercentageRegion(r, size)
	if c.Empty() {
		return nil, fmt.Errorf("region %s is empty at %dx%d", r, bounds.Dx(), bounds.Dy())
	}
	if !c.Within(size) {
		return nil, fmt.Errorf("region %s outside image bounds %dx%d", r, bounds.Dx(), bounds.Dy())
	}

	rect := image.Rect(int(c.X), int(c.Y), int(c.X+c.Width), int(c.Y+c.Height)).Add(bounds.Min)
	return imaging.Crop(img, rect), nil
}

// ExportRegion crops the region from the image at src and writes it to dst.
// The output format follows dst's extension.
func ExportRegion(src, dst string, r geometry.Region) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}

	cropped, err := CropRegion(img, r)
	if err != nil {
		return err
	}

	if err := imaging.Save(cropped, dst); err != nil {
		return fmt.Errorf("save crop: %w", err)
	}
	return nil
}
