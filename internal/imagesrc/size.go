package imagesrc

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"

	"github.com/ppiankov/depicta/internal/geometry"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// NaturalSize reads only the image header and returns its pixel dimensions and format name.
func NaturalSize(r io.Reader) (geometry.Size, string, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return geometry.Size{}, "", fmt.Errorf("decode image config: %w", err)
	}
	return geometry.Size{Width: float64(cfg.Width), Height: float64(cfg.Height)}, format, nil
}

// NaturalSizeFile is NaturalSize for a file on disk.
func NaturalSizeFile(path string) (geometry.Size, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return geometry.Size{}, "", fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()
	return NaturalSize(f)
}
