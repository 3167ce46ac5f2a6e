package imagesrc

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/ppiankov/depicta/internal/geometry"
	"github.com/ppiankov/depicta/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCroppable(t *testing.T) {
	assert.True(t, Croppable("https://upload.example/a/b/Photo.JPG"))
	assert.True(t, Croppable("x.jpeg"))
	assert.True(t, Croppable("x.png"))
	assert.True(t, Croppable("x.gif"))
	assert.False(t, Croppable("x.tif"))
	assert.False(t, Croppable("x.tiff"))
	assert.False(t, Croppable("x.png?width=200"))
}

func TestBestThumbnail(t *testing.T) {
	assert.Equal(t, "b.jpg", BestThumbnail("a.jpg 1x, b.jpg 2x"))
	assert.Equal(t, "b.jpg", BestThumbnail("a.jpg 1x, b.jpg 2x, "))
	assert.Equal(t, "only.png", BestThumbnail("only.png"))
	assert.Equal(t, "", BestThumbnail(""))
}

func TestSubstitute_SwapsAndRestores(t *testing.T) {
	img := &model.Image{Src: "scan.tif", Srcset: "t1.jpg 1x, t2.jpg 2x"}

	sub := Substitute(img)
	assert.True(t, sub.Swapped())
	assert.Equal(t, "t2.jpg", img.Src)

	sub.Restore()
	assert.Equal(t, "scan.tif", img.Src)

	// idempotent
	img.Src = "changed-later.jpg"
	sub.Restore()
	assert.Equal(t, "changed-later.jpg", img.Src)
}

func TestSubstitute_LeavesCroppableAlone(t *testing.T) {
	img := &model.Image{Src: "photo.jpg", Srcset: "t1.jpg 1x"}
	sub := Substitute(img)
	assert.False(t, sub.Swapped())
	assert.Equal(t, "photo.jpg", img.Src)
	sub.Restore()
	assert.Equal(t, "photo.jpg", img.Src)
}

func TestSubstitute_NoThumbnails(t *testing.T) {
	img := &model.Image{Src: "scan.tif"}
	sub := Substitute(img)
	assert.False(t, sub.Swapped())
	assert.Equal(t, "scan.tif", img.Src)
}

func createImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	return img
}

func TestNaturalSize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, createImage(40, 30)))

	size, format, err := NaturalSize(&buf)
	require.NoError(t, err)
	assert.Equal(t, geometry.Size{Width: 40, Height: 30}, size)
	assert.Equal(t, "png", format)

	_, _, err = NaturalSize(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestCropRegion(t *testing.T) {
	img := createImage(400, 200)

	cropped, err := CropRegion(img, geometry.Region{Left: 12.5, Top: 25, Width: 25, Height: 50})
	require.NoError(t, err)
	assert.Equal(t, 100, cropped.Bounds().Dx())
	assert.Equal(t, 100, cropped.Bounds().Dy())

	// top-left pixel of the crop is (50, 50) of the source
	r, g, _, _ := cropped.At(0, 0).RGBA()
	assert.Equal(t, uint32(50), r>>8)
	assert.Equal(t, uint32(50), g>>8)

	_, err = CropRegion(img, geometry.Region{Left: 90, Top: 0, Width: 20, Height: 10})
	assert.Error(t, err)
}

func TestExportRegion(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "out.png")
	require.NoError(t, imaging.Save(createImage(100, 100), src))

	require.NoError(t, ExportRegion(src, dst, geometry.Region{Left: 10, Top: 10, Width: 50, Height: 20}))

	size, _, err := NaturalSizeFile(dst)
	require.NoError(t, err)
	assert.Equal(t, geometry.Size{Width: 50, Height: 20}, size)
}

func TestPalette(t *testing.T) {
	colors := Palette(4)
	require.Len(t, colors, 4)
	for i := 1; i < len(colors); i++ {
		assert.NotEqual(t, colors[0].Hex(), colors[i].Hex())
	}
	assert.Empty(t, Palette(0))
}

func TestDrawOverlay(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 200))
	out := DrawOverlay(img, []Box{
		{Label: "cat", Region: geometry.Region{Left: 10, Top: 10, Width: 50, Height: 50}},
		{Region: geometry.Region{Left: 25, Top: 25, Width: 10, Height: 10}},
	})
	assert.Equal(t, img.Bounds().Size(), out.Bounds().Size())

	// the outline of the first box passes through (20, 40)
	_, _, _, a := out.At(20, 40).RGBA()
	assert.NotZero(t, a)
	// the middle of the small box is untouched
	_, _, _, a = out.At(60, 60).RGBA()
	assert.Zero(t, a)
	// the source is not modified
	_, _, _, a = img.At(20, 40).RGBA()
	assert.Zero(t, a)
}

func TestExportOverlay(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "overlay.png")
	require.NoError(t, imaging.Save(createImage(120, 80), src))

	require.NoError(t, ExportOverlay(src, dst, []Box{{Label: "L-1", Region: geometry.Region{Width: 50, Height: 50}}}))
	size, _, err := NaturalSizeFile(dst)
	require.NoError(t, err)
	assert.Equal(t, geometry.Size{Width: 120, Height: 80}, size)
}
