// Package geometry converts crop rectangles in image pixels into percentage
// regions and their IIIF "pct:" encoding, and back.
package geometry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Precision is the number of decimal places kept for percentages.
// The overlay style and the region string are both built from values rounded
// to this precision, so the two never disagree.
const Precision = 4

// ErrInvalidRegion is returned when a region string cannot be parsed.
var ErrInvalidRegion = errors.New("invalid region")

// Crop is a rectangle in natural image pixels, as reported by a crop tool.
type Crop struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether no area has been selected.
func (c Crop) Empty() bool {
	return c.Width <= 0 || c.Height <= 0
}

// Within reports whether the crop lies fully inside an image of the given size.
func (c Crop) Within(s Size) bool {
	return c.X >= 0 && c.Y >= 0 && c.X+c.Width <= s.Width && c.Y+c.Height <= s.Height
}

// Size holds the natural pixel dimensions of an image.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Region is a rectangle expressed as percentages of the natural image size.
type Region struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// String returns the IIIF encoding of the region.
func (r Region) String() string {
	return ToRegionString(r)
}

// ZIndex orders overlapping regions so that smaller ones stack on top.
func (r Region) ZIndex() int {
	area := r.Width * r.Height
	if area <= 0 {
		return 0
	}
	return int(1_000_000 / area)
}

// Round applies the display rounding rule to a percentage.
func Round(v float64) float64 {
	p := math.Pow10(Precision)
	return math.Round(v*p) / p
}

// ToPercentageRegion converts a pixel crop into a rounded percentage region.
// The size must be finite and non-zero.
func ToPercentageRegion(c Crop, s Size) Region {
	return Region{
		Left:   Round(100 * c.X / s.Width),
		Top:    Round(100 * c.Y / s.Height),
		Width:  Round(100 * c.Width / s.Width),
		Height: Round(100 * c.Height / s.Height),
	}
}

// ToRegionString encodes a region as "pct:left,top,width,height".
func ToRegionString(r Region) string {
	return "pct:" + strings.Join([]string{
		formatPercent(r.Left),
		formatPercent(r.Top),
		formatPercent(r.Width),
		formatPercent(r.Height),
	}, ",")
}

// FromPercentageRegion converts a region back to whole pixels, used to seed an
// edit session with the current rectangle.
func FromPercentageRegion(r Region, s Size) Crop {
	return Crop{
		X:      math.Round(r.Left * s.Width / 100),
		Y:      math.Round(r.Top * s.Height / 100),
		Width:  math.Round(r.Width * s.Width / 100),
		Height: math.Round(r.Height * s.Height / 100),
	}
}

// ParseRegionString decodes "pct:l,t,w,h", "full" or the pixel form "x,y,w,h".
// The pixel form needs the natural size to be converted into percentages.
func ParseRegionString(s string, size Size) (Region, error) {
	s = strings.TrimSpace(s)
	if s == "full" {
		return Region{Left: 0, Top: 0, Width: 100, Height: 100}, nil
	}

	if rest, ok := strings.CutPrefix(s, "pct:"); ok {
		v, err := parseFour(rest)
		if err != nil {
			return Region{}, fmt.Errorf("%w %q: %v", ErrInvalidRegion, s, err)
		}
		r := Region{Left: v[0], Top: v[1], Width: v[2], Height: v[3]}
		if r.Width <= 0 || r.Height <= 0 {
			return Region{}, fmt.Errorf("%w %q: empty area", ErrInvalidRegion, s)
		}
		return r, nil
	}

	v, err := parseFour(s)
	if err != nil {
		return Region{}, fmt.Errorf("%w %q: %v", ErrInvalidRegion, s, err)
	}
	if size.Width <= 0 || size.Height <= 0 {
		return Region{}, fmt.Errorf("%w %q: pixel region needs the image size", ErrInvalidRegion, s)
	}
	c := Crop{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	if c.Empty() {
		return Region{}, fmt.Errorf("%w %q: empty area", ErrInvalidRegion, s)
	}
	return ToPercentageRegion(c, size), nil
}

func parseFour(s string) ([4]float64, error) {
	var out [4]float64
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return out, fmt.Errorf("expected 4 fields, got %d", len(parts))
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return out, fmt.Errorf("field %d out of range", i)
		}
		out[i] = f
	}
	return out, nil
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
