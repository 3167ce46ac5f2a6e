package geometry

import (
	"errors"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRegionString_Example(t *testing.T) {
	r := ToPercentageRegion(Crop{X: 50, Y: 50, Width: 100, Height: 100}, Size{Width: 400, Height: 400})
	assert.Equal(t, "pct:12.5,12.5,25,25", ToRegionString(r))
	assert.Equal(t, "pct:12.5,12.5,25,25", r.String())
}

func TestToPercentageRegion_Rounds(t *testing.T) {
	r := ToPercentageRegion(Crop{X: 1, Y: 2, Width: 1, Height: 1}, Size{Width: 3, Height: 7})
	assert.Equal(t, 33.3333, r.Left)
	assert.Equal(t, 28.5714, r.Top)
	assert.Equal(t, "pct:33.3333,28.5714,33.3333,14.2857", r.String())
}

func TestRoundTrip_WithinOnePixel(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		size := Size{Width: float64(1 + rng.Intn(8000)), Height: float64(1 + rng.Intn(8000))}
		w := float64(1 + rng.Intn(int(size.Width)))
		h := float64(1 + rng.Intn(int(size.Height)))
		c := Crop{
			X:      float64(rng.Intn(int(size.Width-w) + 1)),
			Y:      float64(rng.Intn(int(size.Height-h) + 1)),
			Width:  w,
			Height: h,
		}
		require.True(t, c.Within(size))

		back := FromPercentageRegion(ToPercentageRegion(c, size), size)
		assert.LessOrEqual(t, math.Abs(back.X-c.X), 1.0, "x for %+v on %+v", c, size)
		assert.LessOrEqual(t, math.Abs(back.Y-c.Y), 1.0, "y for %+v on %+v", c, size)
		assert.LessOrEqual(t, math.Abs(back.Width-c.Width), 1.0, "w for %+v on %+v", c, size)
		assert.LessOrEqual(t, math.Abs(back.Height-c.Height), 1.0, "h for %+v on %+v", c, size)
	}
}

func TestRegionString_Shape(t *testing.T) {
	pattern := regexp.MustCompile(`^pct:[0-9.]+,[0-9.]+,[0-9.]+,[0-9.]+$`)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		size := Size{Width: float64(1 + rng.Intn(5000)), Height: float64(1 + rng.Intn(5000))}
		w := float64(1 + rng.Intn(int(size.Width)))
		h := float64(1 + rng.Intn(int(size.Height)))
		c := Crop{
			X:      float64(rng.Intn(int(size.Width-w) + 1)),
			Y:      float64(rng.Intn(int(size.Height-h) + 1)),
			Width:  w,
			Height: h,
		}
		s := ToRegionString(ToPercentageRegion(c, size))
		require.Regexp(t, pattern, s)

		fields := strings.Split(strings.TrimPrefix(s, "pct:"), ",")
		var v [4]float64
		for j, f := range fields {
			parsed, err := strconv.ParseFloat(f, 64)
			require.NoError(t, err)
			v[j] = parsed
		}
		assert.True(t, v[0] >= 0 && v[0] < 100, "left %v", v[0])
		assert.True(t, v[1] >= 0 && v[1] < 100, "top %v", v[1])
		assert.True(t, v[2] > 0 && v[2] <= 100, "width %v", v[2])
		assert.True(t, v[3] > 0 && v[3] <= 100, "height %v", v[3])
	}
}

func TestFromPercentageRegion_RoundsToPixels(t *testing.T) {
	c := FromPercentageRegion(Region{Left: 12.5, Top: 33.3333, Width: 25, Height: 10.01}, Size{Width: 401, Height: 300})
	assert.Equal(t, Crop{X: 50, Y: 100, Width: 100, Height: 30}, c)
}

func TestParseRegionString(t *testing.T) {
	size := Size{Width: 400, Height: 200}

	r, err := ParseRegionString("pct:12.5,12.5,25,25", size)
	require.NoError(t, err)
	assert.Equal(t, Region{Left: 12.5, Top: 12.5, Width: 25, Height: 25}, r)

	r, err = ParseRegionString("full", size)
	require.NoError(t, err)
	assert.Equal(t, Region{Width: 100, Height: 100}, r)

	r, err = ParseRegionString("40,20,100,50", size)
	require.NoError(t, err)
	assert.Equal(t, Region{Left: 10, Top: 10, Width: 25, Height: 25}, r)

	for _, bad := range []string{"", "pct:1,2,3", "pct:a,b,c,d", "pct:1,2,0,4", "1,2,3", "pct:-1,2,3,4"} {
		_, err := ParseRegionString(bad, size)
		assert.True(t, errors.Is(err, ErrInvalidRegion), "expected ErrInvalidRegion for %q, got %v", bad, err)
	}

	_, err = ParseRegionString("1,2,3,4", Size{})
	assert.ErrorIs(t, err, ErrInvalidRegion)
}

func TestRegion_ZIndex(t *testing.T) {
	small := Region{Width: 10, Height: 10}
	large := Region{Width: 50, Height: 50}
	assert.Equal(t, 10000, small.ZIndex())
	assert.Greater(t, small.ZIndex(), large.ZIndex())
	assert.Equal(t, 0, Region{}.ZIndex())
}

func TestCrop_Empty(t *testing.T) {
	assert.True(t, Crop{}.Empty())
	assert.True(t, Crop{Width: 10}.Empty())
	assert.False(t, Crop{Width: 1, Height: 1}.Empty())
}
