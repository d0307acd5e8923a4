package pano_test

import (
	"context"
	"image/color"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatten360/go-flatten360/pano"
	"github.com/flatten360/go-flatten360/panoutil"
)

func newEngine(t *testing.T, mode pano.Interpolation, v pano.View) *pano.Engine {
	t.Helper()
	eng := pano.NewEngine(pano.Config{Interpolation: mode, Parallel: pano.DefaultParallelConfig()})
	require.NoError(t, eng.Configure(v))
	return eng
}

// smoothPanorama encodes latitude in red and longitude in green and blue.
// Every channel is continuous across the longitude seam.
func smoothPanorama(width, height int) *pano.Image {
	return panoutil.FromLonLat(width, height, lonLatColor)
}

func lonLatColor(lon, lat float64) color.RGBA {
	return color.RGBA{
		R: uint8(math.Round(255 * (lat/math.Pi + 0.5))),
		G: uint8(math.Round(127.5 + 127.5*math.Cos(lon))),
		B: uint8(math.Round(127.5 + 127.5*math.Sin(lon))),
		A: 0xff,
	}
}

func TestEngineCentreMapping(t *testing.T) {
	src := pano.NewImage(361, 181)
	tests := []struct {
		name             string
		yaw, pitch, roll float64
		x, y             float64
	}{
		{"straight ahead", 0, 0, 0, 180, 90},
		{"yaw right", 90, 0, 0, 270, 90},
		{"yaw left", -90, 0, 0, 90, 90},
		{"pitch up", 0, 45, 0, 180, 45},
		{"pitch down", 0, -45, 0, 180, 135},
		{"roll keeps centre", 0, 0, 90, 180, 90},
		{"yaw wraps", 450, 0, 0, 270, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newEngine(t, pano.Bilinear, pano.View{FOV: 90, Yaw: tt.yaw, Pitch: tt.pitch, Roll: tt.roll, Width: 3, Height: 3})
			_, err := eng.Convert(src)
			require.NoError(t, err)

			m := eng.CoordMap()
			require.NotNil(t, m)
			x, y := m.At(1, 1)
			assert.InDelta(t, tt.x, float64(x), 1e-3, "column")
			assert.InDelta(t, tt.y, float64(y), 1e-3, "row")
		})
	}
}

func TestEngineCacheReuse(t *testing.T) {
	src := smoothPanorama(64, 32)
	eng := newEngine(t, pano.Bilinear, pano.View{FOV: 70, Yaw: 20, Width: 16, Height: 12})
	assert.Equal(t, pano.CacheStale, eng.State())

	first, err := eng.Convert(src)
	require.NoError(t, err)
	m := eng.CoordMap()
	second, err := eng.Convert(src)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached conversion differs (-first +second):\n%s", diff)
	}
	assert.Same(t, m, eng.CoordMap(), "coordinate map was rebuilt")
	assert.Equal(t, pano.CacheValid, eng.State())
	assert.Equal(t, pano.Stats{RayBuilds: 1, RotationBuilds: 1, MapBuilds: 1, Hits: 1, Frames: 2}, eng.Stats())

	// Orientation change: rotation and map only.
	require.NoError(t, eng.Configure(pano.View{FOV: 70, Yaw: 40, Width: 16, Height: 12}))
	_, err = eng.Convert(src)
	require.NoError(t, err)
	assert.NotSame(t, m, eng.CoordMap())
	assert.Equal(t, pano.Stats{RayBuilds: 1, RotationBuilds: 2, MapBuilds: 2, Hits: 1, Frames: 3}, eng.Stats())

	// An equivalent unnormalized view hits the cache.
	require.NoError(t, eng.Configure(pano.View{FOV: 70, Yaw: 400, Width: 16, Height: 12}))
	_, err = eng.Convert(src)
	require.NoError(t, err)
	assert.Equal(t, pano.Stats{RayBuilds: 1, RotationBuilds: 2, MapBuilds: 2, Hits: 2, Frames: 4}, eng.Stats())

	// Output size change: rays and map only.
	require.NoError(t, eng.Configure(pano.View{FOV: 70, Yaw: 40, Width: 20, Height: 12}))
	out, err := eng.Convert(src)
	require.NoError(t, err)
	assert.Equal(t, 20, out.Width)
	assert.Equal(t, pano.Stats{RayBuilds: 2, RotationBuilds: 2, MapBuilds: 3, Hits: 2, Frames: 5}, eng.Stats())

	// Source size change: map only.
	_, err = eng.Convert(smoothPanorama(128, 64))
	require.NoError(t, err)
	assert.Equal(t, pano.Stats{RayBuilds: 2, RotationBuilds: 2, MapBuilds: 4, Hits: 2, Frames: 6}, eng.Stats())

	// Filter change keeps the map.
	require.NoError(t, eng.SetInterpolation(pano.Bicubic))
	_, err = eng.Convert(smoothPanorama(128, 64))
	require.NoError(t, err)
	assert.Equal(t, pano.Stats{RayBuilds: 2, RotationBuilds: 2, MapBuilds: 4, Hits: 3, Frames: 7}, eng.Stats())

	eng.Reset()
	assert.Equal(t, pano.CacheStale, eng.State())
	assert.Nil(t, eng.CoordMap())
	_, err = eng.Convert(src)
	require.NoError(t, err)
	assert.Equal(t, pano.Stats{RayBuilds: 3, RotationBuilds: 3, MapBuilds: 5, Hits: 3, Frames: 8}, eng.Stats())
}

func TestEngineConfigureInvalid(t *testing.T) {
	v := pano.View{FOV: 60, Yaw: -30, Width: 8, Height: 8}
	eng := newEngine(t, pano.Nearest, v)

	for _, bad := range []pano.View{
		{FOV: 0, Width: 8, Height: 8},
		{FOV: 180, Width: 8, Height: 8},
		{FOV: 90, Width: 0, Height: 8},
		{FOV: 90, Yaw: math.NaN(), Width: 8, Height: 8},
		{FOV: 90, Pitch: math.Inf(1), Width: 8, Height: 8},
		{FOV: 90, Pitch: math.NaN(), Width: 8, Height: 8},
	} {
		err := eng.Configure(bad)
		assert.ErrorIs(t, err, pano.ErrInvalidParameter, "Configure(%+v)", bad)
	}
	assert.Equal(t, v, eng.View(), "rejected views must not replace the current one")
	assert.Equal(t, pano.CacheStale, eng.State(), "Configure must not build anything")
}

func TestEngineNoView(t *testing.T) {
	eng := pano.NewEngine(pano.DefaultConfig())
	_, err := eng.Convert(pano.NewImage(8, 4))
	assert.ErrorIs(t, err, pano.ErrNoView)
	assert.ErrorIs(t, err, pano.ErrInvalidParameter)
	assert.Equal(t, pano.Stats{}, eng.Stats())
}

func TestEngineInvalidPanorama(t *testing.T) {
	eng := newEngine(t, pano.Bilinear, pano.View{FOV: 90, Width: 4, Height: 4})
	for name, p := range map[string]*pano.Image{
		"nil":       nil,
		"1x1":       pano.NewImage(1, 1),
		"one row":   pano.NewImage(8, 1),
		"truncated": {Width: 8, Height: 4, Pix: make([]uint8, 10)},
	} {
		_, err := eng.Convert(p)
		assert.ErrorIs(t, err, pano.ErrInvalidParameter, name)
	}
	assert.Equal(t, pano.Stats{}, eng.Stats(), "no work before validation")
}

func TestEngineRowGradient(t *testing.T) {
	src := panoutil.RowGradient(360, 180)
	eng := newEngine(t, pano.Bilinear, pano.View{FOV: 90, Width: 2, Height: 2})

	out, err := eng.Convert(src)
	require.NoError(t, err)
	require.Equal(t, 2, out.Width)
	require.Equal(t, 2, out.Height)

	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			r, g, b := out.RGB(x, y)
			assert.True(t, r == g && g == b, "pixel (%d, %d) = (%d, %d, %d) is not gray", x, y, r, g, b)
		}
	}
	top, _, _ := out.RGB(0, 0)
	topRight, _, _ := out.RGB(1, 0)
	bottom, _, _ := out.RGB(0, 1)
	bottomRight, _, _ := out.RGB(1, 1)
	assert.Equal(t, top, topRight)
	assert.Equal(t, bottom, bottomRight)

	// Row 89.5 of the source holds the equator value 127.5.
	assert.Less(t, float64(top), 127.5)
	assert.Greater(t, float64(bottom), 127.5)
	assert.InDelta(t, 127.5, (float64(top)+float64(bottom))/2, 255.0/179)
	assert.InDelta(t, 94, float64(top), 1)
	assert.InDelta(t, 161, float64(bottom), 1)
}

func TestEngineMatchesDirectSampling(t *testing.T) {
	src := smoothPanorama(720, 360)
	v := pano.View{FOV: 80, Yaw: 30, Pitch: 20, Roll: 10, Width: 32, Height: 24}
	eng := newEngine(t, pano.Bilinear, v)

	out, err := eng.Convert(src)
	require.NoError(t, err)

	rays, err := pano.NewRayField(v.Width, v.Height, v.FOV, 0)
	require.NoError(t, err)
	rot := pano.RotationMatrix(v.Yaw, v.Pitch, v.Roll)
	want := pano.NewImage(v.Width, v.Height)
	for y := 0; y < v.Height; y++ {
		for x := 0; x < v.Width; x++ {
			lon, lat := pano.LonLatFromDirection(rot.MulVec(rays.At(x, y)))
			c := lonLatColor(lon, lat)
			want.SetRGB(x, y, c.R, c.G, c.B)
		}
	}

	ok, diffs := panoutil.Compare(out, want, panoutil.CompareOptions{Tolerance: 3})
	assert.True(t, ok, "%v", diffs)
}

func TestEngineRoundTrip(t *testing.T) {
	const pw, ph = 720, 360
	src := smoothPanorama(pw, ph)
	v := pano.View{FOV: 90, Width: 96, Height: 96}
	eng := newEngine(t, pano.Bilinear, v)

	flat, err := eng.Convert(src)
	require.NoError(t, err)

	// Project every panorama pixel inside the view back onto the sensor
	// and compare with the panorama itself.
	k := pano.Intrinsics(v.Width, v.Height, v.FOV, 0)
	fx, fy, cx, cy := k.At(0, 0), k.At(1, 1), k.At(0, 2), k.At(1, 2)
	checked := 0
	worst := 0
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			d := pano.DirectionFromLonLat(pano.LonLatFromPixel(float64(x), float64(y), pw, ph))
			if d.Z <= 0 {
				continue
			}
			u := fx*d.X/d.Z + cx
			w := fy*d.Y/d.Z + cy
			if u < 1 || w < 1 || u > float64(v.Width-2) || w > float64(v.Height-2) {
				continue
			}
			got := bilinearAt(flat, u, w)
			r, g, b := src.RGB(x, y)
			for c, want := range [3]uint8{r, g, b} {
				worst = max(worst, absInt(int(got[c])-int(want)))
			}
			checked++
		}
	}
	require.Greater(t, checked, 1000, "too few panorama pixels inside the view")
	assert.LessOrEqual(t, worst, 4, "round trip error")
}

// bilinearAt samples img at fractional (u, v), which must be interior.
func bilinearAt(img *pano.Image, u, v float64) [3]uint8 {
	x0, y0 := int(math.Floor(u)), int(math.Floor(v))
	dx, dy := u-float64(x0), v-float64(y0)
	var out [3]uint8
	for c := 0; c < pano.Channels; c++ {
		p := func(x, y int) float64 { return float64(img.Pix[img.PixOffset(x, y)+c]) }
		s := (1-dx)*(1-dy)*p(x0, y0) + dx*(1-dy)*p(x0+1, y0) +
			(1-dx)*dy*p(x0, y0+1) + dx*dy*p(x0+1, y0+1)
		out[c] = uint8(math.Round(s))
	}
	return out
}

func TestSeamContinuity(t *testing.T) {
	const w, h = 50, 25
	src := pano.NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w-1; x++ {
			src.SetRGB(x, y, uint8(x*37+y*91), uint8(x*x+y), uint8(y*13))
		}
		// The last column repeats the first: both are longitude ±180.
		r, g, b := src.RGB(0, y)
		src.SetRGB(w-1, y, r, g, b)
	}

	m := pano.NewCoordMap(2, 1)
	for i, lon := range []float64{math.Pi - 1e-9, -math.Pi + 1e-9} {
		x, y := pano.PixelFromDirection(pano.DirectionFromLonLat(lon, 0.3), w, h)
		m.Set(i, 0, float32(x), float32(y))
	}

	for _, mode := range []pano.Interpolation{pano.Nearest, pano.Bilinear, pano.Bicubic} {
		out, err := pano.Remap(src, m, mode)
		require.NoError(t, err)
		assert.Equal(t, out.At(0, 0), out.At(1, 0), "%v: seam samples differ", mode)
	}
}

func TestEngineSeamView(t *testing.T) {
	src := smoothPanorama(720, 360)
	eng := newEngine(t, pano.Bilinear, pano.View{FOV: 90, Yaw: 180, Width: 64, Height: 64})

	out, err := eng.Convert(src)
	require.NoError(t, err)

	// Looking at longitude 180 degrees, cos(lon) is -1.
	g := out.At(31, 31).(color.RGBA).G
	assert.LessOrEqual(t, g, uint8(3))

	maxStep := 0
	for y := 0; y < out.Height; y++ {
		row := out.Row(y)
		for i := pano.Channels; i < len(row); i++ {
			maxStep = max(maxStep, absInt(int(row[i])-int(row[i-pano.Channels])))
		}
	}
	assert.LessOrEqual(t, maxStep, 8, "discontinuity across the seam")
}

func TestEngineConvertAll(t *testing.T) {
	colors := []color.RGBA{{R: 200}, {G: 100}, {B: 50}, {R: 1, G: 2, B: 3}}
	frames := make([]*pano.Image, len(colors))
	for i, c := range colors {
		frames[i] = pano.NewImage(32, 16)
		frames[i].Fill(c.R, c.G, c.B)
	}

	eng := newEngine(t, pano.Bicubic, pano.View{FOV: 100, Pitch: 30, Width: 8, Height: 6})
	out, err := eng.ConvertAll(context.Background(), frames)
	require.NoError(t, err)
	require.Len(t, out, len(frames))

	for i, c := range colors {
		want := pano.NewImage(8, 6)
		want.Fill(c.R, c.G, c.B)
		if diff := cmp.Diff(want, out[i]); diff != "" {
			t.Errorf("frame %d mismatch (-want +got):\n%s", i, diff)
		}
	}
	assert.Equal(t, pano.Stats{RayBuilds: 1, RotationBuilds: 1, MapBuilds: 1, Frames: 4}, eng.Stats())

	empty, err := eng.ConvertAll(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, empty)

	_, err = eng.ConvertAll(context.Background(), []*pano.Image{frames[0], pano.NewImage(16, 8)})
	assert.ErrorIs(t, err, pano.ErrInvalidParameter)
}

func TestEngineCancelled(t *testing.T) {
	eng := newEngine(t, pano.Bilinear, pano.View{FOV: 90, Width: 4, Height: 4})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.ConvertContext(ctx, pano.NewImage(8, 4))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = eng.ConvertAll(ctx, []*pano.Image{pano.NewImage(8, 4), pano.NewImage(8, 4)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(0), eng.Stats().Frames)
}

func TestEngineConvertAllEmpty(t *testing.T) {
	unconfigured := pano.NewEngine(pano.DefaultConfig())
	out, err := unconfigured.ConvertAll(context.Background(), nil)
	assert.ErrorIs(t, err, pano.ErrNoView)
	assert.Nil(t, out)

	eng := newEngine(t, pano.Bilinear, pano.View{FOV: 90, Width: 4, Height: 4})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err = eng.ConvertAll(ctx, []*pano.Image{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
	assert.Equal(t, pano.Stats{}, eng.Stats())
}

func TestEngineConcurrentConvert(t *testing.T) {
	src := smoothPanorama(128, 64)
	eng := newEngine(t, pano.Bilinear, pano.View{FOV: 75, Yaw: -60, Width: 24, Height: 16})
	want, err := eng.Convert(src)
	require.NoError(t, err)

	const n = 8
	results := make([]*pano.Image, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = eng.Convert(src)
		}()
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		if diff := cmp.Diff(want, results[i]); diff != "" {
			t.Errorf("goroutine %d mismatch (-want +got):\n%s", i, diff)
		}
	}
	assert.Equal(t, uint64(n), eng.Stats().Hits)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func BenchmarkEngineConvert(b *testing.B) {
	src := pano.NewImage(2048, 1024)
	eng := pano.NewEngine(pano.DefaultConfig())
	if err := eng.Configure(pano.DefaultView()); err != nil {
		b.Fatal(err)
	}
	for i := 0; i < b.N; i++ {
		if _, err := eng.Convert(src); err != nil {
			b.Fatal(err)
		}
	}
}
