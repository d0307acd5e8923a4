package pano

import (
	"fmt"
	"math"
	"strings"
)

// Interpolation selects the resampling filter.
type Interpolation int

const (
	// Nearest picks the closest source pixel.
	Nearest Interpolation = iota
	// Bilinear blends the four surrounding source pixels.
	Bilinear
	// Bicubic blends the surrounding 4x4 source pixels with a Keys kernel.
	Bicubic
)

// String returns the name of the interpolation mode.
func (i Interpolation) String() string {
	switch i {
	case Nearest:
		return "nearest"
	case Bilinear:
		return "bilinear"
	case Bicubic:
		return "bicubic"
	default:
		return "unknown"
	}
}

// ParseInterpolation parses a mode name (case-insensitive).
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nearest":
		return Nearest, nil
	case "bilinear", "linear":
		return Bilinear, nil
	case "bicubic", "cubic":
		return Bicubic, nil
	}
	return 0, paramError("interpolation", s, "want nearest, bilinear or bicubic")
}

// MarshalText implements encoding.TextMarshaler.
func (i Interpolation) MarshalText() ([]byte, error) {
	if i < Nearest || i > Bicubic {
		return nil, paramError("interpolation", int(i), "unknown mode")
	}
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Interpolation) UnmarshalText(text []byte) error {
	mode, err := ParseInterpolation(string(text))
	if err != nil {
		return err
	}
	*i = mode
	return nil
}

// bicubicA is the Keys kernel parameter used by common image libraries.
const bicubicA = -0.75

// wrapIndex returns index wrapped to [0, size).
func wrapIndex(index, size int) int {
	index %= size
	if index < 0 {
		index += size
	}
	return index
}

// clampIndex returns index clamped to [0, size-1].
func clampIndex(index, size int) int {
	if index < 0 {
		return 0
	}
	if index >= size {
		return size - 1
	}
	return index
}

// sampler reads filtered colors from one source image. Rows are always
// clamped; columns wrap when wrapX is set (the longitude seam) and are
// clamped otherwise (cube faces).
type sampler struct {
	src   *Image
	mode  Interpolation
	wrapX bool
}

// offset resolves lattice point (x, y) to an index into src.Pix.
func (s *sampler) offset(x, y int) (int, error) {
	w, h := s.src.Width, s.src.Height
	if s.wrapX {
		x = wrapIndex(x, w)
	} else {
		x = clampIndex(x, w)
	}
	y = clampIndex(y, h)
	if x < 0 || x >= w || y < 0 || y >= h {
		Opsf("sample index (%d, %d) escaped %dx%d source", x, y, w, h)
		return 0, &IndexError{X: x, Y: y, Width: w, Height: h}
	}
	return (y*w + x) * Channels, nil
}

// sample writes the filtered color at fractional (u, v) into out[0:3].
func (s *sampler) sample(u, v float64, out []uint8) error {
	if !isFinite(u) || !isFinite(v) {
		Opsf("non-finite sample coordinate (%g, %g)", u, v)
		return &IndexError{U: u, V: v, Width: s.src.Width, Height: s.src.Height}
	}
	switch s.mode {
	case Nearest:
		return s.nearest(u, v, out)
	case Bilinear:
		return s.bilinear(u, v, out)
	case Bicubic:
		return s.bicubic(u, v, out)
	}
	return fmt.Errorf("%w: unknown interpolation %d", ErrInvalidParameter, int(s.mode))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (s *sampler) nearest(u, v float64, out []uint8) error {
	i, err := s.offset(int(math.Floor(u+0.5)), int(math.Floor(v+0.5)))
	if err != nil {
		return err
	}
	copy(out[:Channels], s.src.Pix[i:i+Channels])
	return nil
}

func (s *sampler) bilinear(u, v float64, out []uint8) error {
	fx0, fy0 := math.Floor(u), math.Floor(v)
	x0, y0 := int(fx0), int(fy0)
	dx, dy := u-fx0, v-fy0

	i00, err := s.offset(x0, y0)
	if err != nil {
		return err
	}
	i10, err := s.offset(x0+1, y0)
	if err != nil {
		return err
	}
	i01, err := s.offset(x0, y0+1)
	if err != nil {
		return err
	}
	i11, err := s.offset(x0+1, y0+1)
	if err != nil {
		return err
	}

	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	pix := s.src.Pix
	for c := 0; c < Channels; c++ {
		sum := w00*float64(pix[i00+c]) + w10*float64(pix[i10+c]) +
			w01*float64(pix[i01+c]) + w11*float64(pix[i11+c])
		out[c] = toUint8(sum)
	}
	return nil
}

func (s *sampler) bicubic(u, v float64, out []uint8) error {
	fx0, fy0 := math.Floor(u), math.Floor(v)
	x0, y0 := int(fx0), int(fy0)
	wx := cubicWeights(u - fx0)
	wy := cubicWeights(v - fy0)

	var sum [Channels]float64
	pix := s.src.Pix
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			off, err := s.offset(x0+i-1, y0+j-1)
			if err != nil {
				return err
			}
			w := wx[i] * wy[j]
			for c := 0; c < Channels; c++ {
				sum[c] += w * float64(pix[off+c])
			}
		}
	}
	for c := 0; c < Channels; c++ {
		out[c] = toUint8(sum[c])
	}
	return nil
}

// cubicWeights returns the Keys kernel weights for the lattice points at
// offsets -1, 0, 1, 2 from floor(t), where t is the fractional part.
func cubicWeights(t float64) [4]float64 {
	const a = bicubicA
	x0 := t + 1
	x1 := t
	x2 := 1 - t
	x3 := 2 - t
	w0 := ((a*x0-5*a)*x0+8*a)*x0 - 4*a
	w1 := ((a+2)*x1-(a+3))*x1*x1 + 1
	w2 := ((a+2)*x2-(a+3))*x2*x2 + 1
	w3 := ((a*x3-5*a)*x3+8*a)*x3 - 4*a
	return [4]float64{w0, w1, w2, w3}
}

// toUint8 rounds to nearest and saturates to [0, 255].
func toUint8(v float64) uint8 {
	v = math.Floor(v + 0.5)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// Remap resamples an equirectangular source through a coordinate map.
// Columns wrap across the longitude seam and rows are clamped at the poles.
// The result has the map's dimensions.
func Remap(src *Image, m *CoordMap, mode Interpolation) (*Image, error) {
	if src == nil || src.Width < 1 || src.Height < 1 || len(src.Pix) < src.Width*src.Height*Channels {
		return nil, paramError("source", nil, "image is empty or truncated")
	}
	if m == nil || m.Width < 1 || m.Height < 1 || len(m.X) < m.Width*m.Height || len(m.Y) < m.Width*m.Height {
		return nil, paramError("coordinate map", nil, "map is empty or truncated")
	}
	dst := NewImage(m.Width, m.Height)
	if err := remapInto(GetParallelConfig(), src, m, mode, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

func remapInto(config ParallelConfig, src *Image, m *CoordMap, mode Interpolation, dst *Image) error {
	if mode < Nearest || mode > Bicubic {
		return paramError("interpolation", int(mode), "unknown mode")
	}
	s := sampler{src: src, mode: mode, wrapX: true}
	return parallelRowsWithError(config, m.Height, func(y int) error {
		row := dst.Row(y)
		base := y * m.Width
		for x := 0; x < m.Width; x++ {
			u, v := float64(m.X[base+x]), float64(m.Y[base+x])
			if err := s.sample(u, v, row[x*Channels:]); err != nil {
				return fmt.Errorf("output pixel (%d, %d): %w", x, y, err)
			}
		}
		return nil
	})
}
