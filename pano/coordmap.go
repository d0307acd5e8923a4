package pano

// CoordMap holds, for every output pixel, the fractional source coordinate
// it samples. X and Y are parallel row-major slices.
type CoordMap struct {
	Width  int
	Height int
	X      []float32
	Y      []float32
}

// NewCoordMap allocates a zeroed map of the given size.
func NewCoordMap(width, height int) *CoordMap {
	if width <= 0 || height <= 0 {
		return &CoordMap{}
	}
	return &CoordMap{
		Width:  width,
		Height: height,
		X:      make([]float32, width*height),
		Y:      make([]float32, width*height),
	}
}

// At returns the source coordinate for output pixel (x, y).
func (m *CoordMap) At(x, y int) (sx, sy float32) {
	i := y*m.Width + x
	return m.X[i], m.Y[i]
}

// Set stores the source coordinate for output pixel (x, y).
func (m *CoordMap) Set(x, y int, sx, sy float32) {
	i := y*m.Width + x
	m.X[i] = sx
	m.Y[i] = sy
}

// BuildCoordMap rotates every ray of the field by rot and maps it into a
// srcWidth x srcHeight equirectangular image.
func BuildCoordMap(rays *RayField, rot Mat3, srcWidth, srcHeight int) *CoordMap {
	return buildCoordMap(GetParallelConfig(), rays, rot, srcWidth, srcHeight)
}

func buildCoordMap(config ParallelConfig, rays *RayField, rot Mat3, srcWidth, srcHeight int) *CoordMap {
	m := NewCoordMap(rays.Width, rays.Height)
	parallelRows(config, rays.Height, func(y int) {
		base := y * rays.Width
		for x := 0; x < rays.Width; x++ {
			sx, sy := PixelFromDirection(rot.MulVec(rays.Rays[base+x]), srcWidth, srcHeight)
			m.X[base+x] = float32(sx)
			m.Y[base+x] = float32(sy)
		}
	})
	return m
}
