package pano

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Lat-long parameterization used for perspective extraction.
//
// Longitude is atan2(x, z), so longitude 0 looks down +Z (the centre column
// of the panorama) and longitude π/2 looks down +X. Latitude is asin(y) of
// the unit direction; +Y maps towards the last row.
//
// Column x = (lon/2π + 0.5)·(W-1) and row y = (lat/π + 0.5)·(H-1). These
// coordinates are fractional and unclamped; the resampler wraps columns and
// clamps rows.

// LonLatFromDirection converts a direction to longitude and latitude in
// radians. The direction need not be normalized. The zero vector maps to
// (0, 0).
func LonLatFromDirection(d r3.Vec) (lon, lat float64) {
	n := r3.Norm(d)
	if n == 0 {
		return 0, 0
	}
	lon = math.Atan2(d.X/n, d.Z/n)
	lat = math.Asin(clampUnit(d.Y / n))
	return lon, lat
}

// DirectionFromLonLat converts longitude and latitude to a unit direction.
func DirectionFromLonLat(lon, lat float64) r3.Vec {
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)
	return r3.Vec{
		X: sinLon * cosLat,
		Y: sinLat,
		Z: cosLon * cosLat,
	}
}

// PixelFromLonLat maps longitude and latitude to fractional source
// coordinates in a width x height equirectangular image.
func PixelFromLonLat(lon, lat float64, width, height int) (x, y float64) {
	x = (lon/(2*math.Pi) + 0.5) * float64(width-1)
	y = (lat/math.Pi + 0.5) * float64(height-1)
	return x, y
}

// LonLatFromPixel is the inverse of PixelFromLonLat.
func LonLatFromPixel(x, y float64, width, height int) (lon, lat float64) {
	if width > 1 {
		lon = (x/float64(width-1) - 0.5) * 2 * math.Pi
	}
	if height > 1 {
		lat = (y/float64(height-1) - 0.5) * math.Pi
	}
	return lon, lat
}

// PixelFromDirection maps a direction straight to fractional source
// coordinates.
func PixelFromDirection(d r3.Vec, width, height int) (x, y float64) {
	lon, lat := LonLatFromDirection(d)
	return PixelFromLonLat(lon, lat, width, height)
}

// Polar parameterization used for cube-face synthesis.
//
// Pixel (i, j) of a W x H panorama has u = i/W and v = j/H, polar angle
// θ = v·π measured from +Y and azimuth φ = u·2π. Row 0 looks up (+Y), the
// centre column looks down +Z and the first column looks down -Z.

// DirectionFromEquirect returns the unit direction for panorama pixel
// (i, j) under the polar parameterization.
func DirectionFromEquirect(i, j float64, width, height int) r3.Vec {
	theta := j / float64(height) * math.Pi
	phi := i / float64(width) * 2 * math.Pi
	sinTheta, cosTheta := math.Sincos(theta)
	sinPhi, cosPhi := math.Sincos(phi)
	return r3.Vec{
		X: sinPhi * -sinTheta,
		Y: cosTheta,
		Z: cosPhi * -sinTheta,
	}
}

// EquirectFromDirection is the inverse of DirectionFromEquirect. The column
// is in [0, W) and the row in [0, H]. The zero vector maps to the top-left.
func EquirectFromDirection(d r3.Vec, width, height int) (i, j float64) {
	n := r3.Norm(d)
	if n == 0 {
		return 0, 0
	}
	theta := math.Acos(clampUnit(d.Y / n))
	phi := math.Atan2(-d.X/n, -d.Z/n)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	i = phi / (2 * math.Pi) * float64(width)
	if i >= float64(width) {
		i = 0
	}
	j = theta / math.Pi * float64(height)
	return i, j
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
