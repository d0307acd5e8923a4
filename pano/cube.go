package pano

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Face identifies one face of the cube map.
type Face int

// Cube faces. Front looks down +Z, right down +X and up down +Y.
const (
	FaceFront Face = iota
	FaceRight
	FaceBack
	FaceLeft
	FaceUp
	FaceDown

	// NumFaces is the number of cube faces.
	NumFaces = 6
)

// String returns the name of the face.
func (f Face) String() string {
	switch f {
	case FaceFront:
		return "front"
	case FaceRight:
		return "right"
	case FaceBack:
		return "back"
	case FaceLeft:
		return "left"
	case FaceUp:
		return "up"
	case FaceDown:
		return "down"
	default:
		return "unknown"
	}
}

// Faces lists every face in index order.
func Faces() [NumFaces]Face {
	return [NumFaces]Face{FaceFront, FaceRight, FaceBack, FaceLeft, FaceUp, FaceDown}
}

// CubeFaces holds one square image per face, indexed by Face.
type CubeFaces [NumFaces]*Image

// Size returns the edge length shared by the faces after Validate succeeds.
func (c *CubeFaces) Size() int {
	if c[0] == nil {
		return 0
	}
	return c[0].Width
}

// Validate checks that all six faces are present, square and equal-sized.
func (c *CubeFaces) Validate() error {
	size := -1
	for _, f := range Faces() {
		img := c[f]
		if img == nil {
			return paramError(f.String()+" face", nil, "image is nil")
		}
		if img.Width != img.Height {
			return paramError(f.String()+" face size", [2]int{img.Width, img.Height}, "face must be square")
		}
		if img.Width < 1 {
			return paramError(f.String()+" face size", img.Width, "face must be at least 1x1")
		}
		if len(img.Pix) < img.Width*img.Height*Channels {
			return paramError(f.String()+" face pixels", len(img.Pix), "buffer shorter than width*height*3")
		}
		if size < 0 {
			size = img.Width
		} else if img.Width != size {
			return paramError(f.String()+" face size", img.Width, "all faces must share one size")
		}
	}
	return nil
}

// FaceFromDirection selects the cube face hit by direction d and returns
// the in-face plane coordinates (a, b), each in [-1, 1]. a runs left to
// right and b top to bottom as the face is viewed from inside the cube.
//
// The direction is scaled so its largest component has magnitude 1. On
// edges and corners, where several components reach ±1, the first match
// in the order right, left, up, down, front, back wins. The zero vector
// is reported as the centre of the front face.
func FaceFromDirection(d r3.Vec) (face Face, a, b float64) {
	m := math.Max(math.Abs(d.X), math.Max(math.Abs(d.Y), math.Abs(d.Z)))
	if m == 0 {
		return FaceFront, 0, 0
	}
	xa, ya, za := d.X/m, d.Y/m, d.Z/m

	switch {
	case xa == 1:
		return FaceRight, -za, -ya
	case xa == -1:
		return FaceLeft, za, -ya
	case ya == 1:
		return FaceUp, xa, za
	case ya == -1:
		return FaceDown, xa, -za
	case za == 1:
		return FaceFront, xa, -ya
	case za == -1:
		return FaceBack, -xa, -ya
	}

	// Unreachable for finite input: dividing by the largest magnitude
	// yields exactly ±1 in that component. NaN input lands here.
	return FaceFront, 0, 0
}

// DirectionFromFace is the inverse of FaceFromDirection's plane mapping.
// The result lies on the cube surface, not the unit sphere.
func DirectionFromFace(face Face, a, b float64) r3.Vec {
	switch face {
	case FaceRight:
		return r3.Vec{X: 1, Y: -b, Z: -a}
	case FaceLeft:
		return r3.Vec{X: -1, Y: -b, Z: a}
	case FaceUp:
		return r3.Vec{X: a, Y: 1, Z: b}
	case FaceDown:
		return r3.Vec{X: a, Y: -1, Z: -b}
	case FaceBack:
		return r3.Vec{X: -a, Y: -b, Z: -1}
	default:
		return r3.Vec{X: a, Y: -b, Z: 1}
	}
}

// FacePixel rescales plane coordinates in [-1, 1] to fractional pixel
// coordinates in a size x size face, clamped into [0, size-1].
func FacePixel(a, b float64, size int) (x, y float64) {
	last := float64(size - 1)
	x = math.Min(math.Abs((a+1)/2*last), last)
	y = math.Min(math.Abs((b+1)/2*last), last)
	return x, y
}

// FaceCoord is the inverse of FacePixel for in-range pixels.
// A 1x1 face maps every pixel to the centre.
func FaceCoord(x, y float64, size int) (a, b float64) {
	if size <= 1 {
		return 0, 0
	}
	last := float64(size - 1)
	return x/last*2 - 1, y/last*2 - 1
}
