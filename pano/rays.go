package pano

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// RayField holds one camera-space ray per output pixel, row-major.
// Rays are pinhole back-projections with z == 1 and are not normalized.
type RayField struct {
	Width  int
	Height int
	Rays   []r3.Vec
}

// At returns the ray for output pixel (x, y).
func (f *RayField) At(x, y int) r3.Vec {
	return f.Rays[y*f.Width+x]
}

// Intrinsics returns the pinhole intrinsic matrix K for an output of the
// given size. fovVertical of 0 reuses the horizontal focal length.
func Intrinsics(width, height int, fov, fovVertical float64) *mat.Dense {
	fx := 0.5 * float64(width) / math.Tan(0.5*radians(fov))
	fy := fx
	if fovVertical != 0 {
		fy = 0.5 * float64(height) / math.Tan(0.5*radians(fovVertical))
	}
	cx := (float64(width) - 1) / 2
	cy := (float64(height) - 1) / 2
	return mat.NewDense(3, 3, []float64{
		fx, 0, cx,
		0, fy, cy,
		0, 0, 1,
	})
}

// NewRayField back-projects every pixel of a width x height sensor through
// the inverse intrinsic matrix. fov and fovVertical are in degrees.
func NewRayField(width, height int, fov, fovVertical float64) (*RayField, error) {
	if width < 1 || height < 1 {
		return nil, paramError("ray field size", [2]int{width, height}, "must be at least 1x1")
	}
	if err := validateFOV("fov", fov); err != nil {
		return nil, err
	}
	if fovVertical != 0 {
		if err := validateFOV("fov_vertical", fovVertical); err != nil {
			return nil, err
		}
	}

	var kinv mat.Dense
	if err := kinv.Inverse(Intrinsics(width, height, fov, fovVertical)); err != nil {
		// A large condition number still yields a usable inverse.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: intrinsic matrix: %v", ErrInvariantViolation, err)
		}
		Diagf("intrinsic matrix for %dx%d fov=%g is ill-conditioned: %v", width, height, fov, err)
	}

	var k [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			k[i*3+j] = kinv.At(i, j)
		}
	}

	field := &RayField{
		Width:  width,
		Height: height,
		Rays:   make([]r3.Vec, width*height),
	}
	for y := 0; y < height; y++ {
		fy := float64(y)
		row := field.Rays[y*width : (y+1)*width]
		for x := range row {
			fx := float64(x)
			row[x] = r3.Vec{
				X: k[0]*fx + k[1]*fy + k[2],
				Y: k[3]*fx + k[4]*fy + k[5],
				Z: k[6]*fx + k[7]*fy + k[8],
			}
		}
	}
	return field, nil
}
