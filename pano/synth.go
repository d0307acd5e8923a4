package pano

import (
	"fmt"
)

// SynthesizeEquirectangular assembles six cube faces into a width x height
// equirectangular panorama using nearest-sample lookup. The faces must be
// equal-sized squares.
func SynthesizeEquirectangular(front, back, left, right, up, down *Image, width, height int) (*Image, error) {
	var faces CubeFaces
	faces[FaceFront] = front
	faces[FaceBack] = back
	faces[FaceLeft] = left
	faces[FaceRight] = right
	faces[FaceUp] = up
	faces[FaceDown] = down
	return Synthesize(faces, width, height, Nearest)
}

// Synthesize assembles six cube faces into a width x height equirectangular
// panorama. Each output pixel is turned into a direction, the direction
// selects a face and an in-face position, and the face is sampled with the
// given filter, clamped at the face edges.
func Synthesize(faces CubeFaces, width, height int, mode Interpolation) (*Image, error) {
	if err := faces.Validate(); err != nil {
		return nil, err
	}
	if width < 1 || height < 1 {
		return nil, paramError("output size", [2]int{width, height}, "must be at least 1x1")
	}
	if mode < Nearest || mode > Bicubic {
		return nil, paramError("interpolation", int(mode), "unknown mode")
	}

	size := faces.Size()
	var samplers [NumFaces]sampler
	for _, f := range Faces() {
		samplers[f] = sampler{src: faces[f], mode: mode}
	}

	dst := NewImage(width, height)
	err := parallelRowsWithError(GetParallelConfig(), height, func(j int) error {
		row := dst.Row(j)
		for i := 0; i < width; i++ {
			d := DirectionFromEquirect(float64(i), float64(j), width, height)
			face, a, b := FaceFromDirection(d)
			x, y := FacePixel(a, b, size)
			if err := samplers[face].sample(x, y, row[i*Channels:]); err != nil {
				return fmt.Errorf("synthesize pixel (%d, %d) from %v face: %w", i, j, face, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// ExtractCubeFaces renders six size x size cube faces from an
// equirectangular panorama. It is the inverse of Synthesize: each face pixel
// is turned into a direction on the cube and the panorama is sampled at
// that direction, wrapping across the longitude seam.
func ExtractCubeFaces(p *Image, size int, mode Interpolation) (CubeFaces, error) {
	var faces CubeFaces
	if err := validatePanorama(p); err != nil {
		return faces, err
	}
	if size < 1 {
		return faces, paramError("face size", size, "must be at least 1")
	}
	if mode < Nearest || mode > Bicubic {
		return faces, paramError("interpolation", int(mode), "unknown mode")
	}

	for _, f := range Faces() {
		faces[f] = NewImage(size, size)
	}
	s := sampler{src: p, mode: mode, wrapX: true}

	err := parallelRowsWithError(GetParallelConfig(), NumFaces*size, func(r int) error {
		face := Face(r / size)
		y := r % size
		row := faces[face].Row(y)
		for x := 0; x < size; x++ {
			a, b := FaceCoord(float64(x), float64(y), size)
			i, j := EquirectFromDirection(DirectionFromFace(face, a, b), p.Width, p.Height)
			if err := s.sample(i, j, row[x*Channels:]); err != nil {
				return fmt.Errorf("extract %v face pixel (%d, %d): %w", face, x, y, err)
			}
		}
		return nil
	})
	if err != nil {
		return CubeFaces{}, err
	}
	return faces, nil
}
