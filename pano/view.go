package pano

import (
	"math"
)

// View describes a perspective view into a panorama.
//
// Angles are in degrees. Yaw turns the view right (positive) or left,
// Pitch tilts it up (positive) or down, and Roll rotates it about the
// viewing axis. FOV is the horizontal field of view; FOVVertical is the
// vertical one, or 0 to derive it from FOV with square pixels.
//
// View is comparable: two views select the same projection geometry iff
// they are ==.
type View struct {
	FOV         float64 `json:"fov"`
	FOVVertical float64 `json:"fov_vertical,omitempty"`
	Yaw         float64 `json:"yaw"`
	Pitch       float64 `json:"pitch"`
	Roll        float64 `json:"roll"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
}

// DefaultView returns a 90 degree view straight ahead at 1080x540.
func DefaultView() View {
	return View{
		FOV:    90,
		Width:  1080,
		Height: 540,
	}
}

// Normalize returns v with yaw wrapped into [-180, 180], roll wrapped into
// [0, 360) and pitch clamped to [-90, 90]. Field of view and size are left
// untouched; Validate rejects them if they are out of range.
func (v View) Normalize() View {
	v.Yaw = WrapYaw(v.Yaw)
	v.Roll = WrapRoll(v.Roll)
	v.Pitch = ClampPitch(v.Pitch)
	return v
}

// WrapYaw maps an angle in degrees into [-180, 180].
func WrapYaw(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg < -180 {
		deg += 360
	}
	return deg
}

// WrapRoll maps an angle in degrees into [0, 360).
func WrapRoll(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// ClampPitch clamps an angle in degrees to [-90, 90]. Non-finite values
// are returned unchanged so Validate can reject them.
func ClampPitch(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return deg
	}
	return math.Max(-90, math.Min(90, deg))
}

// Validate checks that the view can drive a projection.
func (v View) Validate() error {
	if err := validateFOV("fov", v.FOV); err != nil {
		return err
	}
	if v.FOVVertical != 0 {
		if err := validateFOV("fov_vertical", v.FOVVertical); err != nil {
			return err
		}
	}
	for _, a := range []struct {
		name  string
		value float64
	}{{"yaw", v.Yaw}, {"pitch", v.Pitch}, {"roll", v.Roll}} {
		if math.IsNaN(a.value) || math.IsInf(a.value, 0) {
			return paramError(a.name, a.value, "must be finite")
		}
	}
	if v.Width < 1 {
		return paramError("width", v.Width, "must be at least 1")
	}
	if v.Height < 1 {
		return paramError("height", v.Height, "must be at least 1")
	}
	return nil
}

func validateFOV(name string, fov float64) error {
	if math.IsNaN(fov) || fov <= 0 || fov >= 180 {
		return paramError(name, fov, "must be strictly between 0 and 180 degrees")
	}
	return nil
}

// rayKey selects a ray field. Rays do not depend on orientation.
type rayKey struct {
	fov, fovVertical float64
	width, height    int
}

// rotationKey selects a rotation matrix.
type rotationKey struct {
	yaw, pitch, roll float64
}

// mapKey selects a coordinate map: the full view plus the source size.
type mapKey struct {
	view                View
	srcWidth, srcHeight int
}

func (v View) rayKey() rayKey {
	return rayKey{fov: v.FOV, fovVertical: v.FOVVertical, width: v.Width, height: v.Height}
}

func (v View) rotationKey() rotationKey {
	return rotationKey{yaw: v.Yaw, pitch: v.Pitch, roll: v.Roll}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
