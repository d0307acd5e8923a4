package pano

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Mat3 is a 3x3 matrix stored in row-major order.
type Mat3 [9]float64

// World axes used by the rotation composer.
var (
	axisX = r3.Vec{X: 1}
	axisY = r3.Vec{Y: 1}
	axisZ = r3.Vec{Z: 1}
)

// Identity3 returns the 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// At returns the element at row i, column j.
func (m Mat3) At(i, j int) float64 {
	return m[i*3+j]
}

// MulVec returns m·v.
func (m Mat3) MulVec(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		Y: m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		Z: m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// Mul returns m·n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i*3+j] = m[i*3]*n[j] + m[i*3+1]*n[3+j] + m[i*3+2]*n[6+j]
		}
	}
	return out
}

// Transpose returns the transpose of m, which for a rotation is its inverse.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// axisAngle returns the rotation by angle radians about axis as a matrix.
// Columns are the images of the world basis vectors.
func axisAngle(axis r3.Vec, angle float64) Mat3 {
	if angle == 0 {
		return Identity3()
	}
	rot := r3.NewRotation(angle, axis)
	cx := rot.Rotate(axisX)
	cy := rot.Rotate(axisY)
	cz := rot.Rotate(axisZ)
	return Mat3{
		cx.X, cy.X, cz.X,
		cx.Y, cy.Y, cz.Y,
		cx.Z, cy.Z, cz.Z,
	}
}

// RotationMatrix composes yaw, pitch and roll (degrees) into a single
// rotation R = Rroll·Rpitch·Ryaw.
//
// Yaw turns about the world Y axis. Pitch turns about the X axis as carried
// by the yaw, and roll about the Z axis as carried by yaw and pitch, so the
// camera looks left/right, then up/down, then tilts its head.
func RotationMatrix(yaw, pitch, roll float64) Mat3 {
	ry := axisAngle(axisY, radians(yaw))
	rx := axisAngle(ry.MulVec(axisX), radians(pitch))
	rz := axisAngle(rx.MulVec(ry.MulVec(axisZ)), radians(roll))
	return rz.Mul(rx).Mul(ry)
}
