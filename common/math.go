package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Up is the default up axis.
var Up = mgl64.Vec3{0, 1, 0}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// IsFinite reports whether every component of v is finite.
func IsFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// IsFiniteQuat reports whether every component of q is finite.
func IsFiniteQuat(q mgl64.Quat) bool {
	if math.IsNaN(q.W) || math.IsInf(q.W, 0) {
		return false
	}
	return IsFinite(q.V)
}

// NaN returns a vector with every component set to NaN.
func NaN() mgl64.Vec3 {
	n := math.NaN()
	return mgl64.Vec3{n, n, n}
}

// Direction normalizes v. It reports false for zero-length or non-finite input.
func Direction(v mgl64.Vec3) (mgl64.Vec3, bool) {
	if !IsFinite(v) {
		return mgl64.Vec3{}, false
	}
	l := v.Len()
	if l < 1e-9 {
		return mgl64.Vec3{}, false
	}
	return v.Mul(1 / l), true
}

// MulElem multiplies a and b component-wise.
func MulElem(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// RotationZ returns the rotation of angle radians about the Z axis.
func RotationZ(angle float64) mgl64.Quat {
	return mgl64.QuatRotate(angle, mgl64.Vec3{0, 0, 1})
}

// AngleZ extracts the rotation about the Z axis from q. Only meaningful for
// rotations confined to the XY plane.
func AngleZ(q mgl64.Quat) float64 {
	return 2 * math.Atan2(q.V[2], q.W)
}

// AlignY returns the rotation taking +Y onto up. Zero or non-finite up yields
// the identity.
func AlignY(up mgl64.Vec3) mgl64.Quat {
	dir, ok := Direction(up)
	if !ok {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatBetweenVectors(Up, dir).Normalize()
}
