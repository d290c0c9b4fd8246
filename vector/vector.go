// Package vector provides the fixed-size point/vector/matrix primitives
// shared by every numerical package in omega3d: Vec3 for positions,
// strengths and velocities, Mat3 for velocity-gradient tensors, and Mat4
// for rigid body transforms.
package vector

import (
	"fmt"
	"math"
)

// Vec3 is the storage-float 3-vector used throughout the solver (spec's
// S, D=3). All free functions are pure; the pointer-receiver methods
// mutate in place and are used on the hot per-step update paths.
type Vec3 [3]float32

// Vec2 is used for panel tangential-strength and boundary-condition pairs.
type Vec2 [2]float32

// Mat3 is a row-major 3x3 matrix, used for velocity-gradient tensors.
type Mat3 [9]float32

// Mat4 is a row-major 4x4 homogeneous transform, used by Body poses.
type Mat4 [16]float32

func NewVec3(a float32) *Vec3 { return &Vec3{a, a, a} }

func Zero3() Vec3 { return Vec3{} }

func Abs(a Vec3) Vec3 {
	a[0] = float32(math.Abs(float64(a[0])))
	a[1] = float32(math.Abs(float64(a[1])))
	a[2] = float32(math.Abs(float64(a[2])))
	return a
}

func Dot(a, b Vec3) float32 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func (v *Vec3) Dot(b Vec3) float32 { return v[0]*b[0] + v[1]*b[1] + v[2]*b[2] }

func Scale(v Vec3, a float32) Vec3 { return Vec3{v[0] * a, v[1] * a, v[2] * a} }

func (v *Vec3) Scale(a float32) *Vec3 {
	v[0] *= a
	v[1] *= a
	v[2] *= a
	return v
}

func (v *Vec3) Clear() *Vec3 {
	v[0], v[1], v[2] = 0, 0, 0
	return v
}

func Add(v, b Vec3) Vec3 { return Vec3{v[0] + b[0], v[1] + b[1], v[2] + b[2]} }

func Sub(v, b Vec3) Vec3 { return Vec3{v[0] - b[0], v[1] - b[1], v[2] - b[2]} }

func (v *Vec3) Add(b Vec3) *Vec3 {
	v[0] += b[0]
	v[1] += b[1]
	v[2] += b[2]
	return v
}

func (v *Vec3) Sub(b Vec3) *Vec3 {
	v[0] -= b[0]
	v[1] -= b[1]
	v[2] -= b[2]
	return v
}

func Cross(a, b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func Length(a Vec3) float32 {
	return float32(math.Sqrt(float64(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])))
}

func (v *Vec3) Length() float32 { return Length(*v) }

func LengthSq(a Vec3) float32 { return a[0]*a[0] + a[1]*a[1] + a[2]*a[2] }

func Normalize(a Vec3) Vec3 {
	l := Length(a)
	if l == 0 {
		return Vec3{}
	}
	return Vec3{a[0] / l, a[1] / l, a[2] / l}
}

func (v *Vec3) Normalize() *Vec3 {
	n := Normalize(*v)
	*v = n
	return v
}

// Proj returns the projection of a onto n.
func Proj(a, n Vec3) Vec3 {
	nn := Normalize(n)
	return Scale(nn, Dot(a, nn))
}

// ProjPlane returns a with its component along n removed.
func ProjPlane(a, n Vec3) Vec3 {
	return Sub(a, Proj(a, n))
}

func (v *Vec3) Reflect(n Vec3) *Vec3 {
	nn := Normalize(n)
	b := Scale(nn, Dot(nn, *v)*2.0)
	r := Sub(*v, b)
	*v = r
	return v
}

func Reflect(v, n Vec3) Vec3 {
	nn := Normalize(n)
	b := Scale(nn, Dot(nn, v)*2.0)
	return Sub(v, b)
}

func Equals(v, a Vec3) bool {
	return v[0] == a[0] && v[1] == a[1] && v[2] == a[2]
}

func (v *Vec3) Distance(a Vec3) float32 { return Length(Sub(*v, a)) }

// Outer returns the outer product a (x) b as a row-major Mat3. The core
// velocity-gradient code expands its B*(d (x) d) term inline rather than
// calling it.
func Outer(a, b Vec3) Mat3 {
	return Mat3{
		a[0] * b[0], a[0] * b[1], a[0] * b[2],
		a[1] * b[0], a[1] * b[1], a[1] * b[2],
		a[2] * b[0], a[2] * b[1], a[2] * b[2],
	}
}

func (m *Mat3) Add(b Mat3) *Mat3 {
	for i := range m {
		m[i] += b[i]
	}
	return m
}

func (m Mat3) Scale(s float32) Mat3 {
	for i := range m {
		m[i] *= s
	}
	return m
}

// MulVec returns m*v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

func Identity3() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

func Identity4() Mat4 {
	return Mat4{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

// Mul returns m*o.
func (m Mat4) Mul(o Mat4) Mat4 {
	var r Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var s float32
			for k := 0; k < 4; k++ {
				s += m[i*4+k] * o[k*4+j]
			}
			r[i*4+j] = s
		}
	}
	return r
}

func (m Mat4) Transpose() Mat4 {
	var r Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			r[j*4+i] = m[i*4+j]
		}
	}
	return r
}

// Transform applies m to the point v (w=1), returning the transformed point.
func (m Mat4) Transform(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
	}
}

// TransformDir applies only the rotational part of m to v (no translation).
func (m Mat4) TransformDir(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2],
	}
}

// Translation builds a pure-translation Mat4.
func Translation(t Vec3) Mat4 {
	m := Identity4()
	m[3], m[7], m[11] = t[0], t[1], t[2]
	return m
}

// AxisAngle builds a rotation Mat4 around a unit axis by angle radians
// (Rodrigues' formula), used by Body.Pose for prescribed rigid rotations.
func AxisAngle(axis Vec3, angle float64) Mat4 {
	a := Normalize(axis)
	s := float32(math.Sin(angle))
	c := float32(math.Cos(angle))
	t := 1 - c
	x, y, z := a[0], a[1], a[2]
	m := Identity4()
	m[0] = t*x*x + c
	m[1] = t*x*y - s*z
	m[2] = t*x*z + s*y
	m[4] = t*x*y + s*z
	m[5] = t*y*y + c
	m[6] = t*y*z - s*x
	m[8] = t*x*z - s*y
	m[9] = t*y*z + s*x
	m[10] = t*z*z + c
	return m
}

// Determinant3 is the determinant of the rotational 3x3 block of m.
func (m Mat4) Determinant3() float32 {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[4], m[5], m[6]
	g, h, i := m[8], m[9], m[10]
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}

func isEpsilon(a, b float32) bool {
	return math.Abs(float64(b-a)) <= 1e-7
}

func (a Vec3) String() string {
	return fmt.Sprintf("[%f, %f, %f]", a[0], a[1], a[2])
}

func (a Vec2) String() string {
	return fmt.Sprintf("[%f, %f]", a[0], a[1])
}

func (a Mat4) String() string {
	return fmt.Sprintf("%v", [16]float32(a))
}
