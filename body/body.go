// Package body implements the rigid-body pose/velocity provider shared by
// reactive surfaces and bodybound collections (spec 3.2, 4.D, 5). A Body
// is a pure function of time: it is shared-immutable during a step, so
// many surfaces may reference one without any synchronization concern.
package body

import "omega3d.dev/omega3d/vector"

// Motion describes a prescribed rigid motion: linear velocity plus a
// rotation about an axis through the origin (translated by Center), at a
// constant angular rate. Either part may be zero for stationary or
// purely-translating bodies.
type Motion struct {
	LinearVelocity vector.Vec3
	Center         vector.Vec3
	Axis           vector.Vec3
	AngularRate    float64 // radians/second
}

// Body is a node in a kinematic tree: its own prescribed Motion composed
// with its Parent's pose, evaluated at an arbitrary time t.
type Body struct {
	Name   string
	Motion Motion
	Parent *Body
}

// New builds a root (parentless) body with the given prescribed motion.
func New(name string, m Motion) *Body {
	return &Body{Name: name, Motion: m}
}

// Child attaches a new body whose motion composes with b's current pose.
func (b *Body) Child(name string, m Motion) *Body {
	return &Body{Name: name, Motion: m, Parent: b}
}

// localPose returns this body's own prescribed transform at time t,
// ignoring any parent.
func (b *Body) localPose(t float64) vector.Mat4 {
	m := b.Motion
	translate := vector.Translation(vector.Scale(m.LinearVelocity, float32(t)))
	if vector.LengthSq(m.Axis) == 0 || m.AngularRate == 0 {
		return translate
	}
	toCenter := vector.Translation(vector.Scale(m.Center, -1))
	fromCenter := vector.Translation(m.Center)
	rot := vector.AxisAngle(m.Axis, m.AngularRate*t)
	return translate.Mul(fromCenter).Mul(rot).Mul(toCenter)
}

// Pose returns the body's full transform at time t, composed through its
// parent chain (spec 6.1's bodies[].parent).
func (b *Body) Pose(t float64) vector.Mat4 {
	local := b.localPose(t)
	if b.Parent == nil {
		return local
	}
	return b.Parent.Pose(t).Mul(local)
}

// Velocity returns the linear and angular velocity of the body at time t,
// in the world frame, composed through the parent chain. Angular velocity
// is expressed as an axis scaled by its rate (rad/s).
func (b *Body) Velocity(t float64) (linear, angular vector.Vec3) {
	linear = b.Motion.LinearVelocity
	angular = vector.Scale(vector.Normalize(b.Motion.Axis), float32(b.Motion.AngularRate))
	if vector.LengthSq(b.Motion.Axis) == 0 {
		angular = vector.Vec3{}
	}

	if b.Parent == nil {
		return linear, angular
	}

	parentPose := b.Parent.Pose(t)
	parentLinear, parentAngular := b.Parent.Velocity(t)
	worldLinear := parentPose.TransformDir(linear)
	worldLinear.Add(parentLinear)
	worldAngular := parentPose.TransformDir(angular)
	worldAngular.Add(parentAngular)
	return worldLinear, worldAngular
}

// VelocityAt returns the velocity of the material point that is currently
// at world-space position p, due to this body's rigid motion at time t:
// v(p) = linear + angular x (p - pivot), where pivot is the body's current
// world-space center.
func (b *Body) VelocityAt(t float64, p vector.Vec3) vector.Vec3 {
	linear, angular := b.Velocity(t)
	pivot := b.Pose(t).Transform(b.Motion.Center)
	r := vector.Sub(p, pivot)
	v := vector.Add(linear, vector.Cross(angular, r))
	return v
}
