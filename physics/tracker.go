package physics

import "github.com/go-gl/mathgl/mgl64"

// RigidBodyTracker is a snapshot of a body's motion for the current tick.
type RigidBodyTracker struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
	Velocity    mgl64.Vec3
	AngVel      mgl64.Vec3
	Gravity     mgl64.Vec3
}

// Track captures e from q. It captures nothing when t is Disabled or the
// backend has no kinematics for e.
func Track(q Query, e Entity, t Toggle) (RigidBodyTracker, bool) {
	if !t.Senses() {
		return RigidBodyTracker{}, false
	}
	k, ok := q.Kinematics(e)
	if !ok {
		return RigidBodyTracker{}, false
	}
	return RigidBodyTracker{
		Translation: k.Translation,
		Rotation:    k.Rotation,
		Velocity:    k.LinVel,
		AngVel:      k.AngVel,
		Gravity:     q.Gravity(),
	}, true
}

// TransformPoint maps a point local to the tracked body into world space.
func (t RigidBodyTracker) TransformPoint(local mgl64.Vec3) mgl64.Vec3 {
	return t.Translation.Add(t.Rotation.Rotate(local))
}
