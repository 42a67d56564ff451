package bvh

import (
	"github.com/achilleasa/gobvh/types"
)

// Rays that miss everything report this distance.
const RayFar = float32(1e30)

// A ray starting at Origin and extending along Dir. The inverse direction
// is precomputed once so the traversal slab tests avoid per-node divisions.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3

	invDir types.Vec3
}

// Create a traversal-ready ray.
func NewRay(origin, dir types.Vec3) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		invDir: dir.Recip(),
	}
}

// The result of a ray query. Distance is measured along the ray direction;
// U/V are the barycentric coordinates of the hit point inside the primitive.
// A value with Prim == -1 and T == RayFar indicates no intersection.
type Intersection struct {
	T    float32
	U, V float32
	Prim int32
}

// The no-hit sentinel value.
func NoHit() Intersection {
	return Intersection{T: RayFar, Prim: -1}
}

// Check whether this intersection represents an actual hit.
func (i Intersection) Hit() bool {
	return i.Prim >= 0
}
