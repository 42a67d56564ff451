package bvh

import (
	"github.com/achilleasa/gobvh/types"
)

const intersectEpsilon = 1e-7

// Intersect traverses the BVH and returns the closest intersection along the
// ray, or the no-hit sentinel if the ray misses everything. The receiver is
// never mutated; concurrent calls are safe.
func (b *BVH) Intersect(ray Ray) Intersection {
	best := NoHit()
	if len(b.nodes) == 0 {
		return best
	}

	// Stack of pending node indices. SAH keeps the tree depth logarithmic
	// for real scenes so the initial capacity rarely grows, but degenerate
	// splits can chain much deeper.
	stack := make([]uint32, 1, 64)

	for len(stack) > 0 {
		node := &b.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		if node.IsLeaf() {
			firstPrim, count := node.GetPrimitives()
			for i := uint32(0); i < count; i++ {
				prim := b.primIndices[firstPrim+i]
				v0 := b.vertices[prim*3].Vec3()
				v1 := b.vertices[prim*3+1].Vec3()
				v2 := b.vertices[prim*3+2].Vec3()
				if t, u, v, hit := intersectTriangle(ray, v0, v1, v2, best.T); hit {
					best = Intersection{T: t, U: u, V: v, Prim: int32(prim)}
				}
			}
			continue
		}

		// Visit the nearer child first; skip children whose bbox entry
		// distance cannot beat the best hit so far.
		left := uint32(node.LData)
		right := uint32(node.RData)
		lDist := intersectAABB(b.nodes[left].Min, b.nodes[left].Max, ray, best.T)
		rDist := intersectAABB(b.nodes[right].Min, b.nodes[right].Max, ray, best.T)
		if lDist > rDist {
			left, right = right, left
			lDist, rDist = rDist, lDist
		}
		if rDist < RayFar {
			stack = append(stack, right)
		}
		if lDist < RayFar {
			stack = append(stack, left)
		}
	}

	return best
}

// Slab test against an axis aligned bounding box. Returns the entry distance
// along the ray or RayFar when the box is missed or lies beyond tMax.
func intersectAABB(min, max types.Vec3, ray Ray, tMax float32) float32 {
	t1 := (min[0] - ray.Origin[0]) * ray.invDir[0]
	t2 := (max[0] - ray.Origin[0]) * ray.invDir[0]
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	tNear, tFar := t1, t2

	t1 = (min[1] - ray.Origin[1]) * ray.invDir[1]
	t2 = (max[1] - ray.Origin[1]) * ray.invDir[1]
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	if t1 > tNear {
		tNear = t1
	}
	if t2 < tFar {
		tFar = t2
	}

	t1 = (min[2] - ray.Origin[2]) * ray.invDir[2]
	t2 = (max[2] - ray.Origin[2]) * ray.invDir[2]
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	if t1 > tNear {
		tNear = t1
	}
	if t2 < tFar {
		tFar = t2
	}

	if tNear > tFar || tFar < 0 || tNear > tMax {
		return RayFar
	}
	if tNear < 0 {
		return 0
	}
	return tNear
}

// Moeller-Trumbore ray/triangle intersection. Returns the hit distance and
// the barycentric coordinates of the hit point. Hits at or beyond tMax and
// backward hits are rejected.
func intersectTriangle(ray Ray, v0, v1, v2 types.Vec3, tMax float32) (t, u, v float32, hit bool) {
	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)

	h := ray.Dir.Cross(edge2)
	det := edge1.Dot(h)

	// Ray is parallel to the triangle plane
	if det > -intersectEpsilon && det < intersectEpsilon {
		return 0, 0, 0, false
	}

	invDet := 1.0 / det
	s := ray.Origin.Sub(v0)
	u = invDet * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := s.Cross(edge1)
	v = invDet * ray.Dir.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = invDet * edge2.Dot(q)
	if t < intersectEpsilon || t >= tMax {
		return 0, 0, 0, false
	}

	return t, u, v, true
}
