package bvh

import (
	"github.com/achilleasa/gobvh/types"
)

// Bvh nodes are comprised of two Vec3 and two multipurpose int32 parameters
// whose value depends on the node type:
//
// - For non-leaf nodes they are both >0 and point to the L/R child nodes
// - For leaf nodes:
//   - LData is <= 0 and points (negated) to the first primitive index
//   - RData is >0 and contains the count of leaf primitives
type Node struct {
	Min   types.Vec3
	LData int32

	Max   types.Vec3
	RData int32
}

// Set bounding box.
func (n *Node) SetBBox(bbox [2]types.Vec3) {
	n.Min = bbox[0]
	n.Max = bbox[1]
}

// Set left and right child node indices.
func (n *Node) SetChildNodes(left, right uint32) {
	n.LData = int32(left)
	n.RData = int32(right)
}

// Set primitive index and count.
func (n *Node) SetPrimitives(firstPrimIndex, count uint32) {
	n.LData = -int32(firstPrimIndex)
	n.RData = int32(count)
}

// Get primitive index and count.
func (n *Node) GetPrimitives() (firstPrimIndex, count uint32) {
	return uint32(-n.LData), uint32(n.RData)
}

// Check whether this node is a leaf.
func (n *Node) IsLeaf() bool {
	return n.LData <= 0
}

// BVH is an acceleration structure built over a triangle soup. It owns a
// contiguous node list, the input vertex data and a primitive index list
// that leaf nodes point into. Once built it is immutable; concurrent
// Intersect calls against the same BVH are safe.
type BVH struct {
	nodes []Node

	// The flat triangle vertex list (3 consecutive vertices per triangle).
	vertices []types.Vec4

	// Triangle indices ordered so that each leaf references a contiguous range.
	primIndices []uint32

	triCount int

	stats BuildStats
}

// Triangle count for this BVH.
func (b *BVH) TriCount() int {
	return b.triCount
}

// The node list backing this BVH.
func (b *BVH) Nodes() []Node {
	return b.nodes
}

// Build statistics captured while constructing this BVH.
func (b *BVH) Stats() BuildStats {
	return b.stats
}

// triangle implements BoundedVolume for a single input triangle.
type triangle struct {
	index  uint32
	bbox   [2]types.Vec3
	center types.Vec3
}

func (t *triangle) BBox() [2]types.Vec3 {
	return t.bbox
}

func (t *triangle) Center() types.Vec3 {
	return t.center
}

// Construct a BVH from a flat triangle vertex list. Each triangle is defined
// by 3 consecutive vertices; triangleCount is authoritative and the caller
// guarantees that vertices holds at least triangleCount*3 entries.
func Build(vertices []types.Vec4, triangleCount int) *BVH {
	b := &BVH{
		vertices:    vertices,
		primIndices: make([]uint32, 0, triangleCount),
		triCount:    triangleCount,
	}

	workList := make([]BoundedVolume, triangleCount)
	for i := 0; i < triangleCount; i++ {
		v0 := vertices[i*3].Vec3()
		v1 := vertices[i*3+1].Vec3()
		v2 := vertices[i*3+2].Vec3()

		tri := &triangle{index: uint32(i)}
		tri.bbox = [2]types.Vec3{
			types.MinVec3(v0, types.MinVec3(v1, v2)),
			types.MaxVec3(v0, types.MaxVec3(v1, v2)),
		}
		tri.center = v0.Add(v1).Add(v2).Mul(1.0 / 3.0)
		workList[i] = tri
	}

	b.nodes, b.stats = buildTree(workList, minPrimitivesPerLeaf, func(leaf *Node, itemList []BoundedVolume) {
		leaf.SetPrimitives(uint32(len(b.primIndices)), uint32(len(itemList)))
		for _, item := range itemList {
			b.primIndices = append(b.primIndices, item.(*triangle).index)
		}
	}, SurfaceAreaHeuristic)

	return b
}

// The builder will emit a leaf when a partition gets at or below this many
// primitives.
const minPrimitivesPerLeaf = 4
