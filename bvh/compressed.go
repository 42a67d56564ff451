package bvh

import (
	"math"
	"unsafe"

	"github.com/achilleasa/gobvh/types"
)

// Byte size of the fixed unit that the compressed buffers are expressed in.
const BlockSize = 16

const (
	nodeBlocks = 2
	triBlocks  = 3
)

// Compressed is a traversal-tuned re-encoding of a built BVH. Nodes and
// triangles are packed into contiguous 16-byte blocks so the two buffers can
// be handed to an external renderer (e.g. uploaded to a GPU) without copying
// or fixups:
//
// - Each node occupies 2 blocks: bbox min with the left link in the w lane
//   and bbox max with the right link in the w lane. Links reuse the Node
//   union encoding (int32 bit patterns stored in the float lane).
// - Each triangle occupies 3 blocks, one per vertex; the w lane of the first
//   vertex block carries the original primitive index.
//
// Triangles are re-packed in leaf emission order so every leaf references a
// contiguous block range.
type Compressed struct {
	nodes []types.Vec4
	tris  []types.Vec4

	triCount int
}

// Convert a built BVH into its compressed form. The input BVH is not
// modified and remains usable on its own.
func Compress(b *BVH) *Compressed {
	c := &Compressed{
		nodes:    make([]types.Vec4, 0, len(b.nodes)*nodeBlocks),
		tris:     make([]types.Vec4, 0, b.triCount*triBlocks),
		triCount: b.triCount,
	}
	if len(b.nodes) > 0 {
		c.emit(b, 0)
	}
	return c
}

// Re-encode the node at srcIndex and its subtree, returning the compressed
// node index.
func (c *Compressed) emit(b *BVH, srcIndex uint32) int32 {
	src := &b.nodes[srcIndex]
	nodeIndex := int32(len(c.nodes) / nodeBlocks)
	c.nodes = append(c.nodes, src.Min.Vec4(0), src.Max.Vec4(0))

	if src.IsLeaf() {
		firstPrim, count := src.GetPrimitives()
		firstTri := int32(len(c.tris) / triBlocks)
		for i := uint32(0); i < count; i++ {
			prim := b.primIndices[firstPrim+i]
			c.tris = append(c.tris,
				b.vertices[prim*3].Vec3().Vec4(i32ToFloat(int32(prim))),
				b.vertices[prim*3+1],
				b.vertices[prim*3+2],
			)
		}
		c.setLinks(nodeIndex, -firstTri, int32(count))
		return nodeIndex
	}

	left := c.emit(b, uint32(src.LData))
	right := c.emit(b, uint32(src.RData))
	c.setLinks(nodeIndex, left, right)
	return nodeIndex
}

func (c *Compressed) setLinks(nodeIndex, lData, rData int32) {
	c.nodes[nodeIndex*nodeBlocks][3] = i32ToFloat(lData)
	c.nodes[nodeIndex*nodeBlocks+1][3] = i32ToFloat(rData)
}

func (c *Compressed) links(nodeIndex int32) (lData, rData int32) {
	return floatToI32(c.nodes[nodeIndex*nodeBlocks][3]),
		floatToI32(c.nodes[nodeIndex*nodeBlocks+1][3])
}

// Intersect traverses the compressed structure and returns the closest
// intersection along the ray, or the no-hit sentinel on a miss. Results
// match BVH.Intersect for the same geometry.
func (c *Compressed) Intersect(ray Ray) Intersection {
	best := NoHit()
	if len(c.nodes) == 0 {
		return best
	}

	stack := make([]int32, 1, 64)

	for len(stack) > 0 {
		nodeIndex := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		lData, rData := c.links(nodeIndex)

		if lData <= 0 {
			firstTri := -lData
			for i := int32(0); i < rData; i++ {
				base := (firstTri + i) * triBlocks
				v0 := c.tris[base].Vec3()
				v1 := c.tris[base+1].Vec3()
				v2 := c.tris[base+2].Vec3()
				if t, u, v, hit := intersectTriangle(ray, v0, v1, v2, best.T); hit {
					best = Intersection{T: t, U: u, V: v, Prim: floatToI32(c.tris[base][3])}
				}
			}
			continue
		}

		lDist := intersectAABB(c.nodes[lData*nodeBlocks].Vec3(), c.nodes[lData*nodeBlocks+1].Vec3(), ray, best.T)
		rDist := intersectAABB(c.nodes[rData*nodeBlocks].Vec3(), c.nodes[rData*nodeBlocks+1].Vec3(), ray, best.T)
		if lDist > rDist {
			lData, rData = rData, lData
			lDist, rDist = rDist, lDist
		}
		if rDist < RayFar {
			stack = append(stack, rData)
		}
		if lDist < RayFar {
			stack = append(stack, lData)
		}
	}

	return best
}

// Number of 16-byte blocks used by the node buffer.
func (c *Compressed) UsedNodeBlocks() int {
	return len(c.nodes)
}

// Byte size of the used portion of the node buffer.
func (c *Compressed) NodeByteSize() int {
	return len(c.nodes) * BlockSize
}

// Byte size of the packed triangle buffer (3 blocks per triangle).
func (c *Compressed) TriByteSize() int {
	return c.triCount * triBlocks * BlockSize
}

// Raw pointer to the first node block, or nil if the buffer is empty. The
// pointer aliases memory owned by this structure and stays valid only while
// the structure is live; callers must not write through it.
func (c *Compressed) NodeData() unsafe.Pointer {
	if len(c.nodes) == 0 {
		return nil
	}
	return unsafe.Pointer(&c.nodes[0])
}

// Raw pointer to the first triangle block, or nil if the buffer is empty.
// Same ownership rules as NodeData.
func (c *Compressed) TriData() unsafe.Pointer {
	if len(c.tris) == 0 {
		return nil
	}
	return unsafe.Pointer(&c.tris[0])
}

// Store an int32 bit pattern in a float lane without value conversion.
func i32ToFloat(i int32) float32 {
	return math.Float32frombits(uint32(i))
}

func floatToI32(f float32) int32 {
	return int32(math.Float32bits(f))
}
