package bvh

import (
	"math"
	"testing"

	"github.com/achilleasa/gobvh/types"
)

// A 5x5 grid of disjoint right triangles on the z=0 plane. Triangle (row,col)
// gets primitive index row*5+col.
func makeTriangleGrid() ([]types.Vec4, int) {
	var vertices []types.Vec4
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			x := float32(col)
			y := float32(row)
			vertices = append(vertices,
				types.XYZW(x, y, 0, 0),
				types.XYZW(x+0.9, y, 0, 0),
				types.XYZW(x, y+0.9, 0, 0),
			)
		}
	}
	return vertices, 25
}

func makeSingleTriangle() ([]types.Vec4, int) {
	return []types.Vec4{
		types.XYZW(0, 0, 0, 0),
		types.XYZW(1, 0, 0, 0),
		types.XYZW(0, 1, 0, 0),
	}, 1
}

func TestSingleTriangleHit(t *testing.T) {
	vertices, triCount := makeSingleTriangle()
	b := Build(vertices, triCount)

	hit := b.Intersect(NewRay(types.XYZ(0.2, 0.2, 1), types.XYZ(0, 0, -1)))
	if !hit.Hit() {
		t.Fatal("expected ray to hit the triangle")
	}
	if hit.Prim != 0 {
		t.Fatalf("expected hit primitive index 0; got %d", hit.Prim)
	}
	if math.Abs(float64(hit.T)-1.0) > 1e-5 {
		t.Fatalf("expected hit distance 1.0; got %f", hit.T)
	}
	if math.Abs(float64(hit.U)-0.2) > 1e-5 || math.Abs(float64(hit.V)-0.2) > 1e-5 {
		t.Fatalf("expected barycentric coords (0.2, 0.2); got (%f, %f)", hit.U, hit.V)
	}
}

func TestSingleTriangleMiss(t *testing.T) {
	vertices, triCount := makeSingleTriangle()
	b := Build(vertices, triCount)

	// Pointing away from the triangle
	hit := b.Intersect(NewRay(types.XYZ(5, 5, 5), types.XYZ(0, 0, 1)))
	if hit.Hit() {
		t.Fatalf("expected no hit; got primitive %d at distance %f", hit.Prim, hit.T)
	}
	if hit.T != RayFar || hit.Prim != -1 {
		t.Fatalf("expected the no-hit sentinel; got %+v", hit)
	}

	// Parallel to the triangle plane
	hit = b.Intersect(NewRay(types.XYZ(-1, 0.1, 0), types.XYZ(0, 1, 0)))
	if hit.Hit() {
		t.Fatal("expected no hit for a ray in the triangle plane")
	}
}

func TestGridHitsCorrectPrimitives(t *testing.T) {
	vertices, triCount := makeTriangleGrid()
	b := Build(vertices, triCount)

	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			origin := types.XYZ(float32(col)+0.2, float32(row)+0.2, 5)
			hit := b.Intersect(NewRay(origin, types.XYZ(0, 0, -1)))
			expPrim := int32(row*5 + col)
			if !hit.Hit() || hit.Prim != expPrim {
				t.Fatalf("expected ray over cell (%d,%d) to hit primitive %d; got %d", row, col, expPrim, hit.Prim)
			}
			if math.Abs(float64(hit.T)-5.0) > 1e-4 {
				t.Fatalf("expected hit distance 5.0; got %f", hit.T)
			}
		}
	}

	// A ray through a gap between triangles should miss
	hit := b.Intersect(NewRay(types.XYZ(0.95, 0.95, 5), types.XYZ(0, 0, -1)))
	if hit.Hit() {
		t.Fatalf("expected gap ray to miss; got primitive %d", hit.Prim)
	}
}

func TestClosestHitWins(t *testing.T) {
	// Two co-planar-projected triangles stacked along z
	vertices := []types.Vec4{
		types.XYZW(0, 0, 0, 0), types.XYZW(1, 0, 0, 0), types.XYZW(0, 1, 0, 0),
		types.XYZW(0, 0, 2, 0), types.XYZW(1, 0, 2, 0), types.XYZW(0, 1, 2, 0),
	}
	b := Build(vertices, 2)

	hit := b.Intersect(NewRay(types.XYZ(0.2, 0.2, 5), types.XYZ(0, 0, -1)))
	if !hit.Hit() || hit.Prim != 1 {
		t.Fatalf("expected nearest primitive 1; got %d", hit.Prim)
	}
	if math.Abs(float64(hit.T)-3.0) > 1e-5 {
		t.Fatalf("expected hit distance 3.0; got %f", hit.T)
	}

	// Approaching from the other side the order flips
	hit = b.Intersect(NewRay(types.XYZ(0.2, 0.2, -5), types.XYZ(0, 0, 1)))
	if !hit.Hit() || hit.Prim != 0 {
		t.Fatalf("expected nearest primitive 0; got %d", hit.Prim)
	}
}

func TestBuildStats(t *testing.T) {
	vertices, triCount := makeTriangleGrid()
	b := Build(vertices, triCount)

	stats := b.Stats()
	if stats.Nodes == 0 || stats.Leafs == 0 {
		t.Fatalf("expected non-empty build stats; got %+v", stats)
	}
	if stats.Nodes != len(b.Nodes()) {
		t.Fatalf("expected stats to report %d nodes; got %d", len(b.Nodes()), stats.Nodes)
	}
	if b.TriCount() != triCount {
		t.Fatalf("expected tri count %d; got %d", triCount, b.TriCount())
	}

	// Leaf primitive ranges must cover each input triangle exactly once
	seen := make(map[uint32]int)
	for _, node := range b.Nodes() {
		if !node.IsLeaf() {
			continue
		}
		firstPrim, count := node.GetPrimitives()
		for i := uint32(0); i < count; i++ {
			seen[b.primIndices[firstPrim+i]]++
		}
	}
	if len(seen) != triCount {
		t.Fatalf("expected leafs to cover %d primitives; got %d", triCount, len(seen))
	}
	for prim, refs := range seen {
		if refs != 1 {
			t.Fatalf("expected primitive %d to appear in exactly one leaf; got %d", prim, refs)
		}
	}
}

// Hand-build a maximally unbalanced tree: a chain of internal nodes where
// every level splits off a single-triangle leaf. Triangle i sits on the z=i
// plane. Such trees exceed any fixed traversal stack once the chain is long
// enough.
func makeDeepChain(depth int) *BVH {
	triCount := depth + 1
	b := &BVH{triCount: triCount}
	for i := 0; i < triCount; i++ {
		z := float32(i)
		b.vertices = append(b.vertices,
			types.XYZW(0, 0, z, 0),
			types.XYZW(1, 0, z, 0),
			types.XYZW(0, 1, z, 0),
		)
		b.primIndices = append(b.primIndices, uint32(i))
	}

	// Internal node i lives at index 2i with its leaf at 2i+1 and the rest
	// of the chain at 2i+2; the chain ends in a final leaf.
	for i := 0; i < depth; i++ {
		internal := Node{Min: types.XYZ(0, 0, float32(i)), Max: types.XYZ(1, 1, float32(depth))}
		internal.SetChildNodes(uint32(2*i+1), uint32(2*i+2))

		leaf := Node{Min: types.XYZ(0, 0, float32(i)), Max: types.XYZ(1, 1, float32(i))}
		leaf.SetPrimitives(uint32(i), 1)

		b.nodes = append(b.nodes, internal, leaf)
	}
	last := Node{Min: types.XYZ(0, 0, float32(depth)), Max: types.XYZ(1, 1, float32(depth))}
	last.SetPrimitives(uint32(depth), 1)
	b.nodes = append(b.nodes, last)

	return b
}

func TestDeepTreeTraversal(t *testing.T) {
	const depth = 200
	b := makeDeepChain(depth)

	// Approaching from above the whole chain gets descended before any leaf
	// resolves, so the pending-leaf backlog far exceeds the initial stack
	// capacity.
	ray := NewRay(types.XYZ(0.2, 0.2, depth+5), types.XYZ(0, 0, -1))

	hit := b.Intersect(ray)
	if !hit.Hit() || hit.Prim != depth {
		t.Fatalf("expected nearest primitive %d; got %d", depth, hit.Prim)
	}
	if math.Abs(float64(hit.T)-5.0) > 1e-4 {
		t.Fatalf("expected hit distance 5.0; got %f", hit.T)
	}

	cHit := Compress(b).Intersect(ray)
	if cHit.Prim != hit.Prim || math.Abs(float64(cHit.T-hit.T)) > 1e-5 {
		t.Fatalf("expected compressed traversal to match primary result %+v; got %+v", hit, cHit)
	}
}

func TestEmptyBuild(t *testing.T) {
	b := Build(nil, 0)
	hit := b.Intersect(NewRay(types.XYZ(0, 0, 1), types.XYZ(0, 0, -1)))
	if hit.Hit() {
		t.Fatalf("expected no hit against an empty bvh; got %+v", hit)
	}
}
