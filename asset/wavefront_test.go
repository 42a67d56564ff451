package asset

import (
	"strings"
	"testing"

	"github.com/achilleasa/gobvh/types"
)

func TestReadWavefrontTriangles(t *testing.T) {
	payload := `
# a single triangle
v 0.0 0.0 0.0
v 1.0 0.0 0.0
v 0.0 1.0 0.0
f 1 2 3
`
	vertices, triCount, err := ReadWavefront(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("expected successful parse; got %v", err)
	}
	if triCount != 1 {
		t.Fatalf("expected 1 triangle; got %d", triCount)
	}
	if len(vertices) != 3 {
		t.Fatalf("expected 3 vertices; got %d", len(vertices))
	}
	if got := vertices[1].Vec3(); got != types.XYZ(1, 0, 0) {
		t.Fatalf("expected second vertex (1,0,0); got %v", got)
	}
}

func TestReadWavefrontQuadTriangulation(t *testing.T) {
	payload := `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1/1/1 2/2/2 3/3/3 4/4/4
`
	vertices, triCount, err := ReadWavefront(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("expected successful parse; got %v", err)
	}
	if triCount != 2 {
		t.Fatalf("expected quad to triangulate into 2 triangles; got %d", triCount)
	}

	// Fan triangulation keeps the first vertex as the shared anchor
	if vertices[0].Vec3() != vertices[3].Vec3() {
		t.Fatalf("expected both triangles to share the anchor vertex; got %v and %v", vertices[0], vertices[3])
	}
}

func TestReadWavefrontNegativeIndices(t *testing.T) {
	payload := `
v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`
	_, triCount, err := ReadWavefront(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("expected successful parse; got %v", err)
	}
	if triCount != 1 {
		t.Fatalf("expected 1 triangle; got %d", triCount)
	}
}

func TestReadWavefrontErrors(t *testing.T) {
	payloads := []string{
		"v 0 0\n",                     // too few coordinates
		"v 0 0 zero\n",                // malformed coordinate
		"v 0 0 0\nf 1 2\n",            // face with too few vertices
		"v 0 0 0\nf 1 2 5\n",          // vertex index out of bounds
		"v 0 0 0\nf one two three\n",  // malformed vertex reference
	}

	for idx, payload := range payloads {
		if _, _, err := ReadWavefront(strings.NewReader(payload)); err == nil {
			t.Fatalf("payload %d: expected a parse error", idx)
		}
	}
}
