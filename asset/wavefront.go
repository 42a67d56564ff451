// Package asset loads triangle geometry from Wavefront object files into the
// flat vertex buffer layout expected by the bvh and registry packages. Only
// the geometry statements (v/f) are interpreted; materials, normals and uv
// coordinates are skipped.
package asset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/achilleasa/gobvh/log"
	"github.com/achilleasa/gobvh/types"
)

var logger = log.New("asset")

// Read a Wavefront object file and return a flat triangle vertex list (3
// consecutive vertices per triangle) together with the triangle count.
func ReadWavefrontFile(path string) ([]types.Vec4, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("asset: %v", err)
	}
	defer f.Close()

	vertices, triCount, err := ReadWavefront(f)
	if err != nil {
		return nil, 0, fmt.Errorf("asset: [%s] %v", path, err)
	}

	logger.Infof(`loaded %d triangles from "%s"`, triCount, path)
	return vertices, triCount, nil
}

// Read a Wavefront object definition. Faces with more than 3 vertices are
// triangulated as a fan around the first vertex.
func ReadWavefront(r io.Reader) ([]types.Vec4, int, error) {
	var (
		vertexList []types.Vec3
		triangles  []types.Vec4
	)

	scanner := bufio.NewScanner(r)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "v":
			if len(lineTokens) < 4 {
				return nil, 0, fmt.Errorf("line %d: unsupported vertex format; expected 3 coordinates", lineNum)
			}
			var coords [3]float32
			for i := 0; i < 3; i++ {
				val, err := strconv.ParseFloat(lineTokens[i+1], 32)
				if err != nil {
					return nil, 0, fmt.Errorf("line %d: %v", lineNum, err)
				}
				coords[i] = float32(val)
			}
			vertexList = append(vertexList, types.XYZ(coords[0], coords[1], coords[2]))
		case "f":
			if len(lineTokens) < 4 {
				return nil, 0, fmt.Errorf("line %d: face with less than 3 vertices", lineNum)
			}
			face := make([]types.Vec3, len(lineTokens)-1)
			for i, token := range lineTokens[1:] {
				// Vertex refs look like "v", "v/vt" or "v/vt/vn"; only the
				// vertex index is used.
				vertexToken := strings.SplitN(token, "/", 2)[0]
				index, err := strconv.Atoi(vertexToken)
				if err != nil {
					return nil, 0, fmt.Errorf("line %d: %v", lineNum, err)
				}

				// Negative indices reference the end of the current vertex list
				if index < 0 {
					index += len(vertexList)
				} else {
					index--
				}
				if index < 0 || index >= len(vertexList) {
					return nil, 0, fmt.Errorf("line %d: vertex index %s out of bounds", lineNum, vertexToken)
				}
				face[i] = vertexList[index]
			}

			// Fan triangulation around the first face vertex
			for i := 1; i < len(face)-1; i++ {
				triangles = append(triangles,
					face[0].Vec4(0),
					face[i].Vec4(0),
					face[i+1].Vec4(0),
				)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}

	return triangles, len(triangles) / 3, nil
}
