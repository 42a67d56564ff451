// Package registry owns the pool of live BVH acceleration structures and
// hands out stable integer handles for them. It is the entry point used by
// host applications (engine/renderer side) that supply triangle buffers and
// issue ray queries, possibly from multiple threads.
//
// All slot bookkeeping is guarded by a single mutex. The expensive work
// (building/compressing a BVH, traversing it) always happens outside the
// lock so queries never serialize behind a build. Published instances are
// immutable; a Destroy racing with an in-flight Intersect on the same handle
// is safe because the query keeps its own reference to the instance, but raw
// pointers obtained via CompressedData must not outlive the handle.
package registry

import (
	"sync"
	"unsafe"

	"github.com/achilleasa/gobvh/bvh"
	"github.com/achilleasa/gobvh/log"
	"github.com/achilleasa/gobvh/types"
)

// A live acceleration structure. The primary BVH is always present; the
// compressed re-encoding only if requested at build time.
type instance struct {
	primary    *bvh.BVH
	compressed *bvh.Compressed
}

// Registry maintains a growable slot list of BVH instances indexed by
// handle. Handles stay stable for the lifetime of their instance; destroyed
// slots are reused by later builds so the slot list only grows to the
// high-water mark of concurrently live instances.
type Registry struct {
	mu    sync.Mutex
	slots []*instance

	logger log.Logger
}

// Create an empty registry.
func New() *Registry {
	return &Registry{
		logger: log.New("registry"),
	}
}

// Build constructs a new BVH instance from a flat triangle vertex list (3
// consecutive vertices per triangle) and returns its handle. triangleCount
// is authoritative; the caller guarantees the buffer holds at least
// triangleCount*3 vertices. When buildCompressed is set the compressed
// re-encoding is derived as well, enabling the CompressedData export path.
//
// The geometric work runs outside the registry lock; the instance is only
// published into a slot once fully constructed.
func (r *Registry) Build(vertices []types.Vec4, triangleCount int, buildCompressed bool) int {
	inst := &instance{
		primary: bvh.Build(vertices, triangleCount),
	}
	if buildCompressed {
		inst.compressed = bvh.Compress(inst.primary)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Look for a free slot to reuse
	for i, slot := range r.slots {
		if slot == nil {
			r.slots[i] = inst
			r.logger.Debugf("built bvh (%d tris, compressed: %t) into reused slot %d", triangleCount, buildCompressed, i)
			return i
		}
	}

	// If no free slot is found, append a new one
	r.slots = append(r.slots, inst)
	handle := len(r.slots) - 1
	r.logger.Debugf("built bvh (%d tris, compressed: %t) into new slot %d", triangleCount, buildCompressed, handle)
	return handle
}

// Destroy releases the instance behind handle and empties its slot, making
// the handle invalid and the slot eligible for reuse. Destroying an invalid
// handle is a no-op. In-flight queries that already resolved the handle
// complete against the released instance; its memory is reclaimed once the
// last reference drops.
func (r *Registry) Destroy(handle int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if handle < 0 || handle >= len(r.slots) || r.slots[handle] == nil {
		return
	}

	// The slot holds the registry's only reference; the instance itself is
	// never mutated so queries that already resolved the handle stay safe.
	r.slots[handle] = nil
	r.logger.Debugf("destroyed bvh in slot %d", handle)
}

// IsReady reports whether handle refers to a live instance.
func (r *Registry) IsReady(handle int) bool {
	return r.lookup(handle) != nil
}

// Intersect dispatches a ray query against the instance behind handle and
// returns the closest hit. Which representation is traversed follows the
// useCompressed flag; asking for the compressed path on an instance built
// without one silently falls back to the primary structure so callers need
// not track which handles carry which representation. An invalid handle
// yields the no-hit sentinel.
func (r *Registry) Intersect(handle int, origin, direction types.Vec3, useCompressed bool) bvh.Intersection {
	inst := r.lookup(handle)
	if inst == nil {
		return bvh.NoHit()
	}

	ray := bvh.NewRay(origin, direction)
	if useCompressed && inst.compressed != nil {
		return inst.compressed.Intersect(ray)
	}
	return inst.primary.Intersect(ray)
}

// CompressedNodeByteSize returns the used byte footprint of the compressed
// node buffer, or 0 if the handle is invalid or the instance carries no
// compressed structure.
func (r *Registry) CompressedNodeByteSize(handle int) int {
	inst := r.lookup(handle)
	if inst == nil || inst.compressed == nil {
		return 0
	}
	return inst.compressed.NodeByteSize()
}

// CompressedTriByteSize returns the byte footprint of the packed triangle
// buffer (3 blocks per triangle), or 0 under the same conditions as
// CompressedNodeByteSize.
func (r *Registry) CompressedTriByteSize(handle int) int {
	inst := r.lookup(handle)
	if inst == nil || inst.compressed == nil {
		return 0
	}
	return inst.compressed.TriByteSize()
}

// CompressedData returns raw pointers to the compressed node and triangle
// buffers for zero-copy consumption (e.g. a GPU upload). It fails if the
// handle is invalid, the instance has no compressed structure, or either
// buffer is unpopulated. The pointers alias memory owned by the instance:
// they are read-only by contract and valid only until the handle is
// destroyed.
func (r *Registry) CompressedData(handle int) (nodes, tris unsafe.Pointer, ok bool) {
	inst := r.lookup(handle)
	if inst == nil || inst.compressed == nil {
		return nil, nil, false
	}

	nodes = inst.compressed.NodeData()
	tris = inst.compressed.TriData()
	if nodes == nil || tris == nil {
		return nil, nil, false
	}
	return nodes, tris, true
}

// Fetch the instance behind handle, or nil if the handle is invalid.
func (r *Registry) lookup(handle int) *instance {
	r.mu.Lock()
	defer r.mu.Unlock()

	if handle < 0 || handle >= len(r.slots) {
		return nil
	}
	return r.slots[handle]
}
