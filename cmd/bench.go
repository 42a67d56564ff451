package cmd

import (
	"math/rand"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/achilleasa/gobvh/asset"
	"github.com/achilleasa/gobvh/registry"
	"github.com/achilleasa/gobvh/types"
	"github.com/urfave/cli"
)

// Measure ray query throughput against a wavefront object file. Rays are
// aimed at the scene bounds from random directions and dispatched through
// the registry the same way an embedding host would issue them.
func Bench(ctx *cli.Context) {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		logger.Error("bench: expected a single scene_file.obj argument")
		os.Exit(1)
	}

	vertices, triCount, err := asset.ReadWavefrontFile(ctx.Args().First())
	if err != nil {
		logger.Errorf("bench: %s", err.Error())
		os.Exit(1)
	}

	reg := registry.New()
	handle := reg.Build(vertices, triCount, true)

	// Center and radius of the scene bounds; rays start on a sphere around
	// the scene and point at jittered targets near the center.
	var center types.Vec3
	var radius float32
	for i := 0; i < triCount*3; i++ {
		center = center.Add(vertices[i].Vec3())
	}
	center = center.Mul(1.0 / float32(triCount*3))
	for i := 0; i < triCount*3; i++ {
		if d := vertices[i].Vec3().Sub(center).Len(); d > radius {
			radius = d
		}
	}

	rayCount := ctx.Int("rays")
	useCompressed := !ctx.Bool("primary")
	workers := runtime.NumCPU()

	logger.Infof("dispatching %d rays over %d workers (compressed: %t)", rayCount, workers, useCompressed)
	start := time.Now()

	var wg sync.WaitGroup
	var hitCount int64
	var hitMu sync.Mutex
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64, rays int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			hits := int64(0)
			for i := 0; i < rays; i++ {
				dir := types.XYZ(rng.Float32()*2-1, rng.Float32()*2-1, rng.Float32()*2-1).Normalize()
				origin := center.Add(dir.Mul(radius * 2))
				target := center.Add(types.XYZ(rng.Float32()*2-1, rng.Float32()*2-1, rng.Float32()*2-1).Mul(radius * 0.5))
				if reg.Intersect(handle, origin, target.Sub(origin).Normalize(), useCompressed).Hit() {
					hits++
				}
			}
			hitMu.Lock()
			hitCount += hits
			hitMu.Unlock()
		}(int64(w)+1, rayCount/workers)
	}
	wg.Wait()

	elapsed := time.Since(start)
	dispatched := (rayCount / workers) * workers
	logger.Infof("%d/%d rays hit the scene in %d ms (%.2f Mrays/s)",
		hitCount, dispatched,
		elapsed.Nanoseconds()/1e6,
		float64(dispatched)/elapsed.Seconds()/1e6,
	)

	reg.Destroy(handle)
}
