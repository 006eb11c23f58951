// Package pipeline sequences the chunk update stages. Each tick drains, in
// order, the generation, light map, shading and meshing entries from the
// update queue, reading and writing chunks through the world index.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelforge/engine/internal/engine/config"
	"github.com/voxelforge/engine/internal/engine/gen"
	"github.com/voxelforge/engine/internal/engine/light"
	"github.com/voxelforge/engine/internal/engine/mesh"
	"github.com/voxelforge/engine/internal/engine/world"
)

// lodStep is the Chebyshev world-unit distance per level of detail.
const lodStep = 128

// ChunkMesh is the geometry delivered for one chunk. Either buffer may be
// nil when that pass produced no vertices.
type ChunkMesh struct {
	Pos         world.Pos
	Opaque      *mesh.Mesh
	Transparent *mesh.Mesh
}

// Engine drives the chunk update pipeline over one world.
type Engine struct {
	log     *slog.Logger
	ix      *world.Index
	queue   *world.Queue
	gen     *gen.Generator
	builder *mesh.Builder
	tracer  light.Tracer
	lightS  light.Settings

	width     int
	genBudget int
	workers   int

	// onMesh receives finished geometry; defaults to the internal store.
	onMesh func(ChunkMesh)
	meshes map[world.Pos]ChunkMesh
}

// New builds an engine from cfg and terrain params.
func New(cfg *config.Config, params gen.Params, log *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g, err := gen.New(params)
	if err != nil {
		return nil, fmt.Errorf("terrain generator: %w", err)
	}
	tr, err := light.NewTracer(cfg.Tracer)
	if err != nil {
		return nil, err
	}

	ix := world.NewIndex(cfg.ChunkWidth)
	e := &Engine{
		log:     log,
		ix:      ix,
		queue:   world.NewQueue(),
		gen:     g,
		builder: mesh.NewBuilder(ix),
		tracer:  tr,
		lightS: light.Settings{
			Direction: mgl32.Vec3(cfg.LightDirection),
			Intensity: cfg.LightIntensity,
			Ambient:   cfg.Ambient,
		},
		width:     cfg.ChunkWidth,
		genBudget: cfg.GenBudget,
		workers:   cfg.Workers,
		meshes:    make(map[world.Pos]ChunkMesh),
	}
	e.onMesh = func(m ChunkMesh) { e.meshes[m.Pos] = m }
	return e, nil
}

// Index exposes the world index, for persistence and inspection.
func (e *Engine) Index() *world.Index { return e.ix }

// Queue exposes the update queue.
func (e *Engine) Queue() *world.Queue { return e.queue }

// OnMesh replaces the mesh delivery hook. Must be set before ticking.
func (e *Engine) OnMesh(fn func(ChunkMesh)) { e.onMesh = fn }

// Mesh returns the last geometry built for p, when the default delivery
// hook is in use.
func (e *Engine) Mesh(p world.Pos) (ChunkMesh, bool) {
	m, ok := e.meshes[p]
	return m, ok
}

// Request queues generation of the chunk at p. Already loaded chunks are
// left alone.
func (e *Engine) Request(p world.Pos) {
	if _, ok := e.ix.At(p); ok {
		return
	}
	e.queue.Upsert(p, world.OpGenerate)
}

// RequestRadius queues generation for every missing chunk in a cubic
// radius, in chunks, around center.
func (e *Engine) RequestRadius(center world.Pos, radius int) {
	for x := -radius; x <= radius; x++ {
		for y := -radius; y <= radius; y++ {
			for z := -radius; z <= radius; z++ {
				e.Request(center.Add(world.Pos{X: x, Y: y, Z: z}))
			}
		}
	}
}

// InsertLoaded places a persisted chunk into the world and queues it for
// relighting. Shade is derived state and is not stored on disk.
func (e *Engine) InsertLoaded(c *world.Chunk) {
	e.ix.Insert(c)
	e.queue.Upsert(c.Pos(), world.OpLightMap)
}

// Tick runs one full pipeline pass: bounded generation, LOD selection from
// the viewer position, then the light map, shading and meshing stages.
func (e *Engine) Tick(ctx context.Context, viewer mgl32.Vec3) error {
	start := time.Now()
	defer func() {
		tickDuration.Observe(time.Since(start).Seconds())
		queueDepth.Set(float64(e.queue.Len()))
	}()

	e.generate()
	e.updateLOD(viewer)
	e.lightMap()
	if err := e.shade(ctx); err != nil {
		return err
	}
	e.buildMeshes()
	return nil
}

// generate drains up to genBudget generation entries. New terrain relights
// itself and all 26 neighbors so shared boundaries stay consistent.
func (e *Engine) generate() {
	pending := e.queue.Match(world.OpGenerate)
	for i, p := range pending {
		if i >= e.genBudget {
			break
		}
		c := e.gen.Generate(p, e.width)
		e.ix.Insert(c)
		e.queue.Remove(p)
		chunksGenerated.Inc()
		e.log.Debug("chunk generated", "pos", p, "cells", c.Voxels().Len())

		e.queue.Upsert(p, world.OpLightMap)
		for _, n := range p.Neighbors() {
			// Only loaded neighbors relight; upserting a missing one
			// would swallow its pending generation entry.
			if _, ok := e.ix.At(n); ok {
				e.queue.Upsert(n, world.OpLightMap)
			}
		}
	}
}

// updateLOD assigns each chunk near the viewer a level of detail stepping
// with Chebyshev distance, queueing a remesh when the level changes.
func (e *Engine) updateLOD(viewer mgl32.Vec3) {
	r := e.lodRangeChunks()
	vc := world.Pos{
		X: floorDiv(int(viewer.X()), e.width),
		Y: floorDiv(int(viewer.Y()), e.width),
		Z: floorDiv(int(viewer.Z()), e.width),
	}
	for _, c := range e.ix.Within(vc.Add(world.Pos{X: -r, Y: -r, Z: -r}), vc.Add(world.Pos{X: r, Y: r, Z: r})) {
		p := c.Pos()
		origin := mgl32.Vec3{
			float32(p.X * e.width),
			float32(p.Y * e.width),
			float32(p.Z * e.width),
		}
		d := chebyshev(viewer, origin)
		lod := int(d) / lodStep
		if lod != c.LOD() {
			c.SetLOD(lod)
			// Any pending entry already ends in a remesh; upserting
			// OpMesh over an earlier stage would skip that stage.
			if _, pending := e.queue.Op(p); !pending {
				e.queue.Upsert(p, world.OpMesh)
			}
		}
	}
}

// lodRangeChunks bounds the LOD scan to the distance where the coarsest
// level is reached anyway.
func (e *Engine) lodRangeChunks() int {
	maxLOD := 1
	for 1<<maxLOD < e.width {
		maxLOD++
	}
	return (maxLOD+1)*lodStep/e.width + 1
}

// lightMap runs pass 1 for every queued coordinate. Entries for chunks that
// were never generated are dropped. A freshly lit chunk queues shading for
// itself and its loaded neighbors.
func (e *Engine) lightMap() {
	for _, p := range e.queue.Match(world.OpLightMap) {
		c, ok := e.ix.At(p)
		e.queue.Remove(p)
		if !ok {
			continue
		}
		light.UpdateLightMap(c, e.tracer, e.lightS.Direction)
		lightMapPasses.Inc()

		e.queue.Upsert(p, world.OpLight)
		for _, n := range p.Neighbors() {
			if _, ok := e.ix.At(n); ok {
				e.queue.Upsert(n, world.OpLight)
			}
		}
	}
}

// shade runs pass 2 as a scatter/gather: all ready chunks smooth in
// parallel against stable light maps, then shades are applied serially
// after the barrier. Chunks waiting on unlit neighbors keep their queue
// entry and retry next tick.
func (e *Engine) shade(ctx context.Context) error {
	pending := e.queue.Match(world.OpLight)
	if len(pending) == 0 {
		return nil
	}

	chunks := make([]*world.Chunk, 0, len(pending))
	for _, p := range pending {
		c, ok := e.ix.At(p)
		if !ok {
			e.queue.Remove(p)
			continue
		}
		chunks = append(chunks, c)
	}

	smoothed, err := light.SmoothAll(ctx, e.ix, chunks, e.workers)
	if err != nil {
		return fmt.Errorf("smoothing pass: %w", err)
	}
	shadeDeferred.Add(float64(len(chunks) - len(smoothed)))

	for i := range smoothed {
		s := &smoothed[i]
		light.Apply(s, e.lightS)
		shadePasses.Inc()
		p := s.Chunk.Pos()
		e.queue.Remove(p)
		e.queue.Upsert(p, world.OpMesh)
	}
	return nil
}

// buildMeshes runs the mesh stage and delivers results through the hook.
func (e *Engine) buildMeshes() {
	for _, p := range e.queue.Match(world.OpMesh) {
		c, ok := e.ix.At(p)
		e.queue.Remove(p)
		if !ok {
			continue
		}
		op, tr := e.builder.Build(c)
		meshesBuilt.Inc()
		e.onMesh(ChunkMesh{Pos: p, Opaque: op, Transparent: tr})
	}
}

func chebyshev(a, b mgl32.Vec3) float32 {
	d := a.Sub(b)
	m := abs32(d.X())
	if v := abs32(d.Y()); v > m {
		m = v
	}
	if v := abs32(d.Z()); v > m {
		m = v
	}
	return m
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func floorDiv(a, b int) int {
	d := a / b
	if a%b < 0 {
		d--
	}
	return d
}
