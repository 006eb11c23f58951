package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chunksGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelforge_chunks_generated_total",
		Help: "Chunks produced by the terrain generator.",
	})

	lightMapPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelforge_lightmap_passes_total",
		Help: "Completed occlusion light map passes.",
	})

	shadePasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelforge_shade_passes_total",
		Help: "Completed smoothing and shading passes.",
	})

	shadeDeferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelforge_shade_deferred_total",
		Help: "Shading passes deferred waiting for neighbor light maps.",
	})

	meshesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelforge_meshes_built_total",
		Help: "Chunk meshes extracted.",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voxelforge_update_queue_depth",
		Help: "Coordinates with a pending pipeline operation.",
	})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voxelforge_tick_duration_seconds",
		Help:    "Wall time of one full pipeline tick.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})
)
