package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxelforge/engine/internal/engine/config"
	"github.com/voxelforge/engine/internal/engine/gen"
	"github.com/voxelforge/engine/internal/engine/pipeline"
	"github.com/voxelforge/engine/internal/engine/save"
	"github.com/voxelforge/engine/internal/engine/world"
)

func main() {
	cfg := config.DefaultConfig()

	cfgPath := flag.String("config", "", "YAML config file")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "prometheus endpoint address, empty disables")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "world seed")
	flag.IntVar(&cfg.ChunkWidth, "chunk-width", cfg.ChunkWidth, "chunk side length in voxels")
	flag.IntVar(&cfg.ViewRadius, "view-radius", cfg.ViewRadius, "generated radius around the viewer, in chunks")
	flag.StringVar(&cfg.NoiseKind, "noise", cfg.NoiseKind, "terrain noise kind: simplex, perlin or ridged")
	flag.StringVar(&cfg.GenMode, "gen-mode", cfg.GenMode, "terrain mode: heightmap or density")
	flag.StringVar(&cfg.Tracer, "tracer", cfg.Tracer, "light ray walker: bresenham or dda")
	flag.IntVar(&cfg.GenBudget, "gen-budget", cfg.GenBudget, "chunks generated per tick")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "smoothing workers, 0 = all CPUs")
	flag.StringVar(&cfg.SaveDir, "save-dir", cfg.SaveDir, "world save directory, empty disables persistence")
	ticks := flag.Int("ticks", 0, "stop after this many ticks, 0 runs until interrupted")
	rate := flag.Duration("tick-rate", 50*time.Millisecond, "pipeline tick interval")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *cfgPath != "" {
		fromFile, err := config.Load(*cfgPath)
		if err != nil {
			log.Error("load config", "error", err)
			os.Exit(1)
		}
		explicit := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		config.Merge(cfg, fromFile, explicit)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}

	params := gen.DefaultParams(cfg.Seed)
	params.Kind = gen.Kind(cfg.NoiseKind)
	params.Mode = gen.Mode(cfg.GenMode)

	eng, err := pipeline.New(cfg, params, log)
	if err != nil {
		log.Error("build engine", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var store *save.Store
	if cfg.SaveDir != "" {
		store, err = save.Open(cfg.SaveDir, log)
		if err != nil {
			log.Error("open save directory", "error", err)
			os.Exit(1)
		}
		defer store.Close()

		if m, ok, err := store.Meta(); err != nil {
			log.Error("read world meta", "error", err)
			os.Exit(1)
		} else if ok {
			if m.ChunkWidth != cfg.ChunkWidth {
				log.Error("saved world is incompatible",
					"saved_chunk_width", m.ChunkWidth, "chunk_width", cfg.ChunkWidth)
				os.Exit(1)
			}
			if err := store.LoadWorld(eng.InsertLoaded); err != nil {
				log.Error("load world", "error", err)
				os.Exit(1)
			}
		}
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics endpoint", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info("metrics endpoint up", "addr", cfg.MetricsAddr)
	}

	viewer := mgl32.Vec3{0, 0, 0}
	eng.RequestRadius(world.Pos{}, cfg.ViewRadius)
	log.Info("worldgen started",
		"seed", cfg.Seed, "noise", cfg.NoiseKind, "mode", cfg.GenMode,
		"chunk_width", cfg.ChunkWidth, "view_radius", cfg.ViewRadius)

	ticker := time.NewTicker(*rate)
	defer ticker.Stop()

	n := 0
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			if err := eng.Tick(ctx, viewer); err != nil {
				log.Error("tick", "error", err)
				break loop
			}
			n++
			if *ticks > 0 && n >= *ticks {
				break loop
			}
		}
	}

	log.Info("worldgen stopping", "ticks", n, "chunks", eng.Index().Len(), "pending", eng.Queue().Len())

	if store != nil {
		meta := save.Meta{Seed: cfg.Seed, ChunkWidth: cfg.ChunkWidth, NoiseKind: cfg.NoiseKind}
		if err := store.SaveWorld(eng.Index(), meta); err != nil {
			log.Error("save world", "error", err)
			os.Exit(1)
		}
	}
}
