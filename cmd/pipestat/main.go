// Command pipestat drives a synthetic draw stream through the pipeline cache
// and the bind group assembler on the noop HAL and prints their counters.
//
//	pipestat -draws 100000 -effects 8 -config pipecache.toml
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pipecache"
	"github.com/gogpu/pipecache/backend/halgpu"
	"github.com/gogpu/pipecache/bindgroup"
	"github.com/gogpu/pipecache/config"
	"github.com/gogpu/pipecache/pipeline"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML configuration file")
		strategy   = flag.String("strategy", "", "override [pipeline] strategy (trie or flat)")
		draws      = flag.Int("draws", 10000, "number of draw calls")
		frame      = flag.Int("frame", 500, "draw calls per frame")
		effects    = flag.Int("effects", 4, "number of distinct effects")
		textures   = flag.Int("textures", 3, "number of distinct textures")
		seed       = flag.Uint64("seed", 1, "random seed of the draw stream")
		verbose    = flag.Bool("v", false, "log cache misses and creations")
		dump       = flag.Bool("dump-config", false, "print the effective configuration and exit")
	)
	flag.Parse()

	if *verbose {
		pipecache.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *strategy != "" {
		cfg.Pipeline.Strategy = *strategy
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid -strategy: %v", err)
		}
	}
	if *dump {
		if err := config.Encode(os.Stdout, cfg); err != nil {
			log.Fatalf("Failed to print config: %v", err)
		}
		return
	}
	if *draws < 0 || *frame < 1 || *effects < 1 || *textures < 1 {
		log.Fatal("draws must be >= 0; frame, effects and textures must be >= 1")
	}

	device, queue, cleanup, err := openNoopDevice()
	if err != nil {
		log.Fatalf("Failed to open noop device: %v", err)
	}
	defer cleanup()

	be, err := halgpu.New(device, queue, cfg.BackendOptions()...)
	if err != nil {
		log.Fatalf("Failed to create backend: %v", err)
	}
	defer be.Destroy()

	cache := pipeline.New(be, append(cfg.PipelineOptions(be.DestroyRenderPipeline), pipeline.WithResolver(be.Resolver()))...)
	groups := bindgroup.New(be, cfg.BindGroupOptions(be.DestroyBindGroup)...)

	s, err := newStream(be, device, cfg, *effects, *textures, *seed)
	if err != nil {
		log.Fatalf("Failed to build draw stream: %v", err)
	}
	defer s.destroy()

	for i := range *draws {
		if err := s.draw(cache, groups); err != nil {
			log.Fatalf("Draw %d failed: %v", i, err)
		}
		if (i+1)%*frame == 0 {
			cache.EndFrame()
			groups.EndFrame()
		}
	}

	report(cfg, cache, groups, be, *draws)
}

func openNoopDevice() (hal.Device, hal.Queue, func(), error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("open adapter: %w", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup, nil
}

func report(cfg *config.Config, cache *pipeline.Cache, groups *bindgroup.Assembler, be *halgpu.Backend, draws int) {
	fmt.Printf("draws:      %d\n", draws)
	fmt.Printf("strategy:   %s\n", cfg.Pipeline.Strategy)
	fmt.Printf("pipelines:  %s\n", cache.Stats().Snapshot())
	switch st := cache.Strategy().(type) {
	case *pipeline.Trie:
		nodes, stored := st.NodeCounts()
		fmt.Printf("trie:       %d nodes, %d pipelines\n", nodes, stored)
	case *pipeline.Flat:
		fmt.Printf("flat:       %d entries, %d evictions\n", st.Len(), st.Evictions())
	}
	fmt.Printf("bindgroups: %s\n", groups.Stats().Snapshot())
	fmt.Printf("samplers:   %d\n", be.NumSamplers())
}
