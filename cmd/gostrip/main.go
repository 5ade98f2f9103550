package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	"github.com/2x3systems/gostrip/gostrip"
	"github.com/2x3systems/gostrip/libstrip"
	"github.com/2x3systems/gostrip/libstrip/catalog"
	"github.com/dustin/go-humanize"
	"github.com/plan-systems/klog"
)

var (
	flagCache    = flag.Int("cache", gostrip.DefaultCacheSize, "simulated vertex cache size")
	flagMin      = flag.Int("min", gostrip.DefaultMinStripSize, "min triangles per strip (shorter strips go to the trailing list)")
	flagNoCache  = flag.Bool("nocache", false, "disable vertex cache simulation (longest strip wins)")
	flagNoBack   = flag.Bool("noback", false, "disable backward strip search")
	flagPushHits = flag.Bool("pushhits", true, "re-push vertices that hit the simulated cache")
	flagStitch   = flag.Bool("stitch", false, "join all strips into one")
	flagRestart  = flag.Int64("restart", -1, "primitive restart index used when stitching (-1: degenerate triangles)")
	flagValidate = flag.Bool("validate", false, "re-check every result against its input")
	flagCatalog  = flag.String("catalog", "", "pathname of a result catalog to consult and add to")
	flagOut      = flag.String("out", "", "dir to write <mesh>.strips files into")
	flagGroups   = flag.Bool("groups", false, "print each group's indices")
	flagVerbose  = flag.Bool("verbose", false, "print degenerate triangle warnings")
	flagWorkers  = flag.Int("workers", runtime.NumCPU(), "number of meshes stripified in parallel")
)

func main() {
	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "1")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	flag.Parse()

	exitCode := 0
	args := flag.Args()
	if len(args) == 0 || filepath.Ext(args[0]) == ".py" {
		pathname := ""
		if len(args) > 0 {
			pathname = args[0]
		}
		if runPython(pathname) != nil {
			exitCode = 1
		}
	} else if err := stripifyFiles(args); err != nil {
		klog.Errorf("gostrip: %v", err)
		exitCode = 1
	}

	klog.Flush()
	os.Exit(exitCode)
}

func configFromFlags() gostrip.Config {
	cfg := gostrip.DefaultConfig()
	cfg.CacheSize = *flagCache
	cfg.MinStripSize = *flagMin
	cfg.CacheSimulation = !*flagNoCache
	cfg.BackwardSearch = !*flagNoBack
	cfg.PushCacheHits = *flagPushHits
	cfg.StitchStrips = *flagStitch
	cfg.ValidateOutput = *flagValidate
	if *flagRestart >= 0 {
		restart := uint32(*flagRestart)
		cfg.RestartIndex = &restart
	}
	return cfg
}

func stripifyFiles(pathnames []string) error {
	cfg := configFromFlags()
	if err := cfg.Validate(); err != nil {
		return err
	}

	var meshes []*gostrip.Mesh
	for _, pathname := range pathnames {
		mesh, err := libstrip.LoadMesh(pathname)
		if err != nil {
			klog.Warningf("skipping %q: %v", pathname, err)
			continue
		}
		meshes = append(meshes, mesh)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	stream := gostrip.StreamMeshes(meshes...)

	var cat gostrip.Catalog
	if len(*flagCatalog) > 0 {
		var err error
		cat, err = catalog.Open(gostrip.CatalogOpts{
			DbPathName: *flagCatalog,
		})
		if err != nil {
			return err
		}
		defer cat.Close()

		stream = stream.LookupIn(cat, cfg, func(mesh *gostrip.Mesh, groups []gostrip.PrimitiveGroup) gostrip.Stats {
			return libstrip.Summarize(mesh, groups, cfg)
		})
	}

	stream = stream.StripifyParallel(ctx, libstrip.StripifyMesh, cfg, *flagWorkers)

	if cat != nil {
		stream = stream.AddTo(cat, cfg)
	}
	if len(*flagOut) > 0 {
		stream = stream.SaveTo(*flagOut)
	}

	opts := gostrip.DefaultPrintOpts
	opts.Groups = *flagGroups
	opts.Verbose = *flagVerbose
	stream = stream.Print(nopCloser{os.Stdout}, opts)

	var (
		numFailed  int
		totalTris  int64
		totalIndex int64
	)
	for _, mesh := range stream.Collect() {
		if mesh.Err != nil {
			numFailed++
			continue
		}
		totalTris += int64(mesh.Result.Stats.InputTriangles)
		totalIndex += int64(mesh.Result.Stats.IndexCount)
	}

	fmt.Printf("%d meshes, %s triangles, %s indices emitted\n", len(meshes), humanize.Comma(totalTris), humanize.Comma(totalIndex))
	if cat != nil {
		fmt.Printf("catalog %q holds %s results\n", *flagCatalog, humanize.Comma(cat.NumEntries()))
	}
	if numFailed > 0 {
		return fmt.Errorf("%d meshes failed", numFailed)
	}
	return ctx.Err()
}

type nopCloser struct {
	*os.File
}

func (nopCloser) Close() error {
	return nil
}
