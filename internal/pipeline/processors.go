package pipeline

import (
	"fmt"

	"github.com/funvibe/concepts/internal/catalog"
	"github.com/funvibe/concepts/internal/concepts"
	"github.com/funvibe/concepts/internal/config"
	"github.com/funvibe/concepts/internal/constraints"
	"github.com/funvibe/concepts/internal/diagnostics"
	"github.com/funvibe/concepts/internal/store"
)

// CatalogProcessor layers the configured catalogs over the prelude.
type CatalogProcessor struct{}

func (CatalogProcessor) Process(ctx *PipelineContext) *PipelineContext {
	paths := ctx.Config.CatalogPaths()
	u, err := catalog.NewUniverse(paths...)
	if err != nil {
		if _, coded := diagnostics.CodeOf(err); !coded {
			err = diagnostics.Wrap(diagnostics.ErrC005, err, "loading catalogs")
		}
		return ctx.fail(err)
	}
	ctx.Universe = u
	ctx.Logger.Debug("catalogs loaded", "catalogs", len(paths), "types", len(u.TypeNames()))
	return ctx
}

// AlgorithmProcessor parses the configured algorithm files.
type AlgorithmProcessor struct{}

func (AlgorithmProcessor) Process(ctx *PipelineContext) *PipelineContext {
	for _, path := range ctx.Config.AlgorithmPaths() {
		f, err := constraints.LoadFile(path)
		if err != nil {
			ctx.fail(err)
			continue
		}
		ctx.Files = append(ctx.Files, f)
	}
	return ctx
}

// LibraryProcessor extends the standard library with the concepts of the
// algorithm files and merges their algorithms into one module.
type LibraryProcessor struct{}

func (LibraryProcessor) Process(ctx *PipelineContext) *PipelineContext {
	module := &constraints.Module{}
	seen := map[string]string{}
	for _, f := range ctx.Files {
		m, err := f.Compile()
		if err != nil {
			return ctx.fail(err)
		}
		for _, alg := range m.Algorithms {
			if prev, dup := seen[alg.Name]; dup {
				return ctx.fail(fmt.Errorf("%s: algorithm %s already defined in %s", f.Path, alg.Name, prev))
			}
			seen[alg.Name] = f.Path
		}
		module.Concepts = append(module.Concepts, m.Concepts...)
		module.Algorithms = append(module.Algorithms, m.Algorithms...)
	}

	lib, err := concepts.Standard().Extend(module.Concepts...)
	if err != nil {
		return ctx.fail(err)
	}
	ctx.Library = lib
	ctx.Module = module
	return ctx
}

// StoreProcessor opens the configured verdict store.
type StoreProcessor struct{}

func (StoreProcessor) Process(ctx *PipelineContext) *PipelineContext {
	cfg := ctx.Config.Store
	if cfg.Kind == config.StoreSQLite && cfg.Path != ":memory:" {
		cfg.Path = ctx.Config.Resolve(cfg.Path)
	}
	s, err := store.Open(ctx.Context, cfg, ctx.Logger)
	if err != nil {
		return ctx.fail(err)
	}
	ctx.Store = s
	return ctx
}

// EngineProcessor builds the engine and checker once the universe and
// library exist.
type EngineProcessor struct{}

func (EngineProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Universe == nil || ctx.Library == nil {
		return ctx
	}
	opts := []concepts.Option{
		concepts.WithLogger(ctx.Logger),
		concepts.WithConcurrency(ctx.Config.Concurrency),
	}
	if ctx.Store != nil {
		opts = append(opts, concepts.WithStore(ctx.Store))
	}
	checkerOpts := []constraints.Option{constraints.WithLogger(ctx.Logger)}
	if ctx.Metrics != nil {
		opts = append(opts, concepts.WithRecorder(ctx.Metrics))
		checkerOpts = append(checkerOpts, constraints.WithRecorder(ctx.Metrics))
	}
	ctx.Engine = concepts.NewEngine(ctx.Library, ctx.Universe, opts...)
	ctx.Checker = constraints.NewChecker(ctx.Engine, checkerOpts...)
	return ctx
}
