// Package pipeline assembles an evaluation environment from configuration:
// catalogs into a universe, algorithm files into a library and module, the
// verdict store, the engine and the checker.
package pipeline

import "errors"

// Processor is one setup stage. A stage whose inputs are missing because an
// earlier stage failed does nothing.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx *PipelineContext) *PipelineContext

func (f ProcessorFunc) Process(ctx *PipelineContext) *PipelineContext { return f(ctx) }

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Default is the full setup: catalogs, algorithm files, library, store,
// engine and checker.
func Default() *Pipeline {
	return New(CatalogProcessor{}, AlgorithmProcessor{}, LibraryProcessor{}, StoreProcessor{}, EngineProcessor{})
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		// Continue on errors so that independent stages report too
		// (a broken catalog and a broken algorithm file in one run).
	}
	return ctx
}

// Err joins every stage error.
func (ctx *PipelineContext) Err() error {
	return errors.Join(ctx.Errors...)
}
