package pipeline

import (
	"context"
	"log/slog"

	"github.com/funvibe/concepts/internal/concepts"
	"github.com/funvibe/concepts/internal/config"
	"github.com/funvibe/concepts/internal/constraints"
	"github.com/funvibe/concepts/internal/metrics"
	"github.com/funvibe/concepts/internal/store"
	"github.com/funvibe/concepts/internal/symbols"
)

// PipelineContext carries the inputs of a setup run and the products of
// each stage.
type PipelineContext struct {
	Context context.Context
	Config  *config.Config
	Logger  *slog.Logger
	// Metrics is optional; nil records nothing.
	Metrics *metrics.Metrics

	Universe *symbols.Universe
	Files    []*constraints.File
	Library  *concepts.Library
	// Module merges the algorithms of every algorithm file.
	Module  *constraints.Module
	Store   store.Store
	Engine  *concepts.Engine
	Checker *constraints.Checker

	Errors []error
}

// NewContext starts a setup run. A nil cfg uses config.Default and a nil
// logger discards.
func NewContext(ctx context.Context, cfg *config.Config, logger *slog.Logger) *PipelineContext {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PipelineContext{Context: ctx, Config: cfg, Logger: logger}
}

// Close releases the store, if one was opened.
func (ctx *PipelineContext) Close() error {
	if ctx.Store == nil {
		return nil
	}
	return ctx.Store.Close()
}

func (ctx *PipelineContext) fail(err error) *PipelineContext {
	ctx.Errors = append(ctx.Errors, err)
	return ctx
}
