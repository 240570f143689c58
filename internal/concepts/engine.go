package concepts

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/funvibe/concepts/internal/analyzer"
	"github.com/funvibe/concepts/internal/parser"
	"github.com/funvibe/concepts/internal/symbols"
	"github.com/funvibe/concepts/internal/typesystem"
)

// Engine evaluates concepts of a library against types of a universe.
// Verdicts are memoised per concept and canonical arguments; an Engine is
// safe for concurrent use.
type Engine struct {
	lib    *Library
	u      *symbols.Universe
	an     *analyzer.Analyzer
	store  VerdictStore
	rec    Recorder
	logger *slog.Logger
	limit  int

	memo  sync.Map
	group singleflight.Group

	keyPrefix string
}

type Option func(*Engine)

// WithStore consults and fills a persistent verdict store on top-level
// evaluations.
func WithStore(s VerdictStore) Option {
	return func(e *Engine) { e.store = s }
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.rec = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithConcurrency bounds the goroutines used by EvaluateAll.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.limit = n
		}
	}
}

func NewEngine(lib *Library, u *symbols.Universe, opts ...Option) *Engine {
	e := &Engine{
		lib:    lib,
		u:      u,
		an:     analyzer.New(u),
		rec:    nopRecorder{},
		logger: slog.New(slog.DiscardHandler),
		limit:  runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.keyPrefix = u.Fingerprint() + "/" + lib.Fingerprint() + "/"
	return e
}

func (e *Engine) Library() *Library            { return e.lib }
func (e *Engine) Universe() *symbols.Universe  { return e.u }
func (e *Engine) Analyzer() *analyzer.Analyzer { return e.an }

// Evaluate applies a concept to type arguments in process. Errors report a
// malformed query (unknown concept, wrong arity, unknown type); an
// unsatisfied concept is a Verdict, not an error.
func (e *Engine) Evaluate(name string, args ...typesystem.Type) (Verdict, error) {
	c, norm, err := e.prepare(name, args)
	if err != nil {
		return Verdict{}, err
	}
	return e.evaluate(c, norm), nil
}

// EvaluateContext is Evaluate backed by the verdict store, if any. Store
// failures are logged and degrade to in-process evaluation.
func (e *Engine) EvaluateContext(ctx context.Context, name string, args ...typesystem.Type) (Verdict, error) {
	c, norm, err := e.prepare(name, args)
	if err != nil {
		return Verdict{}, err
	}
	if e.store == nil {
		return e.evaluate(c, norm), nil
	}

	key := e.StoreKey(name, norm)
	v, found, err := e.store.Get(ctx, key)
	switch {
	case err != nil:
		e.rec.StoreError("get")
		e.logger.Warn("verdict store read failed", "key", key, "error", err)
	case found:
		e.rec.CacheHit("store")
		return v, nil
	}

	v = e.evaluate(c, norm)
	if err := e.store.Put(ctx, key, v); err != nil {
		e.rec.StoreError("put")
		e.logger.Warn("verdict store write failed", "key", key, "error", err)
	}
	return v, nil
}

// EvaluateQuery parses a query such as "Ordered<int, float>" and evaluates it.
func (e *Engine) EvaluateQuery(ctx context.Context, text string) (Verdict, error) {
	q, err := parser.ParseQuery(text)
	if err != nil {
		return Verdict{}, err
	}
	return e.EvaluateContext(ctx, q.Trait, q.Args...)
}

// EvaluateAll evaluates queries concurrently; verdicts keep the order of
// queries. The first malformed query cancels the batch.
func (e *Engine) EvaluateAll(ctx context.Context, queries []Query) ([]Verdict, error) {
	verdicts := make([]Verdict, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i, q := range queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := e.EvaluateContext(ctx, q.Concept, q.Args...)
			if err != nil {
				return fmt.Errorf("%s: %w", q, err)
			}
			verdicts[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}

// StoreKey identifies a verdict across processes: the universe and library
// fingerprints followed by the canonical query.
func (e *Engine) StoreKey(name string, args []typesystem.Type) string {
	return e.keyPrefix + memoKey(name, args)
}

func (e *Engine) prepare(name string, args []typesystem.Type) (*Concept, []typesystem.Type, error) {
	c, ok := e.lib.Lookup(name)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownConcept, name)
	}
	if err := c.CheckArity(len(args)); err != nil {
		return nil, nil, err
	}
	norm := make([]typesystem.Type, len(args))
	for i, arg := range args {
		t, err := e.u.Normalize(arg)
		if err != nil {
			return nil, nil, fmt.Errorf("%s argument %d: %w", name, i+1, err)
		}
		if len(t.FreeTypeVariables()) > 0 {
			return nil, nil, fmt.Errorf("%s argument %d: %s %w", name, i+1, t, ErrNotConcrete)
		}
		norm[i] = t
	}
	return c, norm, nil
}

func memoKey(name string, args []typesystem.Type) string {
	return name + "<" + strings.Join(spellTypes(args), ", ") + ">"
}

func spellTypes(ts []typesystem.Type) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}
	return out
}

// evaluate memoises verdicts. Concurrent evaluations of one key share a
// single computation; nested keys never repeat because the library is
// acyclic.
func (e *Engine) evaluate(c *Concept, args []typesystem.Type) Verdict {
	key := memoKey(c.Name, args)
	if v, ok := e.memo.Load(key); ok {
		e.rec.CacheHit("memory")
		return v.(Verdict)
	}
	res, _, _ := e.group.Do(key, func() (interface{}, error) {
		if v, ok := e.memo.Load(key); ok {
			return v, nil
		}
		start := time.Now()
		failure := e.formula(c.Body, e.bind(c, args))
		v := Verdict{
			Concept:   c.Name,
			Args:      spellTypes(args),
			Satisfied: failure == nil,
			Failure:   failure,
		}
		e.memo.Store(key, v)
		e.rec.Evaluated(c.Name, v.Satisfied, time.Since(start))
		e.logger.Debug("concept evaluated", "query", key, "satisfied", v.Satisfied)
		return v, nil
	})
	return res.(Verdict)
}

// Forget drops every memoised verdict.
func (e *Engine) Forget() {
	e.memo.Range(func(k, _ interface{}) bool {
		e.memo.Delete(k)
		return true
	})
}
