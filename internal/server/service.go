// Package server answers concept queries and algorithm instantiations over
// HTTP and gRPC. Both transports share one Service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/funvibe/concepts/internal/concepts"
	"github.com/funvibe/concepts/internal/constraints"
	"github.com/funvibe/concepts/internal/metrics"
	"github.com/funvibe/concepts/internal/parser"
	"github.com/funvibe/concepts/internal/typesystem"
)

var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// ConceptInfo describes a library concept.
type ConceptInfo struct {
	Name         string   `json:"name"`
	Head         string   `json:"head"`
	Signature    string   `json:"signature"`
	Layer        string   `json:"layer"`
	Hidden       bool     `json:"hidden,omitempty"`
	Doc          string   `json:"doc,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// AlgorithmInfo describes a declared algorithm.
type AlgorithmInfo struct {
	Name      string   `json:"name"`
	Params    []string `json:"params"`
	Signature string   `json:"signature"`
	Doc       string   `json:"doc,omitempty"`
}

// InstanceInfo is a successful instantiation.
type InstanceInfo struct {
	Algorithm string             `json:"algorithm"`
	Args      []string           `json:"args"`
	Signature string             `json:"signature"`
	Verdicts  []concepts.Verdict `json:"verdicts"`
}

type Service struct {
	engine  *concepts.Engine
	checker *constraints.Checker
	module  *constraints.Module
	metrics *metrics.Metrics
	logger  *slog.Logger
	checks  []healthCheck
}

type healthCheck struct {
	name  string
	check func(context.Context) error
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHealthCheck adds a dependency check reported by /healthz.
func WithHealthCheck(name string, check func(context.Context) error) Option {
	return func(s *Service) {
		s.checks = append(s.checks, healthCheck{name: name, check: check})
	}
}

// Health runs every registered check and returns the failures by name.
func (s *Service) Health(ctx context.Context) map[string]string {
	failed := make(map[string]string)
	for _, hc := range s.checks {
		if err := hc.check(ctx); err != nil {
			failed[hc.name] = err.Error()
		}
	}
	return failed
}

// NewService serves the engine's library. A nil module declares no
// algorithms.
func NewService(engine *concepts.Engine, checker *constraints.Checker, module *constraints.Module, opts ...Option) *Service {
	if module == nil {
		module = &constraints.Module{}
	}
	if checker == nil {
		checker = constraints.NewChecker(engine)
	}
	s := &Service{
		engine:  engine,
		checker: checker,
		module:  module,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Concepts(includeHidden bool) []ConceptInfo {
	lib := s.engine.Library()
	names := lib.Names(includeHidden)
	out := make([]ConceptInfo, 0, len(names))
	for _, name := range names {
		c, _ := lib.Lookup(name)
		out = append(out, describe(c))
	}
	return out
}

func (s *Service) Concept(name string) (ConceptInfo, error) {
	c, ok := s.engine.Library().Lookup(name)
	if !ok {
		return ConceptInfo{}, fmt.Errorf("%w: %s", concepts.ErrUnknownConcept, name)
	}
	return describe(c), nil
}

func describe(c *concepts.Concept) ConceptInfo {
	return ConceptInfo{
		Name:         c.Name,
		Head:         c.String(),
		Signature:    c.Signature(),
		Layer:        c.Layer().String(),
		Hidden:       c.Hidden,
		Doc:          c.Doc,
		Dependencies: c.Dependencies(),
	}
}

// Evaluate applies a concept to type arguments written as type expressions.
func (s *Service) Evaluate(ctx context.Context, name string, args []string) (concepts.Verdict, error) {
	types, err := parseTypes(args)
	if err != nil {
		return concepts.Verdict{}, err
	}
	return s.engine.EvaluateContext(ctx, name, types...)
}

// EvaluateQueries evaluates queries such as "Ordered<int, float>"
// concurrently, keeping their order.
func (s *Service) EvaluateQueries(ctx context.Context, queries []string) ([]concepts.Verdict, error) {
	qs := make([]concepts.Query, len(queries))
	for i, text := range queries {
		q, err := parser.ParseQuery(text)
		if err != nil {
			return nil, fmt.Errorf("queries[%d]: %w", i, err)
		}
		qs[i] = concepts.Query{Concept: q.Trait, Args: q.Args}
	}
	return s.engine.EvaluateAll(ctx, qs)
}

func (s *Service) Algorithms() []AlgorithmInfo {
	out := make([]AlgorithmInfo, len(s.module.Algorithms))
	for i, alg := range s.module.Algorithms {
		out[i] = AlgorithmInfo{
			Name:      alg.Name,
			Params:    alg.Params(),
			Signature: alg.Signature.String(),
			Doc:       alg.Doc,
		}
	}
	return out
}

// Instantiate instantiates a declared algorithm. An unmet constraint is
// returned as a *constraints.UnmetConstraintError.
func (s *Service) Instantiate(ctx context.Context, name string, args []string) (InstanceInfo, error) {
	alg, ok := s.module.Lookup(name)
	if !ok {
		return InstanceInfo{}, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}
	types, err := parseTypes(args)
	if err != nil {
		return InstanceInfo{}, err
	}
	inst, err := s.checker.Instantiate(ctx, alg, types...)
	if err != nil {
		return InstanceInfo{}, err
	}
	return InstanceInfo{
		Algorithm: inst.Algorithm,
		Args:      inst.Args,
		Signature: inst.Signature.String(),
		Verdicts:  inst.Verdicts,
	}, nil
}

func parseTypes(args []string) ([]typesystem.Type, error) {
	types := make([]typesystem.Type, len(args))
	for i, arg := range args {
		t, err := parser.ParseType(arg)
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		types[i] = t
	}
	return types, nil
}
