package constraints

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/funvibe/concepts/internal/concepts"
	"github.com/funvibe/concepts/internal/typesystem"
)

// Recorder receives instantiation metrics.
type Recorder interface {
	Instantiated(algorithm string, ok bool)
}

type nopRecorder struct{}

func (nopRecorder) Instantiated(string, bool) {}

// Instance is a successful instantiation.
type Instance struct {
	Algorithm string
	Args      []string
	// Signature is the algorithm's type with its parameters replaced.
	Signature typesystem.Type
	// Verdicts holds the evaluated constraints in declaration order.
	Verdicts []concepts.Verdict
}

func (i *Instance) String() string {
	return fmt.Sprintf("%s<%s>: %s", i.Algorithm, strings.Join(i.Args, ", "), i.Signature)
}

// Checker validates and instantiates algorithms against an engine's concept
// library and universe. Instantiations are memoised; a Checker is safe for
// concurrent use.
type Checker struct {
	engine *concepts.Engine
	rec    Recorder
	logger *slog.Logger
	memo   sync.Map
}

type Option func(*Checker)

func WithRecorder(r Recorder) Option {
	return func(c *Checker) {
		if r != nil {
			c.rec = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewChecker(engine *concepts.Engine, opts ...Option) *Checker {
	c := &Checker{
		engine: engine,
		rec:    nopRecorder{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks that every constraint names a known concept with the
// right number of arguments, and that the signature and the constraints
// mention only declared type parameters and known types.
func (c *Checker) Validate(alg *Algorithm) error {
	declared := make(map[string]bool, len(alg.Signature.Vars))
	for _, v := range alg.Signature.Vars {
		declared[v.Name] = true
	}
	undeclared := func(t typesystem.Type) error {
		for _, tv := range t.FreeTypeVariables() {
			if !declared[tv.Name] {
				return fmt.Errorf("%w: %s", ErrUnknownParameter, tv.Name)
			}
		}
		return nil
	}

	if alg.Signature.Type == nil {
		return &DeclarationError{Algorithm: alg.label(), Err: fmt.Errorf("missing signature")}
	}
	if err := undeclared(alg.Signature.Type); err != nil {
		return &DeclarationError{Algorithm: alg.label(), Err: err}
	}
	if _, err := c.engine.Universe().Normalize(alg.Signature.Type); err != nil {
		return &DeclarationError{Algorithm: alg.label(), Err: err}
	}

	lib := c.engine.Library()
	for _, con := range alg.Signature.Constraints {
		fail := func(err error) error {
			return &DeclarationError{Algorithm: alg.label(), Constraint: con.String(), Err: err}
		}
		concept, ok := lib.Lookup(con.Trait)
		if !ok {
			return fail(fmt.Errorf("%w: %s", concepts.ErrUnknownConcept, con.Trait))
		}
		if err := concept.CheckArity(len(con.Args)); err != nil {
			return fail(err)
		}
		for _, arg := range con.Args {
			if err := undeclared(arg); err != nil {
				return fail(err)
			}
			if _, err := c.engine.Universe().Normalize(arg); err != nil {
				return fail(err)
			}
		}
	}
	return nil
}

// Instantiate substitutes concrete types for the algorithm's parameters and
// evaluates its constraints in order. The first unmet constraint is
// reported as an *UnmetConstraintError; an ill-formed declaration as a
// *DeclarationError.
func (c *Checker) Instantiate(ctx context.Context, alg *Algorithm, args ...typesystem.Type) (*Instance, error) {
	if err := c.Validate(alg); err != nil {
		return nil, err
	}
	if len(args) != len(alg.Signature.Vars) {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrTypeArguments, alg.label(), len(alg.Signature.Vars), len(args))
	}

	u := c.engine.Universe()
	subst := make(typesystem.Subst, len(args))
	spelled := make([]string, len(args))
	for i, arg := range args {
		t, err := u.Normalize(arg)
		if err != nil {
			return nil, fmt.Errorf("%s argument %d: %w", alg.label(), i+1, err)
		}
		if len(t.FreeTypeVariables()) > 0 {
			return nil, fmt.Errorf("%s argument %d: %s %w", alg.label(), i+1, t, concepts.ErrNotConcrete)
		}
		subst[alg.Signature.Vars[i].Name] = t
		spelled[i] = t.String()
	}

	key := alg.String() + "|" + strings.Join(spelled, ", ")
	if res, ok := c.memo.Load(key); ok {
		return res.(*instantiation).unpack()
	}

	inst, err := c.instantiate(ctx, alg, subst, spelled)
	if ctx.Err() == nil {
		c.memo.Store(key, &instantiation{inst: inst, err: err})
	}
	c.rec.Instantiated(alg.label(), err == nil)
	if err != nil {
		c.logger.Debug("instantiation rejected", "algorithm", alg.label(), "args", spelled, "error", err)
	} else {
		c.logger.Debug("instantiated", "algorithm", alg.label(), "args", spelled)
	}
	return inst, err
}

type instantiation struct {
	inst *Instance
	err  error
}

func (i *instantiation) unpack() (*Instance, error) { return i.inst, i.err }

func (c *Checker) instantiate(ctx context.Context, alg *Algorithm, subst typesystem.Subst, spelled []string) (*Instance, error) {
	u := c.engine.Universe()
	inst := &Instance{Algorithm: alg.label(), Args: spelled}

	for _, con := range alg.Signature.Constraints {
		concept, _ := c.engine.Library().Lookup(con.Trait)
		unmet := func(v concepts.Verdict) error {
			return &UnmetConstraintError{Algorithm: alg.label(), Args: spelled, Verdict: v, Layer: concept.Layer()}
		}

		cargs := make([]typesystem.Type, len(con.Args))
		for i, arg := range con.Args {
			t, err := u.Normalize(arg.Apply(subst))
			if err != nil {
				// An associated type that does not exist for these arguments
				// fails the constraint, like any other unformed requirement.
				return nil, unmet(concepts.Verdict{
					Concept: con.Trait,
					Args:    substituted(con.Args, subst),
					Failure: &concepts.Failure{Subject: arg.Apply(subst).String(), Reason: err.Error()},
				})
			}
			cargs[i] = t
		}

		v, err := c.engine.EvaluateContext(ctx, con.Trait, cargs...)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", alg.label(), con, err)
		}
		if !v.Satisfied {
			return nil, unmet(v)
		}
		inst.Verdicts = append(inst.Verdicts, v)
	}

	sig, err := u.Normalize(alg.Signature.Type.Apply(subst))
	if err != nil {
		return nil, fmt.Errorf("%s: signature: %w", alg.label(), err)
	}
	inst.Signature = sig
	return inst, nil
}

func substituted(args []typesystem.Type, subst typesystem.Subst) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = typesystem.Canonical(a.Apply(subst)).String()
	}
	return out
}

// Forget drops every memoised instantiation.
func (c *Checker) Forget() {
	c.memo.Range(func(k, _ interface{}) bool {
		c.memo.Delete(k)
		return true
	})
}
