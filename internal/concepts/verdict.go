package concepts

//go:generate mockgen -source=verdict.go -destination=mocks/mocks.go -package=mocks VerdictStore,Recorder

import (
	"context"
	"strings"
	"time"

	"github.com/funvibe/concepts/internal/typesystem"
)

// Query applies a concept to type arguments.
type Query struct {
	Concept string
	Args    []typesystem.Type
}

func (q Query) String() string {
	return typesystem.Constraint{Trait: q.Concept, Args: q.Args}.String()
}

// Verdict is the outcome of evaluating a concept. Args are the canonical
// spellings of the type arguments, so verdicts can be stored and compared
// as plain data.
type Verdict struct {
	Concept   string   `json:"concept"`
	Args      []string `json:"args"`
	Satisfied bool     `json:"satisfied"`
	Failure   *Failure `json:"failure,omitempty"`
}

func (v Verdict) Query() string {
	return v.Concept + "<" + strings.Join(v.Args, ", ") + ">"
}

func (v Verdict) String() string {
	if v.Satisfied {
		return v.Query() + ": satisfied"
	}
	if v.Failure == nil {
		return v.Query() + ": not satisfied"
	}
	return v.Query() + ": " + v.Failure.String()
}

// Failure explains an unsatisfied concept. Subject names the first failing
// constituent; Cause descends into it until the failing requirement.
type Failure struct {
	Subject string   `json:"subject"`
	Reason  string   `json:"reason,omitempty"`
	Cause   *Failure `json:"cause,omitempty"`
}

// Leaf returns the innermost failure.
func (f *Failure) Leaf() *Failure {
	for f.Cause != nil {
		f = f.Cause
	}
	return f
}

// Chain lists the subjects from the outermost constituent down to the
// failing requirement.
func (f *Failure) Chain() []string {
	var chain []string
	for cur := f; cur != nil; cur = cur.Cause {
		chain = append(chain, cur.Subject)
	}
	return chain
}

func (f *Failure) String() string {
	leaf := f.Leaf()
	s := strings.Join(f.Chain(), " -> ")
	if leaf.Reason != "" {
		s += ": " + leaf.Reason
	}
	return s
}

// VerdictStore persists verdicts across processes. A miss is reported with
// found == false, not an error.
type VerdictStore interface {
	Get(ctx context.Context, key string) (v Verdict, found bool, err error)
	Put(ctx context.Context, key string, v Verdict) error
}

// Recorder receives evaluation metrics.
type Recorder interface {
	Evaluated(concept string, satisfied bool, d time.Duration)
	CacheHit(layer string)
	StoreError(op string)
}

type nopRecorder struct{}

func (nopRecorder) Evaluated(string, bool, time.Duration) {}
func (nopRecorder) CacheHit(string)                       {}
func (nopRecorder) StoreError(string)                     {}
