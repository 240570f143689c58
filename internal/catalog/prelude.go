package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/funvibe/concepts/internal/symbols"
)

//go:embed prelude.yaml
var preludeSource []byte

// PreludeName is the catalog name of the embedded prelude.
const PreludeName = "prelude"

var (
	prelude     *symbols.Universe
	preludeErr  error
	preludeOnce sync.Once
)

// Prelude returns the shared universe holding the builtins and the embedded
// prelude catalog. It must not be modified; enclose it instead.
func Prelude() (*symbols.Universe, error) {
	preludeOnce.Do(func() {
		c, err := Parse(preludeSource, PreludeName)
		if err != nil {
			preludeErr = err
			return
		}
		u := symbols.NewUniverse()
		if err := c.Install(u, preludeSource); err != nil {
			preludeErr = err
			return
		}
		prelude = u
	})
	return prelude, preludeErr
}

// MustPrelude is Prelude for callers that treat a broken embedded catalog as fatal.
func MustPrelude() *symbols.Universe {
	u, err := Prelude()
	if err != nil {
		panic(fmt.Sprintf("embedded prelude: %v", err))
	}
	return u
}

// NewUniverse builds a universe enclosing the prelude with one scope per
// catalog file, in order, so later catalogs may use earlier declarations.
func NewUniverse(paths ...string) (*symbols.Universe, error) {
	u, err := Prelude()
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog %s: %w", path, err)
		}
		c, err := Parse(data, path)
		if err != nil {
			return nil, err
		}
		inner := symbols.NewEnclosedUniverse(u)
		if err := c.Install(inner, data); err != nil {
			return nil, err
		}
		u = inner
	}
	return u, nil
}

// PreludeSource returns the embedded prelude catalog text.
func PreludeSource() []byte {
	return preludeSource
}
