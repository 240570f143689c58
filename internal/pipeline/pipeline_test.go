package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/funvibe/concepts/internal/concepts"
	"github.com/funvibe/concepts/internal/config"
	"github.com/funvibe/concepts/internal/diagnostics"
	"github.com/funvibe/concepts/internal/metrics"
	"github.com/funvibe/concepts/internal/parser"
	"github.com/funvibe/concepts/internal/store"
	"github.com/funvibe/concepts/internal/typesystem"
)

const unitsCatalog = `
name: units
types:
  - name: Meters
  - name: Handle
    special:
      copy_ctor: deleted
      copy_assign: deleted
`

const unitsAlgorithms = `
concepts:
  - name: Value
    params: [T]
    all: ["Copyable<T>"]
algorithms:
  - name: duplicate
    signature: "forall T. (const T&) -> T where Value<T>"
`

func writeProject(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg, err := config.Load(filepath.Join(dir, config.ConfigFileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestDefaultPipeline(t *testing.T) {
	ctx := Default().Run(NewContext(context.Background(), nil, nil))
	if err := ctx.Err(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer ctx.Close()

	if ctx.Store != nil {
		t.Errorf("default configuration should not open a store")
	}
	if len(ctx.Module.Algorithms) != 0 {
		t.Errorf("expected no algorithms, got %d", len(ctx.Module.Algorithms))
	}
	if ctx.Library.Fingerprint() != concepts.Standard().Fingerprint() {
		t.Errorf("library without algorithm files should be the standard library")
	}
	v, err := ctx.Engine.EvaluateQuery(context.Background(), "RandomAccessIterator<int*>")
	if err != nil || !v.Satisfied {
		t.Errorf("RandomAccessIterator<int*>: %v %v", v, err)
	}
}

func TestProjectPipeline(t *testing.T) {
	cfg := writeProject(t, map[string]string{
		config.ConfigFileName: `
catalogs: [units.yaml]
algorithms: [units_algorithms.yaml]
store:
  kind: sqlite
  path: cache/verdicts.db
`,
		"units.yaml":            unitsCatalog,
		"units_algorithms.yaml": unitsAlgorithms,
	})

	m := metrics.New(prometheus.NewRegistry())
	pc := NewContext(context.Background(), cfg, nil)
	pc.Metrics = m
	pc = Default().Run(pc)
	if err := pc.Err(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer pc.Close()

	if _, ok := pc.Store.(*store.SQLite); !ok {
		t.Errorf("expected a sqlite store, got %T", pc.Store)
	}
	if _, err := os.Stat(filepath.Join(cfg.Dir, "cache", "verdicts.db")); err != nil {
		t.Errorf("store path should resolve against the config directory: %v", err)
	}
	if _, ok := pc.Library.Lookup("Value"); !ok {
		t.Errorf("algorithm file concepts should extend the library")
	}

	alg, ok := pc.Module.Lookup("duplicate")
	if !ok {
		t.Fatalf("algorithm duplicate not loaded")
	}
	ctx := context.Background()

	meters, _ := parser.ParseType("Meters")
	inst, err := pc.Checker.Instantiate(ctx, alg, meters)
	if err != nil {
		t.Fatalf("duplicate<Meters>: %v", err)
	}
	if got := inst.Signature.String(); got != "fn(const Meters&) -> Meters" {
		t.Errorf("signature = %s", got)
	}

	_, err = pc.Checker.Instantiate(ctx, alg, typesystem.TCon{Name: "Handle"})
	if !errors.Is(err, diagnostics.Code(diagnostics.ErrC002)) {
		t.Errorf("duplicate<Handle>: expected C002, got %v", err)
	}
}

func TestPipelineCollectsErrors(t *testing.T) {
	cfg := writeProject(t, map[string]string{
		config.ConfigFileName: "catalogs: [broken.yaml]\nalgorithms: [missing.yaml]\n",
		"broken.yaml":         "types:\n  - name: Box\n    member_types:\n      value_type: Gadget\n",
	})

	pc := Default().Run(NewContext(context.Background(), cfg, nil))
	defer pc.Close()

	if len(pc.Errors) != 2 {
		t.Fatalf("expected a catalog and a file error, got %v", pc.Errors)
	}
	if !errors.Is(pc.Err(), diagnostics.Code(diagnostics.ErrC005)) {
		t.Errorf("expected C005 in %v", pc.Err())
	}
	if pc.Engine != nil {
		t.Errorf("engine should not be built without a universe")
	}
}

func TestDuplicateAlgorithmAcrossFiles(t *testing.T) {
	cfg := writeProject(t, map[string]string{
		config.ConfigFileName: "algorithms: [a.yaml, b.yaml]\n",
		"a.yaml":              "algorithms:\n  - {name: f, signature: \"forall T. (T) -> T where Copyable<T>\"}\n",
		"b.yaml":              "algorithms:\n  - {name: f, signature: \"forall T. (T) -> void where Copyable<T>\"}\n",
	})

	pc := Default().Run(NewContext(context.Background(), cfg, nil))
	defer pc.Close()
	if err := pc.Err(); err == nil {
		t.Fatalf("expected duplicate algorithm error")
	}
}
