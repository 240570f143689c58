package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/concepts/internal/catalog"
	"github.com/funvibe/concepts/internal/concepts"
	"github.com/funvibe/concepts/internal/server"
)

const algorithmsYAML = `
algorithms:
  - name: iter_swap
    signature: "forall I J. (I, J) -> void where ValueSwappable<I, J>"
  - name: rotate
    signature: "forall I. (I, I, I) -> I where ForwardIterator<I>"
`

func env(kv ...string) func(string) (string, bool) {
	m := make(map[string]string)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// project writes a configuration with one algorithm file and returns its path.
func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "algorithms.yaml"), []byte(algorithmsYAML), 0o644))
	cfg := "algorithms: [algorithms.yaml]\nlog_level: error\n"
	path := filepath.Join(dir, "conceptcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

type result struct {
	code           int
	stdout, stderr string
}

func runCLI(t *testing.T, lookup func(string) (string, bool), args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	if lookup == nil {
		lookup = env()
	}
	code := run(context.Background(), args, lookup, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestUsage(t *testing.T) {
	r := runCLI(t, nil)
	assert.Equal(t, exitError, r.code)
	assert.Contains(t, r.stderr, "Commands:")
	assert.Contains(t, r.stderr, "gotype")

	r = runCLI(t, nil, "help")
	assert.Equal(t, exitOK, r.code)

	r = runCLI(t, nil, "frobnicate")
	assert.Equal(t, exitError, r.code)
	assert.Contains(t, r.stderr, `unknown command "frobnicate"`)
}

func TestEval(t *testing.T) {
	cfg := project(t)

	tests := []struct {
		name   string
		args   []string
		code   int
		stdout []string
		stderr string
	}{
		{
			name:   "satisfied",
			args:   []string{"Ordered<int, float>", "Allocator<Allocator<int>>"},
			code:   exitOK,
			stdout: []string{"✓ Ordered<int, float>", "✓ Allocator<Allocator<int>>"},
		},
		{
			name:   "unsatisfied",
			args:   []string{"Ordered<int, float>", "Ordered<Complex<float>>"},
			code:   exitUnsatisfied,
			stdout: []string{"✓ Ordered<int, float>", "✗ Ordered<Complex<float>> (WeaklyOrdered<Complex<float>, Complex<float>>"},
		},
		{
			name:   "syntax",
			args:   []string{"Ordered<int"},
			code:   exitError,
			stderr: "C004",
		},
		{
			name:   "unknown concept",
			args:   []string{"Nope<int>"},
			code:   exitError,
			stderr: "unknown concept",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runCLI(t, nil, append([]string{"-config", cfg, "eval"}, tt.args...)...)
			assert.Equal(t, tt.code, r.code, r.stderr)
			for _, want := range tt.stdout {
				assert.Contains(t, r.stdout, want)
			}
			if tt.stderr != "" {
				assert.Contains(t, r.stderr, tt.stderr)
			}
		})
	}
}

func TestEvalJSON(t *testing.T) {
	r := runCLI(t, nil, "-config", project(t), "-json", "eval", "CompatibleArithmetic<float, Complex<float>>")
	require.Equal(t, exitUnsatisfied, r.code, r.stderr)

	var verdicts []concepts.Verdict
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &verdicts))
	require.Len(t, verdicts, 1)
	assert.False(t, verdicts[0].Satisfied)
	assert.Equal(t, []string{"float", "Complex<float>"}, verdicts[0].Args)
	require.NotNil(t, verdicts[0].Failure)
}

func TestExplain(t *testing.T) {
	cfg := project(t)

	r := runCLI(t, nil, "-config", cfg, "explain", "Ordered<Complex<float>>")
	assert.Equal(t, exitUnsatisfied, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Ordered<Complex<float>> not satisfied")
	assert.Contains(t, r.stdout, "Ordered<A, B = A> = WeaklyOrdered<A, B> && Comparable<A, B>")
	assert.Contains(t, r.stdout, "because:\n  WeaklyOrdered<Complex<float>, Complex<float>>\n")
	assert.Contains(t, r.stdout, "operator<")

	r = runCLI(t, nil, "-config", cfg, "explain", "Integral<int>")
	assert.Equal(t, exitOK, r.code)
	assert.Contains(t, r.stdout, "Integral<int> satisfied")
	assert.Contains(t, r.stdout, "Go constraint: generic.Integral\n")

	r = runCLI(t, nil, "-config", cfg, "-json", "explain", "Comparable<int>")
	require.Equal(t, exitOK, r.code, r.stderr)
	var out struct {
		GoConstraint string `json:"go_constraint"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
	assert.Equal(t, "comparable", out.GoConstraint)

	r = runCLI(t, nil, "-config", cfg, "explain", "Integral<int>", "Integral<long>")
	assert.Equal(t, exitError, r.code)
}

func TestList(t *testing.T) {
	cfg := project(t)

	r := runCLI(t, nil, "-config", cfg, "list")
	require.Equal(t, exitOK, r.code)
	assert.Contains(t, r.stdout, "Boolean<A>")
	assert.NotContains(t, r.stdout, "__Ordered")
	assert.Regexp(t, `FloatingPoint<\w+>\s+trait\s+generic\.Floating\n`, r.stdout)

	r = runCLI(t, nil, "-config", cfg, "-json", "list", "-hidden")
	require.Equal(t, exitOK, r.code)
	var infos []server.ConceptInfo
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &infos))
	assert.Equal(t, concepts.Standard().Len(), len(infos))
}

func TestDemo(t *testing.T) {
	r := runCLI(t, nil, "-config", project(t), "demo")
	assert.Equal(t, exitOK, r.code, r.stdout)
	assert.NotContains(t, r.stdout, "unexpected")
	assert.Contains(t, r.stdout, "\nallocators\n✓ Allocator<Allocator<int>>")
	assert.Contains(t, r.stdout, "✗ Bitmask<float>")
}

func TestCheck(t *testing.T) {
	cfg := project(t)

	r := runCLI(t, nil, "-config", cfg, "check")
	assert.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "✓ iter_swap: ")
	assert.Contains(t, r.stdout, "✓ rotate: ")

	r = runCLI(t, nil, "-config", cfg, "check", "rotate", "List<int>::iterator")
	assert.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "✓ rotate<ListIter<int>>: fn(ListIter<int>, ListIter<int>, ListIter<int>) -> ListIter<int>")
	assert.Contains(t, r.stdout, "  ForwardIterator<ListIter<int>>")

	r = runCLI(t, nil, "-config", cfg, "check", "iter_swap", "int*", "const int*")
	assert.Equal(t, exitUnsatisfied, r.code)
	assert.Contains(t, r.stdout, "✗ ")
	assert.Contains(t, r.stdout, "iter_swap<int*, const int*>")
	assert.Contains(t, r.stdout, "ValueSwappable<int*, const int*>")

	r = runCLI(t, nil, "-config", cfg, "check", "sort", "int*")
	assert.Equal(t, exitError, r.code)
	assert.Contains(t, r.stderr, "unknown algorithm")

	r = runCLI(t, nil, "-config", cfg, "check", "rotate")
	assert.Equal(t, exitError, r.code)
}

func TestCheckNoAlgorithms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conceptcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: error\n"), 0o644))

	r := runCLI(t, nil, "-config", path, "check")
	assert.Equal(t, exitOK, r.code)
	assert.Equal(t, "no algorithms configured\n", r.stdout)
}

func TestConfigErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conceptcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalogs: [missing.yaml]\n"), 0o644))

	r := runCLI(t, nil, "-config", path, "eval", "Integral<int>")
	assert.Equal(t, exitError, r.code)
	assert.Contains(t, r.stderr, "C005")

	r = runCLI(t, env("CONCEPTS_STORE", "etcd"), "-config", project(t), "eval", "Integral<int>")
	assert.Equal(t, exitError, r.code)
	assert.Contains(t, r.stderr, "unknown store kind")

	r = runCLI(t, nil, "-config", project(t), "-log-level", "loud", "eval", "Integral<int>")
	assert.Equal(t, exitError, r.code)
}

func TestMemoryStoreFromEnv(t *testing.T) {
	r := runCLI(t, env("CONCEPTS_STORE", "memory", "NO_COLOR", ""), "-config", project(t), "eval", "Integral<int>", "Integral<int>")
	assert.Equal(t, exitOK, r.code, r.stderr)
	assert.Equal(t, "✓ Integral<int>\n✓ Integral<int>\n", r.stdout)
}

func TestGotype(t *testing.T) {
	if testing.Short() {
		t.Skip("loads packages through the go command")
	}
	cfg := project(t)
	dir := filepath.Join("..", "..", "internal", "gotypes")

	r := runCLI(t, nil, "-config", cfg, "gotype", "-dir", dir, "./testdata/units", "Arithmetic", "Meters")
	assert.Equal(t, exitOK, r.code, r.stderr)
	assert.Equal(t, "✓ Arithmetic<Meters>\n", r.stdout)

	r = runCLI(t, nil, "-config", cfg, "gotype", "-dir", dir, "./testdata/units", "Copyable", "Counter")
	assert.Equal(t, exitUnsatisfied, r.code, r.stderr)

	r = runCLI(t, nil, "-config", cfg, "gotype", "-dir", dir, "-yaml", "./testdata/units")
	assert.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "name: go:github.com/funvibe/concepts/internal/gotypes/testdata/units")
	assert.Contains(t, r.stdout, "- name: Counter")

	r = runCLI(t, nil, "-config", cfg, "gotype", "./testdata/units")
	assert.Equal(t, exitError, r.code)
}

func TestRemote(t *testing.T) {
	engine := concepts.NewEngine(concepts.Standard(), catalog.MustPrelude())
	srv, err := server.NewGRPCServer(server.NewService(engine, nil, nil))
	require.NoError(t, err)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	addr := lis.Addr().String()
	r := runCLI(t, nil, "-remote", addr, "eval", "ForwardIterator<HashSet<int>::iterator>", "BidirectionalIterator<HashSet<int>::iterator>")
	assert.Equal(t, exitUnsatisfied, r.code, r.stderr)
	assert.Contains(t, r.stdout, "✓ ForwardIterator<HashSetIter<int>>")
	assert.Contains(t, r.stdout, "✗ BidirectionalIterator<HashSetIter<int>>")

	r = runCLI(t, nil, "-remote", addr, "list")
	assert.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Allocator<A>")

	r = runCLI(t, nil, "-remote", addr, "check", "rotate", "int*")
	assert.Equal(t, exitError, r.code)

	r = runCLI(t, nil, "-remote", addr, "check")
	assert.Equal(t, exitError, r.code)
}

func TestServe(t *testing.T) {
	cfg := project(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	var stdout, stderr bytes.Buffer
	go func() {
		done <- run(ctx, []string{"-config", cfg, "serve", "-http", "127.0.0.1:0", "-grpc", "127.0.0.1:0"}, env(), &stdout, &stderr)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case code := <-done:
		assert.Equal(t, exitOK, code)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
