package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_Valid(t *testing.T) {
	yaml := `
catalogs:
  - types/widgets.yaml
  - /abs/geometry.yml
algorithms: [algorithms.yaml]
store:
  kind: redis
  addr: cache:6379
  db: 2
  ttl: 10m
server:
  http_addr: ":8000"
concurrency: 8
log_level: debug
`
	cfg, err := Parse([]byte(yaml), "/project/conceptcheck.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Kind != StoreRedis || cfg.Store.Addr != "cache:6379" || cfg.Store.DB != 2 {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Store.TTL != 10*time.Minute {
		t.Errorf("ttl = %v, want 10m", cfg.Store.TTL)
	}
	if cfg.Server.HTTPAddr != ":8000" {
		t.Errorf("http_addr = %q, want :8000", cfg.Server.HTTPAddr)
	}
	if cfg.Server.GRPCAddr != DefaultGRPCAddr {
		t.Errorf("grpc_addr = %q, want default %q", cfg.Server.GRPCAddr, DefaultGRPCAddr)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("concurrency = %d, want 8", cfg.Concurrency)
	}

	paths := cfg.CatalogPaths()
	want := []string{filepath.Join("/project", "types/widgets.yaml"), "/abs/geometry.yml"}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("catalog[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
	if got := cfg.AlgorithmPaths()[0]; got != filepath.Join("/project", "algorithms.yaml") {
		t.Errorf("algorithm path = %q", got)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"), "conceptcheck.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Kind != StoreNone {
		t.Errorf("store kind = %q, want %q", cfg.Store.Kind, StoreNone)
	}
	if cfg.Store.Path != DefaultSQLitePath {
		t.Errorf("store path = %q, want %q", cfg.Store.Path, DefaultSQLitePath)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("log level = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "catalogs: [", "parsing test.yaml"},
		{"empty catalog", "catalogs: ['']", "catalogs[0]: empty path"},
		{"not yaml", "catalogs: [types.json]", `catalogs[0]: "types.json" is not a YAML file`},
		{"empty algorithm", "algorithms: ['']", "algorithms[0]: empty path"},
		{"store kind", "store: {kind: postgres}", `store: unknown kind "postgres"`},
		{"negative db", "store: {kind: redis, db: -1}", "db must not be negative"},
		{"negative concurrency", "concurrency: -2", "concurrency must not be negative"},
		{"log level", "log_level: loud", `unknown log level "loud"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml), "test.yaml")
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want it to contain %q", err, tc.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvStore:       StoreSQLite,
		EnvSQLitePath:  "/tmp/v.db",
		EnvHTTPAddr:    ":1234",
		EnvLogLevel:    "warn",
		EnvConcurrency: "3",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Kind != StoreSQLite || cfg.Store.Path != "/tmp/v.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Server.HTTPAddr != ":1234" || cfg.Server.GRPCAddr != DefaultGRPCAddr {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.LogLevel != "warn" || cfg.Concurrency != 3 {
		t.Errorf("log level = %q, concurrency = %d", cfg.LogLevel, cfg.Concurrency)
	}

	env[EnvConcurrency] = "many"
	if err := cfg.ApplyEnv(lookup); err == nil {
		t.Error("expected error for invalid concurrency")
	}
	delete(env, EnvConcurrency)
	env[EnvStore] = "etcd"
	if err := cfg.ApplyEnv(lookup); err == nil {
		t.Error("expected error for unknown store kind")
	}
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	found, err := FindConfig(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != "" && strings.HasPrefix(found, root) {
		t.Errorf("found %q before writing a config", found)
	}

	path := filepath.Join(root, ConfigFileName)
	if err := os.WriteFile(path, []byte("catalogs: [types.yaml]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	found, err = FindConfig(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != path {
		t.Errorf("FindConfig = %q, want %q", found, path)
	}

	cfg, err := Discover(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.CatalogPaths()[0]; got != filepath.Join(root, "types.yaml") {
		t.Errorf("catalog path = %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLevel(name)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
}
