// Package config loads conceptcheck.yaml, the project configuration naming
// user catalogs, algorithm files, the verdict store and server addresses.
// Environment variables override the file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level conceptcheck.yaml configuration.
type Config struct {
	// Catalogs lists type catalogs layered over the prelude, in order.
	// Relative paths are resolved against the configuration file.
	Catalogs []string `yaml:"catalogs,omitempty"`

	// Algorithms lists algorithm files checked by "conceptcheck check".
	Algorithms []string `yaml:"algorithms,omitempty"`

	Store  Store  `yaml:"store,omitempty"`
	Server Server `yaml:"server,omitempty"`

	// Concurrency bounds batch evaluation. Zero means GOMAXPROCS.
	Concurrency int `yaml:"concurrency,omitempty"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level,omitempty"`

	// Dir is the directory holding the configuration file.
	Dir string `yaml:"-"`
}

// Store selects the persistent verdict store.
type Store struct {
	// Kind is none, memory, sqlite or redis. Defaults to none.
	Kind string `yaml:"kind,omitempty"`

	// Path is the SQLite database file.
	Path string `yaml:"path,omitempty"`

	// Addr, Password and DB address the Redis server.
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`

	// TTL expires stored verdicts. Zero keeps them forever.
	TTL time.Duration `yaml:"ttl,omitempty"`
}

type Server struct {
	HTTPAddr string `yaml:"http_addr,omitempty"`
	GRPCAddr string `yaml:"grpc_addr,omitempty"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

// Load reads and parses a conceptcheck.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses conceptcheck.yaml content from bytes.
// The path argument is used for error messages and to resolve relative paths.
func Parse(data []byte, path string) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	c.Dir = filepath.Dir(path)
	if err := c.validate(path); err != nil {
		return nil, err
	}
	c.setDefaults()
	return &c, nil
}

// FindConfig searches for conceptcheck.yaml starting from dir and walking
// up. Returns "" if none is found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Discover loads the configuration found from dir, or the defaults.
func Discover(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		c := Default()
		c.Dir = dir
		return c, nil
	}
	return Load(path)
}

var validStores = map[string]bool{
	"": true, StoreNone: true, StoreMemory: true, StoreSQLite: true, StoreRedis: true,
}

func (c *Config) validate(path string) error {
	for i, cat := range c.Catalogs {
		if cat == "" {
			return fmt.Errorf("%s: catalogs[%d]: empty path", path, i)
		}
		if !hasCatalogExt(cat) {
			return fmt.Errorf("%s: catalogs[%d]: %q is not a YAML file", path, i, cat)
		}
	}
	for i, alg := range c.Algorithms {
		if alg == "" {
			return fmt.Errorf("%s: algorithms[%d]: empty path", path, i)
		}
	}
	if !validStores[c.Store.Kind] {
		return fmt.Errorf("%s: store: unknown kind %q", path, c.Store.Kind)
	}
	if c.Store.DB < 0 {
		return fmt.Errorf("%s: store: db must not be negative", path)
	}
	if c.Store.TTL < 0 {
		return fmt.Errorf("%s: store: ttl must not be negative", path)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("%s: concurrency must not be negative", path)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func hasCatalogExt(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range CatalogFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (c *Config) setDefaults() {
	if c.Store.Kind == "" {
		c.Store.Kind = StoreNone
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultSQLitePath
	}
	if c.Store.Addr == "" {
		c.Store.Addr = DefaultRedisAddr
	}
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Server.GRPCAddr == "" {
		c.Server.GRPCAddr = DefaultGRPCAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// ApplyEnv overrides the configuration from CONCEPTS_* environment
// variables. lookup is os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvStore); ok {
		if !validStores[v] {
			return fmt.Errorf("%s: unknown store kind %q", EnvStore, v)
		}
		c.Store.Kind = v
	}
	if v, ok := lookup(EnvSQLitePath); ok && v != "" {
		c.Store.Path = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Store.Addr = v
	}
	if v, ok := lookup(EnvRedisPass); ok {
		c.Store.Password = v
	}
	if v, ok := lookup(EnvHTTPAddr); ok && v != "" {
		c.Server.HTTPAddr = v
	}
	if v, ok := lookup(EnvGRPCAddr); ok && v != "" {
		c.Server.GRPCAddr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		if _, err := ParseLevel(v); err != nil {
			return fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		c.LogLevel = v
	}
	if v, ok := lookup(EnvConcurrency); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("%s: invalid concurrency %q", EnvConcurrency, v)
		}
		c.Concurrency = n
	}
	return nil
}

// Resolve makes a path from the configuration absolute.
func (c *Config) Resolve(path string) string {
	if filepath.IsAbs(path) || c.Dir == "" {
		return path
	}
	return filepath.Join(c.Dir, path)
}

// CatalogPaths returns the catalog files, resolved.
func (c *Config) CatalogPaths() []string {
	out := make([]string, len(c.Catalogs))
	for i, p := range c.Catalogs {
		out[i] = c.Resolve(p)
	}
	return out
}

// AlgorithmPaths returns the algorithm files, resolved.
func (c *Config) AlgorithmPaths() []string {
	out := make([]string, len(c.Algorithms))
	for i, p := range c.Algorithms {
		out[i] = c.Resolve(p)
	}
	return out
}

// ParseLevel maps a log level name to slog. The empty string is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}
