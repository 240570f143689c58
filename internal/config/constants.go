package config

// ConfigFileName is the project configuration discovered by FindConfig.
const ConfigFileName = "conceptcheck.yaml"

// CatalogFileExtensions are the recognised catalog and algorithm file extensions.
var CatalogFileExtensions = []string{".yaml", ".yml"}

// NoColor disables coloured terminal output.
// This is set once at startup from the --no-color flag or NO_COLOR.
var NoColor = false

// Store kinds
const (
	StoreNone   = "none"
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Defaults
const (
	DefaultHTTPAddr   = ":8080"
	DefaultGRPCAddr   = ":9090"
	DefaultSQLitePath = ".conceptcheck/verdicts.db"
	DefaultRedisAddr  = "localhost:6379"
	DefaultLogLevel   = "info"
	RedisKeyPrefix    = "concepts:verdict:"
)

// Environment variables
const (
	EnvPrefix      = "CONCEPTS_"
	EnvStore       = EnvPrefix + "STORE"
	EnvSQLitePath  = EnvPrefix + "SQLITE_PATH"
	EnvRedisAddr   = EnvPrefix + "REDIS_ADDR"
	EnvRedisPass   = EnvPrefix + "REDIS_PASSWORD"
	EnvHTTPAddr    = EnvPrefix + "HTTP_ADDR"
	EnvGRPCAddr    = EnvPrefix + "GRPC_ADDR"
	EnvLogLevel    = EnvPrefix + "LOG_LEVEL"
	EnvConcurrency = EnvPrefix + "CONCURRENCY"
)
