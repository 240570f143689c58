// Package store persists concept verdicts across processes. Keys carry the
// universe and library fingerprints, so a store may be shared by engines
// with different catalogs without mixing their verdicts.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/funvibe/concepts/internal/concepts"
	"github.com/funvibe/concepts/internal/config"
)

// Store is a closable verdict store.
type Store interface {
	concepts.VerdictStore
	Close() error
}

// HealthChecker is implemented by stores behind a connection.
type HealthChecker interface {
	Health(ctx context.Context) error
}

var (
	_ Store         = (*Memory)(nil)
	_ Store         = (*SQLite)(nil)
	_ Store         = (*Redis)(nil)
	_ HealthChecker = (*SQLite)(nil)
	_ HealthChecker = (*Redis)(nil)
)

// Open builds the store selected by cfg. Kind "none" returns nil.
func Open(ctx context.Context, cfg config.Store, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	switch cfg.Kind {
	case "", config.StoreNone:
		return nil, nil
	case config.StoreMemory:
		return NewMemory(cfg.TTL), nil
	case config.StoreSQLite:
		s, err := OpenSQLite(ctx, cfg.Path, cfg.TTL)
		if err != nil {
			return nil, err
		}
		purged, err := s.Purge(ctx)
		if err != nil {
			s.Close()
			return nil, err
		}
		logger.Info("verdict store opened", "kind", cfg.Kind, "path", cfg.Path, "purged", purged)
		return s, nil
	case config.StoreRedis:
		s, err := DialRedis(ctx, cfg.Addr, cfg.Password, cfg.DB, cfg.TTL)
		if err != nil {
			return nil, err
		}
		logger.Info("verdict store opened", "kind", cfg.Kind, "addr", cfg.Addr)
		return s, nil
	}
	return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
}

func encode(v concepts.Verdict) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding verdict %s: %w", v.Query(), err)
	}
	return data, nil
}

func decode(key string, data []byte) (concepts.Verdict, error) {
	var v concepts.Verdict
	if err := json.Unmarshal(data, &v); err != nil {
		return concepts.Verdict{}, fmt.Errorf("decoding verdict %s: %w", key, err)
	}
	return v, nil
}
