package kvstore

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/janhq/jan-imagegen/internal/domain/kv"
	"github.com/janhq/jan-imagegen/pkg/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the store selected by storage.backend. The returned closer
// releases backend connections.
func New(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (kv.Store, io.Closer, error) {
	switch cfg.Backend {
	case "memory":
		log.Debug().Msg("using in-memory storage")
		return NewMemoryStore(), nopCloser{}, nil
	case "redis":
		store, err := NewRedisStore(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Str("prefix", cfg.RedisPrefix).Msg("using redis storage")
		return store, store, nil
	case "file", "":
		store, err := NewFileStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Str("path", store.Path()).Msg("using file storage")
		return store, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
