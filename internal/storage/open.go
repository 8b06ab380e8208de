// Package storage provides the networked tiktok.Store backends and picks
// one from configuration.
package storage

import (
	"context"
	"fmt"

	tiktok "github.com/RavensCloud/tiktok-stats"
	"github.com/RavensCloud/tiktok-stats/internal/config"
)

// Closer releases a store's connections.
type Closer func(ctx context.Context) error

func noClose(context.Context) error { return nil }

// Open returns the store selected by conf.Driver.
func Open(ctx context.Context, conf config.StoreConfig) (tiktok.Store, Closer, error) {
	switch conf.Driver {
	case "", "file":
		return tiktok.NewFileStore(conf.Path), noClose, nil
	case "redis":
		rdb, err := NewRedisClient(conf.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		s := NewRedisStore(rdb, conf.Redis.Key)
		return s, s.Close, nil
	case "mongo":
		s, err := ConnectMongo(ctx, conf.Mongo.URI, conf.Mongo.Database, conf.Mongo.Collection)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", conf.Driver)
	}
}
