package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/angelmondragon/storefront/pkg/redis"
	"go.uber.org/multierr"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// KV is the string-keyed byte store backing the client-side state.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Handle owns the KV and the connections behind it.
type Handle struct {
	KV
	driver  string
	closers []func() error
}

func (h *Handle) Driver() string {
	return h.driver
}

// Close releases every underlying connection.
func (h *Handle) Close() error {
	if h == nil {
		return nil
	}
	var err error
	for i := len(h.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, h.closers[i]())
	}
	h.closers = nil
	return err
}

// Open builds the KV selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Handle, error) {
	if cfg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "config is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	driver := cfg.Storage.NormalizedDriver()
	ctx = logg.WithFields(ctx, map[string]any{"driver": driver, "namespace": cfg.Storage.Namespace})

	switch driver {
	case config.StorageDriverMemory:
		return &Handle{KV: NewMemory(), driver: driver}, nil

	case config.StorageDriverSQLite, config.StorageDriverPostgres:
		client, err := db.New(ctx, driver, cfg.DB, logg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "open sql store")
		}
		if err := migrate.MaybeRun(ctx, cfg.Storage, logg, client); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, multierr.Append(err, client.Close()), "migrate sql store")
		}
		return &Handle{
			KV:      NewSQL(client.DB(), cfg.Storage.Namespace),
			driver:  driver,
			closers: []func() error{client.Close},
		}, nil

	case config.StorageDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "open redis store")
		}
		return &Handle{
			KV:      NewRedis(client, cfg.Storage.Namespace),
			driver:  driver,
			closers: []func() error{client.Close},
		}, nil
	}

	return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported storage driver %q", cfg.Storage.Driver))
}
