package storage

import (
	"context"
	"errors"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/redis"
)

type redisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Del(ctx context.Context, keys ...string) error
	LocalStateKey(namespace, key string) string
}

// Redis stores keys under sf:local:<namespace>:<key>.
type Redis struct {
	client    redisClient
	namespace string
}

func NewRedis(client redisClient, namespace string) *Redis {
	return &Redis{client: client, namespace: namespace}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.client.LocalStateKey(r.namespace, key))
	if errors.Is(err, redis.ErrNil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "read local state")
	}
	return []byte(v), nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.client.LocalStateKey(r.namespace, key), string(value)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "write local state")
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.client.LocalStateKey(r.namespace, key)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "delete local state")
	}
	return nil
}
