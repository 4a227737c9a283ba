package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/redis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, "fashion_cart_v1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set(ctx, "fashion_cart_v1", []byte(`[{"id":"p1-M"}]`)))
	got, err := kv.Get(ctx, "fashion_cart_v1")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"p1-M"}]`, string(got))

	require.NoError(t, kv.Set(ctx, "fashion_cart_v1", []byte(`[]`)))
	got, err = kv.Get(ctx, "fashion_cart_v1")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, kv.Delete(ctx, "fashion_cart_v1"))
	_, err = kv.Get(ctx, "fashion_cart_v1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Delete(ctx, "never-written"))
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemory())
}

func TestMemoryKVCopiesValues(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	value := []byte("abc")
	require.NoError(t, kv.Set(ctx, "k", value))
	value[0] = 'z'

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func sqliteConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{Driver: config.StorageDriverSQLite, Namespace: "default", AutoMigrate: true},
		DB:      config.DBConfig{DSN: "file:" + uuid.NewString() + "?mode=memory&cache=shared", MaxOpenConns: 1},
	}
}

func TestOpenSQLiteKV(t *testing.T) {
	handle, err := Open(context.Background(), sqliteConfig(), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })

	assert.Equal(t, config.StorageDriverSQLite, handle.Driver())
	exerciseKV(t, handle)
}

func TestSQLNamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	handle, err := Open(ctx, sqliteConfig(), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })

	sqlKV, ok := handle.KV.(*SQL)
	require.True(t, ok)
	other := NewSQL(sqlKV.db, "other")

	require.NoError(t, handle.Set(ctx, "favourites", []byte("[1]")))
	_, err = other.Get(ctx, "favourites")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenMemoryAndUnknownDriver(t *testing.T) {
	handle, err := Open(context.Background(), &config.Config{Storage: config.StorageConfig{Driver: "memory"}}, nil)
	require.NoError(t, err)
	require.NoError(t, handle.Close())

	_, err = Open(context.Background(), &config.Config{Storage: config.StorageConfig{Driver: "etcd"}}, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = Open(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestRedisKV(t *testing.T) {
	fake := newFakeRedis()
	exerciseKV(t, NewRedis(fake, "default"))
}

func TestRedisKVUsesNamespacedKeys(t *testing.T) {
	fake := newFakeRedis()
	kv := NewRedis(fake, "profile-a")
	require.NoError(t, kv.Set(context.Background(), "favourites", []byte("[]")))

	_, ok := fake.data["sf:local:profile-a:favourites"]
	assert.True(t, ok)
}

func TestRedisKVWrapsFailures(t *testing.T) {
	fake := newFakeRedis()
	fake.err = errors.New("connection refused")
	kv := NewRedis(fake, "default")

	_, err := kv.Get(context.Background(), "favourites")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStorage))
	assert.Error(t, kv.Set(context.Background(), "favourites", nil))
	assert.Error(t, kv.Delete(context.Background(), "favourites"))
}

func TestHandleCloseCollectsErrors(t *testing.T) {
	h := &Handle{closers: []func() error{
		func() error { return errors.New("first") },
		func() error { return errors.New("second") },
	}}
	err := h.Close()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "first") && strings.Contains(err.Error(), "second"))
	assert.NoError(t, h.Close())
}

type fakeRedis struct {
	data map[string]string
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.data[key]
	if !ok {
		return "", redis.ErrNil
	}
	return v, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value string) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	return nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	if f.err != nil {
		return f.err
	}
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) LocalStateKey(namespace, key string) string {
	return (&redis.Client{}).LocalStateKey(namespace, key)
}
