package localstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/storage"
)

const (
	CartKey       = "fashion_cart_v1"
	FavouritesKey = "favourites"
	SessionKey    = "session_cookies"
)

// SchemaVersion is written into every saved envelope. Version 1 is the
// legacy bare JSON array.
const SchemaVersion = 2

// Origin records who produced the stored list. Legacy arrays and
// envelopes without an origin read as OriginLocal.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginServer Origin = "server"
)

type envelope[T any] struct {
	SchemaVersion int    `json:"schema_version"`
	Origin        Origin `json:"origin,omitempty"`
	Items         []T    `json:"items"`
}

// ListStore persists one list under one key. Reads never fail and writes
// never propagate errors: both are logged and counted instead.
type ListStore[T any] struct {
	kv      storage.KV
	key     string
	logg    *logger.Logger
	metrics *metrics.ClientMetrics
}

func New[T any](kv storage.KV, key string, logg *logger.Logger, m *metrics.ClientMetrics) *ListStore[T] {
	if logg == nil {
		logg = logger.Nop()
	}
	return &ListStore[T]{kv: kv, key: key, logg: logg, metrics: m}
}

func (s *ListStore[T]) Key() string {
	return s.key
}

// Load returns the stored list, or an empty one when the key is missing,
// unreadable or written by an unknown schema version.
func (s *ListStore[T]) Load(ctx context.Context) []T {
	items, _ := s.LoadWithOrigin(ctx)
	return items
}

// LoadWithOrigin is Load plus the origin recorded by the last save.
func (s *ListStore[T]) LoadWithOrigin(ctx context.Context) ([]T, Origin) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return []T{}, OriginLocal
	}
	if err != nil {
		s.fail(ctx, "load", "could not read local state", err)
		return []T{}, OriginLocal
	}

	env, err := decode[T](raw)
	if err != nil {
		s.fail(ctx, "load", "discarding unreadable local state", err)
		return []T{}, OriginLocal
	}
	return env.Items, env.Origin
}

// Save overwrites the stored list as locally produced.
func (s *ListStore[T]) Save(ctx context.Context, items []T) {
	s.SaveWithOrigin(ctx, items, OriginLocal)
}

// SaveWithOrigin overwrites the stored list and records its origin.
func (s *ListStore[T]) SaveWithOrigin(ctx context.Context, items []T, origin Origin) {
	if items == nil {
		items = []T{}
	}
	if origin == "" {
		origin = OriginLocal
	}
	raw, err := json.Marshal(envelope[T]{SchemaVersion: SchemaVersion, Origin: origin, Items: items})
	if err != nil {
		s.fail(ctx, "save", "could not encode local state", err)
		return
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		s.fail(ctx, "save", "could not save local state", err)
	}
}

// Clear removes the key. Clearing a missing key is a no-op.
func (s *ListStore[T]) Clear(ctx context.Context) {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		s.fail(ctx, "clear", "could not clear local state", err)
	}
}

func (s *ListStore[T]) fail(ctx context.Context, op, msg string, err error) {
	s.metrics.IncLocalStoreError(op)
	ctx = s.logg.WithFields(ctx, map[string]any{"key": s.key, "op": op})
	s.logg.Error(ctx, msg, err)
}

func decode[T any](raw []byte) (envelope[T], error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return envelope[T]{SchemaVersion: SchemaVersion, Origin: OriginLocal, Items: []T{}}, nil
	}

	if trimmed[0] == '[' {
		var legacy []T
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			return envelope[T]{}, err
		}
		return envelope[T]{SchemaVersion: 1, Origin: OriginLocal, Items: nonNil(legacy)}, nil
	}

	var env envelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return envelope[T]{}, err
	}
	if env.SchemaVersion != SchemaVersion {
		return envelope[T]{}, fmt.Errorf("unsupported schema version %d", env.SchemaVersion)
	}
	switch env.Origin {
	case OriginLocal, OriginServer:
	case "":
		env.Origin = OriginLocal
	default:
		return envelope[T]{}, fmt.Errorf("unknown origin %q", env.Origin)
	}
	env.Items = nonNil(env.Items)
	return env, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
