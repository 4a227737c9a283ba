package db

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/google/uuid"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := config.DBConfig{DSN: "file:" + uuid.NewString() + "?mode=memory&cache=shared", MaxOpenConns: 1}
	client, err := New(context.Background(), config.StorageDriverSQLite, cfg, nil)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestPing(t *testing.T) {
	client := newTestClient(t)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
	if client.Driver() != config.StorageDriverSQLite {
		t.Fatalf("unexpected driver %q", client.Driver())
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	if _, err := New(context.Background(), "mysql", config.DBConfig{DSN: "x"}, nil); err == nil {
		t.Fatal("expected unsupported driver error")
	}
	if _, err := New(context.Background(), config.StorageDriverSQLite, config.DBConfig{}, nil); err == nil {
		t.Fatal("expected missing DSN error")
	}
}
