package main

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/internal/backend"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/favourites"
	"github.com/angelmondragon/storefront/internal/localstore"
	"github.com/angelmondragon/storefront/internal/notifications"
	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/storage"
	"github.com/angelmondragon/storefront/pkg/types"
)

// app is one page session: every collaborator shares the same backend
// client, auth probe and local store.
type app struct {
	cfg      *config.Config
	logg     *logger.Logger
	registry *prometheus.Registry
	handle   *storage.Handle

	client     *backend.Client
	probe      *auth.Probe
	auth       *auth.Service
	cart       *cart.Engine
	favourites *favourites.Service
	page       *products.Page
	checkout   *checkout.Service
}

// trackingNotifier remembers whether an error was already shown.
type trackingNotifier struct {
	next   notifications.Multi
	errors atomic.Int32
}

func (n *trackingNotifier) Notify(ctx context.Context, note notifications.Notification) {
	if note.Level == notifications.LevelError {
		n.errors.Add(1)
	}
	n.next.Notify(ctx, note)
}

func (n *trackingNotifier) reported() bool {
	return n.errors.Load() > 0
}

func newApp(ctx context.Context, cfg *config.Config, stderr io.Writer, notifier notifications.Notifier) (*app, error) {
	logg := logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
		Output:      stderr,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"backend": cfg.Backend.BaseURL,
		"storage": cfg.Storage.NormalizedDriver(),
		"profile": cfg.Storage.Namespace,
	})

	registry := prometheus.NewRegistry()
	clientMetrics := metrics.NewClientMetrics(registry)

	handle, err := storage.Open(ctx, cfg, logg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logg: logg, registry: registry, handle: handle}
	if err := a.wire(ctx, clientMetrics, notifier); err != nil {
		_ = handle.Close()
		return nil, err
	}
	logg.Debug(ctx, "session ready")
	return a, nil
}

func (a *app) wire(ctx context.Context, m *metrics.ClientMetrics, notifier notifications.Notifier) error {
	var err error
	a.client, err = backend.NewClient(ctx, a.cfg.Backend,
		backend.WithSessionStore(a.handle),
		backend.WithLogger(a.logg),
		backend.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	a.probe = auth.NewProbe(a.client, a.logg)
	a.auth, err = auth.NewService(auth.ServiceParams{
		API:      a.client,
		Probe:    a.probe,
		Notifier: notifier,
		Logger:   a.logg,
	})
	if err != nil {
		return err
	}

	a.cart, err = cart.NewEngine(cart.EngineParams{
		API:      a.client,
		Auth:     a.probe,
		Store:    localstore.New[cart.Line](a.handle, localstore.CartKey, a.logg, m),
		Notifier: notifier,
		Logger:   a.logg,
		Metrics:  m,
	})
	if err != nil {
		return err
	}

	a.favourites, err = favourites.NewService(favourites.ServiceParams{
		API:      a.client,
		Auth:     a.probe,
		Store:    localstore.New[favourites.Entry](a.handle, localstore.FavouritesKey, a.logg, m),
		Catalog:  a.client,
		Notifier: notifier,
		Logger:   a.logg,
	})
	if err != nil {
		return err
	}

	a.page, err = products.NewPage(products.PageParams{
		Catalog:  a.client,
		Cart:     a.cart,
		API:      a.client,
		Notifier: notifier,
		Logger:   a.logg,
	})
	if err != nil {
		return err
	}

	a.checkout, err = checkout.NewService(checkout.ServiceParams{
		API:         a.client,
		ShippingFee: types.NewMoney(a.cfg.Checkout.ShippingFee),
		Notifier:    notifier,
		Logger:      a.logg,
	})
	return err
}

func (a *app) close() error {
	if a == nil {
		return nil
	}
	return a.handle.Close()
}
