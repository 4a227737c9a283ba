package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/sandbox"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

// NewRouter wires the sandbox storefront API. metricsHandler may be nil.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	store *sandbox.Store,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.Sandbox.AllowedOrigins),
		middleware.Session(cfg.Sandbox, logg),
	)

	r.Get("/healthz", controllers.Healthz(cfg))
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/auth/status", controllers.AuthStatus(store))
		r.Post("/login", controllers.AuthLogin(store, cfg.Sandbox, logg))
		r.Post("/register", controllers.AuthRegister(store, logg))
		r.Post("/forgot-password", controllers.AuthForgotPassword(store, logg))
		r.Post("/reset-password", controllers.AuthResetPassword(store, logg))
		r.Post("/logout", controllers.AuthLogout())

		r.Get("/products", controllers.ProductsList(store))
		r.Get("/products/{productID}", controllers.ProductGet(store, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(store))
				r.Post("/", controllers.CartAdd(store, logg))
				r.Put("/", controllers.CartUpdate(store, logg))
				r.Delete("/", controllers.CartDelete(store, logg))
				r.Post("/merge", controllers.CartMerge(store, logg))
			})

			r.Route("/favourites", func(r chi.Router) {
				r.Get("/", controllers.FavouritesList(store))
				r.Post("/", controllers.FavouritesAdd(store, logg))
				r.Delete("/{productID}", controllers.FavouritesRemove(store))
			})

			r.Post("/mpesa/stk-push", controllers.StkPush(store, logg))
		})
	})

	return r
}
