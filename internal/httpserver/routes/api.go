package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/jamezpolley/stashboard/internal/httpserver/deps"
	"github.com/jamezpolley/stashboard/internal/httpserver/handlers"
	"github.com/jamezpolley/stashboard/internal/httpserver/mw"
)

func init() { Register(registerAPI) }

// Chat commands are rate limited per client; every mutating route
// requires the shared token when one is configured.
func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(api chi.Router) {
		api.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))

		api.Get("/services", handlers.Services(d))
		api.Get("/subscriptions", handlers.Subscriptions(d))

		api.Group(func(priv chi.Router) {
			priv.Use(mw.RequireToken(d.APIToken, d.Logger))

			priv.With(mw.RateLimit(mw.RateLimitConfig{
				Burst:        20,
				RefillPerMin: 60,
				MaxClients:   10000,
				TrustProxy:   d.TrustProxy,
			})).Post("/command", handlers.Command(d))
			priv.Post("/notify", handlers.Notify(d))
			priv.Post("/services/{name}/events", handlers.RecordEvent(d))
			priv.Post("/reload", handlers.Reload(d))
		})
	})
}
