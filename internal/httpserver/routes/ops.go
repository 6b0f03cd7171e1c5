package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/recall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/recall/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/recall/internal/httpserver/mw"
)

func init() { Register("ops", registerOps) }

func registerOps(r chi.Router, d deps.Deps) {
	cidrs := mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)

	r.With(cidrs).Get("/healthz", handlers.Healthz(d))
	r.With(cidrs).Get("/readyz", handlers.Readyz(d))
	r.With(cidrs).Get("/infra", handlers.Infra(d))
	r.With(cidrs, mw.EnforceHost(d.AllowedHosts, d.Logger)).Post("/refresh", handlers.Refresh(d))
}
