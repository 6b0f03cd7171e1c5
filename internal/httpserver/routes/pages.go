package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/recall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/recall/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/recall/internal/httpserver/mw"
)

func init() { Register("pages", registerPages) }

func registerPages(r chi.Router, d deps.Deps) {
	host := mw.EnforceHost(d.AllowedHosts, d.Logger)
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateBurst,
		RefillPerIPPerMin: d.RateRefill,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
	})

	r.With(host).Get("/", handlers.Index(d))
	r.With(host, limit).Post("/bookmarks", handlers.SubmitBookmark(d))
	r.With(host, limit).Post("/bookmarks/{id}/delete", handlers.DeleteBookmark(d))
}
