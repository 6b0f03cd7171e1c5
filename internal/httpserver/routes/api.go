package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/recall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/recall/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/recall/internal/httpserver/mw"
)

func init() { Register("api", registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateBurst,
		RefillPerIPPerMin: d.RateRefill,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(mw.CORS(d.CORSOrigins))

		api.Get("/bookmarks", handlers.APIListBookmarks(d))
		api.With(limit).Post("/bookmarks", handlers.APICreateBookmark(d))
		api.With(limit).Delete("/bookmarks/{id}", handlers.APIDeleteBookmark(d))
		api.Get("/status", handlers.Status(d))
		api.Get("/validate-url", handlers.ValidateURL(d))
	})
}
