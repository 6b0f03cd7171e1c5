package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/recall/internal/httpserver/deps"
)

type componentStatus struct {
	OK        bool   `json:"ok"`
	Mode      string `json:"mode,omitempty"`
	Target    string `json:"target,omitempty"`
	Bookmarks *int   `json:"bookmarks,omitempty"`
	Impact    string `json:"impact,omitempty"`
	Error     string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports each component and an overall mode:
// "optimal", "degraded" (status store down) or "critical" (API down).
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		count := len(d.Bookmarks.Bookmarks())
		components := map[string]componentStatus{
			"bookmark_api": checkAPI(ctx, d),
			"status_store": checkStatusStore(ctx, d),
			"collection": {
				OK:        d.Bookmarks.Ready(),
				Bookmarks: &count,
			},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		}, d.Logger)
	}
}

func determineMode(components map[string]componentStatus) string {
	if api, ok := components["bookmark_api"]; ok && !api.OK {
		return "critical"
	}
	if store, ok := components["status_store"]; ok && !store.OK {
		return "degraded"
	}
	return "optimal"
}

func checkAPI(ctx context.Context, d deps.Deps) componentStatus {
	if d.API == nil {
		return componentStatus{OK: false, Target: d.APIBaseURL, Error: "client not initialized"}
	}
	if err := d.API.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Target: d.APIBaseURL,
			Impact: "bookmarks-unavailable",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Target: d.APIBaseURL}
}

func checkStatusStore(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: true, Mode: "memory"}
	}
	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "redis",
			Impact: "operation-status-not-recorded",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: "redis"}
}
