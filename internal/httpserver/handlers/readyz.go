package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/recall/internal/httpserver/deps"
)

const checkTimeout = 2 * time.Second

type readyzResponse struct {
	Ready   bool     `json:"ready"`
	Reasons []string `json:"reasons,omitempty"`
}

// Readyz reports ready once a fetch has succeeded and, when configured,
// redis answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reasons []string

		if !d.Bookmarks.Ready() {
			reasons = append(reasons, "bookmarks not fetched yet")
		}
		if d.RedisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			err := d.RedisClient.Ping(ctx).Err()
			cancel()
			if err != nil {
				reasons = append(reasons, "redis unreachable")
			}
		}

		status := http.StatusOK
		if len(reasons) > 0 {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, readyzResponse{Ready: len(reasons) == 0, Reasons: reasons}, d.Logger)
	}
}
