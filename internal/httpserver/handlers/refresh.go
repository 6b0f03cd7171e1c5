package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/recall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/recall/internal/logger"
	"github.com/MrSnakeDoc/recall/internal/utils"
)

// Refresh asks the background refresher for an immediate refetch.
func Refresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := utils.ClientIP(r, d.TrustProxy)

		select {
		case d.RefreshTrigger <- struct{}{}:
			d.Logger.Info("manual refresh triggered via endpoint", logger.String("client_ip", ip))
			w.WriteHeader(http.StatusAccepted)
			if _, err := w.Write([]byte("✅ Refresh triggered successfully\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		default:
			d.Logger.Warn("refresh already pending", logger.String("client_ip", ip))
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := w.Write([]byte("⏳ Refresh already pending, please wait\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		}
	}
}
