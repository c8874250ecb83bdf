package handlers

import (
	"net/http"

	"github.com/jamezpolley/stashboard/internal/httpserver/deps"
	"github.com/jamezpolley/stashboard/internal/logger"
)

type reloadResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Reload asks the seed reloader to re-apply the seed file.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ReloadTrigger == nil {
			writeError(w, http.StatusNotFound, "no seed file configured")
			return
		}

		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual seed reload triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, reloadResponse{Triggered: true, Message: "reload triggered"})
		default:
			d.Logger.Warn("seed reload already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, reloadResponse{Message: "reload already pending, please wait"})
		}
	}
}
