package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jamezpolley/stashboard/internal/httpserver/deps"
	"github.com/jamezpolley/stashboard/internal/logger"
)

const readyzPingTimeout = 2 * time.Second

type componentStatus struct {
	OK      bool   `json:"ok"`
	Backend string `json:"backend,omitempty"`
	Error   string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz reports whether the backing store answers. The notification
// transport is listed for information only.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := checkStore(r.Context(), d)

		status := http.StatusOK
		if !store.OK {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, readyzResponse{
			Ready: store.OK,
			Components: map[string]componentStatus{
				"store":     store,
				"transport": {OK: true, Backend: d.TransportName},
			},
		})
	}
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	if d.StorePinger == nil {
		return componentStatus{OK: true, Backend: d.StoreName}
	}

	ctx, cancel := context.WithTimeout(ctx, readyzPingTimeout)
	defer cancel()

	if err := d.StorePinger.Ping(ctx); err != nil {
		d.Logger.Warn("readiness check failed",
			logger.String("backend", d.StoreName),
			logger.Error(err))
		return componentStatus{OK: false, Backend: d.StoreName, Error: "unreachable"}
	}
	return componentStatus{OK: true, Backend: d.StoreName}
}
