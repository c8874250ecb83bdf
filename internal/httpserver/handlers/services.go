package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jamezpolley/stashboard/internal/domain"
	"github.com/jamezpolley/stashboard/internal/httpserver/deps"
)

type serviceView struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Current     *domain.Event `json:"current,omitempty"`
}

// Services lists every service with its current event.
func Services(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		services, err := d.Registry.AllServices(ctx)
		if err != nil {
			internalError(w, d, "list services", err)
			return
		}

		views := make([]serviceView, 0, len(services))
		for _, svc := range services {
			ev, err := d.Registry.CurrentEvent(ctx, svc.Name)
			if err != nil {
				internalError(w, d, "current event", err)
				return
			}
			views = append(views, serviceView{Name: svc.Name, Description: svc.Description, Current: ev})
		}
		writeJSON(w, http.StatusOK, views)
	}
}

type eventRequest struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	// Start uses the event time layout; empty means now.
	Start string `json:"start,omitempty"`
}

// RecordEvent appends an event to a service. Subscribers are notified in
// the background when the service's status changes.
func RecordEvent(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

		var req eventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Status) == "" {
			writeError(w, http.StatusBadRequest, "missing field: status")
			return
		}

		var start time.Time
		if req.Start != "" {
			t, err := time.Parse(domain.EventTimeLayout, req.Start)
			if err != nil {
				writeError(w, http.StatusBadRequest, "start must look like "+domain.EventTimeLayout)
				return
			}
			start = t
		}

		ev, err := d.Updater.Record(r.Context(), chi.URLParam(r, "name"), req.Status, req.Message, start)
		switch {
		case errors.Is(err, domain.ErrServiceNotFound), errors.Is(err, domain.ErrStatusNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case err != nil:
			internalError(w, d, "record event", err)
		default:
			writeJSON(w, http.StatusCreated, ev)
		}
	}
}

// Subscriptions lists the subscriptions held by ?address=.
func Subscriptions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := strings.TrimSpace(r.URL.Query().Get("address"))
		if address == "" {
			writeError(w, http.StatusBadRequest, "missing query parameter: address")
			return
		}

		subs, err := d.Subscriptions.ListByAddress(r.Context(), domain.NormalizeAddress(address))
		if err != nil {
			internalError(w, d, "list subscriptions", err)
			return
		}
		if subs == nil {
			subs = []domain.Subscription{}
		}
		writeJSON(w, http.StatusOK, subs)
	}
}
