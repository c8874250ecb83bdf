package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jamezpolley/stashboard/internal/domain"
	"github.com/jamezpolley/stashboard/internal/httpserver/deps"
	"github.com/jamezpolley/stashboard/internal/logger"
	"github.com/jamezpolley/stashboard/internal/notify"
)

type notifyResponse struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// Notify tells one address that a service moved from oldstatus to its
// current status. Form fields: address, service, oldstatus.
func Notify(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form body")
			return
		}

		fields := map[string]string{}
		for _, name := range []string{"address", "service", "oldstatus"} {
			v := strings.TrimSpace(r.FormValue(name))
			if v == "" {
				writeError(w, http.StatusBadRequest, "missing field: "+name)
				return
			}
			fields[name] = v
		}

		ctx := r.Context()
		svc, err := d.Registry.GetService(ctx, fields["service"])
		if errors.Is(err, domain.ErrServiceNotFound) {
			writeError(w, http.StatusNotFound, "unknown service: "+fields["service"])
			return
		}
		if err != nil {
			internalError(w, d, "notify: get service", err)
			return
		}

		oldStatus, err := d.Registry.GetStatus(ctx, fields["oldstatus"])
		if errors.Is(err, domain.ErrStatusNotFound) {
			writeError(w, http.StatusNotFound, "unknown status: "+fields["oldstatus"])
			return
		}
		if err != nil {
			internalError(w, d, "notify: get status", err)
			return
		}

		change := notify.Change{Service: svc, OldStatus: oldStatus}
		current, err := d.Registry.CurrentEvent(ctx, svc.Name)
		if err != nil {
			internalError(w, d, "notify: current event", err)
			return
		}
		if current != nil {
			change.NewEvent = current
			if st, err := d.Registry.GetStatus(ctx, current.Status); err == nil {
				change.NewStatus = st
			}
		}

		msg := d.Dispatcher.Message(change)
		res := d.Dispatcher.NotifyAddress(ctx, fields["address"], msg)
		resp := notifyResponse{Address: fields["address"], Message: msg, Delivered: res.Delivered()}
		if !res.Delivered() {
			resp.Error = res.Err.Error()
			writeJSON(w, http.StatusBadGateway, resp)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func internalError(w http.ResponseWriter, d deps.Deps, op string, err error) {
	d.Logger.Error("request failed", logger.String("op", op), logger.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
