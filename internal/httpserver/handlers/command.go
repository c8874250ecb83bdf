package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jamezpolley/stashboard/internal/httpserver/deps"
)

type commandRequest struct {
	From string `json:"from"`
	Body string `json:"body"`
}

type commandResponse struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Command executes one chat message received over HTTP (webhook-style
// chat bridges) and answers with the reply.
func Command(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

		var req commandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.From) == "" {
			writeError(w, http.StatusBadRequest, "missing field: from")
			return
		}

		reply := d.Executor.Handle(r.Context(), "http", req.From, req.Body)
		writeJSON(w, http.StatusOK, commandResponse{To: reply.To, Body: reply.Body})
	}
}
