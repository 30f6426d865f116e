// Package evaluations exposes the evaluation log over HTTP.
package evaluations

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kilianp07/drflex/core/scenario/logging"
)

// Path is where the handler is mounted.
const Path = "/api/evaluations"

// NewLogHandler returns an HTTP handler serving evaluation and solve records
// via GET /api/evaluations. Supported filters: start and end (RFC3339),
// appliance, sweep_id and kind. Requests must include an Authorization header with
// "Bearer <token>" when token is non-empty.
func NewLogHandler(store logging.LogStore, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		params := r.URL.Query()
		q := logging.LogQuery{
			Appliance: params.Get("appliance"),
			SweepID:   params.Get("sweep_id"),
			Kind:      params.Get("kind"),
		}
		var err error
		if q.Start, err = parseTime(params.Get("start")); err != nil {
			http.Error(w, "invalid start: "+err.Error(), http.StatusBadRequest)
			return
		}
		if q.End, err = parseTime(params.Get("end")); err != nil {
			http.Error(w, "invalid end: "+err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []logging.LogRecord{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
