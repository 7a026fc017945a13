// Package dispatch exposes the admin HTTP surface of the dispatch engine:
// manual triggering and the firing history.
package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
)

// Triggerer fires a single dispatch outside the scanner. It reports whether
// the dispatch id exists; execution failures on a known id come back as an
// error.
type Triggerer interface {
	ManualDispatch(ctx context.Context, id string) (bool, error)
}

type triggerRequest struct {
	DispatchID string `json:"dispatch_id"`
}

type triggerResponse struct {
	DispatchID string `json:"dispatch_id"`
	Fired      bool   `json:"fired"`
}

// NewTriggerHandler returns an HTTP handler accepting POST /api/dispatch/trigger
// with a JSON body {"dispatch_id": "..."}. Unknown ids yield 404; execution
// failures yield 500. Requests must include an Authorization header with
// "Bearer <token>" when token is non-empty.
func NewTriggerHandler(engine Triggerer, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req triggerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DispatchID == "" {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		found, err := engine.ManualDispatch(r.Context(), req.DispatchID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !found {
			http.Error(w, "unknown dispatch id", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(triggerResponse{DispatchID: req.DispatchID, Fired: true}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
